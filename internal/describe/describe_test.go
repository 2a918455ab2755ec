package describe

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/sightread/internal/metrics"
	"github.com/jackzampolin/sightread/internal/providers"
)

var testImage = base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))

func catAnalysis() *providers.ImageAnalysis {
	return &providers.ImageAnalysis{
		Caption: &providers.Caption{Text: "A cat", Confidence: 0.9},
		Read: &providers.ReadResult{Blocks: []providers.Block{{
			Lines: []providers.Line{{
				Text: "MEOW NOW",
				Words: []providers.Word{
					{Text: "MEOW", Confidence: 0.95},
					{Text: "NOW", Confidence: 0.9},
				},
			}},
		}}},
	}
}

type fixture struct {
	vision      *providers.MockVisionProvider
	translation *providers.MockTranslationProvider
	speech      *providers.MockSpeechProvider
	pipeline    *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		vision:      providers.NewMockVisionProvider(),
		translation: providers.NewMockTranslationProvider(),
		speech:      providers.NewMockSpeechProvider(),
	}
	f.vision.Result = catAnalysis()
	f.translation.Translations = []providers.Translation{{Text: "Seekor kucing", To: "id"}}

	p, err := New(Config{
		Vision:      f.vision,
		Translation: f.translation,
		Speech:      f.speech,
	})
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func TestNew_RequiresVision(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestRun_AnalysisOnly(t *testing.T) {
	f := newFixture(t)

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{})
	require.NoError(t, err)

	assert.Equal(t, `A cat and some text that says "MEOW NOW"`, resp.Text)
	assert.Nil(t, resp.Translation)
	assert.Nil(t, resp.Audio)
	assert.Equal(t, []byte("fake-png-bytes"), f.vision.LastImage())
	assert.Zero(t, f.translation.RequestCount())
	assert.Zero(t, f.speech.RequestCount())
}

func TestRun_Translate(t *testing.T) {
	f := newFixture(t)

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true})
	require.NoError(t, err)

	require.NotNil(t, resp.Translation)
	assert.Equal(t, "Seekor kucing", *resp.Translation)
	assert.Nil(t, resp.Audio)

	req := f.translation.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, resp.Text, req.Text)
	assert.Equal(t, "en", req.From)
	assert.Equal(t, "id", req.To)
}

func TestRun_TranslateUsesFirstResult(t *testing.T) {
	f := newFixture(t)
	f.translation.Translations = []providers.Translation{
		{Text: "first", To: "id"},
		{Text: "second", To: "id"},
	}

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true})
	require.NoError(t, err)
	assert.Equal(t, "first", *resp.Translation)
}

func TestRun_FullPipeline(t *testing.T) {
	f := newFixture(t)

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true, Speak: true})
	require.NoError(t, err)

	require.NotNil(t, resp.Audio)
	audio, err := base64.StdEncoding.DecodeString(*resp.Audio)
	require.NoError(t, err)
	assert.Equal(t, []byte("mock-audio"), audio)

	req := f.speech.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "Seekor kucing", req.Text)
	assert.Equal(t, "id-ID-GadisNeural", req.Voice)
}

func TestRun_InvalidBase64(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Run(context.Background(), "not base64!!", Stages{Translate: true, Speak: true})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.vision.RequestCount())
}

func TestDecodeImage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{name: "plain", in: "aGVsbG8=", want: []byte("hello")},
		{name: "embedded space", in: "aGVs bG8=", want: []byte("hello")},
		{name: "line breaks", in: "aGVs\r\nbG8=", want: []byte("hello")},
		{name: "non-alphabet bytes", in: "aG*Vs!bG8=", want: []byte("hello")},
		{name: "only junk", in: "%%%", want: []byte{}},
		{name: "missing padding", in: "aGVsbG8", wantErr: true},
		{name: "dangling character", in: "not base64!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeImage(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_EmptyImage(t *testing.T) {
	f := newFixture(t)
	f.vision.Result = &providers.ImageAnalysis{}

	resp, err := f.pipeline.Run(context.Background(), "", Stages{})
	require.NoError(t, err)
	assert.Nil(t, resp.Caption)
	assert.Empty(t, resp.Read)
	assert.Equal(t, "", resp.Text)
}

func TestRun_VisionFailure(t *testing.T) {
	f := newFixture(t)
	f.vision.ShouldFail = true

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true})
	assert.Nil(t, resp)

	ue, ok := IsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, StageVision, ue.Stage)
	assert.Equal(t, providers.MockVisionName, ue.Provider)
	assert.Zero(t, f.translation.RequestCount())
}

func TestRun_TranslationFailure(t *testing.T) {
	f := newFixture(t)
	f.translation.ShouldFail = true
	f.translation.Err = &providers.ProviderError{Provider: "mock-translation", StatusCode: 401, Message: "Access denied"}

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true, Speak: true})
	assert.Nil(t, resp)

	ue, ok := IsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, StageTranslation, ue.Stage)
	pe, ok := providers.IsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, 401, pe.StatusCode)
	assert.Zero(t, f.speech.RequestCount())
}

func TestRun_ZeroTranslations(t *testing.T) {
	f := newFixture(t)
	f.translation.Empty = true

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true, Speak: true})
	require.NoError(t, err)
	assert.Nil(t, resp.Translation)
	assert.Nil(t, resp.Audio)
	assert.Zero(t, f.speech.RequestCount())
}

func TestRun_SynthesisCanceled(t *testing.T) {
	f := newFixture(t)
	f.speech.Cancel = true

	resp, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true, Speak: true})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
}

func TestRun_SynthesisError(t *testing.T) {
	f := newFixture(t)
	f.speech.ShouldFail = true

	_, err := f.pipeline.Run(context.Background(), testImage, Stages{Translate: true, Speak: true})
	ue, ok := IsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, StageSpeech, ue.Stage)
	assert.False(t, errors.Is(err, ErrSynthesisFailed))
}

func TestRun_MissingStageProvider(t *testing.T) {
	p, err := New(Config{Vision: providers.NewMockVisionProvider()})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), testImage, Stages{Translate: true})
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = p.Run(context.Background(), testImage, Stages{Speak: true})
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = p.Run(context.Background(), testImage, Stages{})
	assert.NoError(t, err)
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, testImage, Stages{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsStageMetrics(t *testing.T) {
	rec := metrics.NewRecorder(prometheus.NewRegistry())
	f := newFixture(t)
	p, err := New(Config{
		Vision:      f.vision,
		Translation: f.translation,
		Speech:      f.speech,
		Metrics:     rec,
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), testImage, Stages{Translate: true, Speak: true})
	require.NoError(t, err)

	for _, stage := range []struct{ name, provider string }{
		{StageVision, providers.MockVisionName},
		{StageTranslation, providers.MockTranslationName},
		{StageSpeech, providers.MockSpeechName},
	} {
		got := testutil.ToFloat64(rec.StageTotal.WithLabelValues(stage.name, stage.provider, metrics.ResultSuccess))
		assert.Equal(t, float64(1), got, stage.name)
	}
}

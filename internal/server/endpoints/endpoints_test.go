package endpoints

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/sightread/internal/api"
	"github.com/jackzampolin/sightread/internal/providers"
	"github.com/jackzampolin/sightread/internal/svcctx"
	"github.com/jackzampolin/sightread/internal/testutil"
)

// newHandler routes all endpoints with services injected, as the server does.
func newHandler(svcs *svcctx.Services, g prometheus.Gatherer) http.Handler {
	registry := api.NewRegistry(All(Config{Gatherer: g})...)
	mux := http.NewServeMux()
	registry.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc { return h })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), svcs)))
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got), "body: %s", w.Body.String())
	return got
}

func imageBody(data string) string {
	return `{"base64_image": "` + base64.StdEncoding.EncodeToString([]byte(data)) + `"}`
}

func catAnalysis() *providers.ImageAnalysis {
	return &providers.ImageAnalysis{
		Caption: &providers.Caption{Text: "A cat", Confidence: 0.98766},
		Read: &providers.ReadResult{Blocks: []providers.Block{
			{Lines: []providers.Line{{
				Text:            "MEOW NOW",
				BoundingPolygon: providers.Polygon{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: 4}, {X: 1, Y: 4}},
				Words: []providers.Word{
					{Text: "MEOW", Confidence: 0.95},
					{Text: "NOW", Confidence: 0.9},
					{Text: "maybe", Confidence: 0.8},
				},
			}}},
			{Lines: []providers.Line{{Text: "second block"}}},
		}},
	}
}

func setup(t *testing.T, configYAML string) (http.Handler, *testutil.Mocks) {
	t.Helper()
	svcs, mocks, reg := testutil.NewServices(t, configYAML)
	mocks.Vision.Result = catAnalysis()
	mocks.Translation.Translations = []providers.Translation{{Text: "Seekor kucing", To: "id"}}
	return newHandler(svcs, reg), mocks
}

func TestRoot(t *testing.T) {
	h, _ := setup(t, "")

	w := do(t, h, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"Hello":"World"}`, w.Body.String())

	w = do(t, h, "GET", "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	h, _ := setup(t, "")

	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("providers registered", func(t *testing.T) {
		h, _ := setup(t, "")
		w := do(t, h, "GET", "/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
		got := decodeBody(t, w)
		assert.Equal(t, "ok", got["vision"])
		assert.Equal(t, "ok", got["speech"])
	})

	t.Run("vision missing", func(t *testing.T) {
		h, _ := setup(t, "pipeline:\n  vision_provider: google\n")
		w := do(t, h, "GET", "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		got := decodeBody(t, w)
		assert.Equal(t, "degraded", got["status"])
		assert.Equal(t, "not_configured", got["vision"])
	})
}

func TestStatus(t *testing.T) {
	h, _ := setup(t, "server:\n  env: staging\n")

	w := do(t, h, "GET", "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Server)
	assert.Equal(t, "staging", resp.Env)
	assert.Equal(t, "azure", resp.Pipeline.Vision)
	assert.Equal(t, "id-ID-GadisNeural", resp.Pipeline.Voice)
	assert.Equal(t, []string{"azure"}, resp.Providers.Vision)
	assert.Equal(t, []string{"azure"}, resp.Providers.Speech)
}

func TestImageAnalysis(t *testing.T) {
	h, mocks := setup(t, "")

	w := do(t, h, "POST", "/image-analysis", imageBody("png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	got := decodeBody(t, w)
	assert.Equal(t, map[string]any{"text": "A cat", "confidence": 0.9877}, got["caption"])
	assert.Equal(t, `A cat and some text that says "MEOW NOW"`, got["text"])
	assert.Equal(t, "Seekor kucing", got["translation"])
	assert.NotContains(t, got, "audio")

	read := got["read"].([]any)
	require.Len(t, read, 2)
	assert.Equal(t, "MEOW NOW", read[0].(map[string]any)["text"])
	assert.Equal(t, "second block", read[1].(map[string]any)["text"])

	assert.Equal(t, []byte("png"), mocks.Vision.LastImage())
	assert.Zero(t, mocks.Speech.RequestCount())
}

func TestImageAnalysis_TranslateDisabled(t *testing.T) {
	h, mocks := setup(t, "pipeline:\n  translate: false\n")

	w := do(t, h, "POST", "/image-analysis", imageBody("png"))
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeBody(t, w)
	assert.NotContains(t, got, "translation")
	assert.Zero(t, mocks.Translation.RequestCount())
}

func TestDescribe(t *testing.T) {
	h, mocks := setup(t, "")

	w := do(t, h, "POST", "/describe", imageBody("png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeBody(t, w)
	assert.Equal(t, "Seekor kucing", got["translation"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mock-audio")), got["audio"])

	req := mocks.Speech.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "Seekor kucing", req.Text)
	assert.Equal(t, "id-ID-GadisNeural", req.Voice)
}

func TestDescribe_ConfiguredLanguages(t *testing.T) {
	h, mocks := setup(t, "pipeline:\n  target_language: fr\n  voice: fr-FR-DeniseNeural\n")

	w := do(t, h, "POST", "/describe", imageBody("png"))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "en", mocks.Translation.LastRequest().From)
	assert.Equal(t, "fr", mocks.Translation.LastRequest().To)
	assert.Equal(t, "fr-FR-DeniseNeural", mocks.Speech.LastRequest().Voice)
}

func TestDescribe_ZeroTranslations(t *testing.T) {
	h, mocks := setup(t, "")
	mocks.Translation.Empty = true

	w := do(t, h, "POST", "/describe", imageBody("png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeBody(t, w)
	assert.Equal(t, `A cat and some text that says "MEOW NOW"`, got["text"])
	assert.NotContains(t, got, "translation")
	assert.NotContains(t, got, "audio")
	assert.Equal(t, int64(1), mocks.Translation.RequestCount())
	assert.Zero(t, mocks.Speech.RequestCount())
}

func TestImageEndpoints_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		setup      func(m *testutil.Mocks)
		wantStatus int
		wantDetail string
	}{
		{
			name:       "invalid base64",
			path:       "/image-analysis",
			body:       `{"base64_image": "not base64!!"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid image data",
		},
		{
			name:       "invalid base64 on describe",
			path:       "/describe",
			body:       `{"base64_image": "aGVsbG%%%"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid image data",
		},
		{
			name:       "missing field",
			path:       "/image-analysis",
			body:       `{"image": "aGk="}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "wrong type",
			path:       "/describe",
			body:       `{"base64_image": 42}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed JSON",
			path:       "/image-analysis",
			body:       `{"base64_image":`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "vision failure",
			path:       "/image-analysis",
			body:       imageBody("png"),
			setup:      func(m *testutil.Mocks) { m.Vision.ShouldFail = true },
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Internal Server Error",
		},
		{
			name: "translation failure",
			path: "/image-analysis",
			body: imageBody("png"),
			setup: func(m *testutil.Mocks) {
				m.Translation.ShouldFail = true
				m.Translation.Err = &providers.ProviderError{Provider: "azure-translator", StatusCode: 401, Message: "Access denied"}
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Internal Server Error",
		},
		{
			name:       "synthesis canceled",
			path:       "/describe",
			body:       imageBody("png"),
			setup:      func(m *testutil.Mocks) { m.Speech.Cancel = true },
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Failed to synthesize audio",
		},
		{
			name:       "synthesis error",
			path:       "/describe",
			body:       imageBody("png"),
			setup:      func(m *testutil.Mocks) { m.Speech.ShouldFail = true },
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks := setup(t, "")
			if tt.setup != nil {
				tt.setup(mocks)
			}

			w := do(t, h, "POST", tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			got := decodeBody(t, w)
			assert.Contains(t, got, "detail")
			assert.NotContains(t, got, "translation")
			assert.NotContains(t, got, "audio")
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, got["detail"])
			}
		})
	}
}

func TestImageEndpoints_InvalidInputSkipsProviders(t *testing.T) {
	h, mocks := setup(t, "")

	w := do(t, h, "POST", "/describe", `{"base64_image": "a***"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mocks.Vision.RequestCount())
	assert.Zero(t, mocks.Translation.RequestCount())
	assert.Zero(t, mocks.Speech.RequestCount())
}

func TestDescribe_SpeechProviderMissing(t *testing.T) {
	h, mocks := setup(t, "pipeline:\n  speech_provider: openai\n")

	w := do(t, h, "POST", "/describe", imageBody("png"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, mocks.Vision.RequestCount())

	// image-analysis does not need speech
	w = do(t, h, "POST", "/image-analysis", imageBody("png"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	h, _ := setup(t, "")

	w := do(t, h, "POST", "/describe", imageBody("png"))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `sightread_pipeline_stage_total{provider="mock-vision",result="success",stage="vision"} 1`)
	assert.Contains(t, body, `sightread_pipeline_stage_total{provider="mock-speech",result="success",stage="speech"} 1`)
}

func TestMetricsEndpoint_NoCommand(t *testing.T) {
	assert.Nil(t, (&MetricsEndpoint{}).Command(func() string { return "" }))
}

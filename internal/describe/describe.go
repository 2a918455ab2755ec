// Package describe runs the image description pipeline: vision analysis,
// optional translation of the derived summary, and optional speech synthesis
// of the translation.
package describe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/sightread/internal/metrics"
	"github.com/jackzampolin/sightread/internal/providers"
)

const (
	DefaultSourceLanguage = "en"
	DefaultTargetLanguage = "id"
	DefaultVoice          = providers.AzureSpeechDefaultVoice
)

// Stages selects the optional steps run after vision analysis.
type Stages struct {
	Translate bool
	Speak     bool
}

// Config holds the providers and settings for a Pipeline.
type Config struct {
	// Vision is required.
	Vision providers.VisionProvider

	// Translation and Speech are only required by the stages that use them.
	Translation providers.TranslationProvider
	Speech      providers.SpeechProvider

	SourceLanguage string
	TargetLanguage string
	Voice          string

	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Pipeline runs a single linear sequence of provider calls per request.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	vision      providers.VisionProvider
	translation providers.TranslationProvider
	speech      providers.SpeechProvider

	sourceLang string
	targetLang string
	voice      string

	metrics *metrics.Recorder
	logger  *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Vision == nil {
		return nil, fmt.Errorf("%s: %w", StageVision, ErrProviderUnavailable)
	}
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = DefaultSourceLanguage
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = DefaultTargetLanguage
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		vision:      cfg.Vision,
		translation: cfg.Translation,
		speech:      cfg.Speech,
		sourceLang:  cfg.SourceLanguage,
		targetLang:  cfg.TargetLanguage,
		voice:       cfg.Voice,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}, nil
}

// DecodeImage decodes a standard base64 string. Characters outside the
// base64 alphabet are discarded before decoding; padding is still enforced.
func DecodeImage(encoded string) ([]byte, error) {
	image, err := base64.StdEncoding.DecodeString(strings.Map(base64Rune, encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return image, nil
}

func base64Rune(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return r
	case r == '+', r == '/', r == '=':
		return r
	}
	return -1
}

// Run decodes the image and executes the requested stages.
// Any failure discards the work done so far; no partial response is returned.
func (p *Pipeline) Run(ctx context.Context, encodedImage string, stages Stages) (*Response, error) {
	image, err := DecodeImage(encodedImage)
	if err != nil {
		return nil, err
	}

	if stages.Translate && p.translation == nil {
		return nil, fmt.Errorf("%s: %w", StageTranslation, ErrProviderUnavailable)
	}
	if stages.Speak && p.speech == nil {
		return nil, fmt.Errorf("%s: %w", StageSpeech, ErrProviderUnavailable)
	}

	analysis, err := p.analyze(ctx, image)
	if err != nil {
		return nil, err
	}
	resp := Assemble(analysis)

	if stages.Translate {
		translation, ok, err := p.translate(ctx, resp.Text)
		if err != nil {
			return nil, err
		}
		if ok {
			resp.Translation = &translation
		}
	}

	if stages.Speak {
		if resp.Translation == nil {
			p.logger.Warn("no translation to synthesize, skipping speech")
			return resp, nil
		}
		audio, err := p.synthesize(ctx, *resp.Translation)
		if err != nil {
			return nil, err
		}
		resp.Audio = &audio
	}

	return resp, nil
}

func (p *Pipeline) analyze(ctx context.Context, image []byte) (*providers.ImageAnalysis, error) {
	start := time.Now()
	analysis, err := p.vision.Analyze(ctx, image)
	p.metrics.ObserveStage(StageVision, p.vision.Name(), err, time.Since(start))
	if err != nil {
		p.logger.Error("image analysis failed", "provider", p.vision.Name(), "error", err)
		return nil, &UpstreamError{Stage: StageVision, Provider: p.vision.Name(), Err: err}
	}
	return analysis, nil
}

// translate returns the first translation of text. ok is false when the
// provider returned no translations, which is not an error.
func (p *Pipeline) translate(ctx context.Context, text string) (string, bool, error) {
	start := time.Now()
	result, err := p.translation.Translate(ctx, &providers.TranslationRequest{
		Text: text,
		From: p.sourceLang,
		To:   p.targetLang,
	})
	p.metrics.ObserveStage(StageTranslation, p.translation.Name(), err, time.Since(start))
	if err != nil {
		if msg, ok := providers.ProviderMessage(err); ok {
			p.logger.Error("HTTP error: "+msg, "provider", p.translation.Name())
		} else {
			p.logger.Error("translation failed", "provider", p.translation.Name(), "error", err)
		}
		return "", false, &UpstreamError{Stage: StageTranslation, Provider: p.translation.Name(), Err: err}
	}

	first, ok := result.First()
	if !ok {
		p.logger.Warn("translation returned no results", "provider", p.translation.Name())
		return "", false, nil
	}
	return first.Text, true, nil
}

func (p *Pipeline) synthesize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	result, err := p.speech.Synthesize(ctx, &providers.SpeechRequest{
		Text:  text,
		Voice: p.voice,
	})
	if err == nil && !result.Completed() {
		err = ErrSynthesisFailed
	}
	p.metrics.ObserveStage(StageSpeech, p.speech.Name(), err, time.Since(start))

	switch {
	case errors.Is(err, ErrSynthesisFailed):
		details := ""
		if result != nil {
			details = result.ErrorDetails
		}
		p.logger.Error("speech synthesis did not complete", "provider", p.speech.Name(), "details", details)
		return "", ErrSynthesisFailed
	case err != nil:
		p.logger.Error("speech synthesis failed", "provider", p.speech.Name(), "error", err)
		return "", &UpstreamError{Stage: StageSpeech, Provider: p.speech.Name(), Err: err}
	}

	return base64.StdEncoding.EncodeToString(result.Audio), nil
}

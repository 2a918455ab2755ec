package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAITTSName         = "openai-tts"
	openAITTSDefaultModel = openai.SpeechModelGPT4oMiniTTS
	openAITTSDefaultVoice = "nova"
)

// OpenAITTSConfig holds configuration for the OpenAI TTS client.
type OpenAITTSConfig struct {
	APIKey       string
	Model        string        // "gpt-4o-mini-tts" (default), "tts-1", "tts-1-hd"
	Voice        string        // "nova" (default)
	Format       string        // "mp3" (default), "wav", "opus", ...
	Instructions string        // Used by gpt-4o-mini-tts
	Timeout      time.Duration // HTTP timeout
	BaseURL      string        // Optional (tests)
	HTTPClient   *http.Client  // Optional (tests)
}

// OpenAITTSClient implements SpeechProvider using the official OpenAI SDK.
type OpenAITTSClient struct {
	apiKey       string
	model        string
	voice        string
	format       openai.AudioSpeechNewParamsResponseFormat
	instructions string
	client       openai.Client
}

// NewOpenAITTSClient creates a new OpenAI TTS client.
// SDK retries are disabled; failures surface to the caller on the first attempt.
func NewOpenAITTSClient(cfg OpenAITTSConfig) *OpenAITTSClient {
	if cfg.Model == "" {
		cfg.Model = openAITTSDefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = openAITTSDefaultVoice
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAITTSClient{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		voice:        cfg.Voice,
		format:       normalizeOpenAIFormat(cfg.Format),
		instructions: cfg.Instructions,
		client:       openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAITTSClient) Name() string {
	return OpenAITTSName
}

// Voice returns the configured default voice.
func (c *OpenAITTSClient) Voice() string {
	return c.voice
}

// Synthesize converts text to audio using the OpenAI speech endpoint.
func (c *OpenAITTSClient) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	voice := strings.TrimSpace(req.Voice)
	if voice == "" || !isOpenAIVoice(voice) {
		// Voice names of other providers (e.g. id-ID-GadisNeural) do not apply here.
		voice = c.voice
	}

	result := &SpeechResult{
		Provider:  OpenAITTSName,
		Voice:     voice,
		Format:    openAIResultFormat(c.format),
		CharCount: len(text),
	}
	if text == "" {
		result.Reason = SynthesisCanceled
		result.ErrorDetails = "text is required"
		result.ExecutionTime = time.Since(start)
		return result, nil
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: c.format,
	}
	if c.instructions != "" && supportsInstructions(c.model) {
		params.Instructions = openai.String(c.instructions)
	}

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading openai audio response: %w", err)
	}

	result.Reason = SynthesisCompleted
	result.Audio = audio
	result.ExecutionTime = time.Since(start)
	return result, nil
}

var openAIVoices = map[string]bool{
	"alloy": true, "ash": true, "ballad": true, "coral": true, "echo": true,
	"fable": true, "nova": true, "onyx": true, "sage": true, "shimmer": true,
	"verse": true, "marin": true, "cedar": true,
}

func isOpenAIVoice(voice string) bool {
	return openAIVoices[strings.ToLower(voice)]
}

func supportsInstructions(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "gpt-4o-mini-tts")
}

func normalizeOpenAIFormat(format string) openai.AudioSpeechNewParamsResponseFormat {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "opus":
		return openai.AudioSpeechNewParamsResponseFormatOpus
	case "aac":
		return openai.AudioSpeechNewParamsResponseFormatAAC
	case "flac":
		return openai.AudioSpeechNewParamsResponseFormatFLAC
	case "wav":
		return openai.AudioSpeechNewParamsResponseFormatWAV
	case "pcm":
		return openai.AudioSpeechNewParamsResponseFormatPCM
	default:
		return openai.AudioSpeechNewParamsResponseFormatMP3
	}
}

func openAIResultFormat(format openai.AudioSpeechNewParamsResponseFormat) string {
	switch format {
	case openai.AudioSpeechNewParamsResponseFormatOpus:
		return "opus"
	case openai.AudioSpeechNewParamsResponseFormatAAC:
		return "aac"
	case openai.AudioSpeechNewParamsResponseFormatFLAC:
		return "flac"
	case openai.AudioSpeechNewParamsResponseFormatWAV:
		return "wav"
	case openai.AudioSpeechNewParamsResponseFormatPCM:
		return "pcm"
	default:
		return "mp3"
	}
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   OpenAITTSName,
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}

var _ SpeechProvider = (*OpenAITTSClient)(nil)

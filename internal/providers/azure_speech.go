package providers

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	AzureSpeechName         = "azure-speech"
	AzureSpeechDefaultVoice = "id-ID-GadisNeural"

	// Same format the Speech SDK produces when no audio output is configured.
	azureSpeechOutputFormat = "riff-16khz-16bit-mono-pcm"
	azureSpeechUserAgent    = "sightread"
)

// AzureSpeechConfig holds configuration for the Azure Speech TTS client.
type AzureSpeechConfig struct {
	APIKey     string
	Region     string // Builds the default endpoint
	Endpoint   string // Optional override of the full synthesis URL
	Voice      string // Default voice (default: id-ID-GadisNeural)
	Format     string // X-Microsoft-OutputFormat value
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// AzureSpeechClient implements SpeechProvider using the Azure Speech REST API.
type AzureSpeechClient struct {
	apiKey   string
	region   string
	endpoint string
	voice    string
	format   string
	client   *http.Client
}

// NewAzureSpeechClient creates a new Azure Speech client.
func NewAzureSpeechClient(cfg AzureSpeechConfig) *AzureSpeechClient {
	if cfg.Endpoint == "" && cfg.Region != "" {
		cfg.Endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}
	if cfg.Voice == "" {
		cfg.Voice = AzureSpeechDefaultVoice
	}
	if cfg.Format == "" {
		cfg.Format = azureSpeechOutputFormat
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &AzureSpeechClient{
		apiKey:   cfg.APIKey,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		voice:    cfg.Voice,
		format:   cfg.Format,
		client:   httpClient,
	}
}

// Name returns the provider identifier.
func (c *AzureSpeechClient) Name() string {
	return AzureSpeechName
}

// Voice returns the configured default voice.
func (c *AzureSpeechClient) Voice() string {
	return c.voice
}

// Synthesize converts text to audio. Service and transport failures end the
// synthesis as canceled rather than returning an error; only a cancelled
// context or a bad request is reported as an error.
func (c *AzureSpeechClient) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()

	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = c.voice
	}

	result := &SpeechResult{
		Provider:  AzureSpeechName,
		Voice:     voice,
		Format:    "wav",
		CharCount: len(req.Text),
	}
	canceled := func(details string) (*SpeechResult, error) {
		result.Reason = SynthesisCanceled
		result.ErrorDetails = details
		result.ExecutionTime = time.Since(start)
		return result, nil
	}

	if c.endpoint == "" {
		return canceled("speech region is not configured")
	}

	ssml, err := buildSSML(req.Text, voice)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", c.format)
	httpReq.Header.Set("User-Agent", azureSpeechUserAgent)
	httpReq.Header.Set(azureKeyHeader, c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return canceled(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return canceled(fmt.Sprintf("failed reading audio response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		details := strings.TrimSpace(string(audio))
		if details == "" {
			details = http.StatusText(resp.StatusCode)
		}
		return canceled(fmt.Sprintf("status %d: %s", resp.StatusCode, details))
	}

	result.Reason = SynthesisCompleted
	result.Audio = audio
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// buildSSML wraps text in a single-voice SSML document.
func buildSSML(text, voice string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`, voiceLocale(voice))
	buf.WriteString(`<voice name="`)
	if err := xml.EscapeText(&buf, []byte(voice)); err != nil {
		return nil, fmt.Errorf("failed to escape voice: %w", err)
	}
	buf.WriteString(`">`)
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return nil, fmt.Errorf("failed to escape text: %w", err)
	}
	buf.WriteString(`</voice></speak>`)
	return buf.Bytes(), nil
}

// voiceLocale derives the locale from a voice name: "id-ID-GadisNeural" -> "id-ID".
func voiceLocale(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// Verify interface
var _ SpeechProvider = (*AzureSpeechClient)(nil)

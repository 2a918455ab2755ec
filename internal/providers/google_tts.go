package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

const (
	GoogleTTSName         = "google-tts"
	GoogleTTSDefaultVoice = "id-ID-Standard-A"
)

// GoogleTTSConfig holds configuration for the Google Cloud Text-to-Speech client.
type GoogleTTSConfig struct {
	APIKey          string
	CredentialsFile string
	Endpoint        string // gRPC host:port override
	Voice           string // Default voice (default: id-ID-Standard-A)
	SpeakingRate    float64
}

// GoogleTTSClient implements SpeechProvider using Google Cloud Text-to-Speech.
type GoogleTTSClient struct {
	client       *texttospeech.Client
	voice        string
	speakingRate float64
}

// NewGoogleTTSClient creates a new Google Cloud Text-to-Speech client.
func NewGoogleTTSClient(ctx context.Context, cfg GoogleTTSConfig) (*GoogleTTSClient, error) {
	if cfg.Voice == "" {
		cfg.Voice = GoogleTTSDefaultVoice
	}
	if cfg.SpeakingRate <= 0 {
		cfg.SpeakingRate = 1.0
	}

	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	return &GoogleTTSClient{
		client:       client,
		voice:        cfg.Voice,
		speakingRate: cfg.SpeakingRate,
	}, nil
}

// Name returns the provider identifier.
func (c *GoogleTTSClient) Name() string {
	return GoogleTTSName
}

// Close releases the underlying gRPC connection.
func (c *GoogleTTSClient) Close() error {
	return c.client.Close()
}

// Synthesize converts text to MP3 audio.
func (c *GoogleTTSClient) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()

	voice := strings.TrimSpace(req.Voice)
	if voice == "" || strings.HasSuffix(voice, "Neural") {
		// Azure voice names (id-ID-GadisNeural) do not exist here.
		voice = c.voice
	}

	resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voiceLocale(voice),
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  c.speakingRate,
		},
	})
	if err != nil {
		return nil, mapGRPCError(GoogleTTSName, err)
	}

	result := &SpeechResult{
		Provider:      GoogleTTSName,
		Voice:         voice,
		Format:        "mp3",
		CharCount:     len(req.Text),
		ExecutionTime: time.Since(start),
	}
	if len(resp.GetAudioContent()) == 0 {
		result.Reason = SynthesisCanceled
		result.ErrorDetails = "empty audio content"
		return result, nil
	}
	result.Reason = SynthesisCompleted
	result.Audio = resp.GetAudioContent()
	return result, nil
}

// mapGRPCError converts a gRPC status into a *ProviderError.
func mapGRPCError(provider string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: http.StatusBadGateway,
		Code:       st.Code().String(),
		Message:    st.Message(),
	}
}

// Verify interface
var _ SpeechProvider = (*GoogleTTSClient)(nil)

package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAzureSpeechSynthesizeSuccess(t *testing.T) {
	var ssml string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/ssml+xml" {
			t.Fatalf("unexpected content type: %q", got)
		}
		if got := r.Header.Get("X-Microsoft-OutputFormat"); got != "riff-16khz-16bit-mono-pcm" {
			t.Fatalf("unexpected output format: %q", got)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Fatalf("unexpected key header: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		ssml = string(body)
		_, _ = w.Write([]byte("RIFF-audio"))
	}))
	defer server.Close()

	client := NewAzureSpeechClient(AzureSpeechConfig{
		APIKey:   "test-key",
		Endpoint: server.URL,
	})

	result, err := client.Synthesize(context.Background(), &SpeechRequest{Text: `Kucing & "anjing"`})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !result.Completed() {
		t.Fatalf("expected completed synthesis, got %+v", result)
	}
	if string(result.Audio) != "RIFF-audio" {
		t.Errorf("unexpected audio: %q", string(result.Audio))
	}
	if result.Voice != AzureSpeechDefaultVoice {
		t.Errorf("Voice = %q, want default", result.Voice)
	}
	if !strings.Contains(ssml, `xml:lang="id-ID"`) {
		t.Errorf("ssml missing locale: %s", ssml)
	}
	if !strings.Contains(ssml, `<voice name="id-ID-GadisNeural">`) {
		t.Errorf("ssml missing voice: %s", ssml)
	}
	if !strings.Contains(ssml, "Kucing &amp; &#34;anjing&#34;") {
		t.Errorf("ssml text not escaped: %s", ssml)
	}
}

func TestAzureSpeechSynthesizeServiceFailureCancels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewAzureSpeechClient(AzureSpeechConfig{APIKey: "bad", Endpoint: server.URL})
	result, err := client.Synthesize(context.Background(), &SpeechRequest{Text: "halo"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.Completed() {
		t.Fatal("expected canceled synthesis")
	}
	if result.Reason != SynthesisCanceled {
		t.Errorf("Reason = %q", result.Reason)
	}
	if !strings.Contains(result.ErrorDetails, "status 401") {
		t.Errorf("unexpected details: %q", result.ErrorDetails)
	}
	if len(result.Audio) != 0 {
		t.Errorf("expected no audio, got %d bytes", len(result.Audio))
	}
}

func TestAzureSpeechSynthesizeNoRegion(t *testing.T) {
	client := NewAzureSpeechClient(AzureSpeechConfig{APIKey: "k"})
	result, err := client.Synthesize(context.Background(), &SpeechRequest{Text: "halo"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.Reason != SynthesisCanceled {
		t.Fatalf("expected canceled synthesis without region, got %q", result.Reason)
	}
}

func TestAzureSpeechSynthesizeContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewAzureSpeechClient(AzureSpeechConfig{APIKey: "k", Endpoint: server.URL})
	_, err := client.Synthesize(ctx, &SpeechRequest{Text: "halo"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAzureSpeechRegionEndpoint(t *testing.T) {
	client := NewAzureSpeechClient(AzureSpeechConfig{APIKey: "k", Region: "southeastasia"})
	want := "https://southeastasia.tts.speech.microsoft.com/cognitiveservices/v1"
	if client.endpoint != want {
		t.Errorf("endpoint = %q, want %q", client.endpoint, want)
	}
}

func TestVoiceLocale(t *testing.T) {
	tests := map[string]string{
		"id-ID-GadisNeural": "id-ID",
		"en-US-JennyNeural": "en-US",
		"nova":              "en-US",
	}
	for voice, want := range tests {
		if got := voiceLocale(voice); got != want {
			t.Errorf("voiceLocale(%q) = %q, want %q", voice, got, want)
		}
	}
}

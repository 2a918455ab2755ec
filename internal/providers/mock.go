package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	MockVisionName      = "mock-vision"
	MockTranslationName = "mock-translation"
	MockSpeechName      = "mock-speech"
)

// MockVisionProvider is a VisionProvider for testing.
type MockVisionProvider struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	Err        error // Returned when ShouldFail is set (default: generic error)
	Result     *ImageAnalysis

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	lastImage    []byte
}

// NewMockVisionProvider creates a mock vision provider that returns an empty analysis.
func NewMockVisionProvider() *MockVisionProvider {
	return &MockVisionProvider{
		Result: &ImageAnalysis{},
	}
}

// Name returns the provider identifier.
func (p *MockVisionProvider) Name() string {
	return MockVisionName
}

// Analyze returns the configured result.
func (p *MockVisionProvider) Analyze(ctx context.Context, image []byte) (*ImageAnalysis, error) {
	p.requestCount.Add(1)
	p.mu.Lock()
	p.lastImage = append([]byte(nil), image...)
	p.mu.Unlock()

	if err := mockWait(ctx, p.Latency); err != nil {
		return nil, err
	}
	if p.ShouldFail {
		return nil, mockErr(p.Err, MockVisionName)
	}

	var result ImageAnalysis
	if p.Result != nil {
		result = *p.Result
	}
	result.Provider = MockVisionName
	return &result, nil
}

// LastImage returns the bytes passed to the most recent Analyze call.
func (p *MockVisionProvider) LastImage() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastImage
}

// RequestCount returns the number of requests made.
func (p *MockVisionProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

// MockTranslationProvider is a TranslationProvider for testing.
// With no configured Translations it echoes the input text with a prefix.
type MockTranslationProvider struct {
	Latency      time.Duration
	ShouldFail   bool
	Err          error
	Empty        bool // Return zero translations
	Translations []Translation

	requestCount atomic.Int64
	mu           sync.Mutex
	lastRequest  *TranslationRequest
}

// NewMockTranslationProvider creates a new mock translation provider.
func NewMockTranslationProvider() *MockTranslationProvider {
	return &MockTranslationProvider{}
}

// Name returns the provider identifier.
func (p *MockTranslationProvider) Name() string {
	return MockTranslationName
}

// Translate returns the configured translations.
func (p *MockTranslationProvider) Translate(ctx context.Context, req *TranslationRequest) (*TranslationResult, error) {
	p.requestCount.Add(1)
	p.mu.Lock()
	reqCopy := *req
	p.lastRequest = &reqCopy
	p.mu.Unlock()

	if err := mockWait(ctx, p.Latency); err != nil {
		return nil, err
	}
	if p.ShouldFail {
		return nil, mockErr(p.Err, MockTranslationName)
	}

	result := &TranslationResult{Provider: MockTranslationName}
	switch {
	case p.Empty:
	case len(p.Translations) > 0:
		result.Translations = append(result.Translations, p.Translations...)
	default:
		result.Translations = []Translation{{Text: "[" + req.To + "] " + req.Text, To: req.To}}
	}
	return result, nil
}

// LastRequest returns the most recent request, or nil.
func (p *MockTranslationProvider) LastRequest() *TranslationRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// RequestCount returns the number of requests made.
func (p *MockTranslationProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

// MockSpeechProvider is a SpeechProvider for testing.
type MockSpeechProvider struct {
	Latency    time.Duration
	ShouldFail bool // Return an error
	Err        error
	Cancel     bool // Complete without error but with SynthesisCanceled
	Audio      []byte

	requestCount atomic.Int64
	mu           sync.Mutex
	lastRequest  *SpeechRequest
}

// NewMockSpeechProvider creates a mock speech provider returning fixed audio.
func NewMockSpeechProvider() *MockSpeechProvider {
	return &MockSpeechProvider{
		Audio: []byte("mock-audio"),
	}
}

// Name returns the provider identifier.
func (p *MockSpeechProvider) Name() string {
	return MockSpeechName
}

// Synthesize returns the configured audio.
func (p *MockSpeechProvider) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	p.requestCount.Add(1)
	p.mu.Lock()
	reqCopy := *req
	p.lastRequest = &reqCopy
	p.mu.Unlock()

	if err := mockWait(ctx, p.Latency); err != nil {
		return nil, err
	}
	if p.ShouldFail {
		return nil, mockErr(p.Err, MockSpeechName)
	}

	result := &SpeechResult{
		Provider:  MockSpeechName,
		Voice:     req.Voice,
		Format:    "wav",
		CharCount: len(req.Text),
	}
	if p.Cancel {
		result.Reason = SynthesisCanceled
		result.ErrorDetails = "mock synthesis canceled"
		return result, nil
	}
	result.Reason = SynthesisCompleted
	result.Audio = p.Audio
	return result, nil
}

// LastRequest returns the most recent request, or nil.
func (p *MockSpeechProvider) LastRequest() *SpeechRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// RequestCount returns the number of requests made.
func (p *MockSpeechProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

func mockWait(ctx context.Context, latency time.Duration) error {
	if latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func mockErr(err error, name string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%s configured to fail", name)
}

// Verify interfaces
var (
	_ VisionProvider      = (*MockVisionProvider)(nil)
	_ TranslationProvider = (*MockTranslationProvider)(nil)
	_ SpeechProvider      = (*MockSpeechProvider)(nil)
)

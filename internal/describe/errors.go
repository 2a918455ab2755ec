package describe

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the image is not valid base64.
	ErrInvalidInput = errors.New("invalid image data")

	// ErrSynthesisFailed is returned when speech synthesis ends without audio.
	ErrSynthesisFailed = errors.New("failed to synthesize audio")

	// ErrProviderUnavailable is returned when a stage has no provider configured.
	ErrProviderUnavailable = errors.New("provider not configured")
)

// Stage names used in errors, logs and metrics.
const (
	StageVision      = "vision"
	StageTranslation = "translation"
	StageSpeech      = "speech"
)

// UpstreamError wraps a failure returned by an external provider.
type UpstreamError struct {
	Stage    string
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s provider %s failed: %v", e.Stage, e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamError checks if an error is an UpstreamError and returns it.
func IsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

package providers

import (
	"errors"
	"fmt"
)

// ProviderError is a failure reported by an upstream provider API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error (status %d)", e.Provider, e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s error (status %d, %s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsProviderError checks if an error is a ProviderError and returns it.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ProviderMessage returns the provider's own error message, if the error
// carries one.
func ProviderMessage(err error) (string, bool) {
	pe, ok := IsProviderError(err)
	if !ok || pe.Message == "" {
		return "", false
	}
	return pe.Message, true
}

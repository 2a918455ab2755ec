package providers

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleConfig holds the shared settings for Google Cloud API clients.
type GoogleConfig struct {
	APIKey          string // API key; Application Default Credentials are used if empty
	CredentialsFile string // Optional service account file
	Endpoint        string // Optional override (tests)
	HTTPClient      *http.Client
}

// clientOptions builds option.ClientOption values from the config.
func (c GoogleConfig) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if c.APIKey != "" {
		opts = append(opts, option.WithAPIKey(c.APIKey))
	} else if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	}
	return opts
}

// mapGoogleError converts googleapi errors into a *ProviderError.
func mapGoogleError(provider string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   provider,
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	azureKeyHeader    = "Ocp-Apim-Subscription-Key"
	azureRegionHeader = "Ocp-Apim-Subscription-Region"
)

// azureErrorResponse is the error envelope shared by the Azure AI services.
// Vision returns a string code, Translator a numeric one.
type azureErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// doAzureRequest sends a request to an Azure AI services endpoint and returns
// the response body. Non-2xx responses become a *ProviderError.
func doAzureRequest(ctx context.Context, client *http.Client, provider, method, url string, headers map[string]string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
		}
		var errResp azureErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			pe.Code = strings.Trim(string(errResp.Error.Code), `"`)
			pe.Message = errResp.Error.Message
		} else {
			pe.Message = strings.TrimSpace(string(respBody))
		}
		return nil, pe
	}

	return respBody, nil
}

// joinURL appends path to base without doubling slashes.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

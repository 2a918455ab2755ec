package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	AzureTranslatorName = "azure-translator"

	// Multi-service resources expose the translator under this path.
	azureTranslatorPath       = "/translator/text/v3.0/translate"
	azureTranslatorAPIVersion = "3.0"
)

// AzureTranslatorConfig holds configuration for the Azure Translator client.
type AzureTranslatorConfig struct {
	Endpoint   string // Resource endpoint
	APIKey     string
	Region     string // Required for multi-service and regional keys
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// AzureTranslatorClient implements TranslationProvider using Azure Translator v3.
type AzureTranslatorClient struct {
	endpoint string
	apiKey   string
	region   string
	client   *http.Client
}

// NewAzureTranslatorClient creates a new Azure Translator client.
func NewAzureTranslatorClient(cfg AzureTranslatorConfig) *AzureTranslatorClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &AzureTranslatorClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		region:   cfg.Region,
		client:   httpClient,
	}
}

// Name returns the provider identifier.
func (c *AzureTranslatorClient) Name() string {
	return AzureTranslatorName
}

// Translate translates a single text.
func (c *AzureTranslatorClient) Translate(ctx context.Context, req *TranslationRequest) (*TranslationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()

	q := url.Values{}
	q.Set("api-version", azureTranslatorAPIVersion)
	q.Set("to", req.To)
	if req.From != "" {
		q.Set("from", req.From)
	}
	endpoint := joinURL(c.endpoint, azureTranslatorPath) + "?" + q.Encode()

	bodyBytes, err := json.Marshal([]azureTranslateInput{{Text: req.Text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Content-Type":    "application/json",
		azureKeyHeader:    c.apiKey,
		azureRegionHeader: c.region,
	}

	body, err := doAzureRequest(ctx, c.client, AzureTranslatorName, http.MethodPost, endpoint, headers, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}

	var items []azureTranslateItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := &TranslationResult{
		Provider:      AzureTranslatorName,
		ExecutionTime: time.Since(start),
	}
	// One input item, so only the first output item is meaningful.
	if len(items) > 0 {
		for _, t := range items[0].Translations {
			result.Translations = append(result.Translations, Translation{Text: t.Text, To: t.To})
		}
	}

	return result, nil
}

// Azure Translator API types

type azureTranslateInput struct {
	Text string `json:"Text"`
}

type azureTranslateItem struct {
	DetectedLanguage *struct {
		Language string  `json:"language"`
		Score    float64 `json:"score"`
	} `json:"detectedLanguage,omitempty"`
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Verify interface
var _ TranslationProvider = (*AzureTranslatorClient)(nil)

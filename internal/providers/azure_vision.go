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
	AzureVisionName       = "azure-vision"
	AzureVisionAPIVersion = "2024-02-01"
	azureVisionPath       = "/computervision/imageanalysis:analyze"
)

// AzureVisionConfig holds configuration for the Azure AI Vision client.
type AzureVisionConfig struct {
	Endpoint   string // e.g. https://<resource>.cognitiveservices.azure.com
	APIKey     string
	APIVersion string
	Language   string // Caption/read language (default: en)
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// AzureVisionClient implements VisionProvider using Azure AI Vision
// Image Analysis 4.0.
type AzureVisionClient struct {
	endpoint   string
	apiKey     string
	apiVersion string
	language   string
	client     *http.Client
}

// NewAzureVisionClient creates a new Azure AI Vision client.
func NewAzureVisionClient(cfg AzureVisionConfig) *AzureVisionClient {
	if cfg.APIVersion == "" {
		cfg.APIVersion = AzureVisionAPIVersion
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &AzureVisionClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		language:   cfg.Language,
		client:     httpClient,
	}
}

// Name returns the provider identifier.
func (c *AzureVisionClient) Name() string {
	return AzureVisionName
}

// Analyze requests caption and read features for an image.
func (c *AzureVisionClient) Analyze(ctx context.Context, image []byte) (*ImageAnalysis, error) {
	start := time.Now()

	q := url.Values{}
	q.Set("api-version", c.apiVersion)
	q.Set("features", "caption,read")
	q.Set("language", c.language)
	endpoint := joinURL(c.endpoint, azureVisionPath) + "?" + q.Encode()

	headers := map[string]string{
		"Content-Type": "application/octet-stream",
		azureKeyHeader: c.apiKey,
	}

	body, err := doAzureRequest(ctx, c.client, AzureVisionName, http.MethodPost, endpoint, headers, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}

	var resp azureAnalyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := &ImageAnalysis{
		Provider:      AzureVisionName,
		ModelUsed:     resp.ModelVersion,
		ImageWidth:    resp.Metadata.Width,
		ImageHeight:   resp.Metadata.Height,
		ExecutionTime: time.Since(start),
	}

	if resp.CaptionResult != nil {
		result.Caption = &Caption{
			Text:       resp.CaptionResult.Text,
			Confidence: resp.CaptionResult.Confidence,
		}
	}

	if resp.ReadResult != nil {
		read := &ReadResult{Blocks: make([]Block, 0, len(resp.ReadResult.Blocks))}
		for _, b := range resp.ReadResult.Blocks {
			block := Block{Lines: make([]Line, 0, len(b.Lines))}
			for _, l := range b.Lines {
				line := Line{
					Text:            l.Text,
					BoundingPolygon: l.BoundingPolygon,
					Words:           make([]Word, 0, len(l.Words)),
				}
				for _, w := range l.Words {
					line.Words = append(line.Words, Word{
						Text:            w.Text,
						BoundingPolygon: w.BoundingPolygon,
						Confidence:      w.Confidence,
					})
				}
				block.Lines = append(block.Lines, line)
			}
			read.Blocks = append(read.Blocks, block)
		}
		result.Read = read
	}

	return result, nil
}

// Azure Image Analysis API types

type azureAnalyzeResponse struct {
	ModelVersion  string              `json:"modelVersion"`
	CaptionResult *azureCaptionResult `json:"captionResult,omitempty"`
	ReadResult    *azureReadResult    `json:"readResult,omitempty"`
	Metadata      struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"metadata"`
}

type azureCaptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type azureReadResult struct {
	Blocks []struct {
		Lines []struct {
			Text            string  `json:"text"`
			BoundingPolygon Polygon `json:"boundingPolygon"`
			Words           []struct {
				Text            string  `json:"text"`
				BoundingPolygon Polygon `json:"boundingPolygon"`
				Confidence      float64 `json:"confidence"`
			} `json:"words"`
		} `json:"lines"`
	} `json:"blocks"`
}

// Verify interface
var _ VisionProvider = (*AzureVisionClient)(nil)

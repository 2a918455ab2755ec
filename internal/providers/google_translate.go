package providers

import (
	"context"
	"fmt"
	"html"
	"time"

	translate "google.golang.org/api/translate/v2"
)

const GoogleTranslateName = "google-translate"

// GoogleTranslateClient implements TranslationProvider using Google Cloud
// Translation (v2).
type GoogleTranslateClient struct {
	svc *translate.Service
}

// NewGoogleTranslateClient creates a new Google Cloud Translation client.
func NewGoogleTranslateClient(ctx context.Context, cfg GoogleConfig) (*GoogleTranslateClient, error) {
	svc, err := translate.NewService(ctx, cfg.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate service: %w", err)
	}
	return &GoogleTranslateClient{svc: svc}, nil
}

// Name returns the provider identifier.
func (c *GoogleTranslateClient) Name() string {
	return GoogleTranslateName
}

// Translate translates a single text.
func (c *GoogleTranslateClient) Translate(ctx context.Context, req *TranslationRequest) (*TranslationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()

	call := c.svc.Translations.List([]string{req.Text}, req.To).Format("text")
	if req.From != "" {
		call = call.Source(req.From)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(GoogleTranslateName, err)
	}

	result := &TranslationResult{
		Provider:      GoogleTranslateName,
		ExecutionTime: time.Since(start),
	}
	for _, t := range resp.Translations {
		if t == nil {
			continue
		}
		result.Translations = append(result.Translations, Translation{
			Text: html.UnescapeString(t.TranslatedText),
			To:   req.To,
		})
	}
	return result, nil
}

// Verify interface
var _ TranslationProvider = (*GoogleTranslateClient)(nil)

package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	vision "google.golang.org/api/vision/v1"
)

const GoogleVisionName = "google-vision"

// GoogleVisionClient implements VisionProvider using Google Cloud Vision.
// Document text detection supplies the read result (each paragraph becomes a
// line) and the top label stands in for the caption.
type GoogleVisionClient struct {
	svc *vision.Service
}

// NewGoogleVisionClient creates a new Google Cloud Vision client.
func NewGoogleVisionClient(ctx context.Context, cfg GoogleConfig) (*GoogleVisionClient, error) {
	svc, err := vision.NewService(ctx, cfg.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}
	return &GoogleVisionClient{svc: svc}, nil
}

// Name returns the provider identifier.
func (c *GoogleVisionClient) Name() string {
	return GoogleVisionName
}

// Analyze runs label and document text detection on an image.
func (c *GoogleVisionClient) Analyze(ctx context.Context, image []byte) (*ImageAnalysis, error) {
	start := time.Now()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{
				{Type: "LABEL_DETECTION", MaxResults: 1},
				{Type: "DOCUMENT_TEXT_DETECTION"},
			},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(GoogleVisionName, err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("no responses in annotate result")
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return nil, &ProviderError{
			Provider:   GoogleVisionName,
			StatusCode: http.StatusBadGateway,
			Code:       fmt.Sprintf("%d", r.Error.Code),
			Message:    r.Error.Message,
		}
	}

	result := &ImageAnalysis{Provider: GoogleVisionName}

	if len(r.LabelAnnotations) > 0 {
		label := r.LabelAnnotations[0]
		result.Caption = &Caption{
			Text:       label.Description,
			Confidence: label.Score,
		}
	}

	if r.FullTextAnnotation != nil {
		read := &ReadResult{}
		for _, page := range r.FullTextAnnotation.Pages {
			if result.ImageWidth == 0 {
				result.ImageWidth = int(page.Width)
				result.ImageHeight = int(page.Height)
			}
			for _, b := range page.Blocks {
				block := Block{}
				for _, p := range b.Paragraphs {
					block.Lines = append(block.Lines, googleParagraphLine(p))
				}
				read.Blocks = append(read.Blocks, block)
			}
		}
		result.Read = read
	}

	result.ExecutionTime = time.Since(start)
	return result, nil
}

func googleParagraphLine(p *vision.Paragraph) Line {
	line := Line{
		BoundingPolygon: googlePolygon(p.BoundingBox),
		Words:           make([]Word, 0, len(p.Words)),
	}
	texts := make([]string, 0, len(p.Words))
	for _, w := range p.Words {
		var sb strings.Builder
		for _, s := range w.Symbols {
			sb.WriteString(s.Text)
		}
		text := sb.String()
		texts = append(texts, text)
		line.Words = append(line.Words, Word{
			Text:            text,
			BoundingPolygon: googlePolygon(w.BoundingBox),
			Confidence:      w.Confidence,
		})
	}
	line.Text = strings.Join(texts, " ")
	return line
}

func googlePolygon(bp *vision.BoundingPoly) Polygon {
	if bp == nil {
		return Polygon{}
	}
	poly := make(Polygon, 0, len(bp.Vertices))
	for _, v := range bp.Vertices {
		if v == nil {
			continue
		}
		poly = append(poly, Point{X: float64(v.X), Y: float64(v.Y)})
	}
	return poly
}

// Verify interface
var _ VisionProvider = (*GoogleVisionClient)(nil)

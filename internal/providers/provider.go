package providers

import (
	"context"
	"time"
)

// VisionProvider extracts a caption and OCR (read) result from an image.
type VisionProvider interface {
	// Name returns the provider identifier (e.g., "azure-vision").
	Name() string

	// Analyze requests caption and read features for the raw image bytes.
	Analyze(ctx context.Context, image []byte) (*ImageAnalysis, error)
}

// TranslationProvider translates text between languages.
type TranslationProvider interface {
	// Name returns the provider identifier (e.g., "azure-translator").
	Name() string

	// Translate renders req.Text in the target language.
	Translate(ctx context.Context, req *TranslationRequest) (*TranslationResult, error)
}

// SpeechProvider synthesizes speech audio in memory.
// Separate from translation because a synthesis can end without an error but
// still not complete (the Reason on the result says which).
type SpeechProvider interface {
	// Name returns the provider identifier (e.g., "azure-speech").
	Name() string

	// Synthesize converts text to audio bytes.
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error)
}

// Point is a single vertex of a bounding polygon.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is an ordered list of points delineating a detected region.
type Polygon []Point

// ImageAnalysis is the provider-neutral result of a vision call.
type ImageAnalysis struct {
	// Caption is nil when the provider returned no caption.
	Caption *Caption `json:"caption,omitempty"`

	// Read is nil when the provider returned no OCR result.
	Read *ReadResult `json:"read,omitempty"`

	// Provider info
	Provider    string `json:"provider"`
	ModelUsed   string `json:"model_used,omitempty"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`

	ExecutionTime time.Duration `json:"execution_time"`
}

// Caption is a short description of the image content.
type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ReadResult is the hierarchical OCR output: blocks of lines of words.
type ReadResult struct {
	Blocks []Block `json:"blocks"`
}

// Block groups lines detected together.
type Block struct {
	Lines []Line `json:"lines"`
}

// Line is a single detected line of text.
type Line struct {
	Text            string  `json:"text"`
	BoundingPolygon Polygon `json:"bounding_polygon"`
	Words           []Word  `json:"words"`
}

// Word is a single detected word with its confidence in [0,1].
type Word struct {
	Text            string  `json:"text"`
	BoundingPolygon Polygon `json:"bounding_polygon"`
	Confidence      float64 `json:"confidence"`
}

// TranslationRequest is a request to translate a single text.
type TranslationRequest struct {
	Text string `json:"text"`
	From string `json:"from"` // e.g. "en"
	To   string `json:"to"`   // e.g. "id"
}

// TranslationResult holds the translations returned for a request.
// Translations is empty when the provider returned nothing.
type TranslationResult struct {
	Translations []Translation `json:"translations"`

	Provider      string        `json:"provider"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// Translation is a single rendering of the input text.
type Translation struct {
	Text string `json:"text"`
	To   string `json:"to"`
}

// First returns the first translation, if any.
func (r *TranslationResult) First() (Translation, bool) {
	if r == nil || len(r.Translations) == 0 {
		return Translation{}, false
	}
	return r.Translations[0], true
}

// SpeechRequest is a request to synthesize speech.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"` // Uses the provider default if empty
}

// SynthesisReason describes how a synthesis ended.
type SynthesisReason string

const (
	SynthesisCompleted SynthesisReason = "completed"
	SynthesisCanceled  SynthesisReason = "canceled"
)

// SpeechResult is the outcome of a synthesis.
type SpeechResult struct {
	Reason SynthesisReason `json:"reason"`
	Audio  []byte          `json:"-"`
	Format string          `json:"format"` // "wav", "mp3"

	// Populated when Reason is SynthesisCanceled
	ErrorDetails string `json:"error_details,omitempty"`

	Provider      string        `json:"provider"`
	Voice         string        `json:"voice"`
	CharCount     int           `json:"char_count"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// Completed reports whether the synthesis produced audio.
func (r *SpeechResult) Completed() bool {
	return r != nil && r.Reason == SynthesisCompleted
}

package describe

import (
	"strconv"
	"strings"

	"github.com/jackzampolin/sightread/internal/providers"
)

// HighConfidenceThreshold is the exclusive lower bound a word's rounded
// confidence must exceed to be quoted in the summary text.
const HighConfidenceThreshold = 0.8

// Response is the JSON payload returned to callers.
type Response struct {
	Caption     *Caption `json:"caption"`
	Read        []Line   `json:"read"`
	Text        string   `json:"text"`
	Translation *string  `json:"translation,omitempty"`
	Audio       *string  `json:"audio,omitempty"`
}

// Caption is the image caption with confidence rounded to 4 decimals.
type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Line is one OCR line. Block grouping is not kept.
type Line struct {
	Text            string            `json:"text"`
	BoundingPolygon providers.Polygon `json:"bounding_polygon"`
	Words           []Word            `json:"words"`
}

// Word is one OCR word with confidence rounded to 4 decimals.
type Word struct {
	Text            string            `json:"text"`
	BoundingPolygon providers.Polygon `json:"bounding_polygon"`
	Confidence      float64           `json:"confidence"`
}

// Assemble reshapes a vision result into a Response: it rounds confidences,
// flattens blocks into a single list of lines in reading order, and builds the
// summary text from the caption and the high-confidence words.
func Assemble(a *providers.ImageAnalysis) *Response {
	resp := &Response{Read: []Line{}}
	if a == nil {
		return resp
	}

	var text string
	if a.Caption != nil {
		resp.Caption = &Caption{
			Text:       a.Caption.Text,
			Confidence: Round4(a.Caption.Confidence),
		}
		text = a.Caption.Text
	}

	var highConfidence []string
	if a.Read != nil {
		for _, block := range a.Read.Blocks {
			for _, l := range block.Lines {
				line := Line{
					Text:            l.Text,
					BoundingPolygon: polygonOrEmpty(l.BoundingPolygon),
					Words:           make([]Word, 0, len(l.Words)),
				}
				for _, w := range l.Words {
					conf := Round4(w.Confidence)
					line.Words = append(line.Words, Word{
						Text:            w.Text,
						BoundingPolygon: polygonOrEmpty(w.BoundingPolygon),
						Confidence:      conf,
					})
					if conf > HighConfidenceThreshold {
						highConfidence = append(highConfidence, w.Text)
					}
				}
				resp.Read = append(resp.Read, line)
			}
		}
	}

	if len(resp.Read) > 0 {
		text += ` and some text that says "` + strings.Join(highConfidence, " ") + `"`
	}
	resp.Text = text

	return resp
}

// Round4 rounds v to 4 decimal places. Rounding is done on the exact binary
// value, so a float stored just below a half-way point rounds down.
func Round4(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func polygonOrEmpty(p providers.Polygon) providers.Polygon {
	if p == nil {
		return providers.Polygon{}
	}
	return p
}

package composite

import (
	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/internal/contracts"
	"github.com/wonny/gem/backend/internal/s0_data"
)

// BatchRequest is the batch input document shared by the CLI and the API
type BatchRequest struct {
	NormalizationFactor float64            `json:"normalization_factor"`
	Pixels              []s0_data.RawPixel `json:"pixels"`
}

// PixelDocument is one pixel of the output document; values are already
// encoded to their sample types
type PixelDocument struct {
	ID       string               `json:"id"`
	Bands    map[string][]float64 `json:"bands,omitempty"`
	ValCount []float64            `json:"valcount,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// BatchDocument is the batch output document
type BatchDocument struct {
	RunID    string                    `json:"run_id,omitempty"`
	Metadata *contracts.OutputMetadata `json:"metadata"`
	Pixels   []PixelDocument           `json:"pixels"`
	Summary  *Summary                  `json:"summary,omitempty"`
}

// Document renders one pixel result
func (e *Evaluator) Document(r PixelResult) PixelDocument {
	doc := PixelDocument{ID: r.ID}
	if r.Err != nil {
		doc.Error = r.Err.Error()
		return doc
	}

	encoded := e.Encode(r.Output)
	doc.ValCount = encoded[compositeconfig.ValCountID]
	delete(encoded, compositeconfig.ValCountID)
	doc.Bands = encoded
	return doc
}

// Documents renders results in order
func (e *Evaluator) Documents(results []PixelResult) []PixelDocument {
	docs := make([]PixelDocument, len(results))
	for i, r := range results {
		docs[i] = e.Document(r)
	}
	return docs
}

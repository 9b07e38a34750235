package selection

import (
	"gonum.org/v1/gonum/floats"

	"github.com/wonny/gem/backend/internal/contracts"
)

// DegenerateNDVI is the index of a sample whose RED + NIR is exactly zero
const DegenerateNDVI = -1.0

// NDVI returns (nir - red) / (nir + red), or DegenerateNDVI when the
// denominator is zero
func NDVI(red, nir float64) float64 {
	denom := nir + red
	if denom == 0 {
		return DegenerateNDVI
	}
	return (nir - red) / denom
}

// Selector implements S3: max-NDVI best observation selection
// ⭐ SSOT: 대표 관측 선택 로직은 여기서만
type Selector struct {
	red    contracts.Band
	nir    contracts.Band
	output []contracts.Band
}

// NewSelector creates a selector ranking by the red/nir pair and
// emitting the output bands in the given order
func NewSelector(red, nir contracts.Band, output []contracts.Band) *Selector {
	bands := make([]contracts.Band, len(output))
	copy(bands, output)
	return &Selector{
		red:    red,
		nir:    nir,
		output: bands,
	}
}

// Index returns the sample's vegetation index
func (s *Selector) Index(sample contracts.Sample) float64 {
	return NDVI(sample.Value(s.red), sample.Value(s.nir))
}

// Best returns the position of the sample with the strictly greatest
// index, the first one on ties. ok is false for an empty subset.
func (s *Selector) Best(samples []contracts.Sample) (idx int, ok bool) {
	if len(samples) == 0 {
		return 0, false
	}

	indices := make([]float64, len(samples))
	for i, sample := range samples {
		indices[i] = s.Index(sample)
	}

	// MaxIdx keeps the first maximum and skips NaN
	return floats.MaxIdx(indices), true
}

// Select composites one interval. The count is the number of samples
// considered; an empty subset gives zero bands and a count of 0.
func (s *Selector) Select(samples []contracts.Sample) contracts.CompositeResult {
	idx, ok := s.Best(samples)
	if !ok {
		return contracts.EmptyResult(len(s.output))
	}

	best := samples[idx]
	bands := make([]float64, len(s.output))
	for i, b := range s.output {
		bands[i] = best.Value(b)
	}

	return contracts.CompositeResult{
		Bands:    bands,
		Count:    len(samples),
		Selected: true,
	}
}

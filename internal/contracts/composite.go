package contracts

import (
	"math"
	"time"
)

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether Start <= t < End
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns End - Start
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// CompositeResult is the outcome of compositing one interval
// ⭐ SSOT: 구간별 합성 결과
type CompositeResult struct {
	Bands    []float64 `json:"bands"`    // ordered like the configured output bands
	Count    int       `json:"count"`    // samples considered for selection
	Selected bool      `json:"selected"` // false: no usable observation
}

// EmptyResult is the "no usable observation" result for n output bands
func EmptyResult(n int) CompositeResult {
	return CompositeResult{
		Bands: make([]float64, n),
		Count: 0,
	}
}

// PixelOutput holds one value per interval for every output band
type PixelOutput struct {
	Bands    map[Band][]float64 `json:"bands"`
	ValCount []int              `json:"valcount"`
}

// EmptySlots counts intervals without a usable observation
func (p *PixelOutput) EmptySlots() int {
	empty := 0
	for _, c := range p.ValCount {
		if c == 0 {
			empty++
		}
	}
	return empty
}

// OutputMetadata is the side-channel record attached to the host output
type OutputMetadata struct {
	NormFactor     float64  `json:"norm_factor"`
	IntervalStarts []string `json:"interval_starts"`
	Scenes         string   `json:"scenes"` // JSON text: [{"date": "..."}]
}

// SampleType is an output raster sample type
type SampleType string

const (
	SampleTypeUint8   SampleType = "UINT8"
	SampleTypeUint16  SampleType = "UINT16"
	SampleTypeFloat32 SampleType = "FLOAT32"
)

// IsKnown reports whether t is a supported sample type
func (t SampleType) IsKnown() bool {
	switch t {
	case SampleTypeUint8, SampleTypeUint16, SampleTypeFloat32:
		return true
	}
	return false
}

// Encode converts v into the numeric range of the sample type.
// Integer types round half away from zero and clamp; NaN encodes as 0.
func (t SampleType) Encode(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	switch t {
	case SampleTypeUint8:
		return clamp(math.Round(v), 0, math.MaxUint8)
	case SampleTypeUint16:
		return clamp(math.Round(v), 0, math.MaxUint16)
	case SampleTypeFloat32:
		return float64(float32(v))
	default:
		return v
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package metadata

import (
	"github.com/goccy/go-json"

	"github.com/wonny/gem/backend/internal/contracts"
)

// TimestampLayout is ISO-8601 UTC with milliseconds, e.g. 2020-01-01T00:00:00.000Z
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// sceneEntry is one element of the scenes text
type sceneEntry struct {
	Date string `json:"date"`
}

// Emitter implements S5: the side-channel metadata of a run.
// It depends only on the interval partition and the normalization factor.
// ⭐ SSOT: 메타데이터 포맷은 여기서만
type Emitter struct{}

// NewEmitter creates an Emitter
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit formats the interval starts in order and attaches normFactor
func (e *Emitter) Emit(intervals []contracts.Interval, normFactor float64) (*contracts.OutputMetadata, error) {
	starts := make([]string, len(intervals))
	entries := make([]sceneEntry, len(intervals))
	for i, iv := range intervals {
		starts[i] = iv.Start.UTC().Format(TimestampLayout)
		entries[i] = sceneEntry{Date: starts[i]}
	}

	scenes, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	return &contracts.OutputMetadata{
		NormFactor:     normFactor,
		IntervalStarts: starts,
		Scenes:         string(scenes),
	}, nil
}

// UserData renders the record the raster host stores next to the output:
// the factor plus the scenes list as JSON text
func UserData(md *contracts.OutputMetadata) map[string]interface{} {
	return map[string]interface{}{
		"norm_factor": md.NormFactor,
		"scenes":      md.Scenes,
	}
}

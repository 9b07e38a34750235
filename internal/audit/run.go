package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/wonny/gem/backend/internal/composite"
)

// Run sources
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// RunRecord is one recorded batch evaluation
type RunRecord struct {
	RunID        uuid.UUID `json:"run_id"`
	Source       string    `json:"source"`
	ConfigID     string    `json:"config_id"`
	ConfigHash   string    `json:"config_hash"`
	ConfigYAML   string    `json:"config_yaml,omitempty"`
	NormFactor   float64   `json:"norm_factor"`
	Pixels       int       `json:"pixels"`
	Failed       int       `json:"failed"`
	EmptySlots   int       `json:"empty_slots"`
	MeanValCount []float64 `json:"mean_valcount"`
	DurationMs   int64     `json:"duration_ms"`
	StartedAt    time.Time `json:"started_at"`
}

// RunInfo identifies the config and input behind a batch
type RunInfo struct {
	Source     string
	ConfigID   string
	ConfigHash string
	ConfigYAML []byte
	NormFactor float64
	StartedAt  time.Time
}

// NewRunRecord builds a record with a fresh run ID from a batch summary
func NewRunRecord(info RunInfo, summary *composite.Summary) *RunRecord {
	return &RunRecord{
		RunID:        uuid.New(),
		Source:       info.Source,
		ConfigID:     info.ConfigID,
		ConfigHash:   info.ConfigHash,
		ConfigYAML:   string(info.ConfigYAML),
		NormFactor:   info.NormFactor,
		Pixels:       summary.Pixels,
		Failed:       summary.Failed,
		EmptySlots:   summary.EmptySlots,
		MeanValCount: summary.MeanValCount,
		DurationMs:   summary.Duration.Milliseconds(),
		StartedAt:    info.StartedAt.UTC(),
	}
}

package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// Repository handles run record persistence
// ⭐ SSOT: 실행 기록 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun inserts a run record; saving the same run twice keeps the first
func (r *Repository) SaveRun(ctx context.Context, run *RunRecord) error {
	meanJSON, err := json.Marshal(run.MeanValCount)
	if err != nil {
		return fmt.Errorf("failed to marshal mean valcount: %w", err)
	}

	query := `
		INSERT INTO audit.composite_runs (
			run_id, source, config_id, config_hash, config_yaml, norm_factor,
			pixels, failed, empty_slots, mean_valcount, duration_ms, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query,
		run.RunID, run.Source, run.ConfigID, run.ConfigHash, run.ConfigYAML, run.NormFactor,
		run.Pixels, run.Failed, run.EmptySlots, meanJSON, run.DurationMs, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun returns one run including its config YAML
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT run_id, source, config_id, config_hash, config_yaml, norm_factor,
		       pixels, failed, empty_slots, mean_valcount, duration_ms, started_at
		FROM audit.composite_runs
		WHERE run_id = $1
	`

	var run RunRecord
	var meanJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.RunID, &run.Source, &run.ConfigID, &run.ConfigHash, &run.ConfigYAML, &run.NormFactor,
		&run.Pixels, &run.Failed, &run.EmptySlots, &meanJSON, &run.DurationMs, &run.StartedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal(meanJSON, &run.MeanValCount); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mean valcount: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first, without config YAML
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT run_id, source, config_id, config_hash, norm_factor,
		       pixels, failed, empty_slots, mean_valcount, duration_ms, started_at
		FROM audit.composite_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		var run RunRecord
		var meanJSON []byte
		if err := rows.Scan(
			&run.RunID, &run.Source, &run.ConfigID, &run.ConfigHash, &run.NormFactor,
			&run.Pixels, &run.Failed, &run.EmptySlots, &meanJSON, &run.DurationMs, &run.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal(meanJSON, &run.MeanValCount); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mean valcount: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// DeleteOlderThan removes runs started before cutoff and returns how many
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit.composite_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

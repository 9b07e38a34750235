package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/gem/backend/internal/metrics"
	"github.com/wonny/gem/backend/pkg/logger"
)

// RunPruner deletes audit runs older than a cutoff
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob deletes audit run records past the retention window
type RetentionJob struct {
	runs          RunPruner
	retentionDays int
	now           func() time.Time
	logger        *logger.Logger
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(runs RunPruner, retentionDays int, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		runs:          runs,
		retentionDays: retentionDays,
		now:           time.Now,
		logger:        log,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "audit_retention"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *RetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes runs started before now - retentionDays
func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().AddDate(0, 0, -j.retentionDays)

	deleted, err := j.runs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune audit runs: %w", err)
	}
	metrics.RecordRetention(deleted)

	j.logger.WithFields(map[string]interface{}{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("Audit retention completed")

	return nil
}

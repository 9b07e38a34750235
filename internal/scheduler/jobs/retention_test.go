package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/pkg/logger"
)

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestRetentionJob_Run(t *testing.T) {
	pruner := &fakePruner{deleted: 4}
	job := NewRetentionJob(pruner, 30, logger.Nop())
	job.now = func() time.Time { return time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, pruner.cutoff.Equal(time.Date(2026, 9, 14, 3, 0, 0, 0, time.UTC)))
}

func TestRetentionJob_Error(t *testing.T) {
	job := NewRetentionJob(&fakePruner{err: errors.New("connection reset")}, 7, logger.Nop())
	assert.Error(t, job.Run(context.Background()))
}

func TestRetentionJob_Schedule(t *testing.T) {
	job := NewRetentionJob(&fakePruner{}, 7, logger.Nop())
	assert.Equal(t, "audit_retention", job.Name())
	assert.Equal(t, "0 0 3 * * *", job.Schedule())
}

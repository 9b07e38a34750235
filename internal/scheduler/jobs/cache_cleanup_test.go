package jobs

import (
	"context"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/pkg/logger"
)

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) CleanStale() int {
	f.calls++
	return 3
}

func TestCacheCleanupJob(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := NewCacheCleanupJob(cleaner, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, "cache_cleanup", job.Name())

	_, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(job.Schedule())
	assert.NoError(t, err)
}

package jobs

import (
	"context"

	"github.com/wonny/gem/backend/pkg/logger"
)

// StaleCleaner drops expired cache entries
type StaleCleaner interface {
	CleanStale() int
}

// CacheCleanupJob evicts expired pixels from the in-process cache
type CacheCleanupJob struct {
	cache  StaleCleaner
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache StaleCleaner, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := j.cache.CleanStale()
	j.logger.WithField("removed", removed).Debug("Cache cleanup completed")
	return nil
}

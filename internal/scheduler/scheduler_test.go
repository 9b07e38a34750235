package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "0 0 3 * * *"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not cron"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestScheduler_RunJobSync_Retries(t *testing.T) {
	s := New(logger.Nop(), WithRetries(2, time.Millisecond))
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
	assert.Equal(t, 3, result.Attempts)
}

func TestScheduler_RunJobSync_Fails(t *testing.T) {
	s := New(logger.Nop(), WithRetries(1, time.Millisecond))
	require.NoError(t, s.AddJob(&countingJob{name: "broken", schedule: "@daily", failures: 100}))

	result, err := s.RunJobSync("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "transient", result.Error)

	runs, err := s.JobRuns("broken")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Attempts)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, "transient", stats.LastError)
	assert.NotNil(t, stats.LastFailure)
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := New(logger.Nop())

	_, err := s.RunJobSync("missing")
	assert.Error(t, err)
	assert.Error(t, s.RunJob("missing"))
	assert.Error(t, s.RemoveJob("missing"))
	_, err = s.NextRun("missing")
	assert.Error(t, err)
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "tmp", schedule: "@daily"}))
	require.NoError(t, s.RemoveJob("tmp"))

	assert.Empty(t, s.GetAllJobs())
	require.NoError(t, s.AddJob(&countingJob{name: "tmp", schedule: "@daily"}), "name is free again")
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "nightly", schedule: "0 0 3 * * *"}))

	s.Start()
	next, err := s.NextRun("nightly")
	require.NoError(t, err)
	assert.Equal(t, 3, next.Hour())
	s.Stop()
}

func TestRunLog_Bounded(t *testing.T) {
	l := &runLog{}
	for i := 0; i < maxRuns+20; i++ {
		l.record(JobResult{Success: i%2 == 0, Duration: time.Second})
	}

	assert.Len(t, l.results, maxRuns)
	assert.InDelta(t, 0.5, l.successRate(), 1e-9)
	assert.Equal(t, maxRuns/2, l.failures())

	last, ok := l.last()
	require.True(t, ok)
	assert.False(t, last.Success)
}

func TestRunLog_Durations(t *testing.T) {
	l := &runLog{}
	for i := 1; i <= 20; i++ {
		l.record(JobResult{Success: true, Duration: time.Duration(i) * 100 * time.Millisecond})
	}

	mean, p95 := l.durations()
	assert.Equal(t, 1050*time.Millisecond, mean)
	assert.Equal(t, 1900*time.Millisecond, p95)
}

func TestRunLog_Empty(t *testing.T) {
	l := &runLog{}

	_, ok := l.last()
	assert.False(t, ok)
	assert.Equal(t, 0.0, l.successRate())
	assert.Nil(t, l.lastWith(true))

	mean, p95 := l.durations()
	assert.Zero(t, mean)
	assert.Zero(t, p95)
}

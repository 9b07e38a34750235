package scheduler

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression with a seconds field
	// Examples: "0 0 3 * * *" (every day at 03:00), "@daily", "@hourly"
	Schedule() string
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxRuns bounds the results kept per job
const maxRuns = 100

// runLog keeps the most recent results of one job, oldest first
type runLog struct {
	results []JobResult
}

func (l *runLog) record(result JobResult) {
	l.results = append(l.results, result)
	if len(l.results) > maxRuns {
		l.results = l.results[len(l.results)-maxRuns:]
	}
}

func (l *runLog) snapshot() []JobResult {
	out := make([]JobResult, len(l.results))
	copy(out, l.results)
	return out
}

func (l *runLog) last() (JobResult, bool) {
	if len(l.results) == 0 {
		return JobResult{}, false
	}
	return l.results[len(l.results)-1], true
}

// lastWith returns the start of the latest run with the given outcome
func (l *runLog) lastWith(success bool) *time.Time {
	for i := len(l.results) - 1; i >= 0; i-- {
		if l.results[i].Success == success {
			t := l.results[i].StartTime
			return &t
		}
	}
	return nil
}

func (l *runLog) failures() int {
	n := 0
	for _, r := range l.results {
		if !r.Success {
			n++
		}
	}
	return n
}

// successRate is in [0, 1]; 0 without runs
func (l *runLog) successRate() float64 {
	if len(l.results) == 0 {
		return 0
	}
	return float64(len(l.results)-l.failures()) / float64(len(l.results))
}

// durations returns the mean and 95th percentile run duration
func (l *runLog) durations() (mean, p95 time.Duration) {
	if len(l.results) == 0 {
		return 0, 0
	}

	secs := make([]float64, len(l.results))
	for i, r := range l.results {
		secs[i] = r.Duration.Seconds()
	}
	mean = seconds(stat.Mean(secs, nil))

	// Quantile 은 정렬된 입력 필요
	sort.Float64s(secs)
	p95 = seconds(stat.Quantile(0.95, stat.Empirical, secs, nil))
	return mean, p95
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Millisecond)
}

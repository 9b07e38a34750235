package s1_interval

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/gem/backend/internal/contracts"
)

// ErrInvalidPartition is returned for partition requests that cannot produce intervals
var ErrInvalidPartition = errors.New("invalid partition")

// Partitioner implements S1: equal-length interval partitioning of a date range
// ⭐ SSOT: 구간 경계 계산은 여기서만
type Partitioner struct {
	granularity time.Duration
	location    *time.Location
}

// New creates a partitioner rounding boundaries to granularity and
// aligning them to the wall clock of loc (nil means UTC)
func New(granularity time.Duration, loc *time.Location) *Partitioner {
	if loc == nil {
		loc = time.UTC
	}
	return &Partitioner{
		granularity: granularity,
		location:    loc,
	}
}

// Split divides [start, end) into n contiguous intervals.
//
// Boundary i (1..n) is start + i*(end-start)/n in milliseconds, rounded
// half-up to the granularity, then shifted by the location's UTC offset
// at that instant. Interval 0 starts at start and every later interval
// starts where the previous one ends. A zone offset larger than the
// interval length can reverse an interval; that is ErrInvalidPartition.
func (p *Partitioner) Split(start, end time.Time, n int) ([]contracts.Interval, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: number of intervals must be >= 1, got %d", ErrInvalidPartition, n)
	}
	rc := p.granularity.Milliseconds()
	if rc < 1 {
		return nil, fmt.Errorf("%w: granularity must be >= 1ms, got %s", ErrInvalidPartition, p.granularity)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidPartition,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	startMs := start.UnixMilli()
	diff := end.UnixMilli() - startMs

	intervals := make([]contracts.Interval, 0, n)
	prev := start.UTC()
	for i := 1; i <= n; i++ {
		ms := startMs + int64(i)*diff/int64(n)
		ms = roundToMultiple(ms, rc)

		boundary := p.alignToLocation(time.UnixMilli(ms).UTC())
		intervals = append(intervals, contracts.Interval{Start: prev, End: boundary})
		prev = boundary
	}

	// 구간은 비어 있거나 역전되면 안 됨 (Locate 가 정렬된 End 를 가정)
	for i, iv := range intervals {
		if !iv.End.After(iv.Start) {
			return nil, fmt.Errorf("%w: interval %d is empty or reversed in %s (%s -> %s)",
				ErrInvalidPartition, i, p.location, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
		}
	}

	return intervals, nil
}

// alignToLocation moves t by the location's offset so a UTC boundary
// lands on the same wall-clock reading in the configured zone
func (p *Partitioner) alignToLocation(t time.Time) time.Time {
	_, offset := t.In(p.location).Zone()
	return t.Add(-time.Duration(offset) * time.Second)
}

// roundToMultiple rounds ms to the nearest multiple of rc, halves up
func roundToMultiple(ms, rc int64) int64 {
	return floorDiv(2*ms+rc, 2*rc) * rc
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DateOnly drops the time of day of t in loc (nil means UTC)
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Locate returns the index of the interval containing t, or -1.
// intervals must be ordered and contiguous, as returned by Split.
func Locate(intervals []contracts.Interval, t time.Time) int {
	i := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].End.After(t)
	})
	if i < len(intervals) && intervals[i].Contains(t) {
		return i
	}
	return -1
}

package composite

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/internal/contracts"
	"github.com/wonny/gem/backend/internal/s1_interval"
	"github.com/wonny/gem/backend/pkg/logger"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(compositeconfig.Default(), logger.Nop())
	require.NoError(t, err)
	return e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// clearObs builds a valid, cloud-free observation
func clearObs(date time.Time, red, nir, blue float64) contracts.Observation {
	return contracts.Observation{
		Sample: contracts.Sample{B02: blue, B04: red, B08: nir, DataMask: 1, SCL: 4},
		Scene:  contracts.Scene{Date: date},
	}
}

func TestNewEvaluator_DefaultPartition(t *testing.T) {
	e := newTestEvaluator(t)

	intervals := e.Intervals()
	require.Len(t, intervals, 6)
	assert.True(t, intervals[0].Start.Equal(day(2020, 1, 1)))
	assert.True(t, intervals[1].Start.Equal(day(2020, 3, 2)))
	assert.True(t, intervals[5].End.Equal(day(2021, 1, 1)))
	assert.Len(t, e.Bands(), 12)
}

func TestNewEvaluator_InvalidConfig(t *testing.T) {
	cfg := compositeconfig.Default()
	cfg.Measurements = 0

	_, err := NewEvaluator(cfg, logger.Nop())
	assert.Error(t, err)
}

func TestNewEvaluator_ReversedIntervalRejected(t *testing.T) {
	cfg := compositeconfig.Default()
	cfg.DateRange.Start = "2020-03-29T00:00:00Z"
	cfg.DateRange.End = "2020-03-29T04:00:00Z"
	cfg.DateRange.Timezone = "Europe/Berlin"
	cfg.Measurements = 8
	require.NoError(t, compositeconfig.Validate(cfg))

	_, err := NewEvaluator(cfg, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, s1_interval.ErrInvalidPartition), "got %v", err)
}

func TestEvaluate_NoObservations(t *testing.T) {
	e := newTestEvaluator(t)

	out := e.Evaluate(nil)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, out.ValCount)
	require.Len(t, out.Bands, 12)
	for b, values := range out.Bands {
		assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, values, "band %s", b)
	}
	assert.Equal(t, 6, out.EmptySlots())
}

func TestEvaluate_SingleDegenerateSample(t *testing.T) {
	e := newTestEvaluator(t)

	// RED = NIR = 0 gives the sentinel index but is still the only candidate
	out := e.Evaluate([]contracts.Observation{clearObs(day(2020, 2, 10), 0, 0, 917)})

	assert.Equal(t, []int{1, 0, 0, 0, 0, 0}, out.ValCount)
	assert.Equal(t, 917.0, out.Bands[contracts.B02][0])
	assert.Equal(t, 0.0, out.Bands[contracts.B04][0])
	assert.Equal(t, 0.0, out.Bands[contracts.B08][0])
}

func TestEvaluate_InvalidSampleIgnored(t *testing.T) {
	e := newTestEvaluator(t)

	invalid := clearObs(day(2020, 4, 1), 100, 9000, 5)
	invalid.Sample.DataMask = 0
	valid := clearObs(day(2020, 4, 2), 1000, 2000, 6)

	out := e.Evaluate([]contracts.Observation{invalid, valid})

	assert.Equal(t, 1, out.ValCount[1])
	assert.Equal(t, 6.0, out.Bands[contracts.B02][1], "invalid sample must never win")
}

func TestEvaluate_CloudyCandidateExcluded(t *testing.T) {
	e := newTestEvaluator(t)

	cloudy := clearObs(day(2020, 6, 1), 100, 9000, 1)
	cloudy.Sample.CLM = 1
	obs := []contracts.Observation{
		cloudy,
		clearObs(day(2020, 6, 5), 1000, 3000, 2), // 0.5
		clearObs(day(2020, 6, 9), 1000, 2000, 3), // 0.333
	}

	out := e.Evaluate(obs)

	assert.Equal(t, 2, out.ValCount[2], "strict level holds two clear samples")
	assert.Equal(t, 2.0, out.Bands[contracts.B02][2])
}

func TestEvaluate_RelaxesToCloudMaskedSamples(t *testing.T) {
	e := newTestEvaluator(t)

	a := clearObs(day(2020, 9, 10), 1000, 3000, 1)
	a.Sample.CLM = 1
	b := clearObs(day(2020, 9, 20), 1000, 5000, 2)
	b.Sample.CLM = 1

	out := e.Evaluate([]contracts.Observation{a, b})

	assert.Equal(t, 2, out.ValCount[4])
	assert.Equal(t, 2.0, out.Bands[contracts.B02][4])
}

func TestEvaluate_Bucketing(t *testing.T) {
	e := newTestEvaluator(t)

	tests := []struct {
		name     string
		date     time.Time
		interval int // -1: outside the range
	}{
		{"range start", day(2020, 1, 1), 0},
		{"late on the last day of interval 0", time.Date(2020, 3, 1, 23, 59, 59, 0, time.UTC), 0},
		{"boundary belongs to the later interval", day(2020, 3, 2), 1},
		{"time of day on boundary day", time.Date(2020, 3, 2, 14, 30, 0, 0, time.UTC), 1},
		{"last day", time.Date(2020, 12, 31, 23, 0, 0, 0, time.UTC), 5},
		{"range end is exclusive", day(2021, 1, 1), -1},
		{"before range", day(2019, 12, 31), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Evaluate([]contracts.Observation{clearObs(tt.date, 100, 200, 1)})

			want := make([]int, 6)
			if tt.interval >= 0 {
				want[tt.interval] = 1
			}
			assert.Equal(t, want, out.ValCount)
		})
	}
}

func TestEvaluate_LocalDate(t *testing.T) {
	cfg := compositeconfig.Default()
	cfg.DateRange.Timezone = "Europe/Berlin"
	e, err := NewEvaluator(cfg, logger.Nop())
	require.NoError(t, err)

	// 23:30 UTC on Mar 1 is already Mar 2 in Berlin
	out := e.Evaluate([]contracts.Observation{clearObs(time.Date(2020, 3, 1, 23, 30, 0, 0, time.UTC), 100, 200, 1)})
	assert.Equal(t, []int{0, 1, 0, 0, 0, 0}, out.ValCount)
}

func TestEvaluate_IntervalsAreIndependent(t *testing.T) {
	e := newTestEvaluator(t)

	obs := []contracts.Observation{
		clearObs(day(2020, 1, 5), 1000, 2000, 1),
		clearObs(day(2020, 1, 6), 1000, 4000, 2),
		clearObs(day(2020, 11, 5), 1000, 1500, 3),
	}

	out := e.Evaluate(obs)
	assert.Equal(t, []int{2, 0, 0, 0, 0, 1}, out.ValCount)
	assert.Equal(t, []float64{2, 0, 0, 0, 0, 3}, out.Bands[contracts.B02])

	// input order does not matter across intervals
	reversed := []contracts.Observation{obs[2], obs[1], obs[0]}
	assert.Equal(t, out, e.Evaluate(reversed))
}

func TestEvaluate_OutputBandOrder(t *testing.T) {
	cfg := compositeconfig.Default()
	cfg.Bands.Output = []string{"B08", "B04"}
	e, err := NewEvaluator(cfg, logger.Nop())
	require.NoError(t, err)

	out := e.Evaluate([]contracts.Observation{clearObs(day(2020, 2, 1), 300, 700, 0)})
	require.Len(t, out.Bands, 2)
	assert.Equal(t, 700.0, out.Bands[contracts.B08][0])
	assert.Equal(t, 300.0, out.Bands[contracts.B04][0])
}

func TestEncode(t *testing.T) {
	cfg := compositeconfig.Default()
	cfg.Bands.Output = []string{"B04", "B08"}
	cfg.Measurements = 1
	e, err := NewEvaluator(cfg, logger.Nop())
	require.NoError(t, err)

	tests := []struct {
		name     string
		red, nir float64
		wantRed  float64
		wantNIR  float64
	}{
		{"in range", 1200, 3400, 1200, 3400},
		{"rounded", 12.4, 12.6, 12, 13},
		{"clamped", -5, 70000, 0, 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Evaluate([]contracts.Observation{clearObs(day(2020, 5, 1), tt.red, tt.nir, 0)})
			enc := e.Encode(out)

			assert.Equal(t, []float64{tt.wantRed}, enc["B04"])
			assert.Equal(t, []float64{tt.wantNIR}, enc["B08"])
			assert.Equal(t, []float64{1}, enc[compositeconfig.ValCountID])
		})
	}
}

func TestEncode_ValCountClamped(t *testing.T) {
	e := newTestEvaluator(t)

	out := &contracts.PixelOutput{
		Bands:    map[contracts.Band][]float64{},
		ValCount: []int{300, 2, 0, 0, 0, 0},
	}
	enc := e.Encode(out)
	assert.Equal(t, []float64{255, 2, 0, 0, 0, 0}, enc[compositeconfig.ValCountID])
}

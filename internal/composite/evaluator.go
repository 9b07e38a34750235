package composite

import (
	"fmt"
	"time"

	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/internal/contracts"
	"github.com/wonny/gem/backend/internal/s0_data"
	"github.com/wonny/gem/backend/internal/s1_interval"
	"github.com/wonny/gem/backend/internal/s2_cloud"
	"github.com/wonny/gem/backend/internal/selection"
	"github.com/wonny/gem/backend/pkg/logger"
)

// Evaluator implements S4: per-pixel interval compositing.
// It is immutable after construction and safe for concurrent use.
// ⭐ SSOT: 구간 집계는 여기서만
type Evaluator struct {
	cfg       *compositeconfig.Config
	bands     []contracts.Band
	intervals []contracts.Interval
	location  *time.Location
	cascade   contracts.CloudFilter
	selector  contracts.CompositeSelector
	logger    *logger.Logger
}

var _ contracts.PixelEvaluator = (*Evaluator)(nil)

// NewEvaluator validates cfg and precomputes the interval partition
func NewEvaluator(cfg *compositeconfig.Config, log *logger.Logger) (*Evaluator, error) {
	if err := compositeconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid composite config: %w", err)
	}

	// Validate guarantees these parse
	start, _ := cfg.Start()
	end, _ := cfg.End()
	loc, _ := cfg.Location()

	var partitioner contracts.Partitioner = s1_interval.New(cfg.Granularity(), loc)
	intervals, err := partitioner.Split(start, end, cfg.Measurements)
	if err != nil {
		return nil, fmt.Errorf("split date range: %w", err)
	}

	bands := cfg.OutputBands()
	e := &Evaluator{
		cfg:       cfg,
		bands:     bands,
		intervals: intervals,
		location:  loc,
		cascade:   s2_cloud.NewCascade(),
		selector:  selection.NewSelector(cfg.RedBand(), cfg.NIRBand(), bands),
		logger:    log.WithField("stage", contracts.StageComposite.ShortName()),
	}

	e.logger.WithFields(map[string]interface{}{
		"config_id":    cfg.Meta.ConfigID,
		"measurements": cfg.Measurements,
		"bands":        len(bands),
		"start":        intervals[0].Start.Format(time.RFC3339),
		"end":          intervals[len(intervals)-1].End.Format(time.RFC3339),
	}).Debug("Evaluator ready")

	return e, nil
}

// Config returns the evaluator's configuration
func (e *Evaluator) Config() *compositeconfig.Config {
	return e.cfg
}

// Intervals returns a copy of the interval partition
func (e *Evaluator) Intervals() []contracts.Interval {
	out := make([]contracts.Interval, len(e.intervals))
	copy(out, e.intervals)
	return out
}

// Bands returns the output bands in order
func (e *Evaluator) Bands() []contracts.Band {
	out := make([]contracts.Band, len(e.bands))
	copy(out, e.bands)
	return out
}

// Evaluate composites one pixel. Every interval gets a slot in every
// output band; intervals without a usable observation hold zeros and a
// valcount of 0.
func (e *Evaluator) Evaluate(observations []contracts.Observation) *contracts.PixelOutput {
	n := len(e.intervals)
	out := &contracts.PixelOutput{
		Bands:    make(map[contracts.Band][]float64, len(e.bands)),
		ValCount: make([]int, 0, n),
	}
	for _, b := range e.bands {
		out.Bands[b] = make([]float64, 0, n)
	}

	buckets := e.bucket(s0_data.FilterValid(observations))
	for i := 0; i < n; i++ {
		res := e.EvaluateInterval(buckets[i])
		for j, b := range e.bands {
			out.Bands[b] = append(out.Bands[b], res.Bands[j])
		}
		out.ValCount = append(out.ValCount, res.Count)
	}

	return out
}

// EvaluateInterval composites the valid samples of a single interval
func (e *Evaluator) EvaluateInterval(samples []contracts.Sample) contracts.CompositeResult {
	cloudless, _ := e.cascade.Filter(samples)
	return e.selector.Select(cloudless)
}

// bucket groups samples by the interval holding their acquisition date.
// Time of day is dropped before comparing; order within a bucket follows
// the input.
func (e *Evaluator) bucket(valid []contracts.Observation) [][]contracts.Sample {
	buckets := make([][]contracts.Sample, len(e.intervals))
	for _, o := range valid {
		day := s1_interval.DateOnly(o.Scene.Date, e.location)
		if i := s1_interval.Locate(e.intervals, day); i >= 0 {
			buckets[i] = append(buckets[i], o.Sample)
		}
	}
	return buckets
}

// Encode renders a pixel output the way the host consumes it: one entry
// per output band plus "valcount", each value converted to its
// configured sample type
func (e *Evaluator) Encode(out *contracts.PixelOutput) map[string][]float64 {
	bandType := e.cfg.BandSampleType()
	countType := e.cfg.ValCountSampleType()

	encoded := make(map[string][]float64, len(e.bands)+1)
	for _, b := range e.bands {
		values := out.Bands[b]
		enc := make([]float64, len(values))
		for i, v := range values {
			enc[i] = bandType.Encode(v)
		}
		encoded[string(b)] = enc
	}

	counts := make([]float64, len(out.ValCount))
	for i, c := range out.ValCount {
		counts[i] = countType.Encode(float64(c))
	}
	encoded[compositeconfig.ValCountID] = counts

	return encoded
}

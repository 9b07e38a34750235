package composite

import (
	"context"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/gem/backend/internal/contracts"
	"github.com/wonny/gem/backend/internal/s0_data"
	"github.com/wonny/gem/backend/pkg/logger"
)

// PixelResult is the outcome of one pixel in a batch
type PixelResult struct {
	ID     string
	Output *contracts.PixelOutput
	Err    error
}

// Summary describes a finished batch
type Summary struct {
	Pixels       int           `json:"pixels"`
	Failed       int           `json:"failed"`
	EmptySlots   int           `json:"empty_slots"`
	MeanValCount []float64     `json:"mean_valcount"` // per interval, over successful pixels
	Duration     time.Duration `json:"duration_ns"`
}

// Batch evaluates many pixels on a fixed worker pool.
// Pixels are independent; results keep the input order.
type Batch struct {
	evaluator *Evaluator
	workers   int
	logger    *logger.Logger
}

// NewBatch creates a batch runner; workers < 1 means one worker
func NewBatch(e *Evaluator, workers int, log *logger.Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		evaluator: e,
		workers:   workers,
		logger:    log.WithField("module", "composite.batch"),
	}
}

type pixelJob struct {
	index int
	pixel s0_data.RawPixel
}

// Run ingests and evaluates every pixel. A pixel with malformed input
// fails alone; cancellation marks the remaining pixels with ctx.Err()
// and Run returns that error alongside the partial results.
func (b *Batch) Run(ctx context.Context, pixels []s0_data.RawPixel) ([]PixelResult, *Summary, error) {
	started := time.Now()

	b.logger.WithFields(map[string]interface{}{
		"pixels":  len(pixels),
		"workers": b.workers,
	}).Info("Starting batch evaluation")

	results := make([]PixelResult, len(pixels))
	jobCh := make(chan pixelJob, len(pixels))

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			b.worker(ctx, workerID, jobCh, results)
		}(i)
	}

	for i, p := range pixels {
		jobCh <- pixelJob{index: i, pixel: p}
	}
	close(jobCh)
	wg.Wait()

	summary := Summarize(results, len(b.evaluator.intervals))
	summary.Duration = time.Since(started)

	b.logger.WithFields(map[string]interface{}{
		"pixels":      summary.Pixels,
		"failed":      summary.Failed,
		"empty_slots": summary.EmptySlots,
		"duration_ms": summary.Duration.Milliseconds(),
	}).Info("Batch evaluation completed")

	return results, summary, ctx.Err()
}

// worker writes each result into its own slot, so no locking is needed
func (b *Batch) worker(ctx context.Context, workerID int, jobCh <-chan pixelJob, results []PixelResult) {
	for job := range jobCh {
		res := PixelResult{ID: job.pixel.ID}

		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			results[job.index] = res
			continue
		default:
		}

		observations, err := s0_data.Ingest(job.pixel)
		if err != nil {
			b.logger.WithError(err).WithFields(map[string]interface{}{
				"stage":    contracts.StageIngest.ShortName(),
				"worker":   workerID,
				"pixel_id": job.pixel.ID,
			}).Warn("Rejected pixel input")
			res.Err = err
			results[job.index] = res
			continue
		}

		res.Output = b.evaluator.Evaluate(observations)
		results[job.index] = res
	}
}

// Summarize aggregates pixel results over n intervals; Duration is left to the caller
func Summarize(results []PixelResult, n int) *Summary {
	summary := &Summary{
		Pixels:       len(results),
		MeanValCount: make([]float64, n),
	}

	perInterval := make([][]float64, n)
	for _, r := range results {
		if r.Err != nil || r.Output == nil {
			summary.Failed++
			continue
		}
		summary.EmptySlots += r.Output.EmptySlots()
		for i, c := range r.Output.ValCount {
			perInterval[i] = append(perInterval[i], float64(c))
		}
	}

	for i, counts := range perInterval {
		if len(counts) > 0 {
			summary.MeanValCount[i] = stat.Mean(counts, nil)
		}
	}
	return summary
}

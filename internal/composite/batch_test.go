package composite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/internal/s0_data"
	"github.com/wonny/gem/backend/pkg/logger"
)

func rawPixel(id string, dates ...string) s0_data.RawPixel {
	p := s0_data.RawPixel{ID: id}
	for i, d := range dates {
		p.Samples = append(p.Samples, map[string]float64{
			"B02": float64(i + 1), "B04": 1000, "B08": 2000 + float64(i)*100,
			"dataMask": 1, "SCL": 4, "CLM": 0,
		})
		p.Scenes = append(p.Scenes, s0_data.RawScene{Date: d})
	}
	return p
}

func TestBatch_Run(t *testing.T) {
	e := newTestEvaluator(t)
	b := NewBatch(e, 3, logger.Nop())

	pixels := []s0_data.RawPixel{
		rawPixel("a", "2020-01-10", "2020-01-20"),
		rawPixel("b", "2020-01-15T10:42:00Z"),
		rawPixel("c"),
	}

	results, summary, err := b.Run(context.Background(), pixels)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, pixels[i].ID, r.ID, "results keep input order")
		require.NoError(t, r.Err)
	}

	assert.Equal(t, []int{2, 0, 0, 0, 0, 0}, results[0].Output.ValCount)
	assert.Equal(t, 2.0, results[0].Output.Bands["B02"][0])
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0}, results[1].Output.ValCount)
	assert.Equal(t, 6, results[2].Output.EmptySlots())

	assert.Equal(t, 3, summary.Pixels)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 5+5+6, summary.EmptySlots)
	assert.InDelta(t, 1.0, summary.MeanValCount[0], 1e-12)
	assert.Equal(t, 0.0, summary.MeanValCount[3])
}

func TestBatch_MalformedPixelFailsAlone(t *testing.T) {
	e := newTestEvaluator(t)
	b := NewBatch(e, 2, logger.Nop())

	misaligned := rawPixel("bad", "2020-02-01")
	misaligned.Scenes = nil
	badDate := rawPixel("date", "yesterday")

	results, summary, err := b.Run(context.Background(), []s0_data.RawPixel{
		misaligned, rawPixel("ok", "2020-02-01"), badDate,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, results[0].Err, s0_data.ErrMisaligned)
	assert.NoError(t, results[1].Err)
	assert.Error(t, results[2].Err)
	assert.Nil(t, results[2].Output)

	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 5, summary.EmptySlots)
}

func TestBatch_Cancelled(t *testing.T) {
	e := newTestEvaluator(t)
	b := NewBatch(e, 4, logger.Nop())

	pixels := make([]s0_data.RawPixel, 20)
	for i := range pixels {
		pixels[i] = rawPixel(fmt.Sprintf("p%d", i), "2020-05-05")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, summary, err := b.Run(ctx, pixels)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 20)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, 20, summary.Failed)
}

func TestBatch_MatchesSequentialEvaluation(t *testing.T) {
	e := newTestEvaluator(t)

	pixels := make([]s0_data.RawPixel, 50)
	for i := range pixels {
		pixels[i] = rawPixel(fmt.Sprintf("p%d", i), "2020-03-03", "2020-07-10", "2020-07-11", "2020-12-24")
	}

	results, _, err := NewBatch(e, 8, logger.Nop()).Run(context.Background(), pixels)
	require.NoError(t, err)

	for i, r := range results {
		obs, err := s0_data.Ingest(pixels[i])
		require.NoError(t, err)
		assert.Equal(t, e.Evaluate(obs), r.Output)
	}
}

func TestNewBatch_MinimumOneWorker(t *testing.T) {
	b := NewBatch(newTestEvaluator(t), 0, logger.Nop())
	assert.Equal(t, 1, b.workers)
}

func TestDocuments(t *testing.T) {
	e := newTestEvaluator(t)

	pixel := rawPixel("ok", "2020-01-10")
	pixel.Samples[0]["B02"] = 70000
	results, _, err := NewBatch(e, 1, logger.Nop()).Run(context.Background(), []s0_data.RawPixel{
		pixel, {ID: "bad", Scenes: []s0_data.RawScene{{Date: "2020-01-01"}}},
	})
	require.NoError(t, err)

	docs := e.Documents(results)
	require.Len(t, docs, 2)

	assert.Equal(t, "ok", docs[0].ID)
	assert.Len(t, docs[0].Bands, 12)
	assert.NotContains(t, docs[0].Bands, "valcount")
	assert.Equal(t, []float64{65535, 0, 0, 0, 0, 0}, docs[0].Bands["B02"])
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0}, docs[0].ValCount)
	assert.Empty(t, docs[0].Error)

	assert.Equal(t, "bad", docs[1].ID)
	assert.Nil(t, docs[1].Bands)
	assert.Contains(t, docs[1].Error, "not aligned")
}

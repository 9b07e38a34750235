package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/gem/backend/internal/audit"
	"github.com/wonny/gem/backend/internal/composite"
	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/internal/contracts"
	"github.com/wonny/gem/backend/internal/metadata"
	"github.com/wonny/gem/backend/internal/metrics"
	"github.com/wonny/gem/backend/internal/s0_data"
	"github.com/wonny/gem/backend/pkg/logger"
	"github.com/wonny/gem/backend/pkg/redis"
)

const (
	// MaxBodyBytes bounds an evaluation request body
	MaxBodyBytes = 32 << 20
	// MaxPixels bounds the pixels of one evaluation request
	MaxPixels = 10000

	defaultRunLimit = 20
	maxRunLimit     = 200
)

// PixelCache stores evaluated pixels
type PixelCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RunStore records and lists batch runs
type RunStore interface {
	SaveRun(ctx context.Context, run *audit.RunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*audit.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]audit.RunRecord, error)
}

// CompositeHandler serves the compositing endpoints
// ⭐ SSOT: 합성 API 핸들러는 이 구조체에서만
type CompositeHandler struct {
	evaluator  *composite.Evaluator
	batch      *composite.Batch
	emitter    *metadata.Emitter
	cache      PixelCache // nil: no caching
	runs       RunStore   // nil: audit disabled
	configHash string
	configYAML []byte
	cacheTTL   time.Duration
	logger     *logger.Logger
}

// NewCompositeHandler creates a new composite handler
func NewCompositeHandler(
	evaluator *composite.Evaluator,
	batch *composite.Batch,
	cache PixelCache,
	runs RunStore,
	configYAML []byte,
	cacheTTL time.Duration,
	log *logger.Logger,
) (*CompositeHandler, error) {
	hash, err := compositeconfig.Hash(evaluator.Config())
	if err != nil {
		return nil, err
	}

	return &CompositeHandler{
		evaluator:  evaluator,
		batch:      batch,
		emitter:    metadata.NewEmitter(),
		cache:      cache,
		runs:       runs,
		configHash: hash,
		configYAML: configYAML,
		cacheTTL:   cacheTTL,
		logger:     log.WithField("module", "api.composite"),
	}, nil
}

// ConfigResponse describes the active compositing configuration
type ConfigResponse struct {
	Config   *compositeconfig.Config      `json:"config"`
	Hash     string                       `json:"hash"`
	Outputs  []compositeconfig.OutputSpec `json:"outputs"`
	Inputs   []string                     `json:"inputs"`
	Warnings []compositeconfig.Warning    `json:"warnings"`
}

// GetConfig returns the active configuration and its output declarations
// GET /api/composite/config
func (h *CompositeHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.evaluator.Config()

	warnings := compositeconfig.Warn(cfg)
	if warnings == nil {
		warnings = []compositeconfig.Warning{}
	}

	respond(w, r, http.StatusOK, ConfigResponse{
		Config:   cfg,
		Hash:     h.configHash,
		Outputs:  cfg.OutputSpecs(),
		Inputs:   cfg.InputBands(),
		Warnings: warnings,
	})
}

// IntervalsResponse holds the interval partition and its metadata
type IntervalsResponse struct {
	Intervals []contracts.Interval      `json:"intervals"`
	Metadata  *contracts.OutputMetadata `json:"metadata"`
}

// GetIntervals returns the partition and the metadata record for a factor
// GET /api/composite/intervals?norm_factor=0.0001
func (h *CompositeHandler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	normFactor := 1.0
	if v := r.URL.Query().Get("norm_factor"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "norm_factor must be a number")
			return
		}
		normFactor = f
	}

	intervals := h.evaluator.Intervals()
	md, err := h.emitter.Emit(intervals, normFactor)
	if err != nil {
		h.logger.WithError(err).Error("Failed to emit metadata")
		respondError(w, r, http.StatusInternalServerError, "Failed to build metadata")
		return
	}

	respond(w, r, http.StatusOK, IntervalsResponse{Intervals: intervals, Metadata: md})
}

// Evaluate composites a batch of pixels.
// Pixels are looked up in the cache first; only misses are evaluated.
// POST /api/composite/evaluate
func (h *CompositeHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	started := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req composite.BatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Pixels) == 0 {
		respondError(w, r, http.StatusBadRequest, "pixels must not be empty")
		return
	}
	if len(req.Pixels) > MaxPixels {
		respondError(w, r, http.StatusRequestEntityTooLarge, "too many pixels")
		return
	}

	results := make([]composite.PixelResult, len(req.Pixels))
	keys := make([]string, len(req.Pixels))
	var missIdx []int
	var missPixels []s0_data.RawPixel

	for i, p := range req.Pixels {
		if h.lookup(ctx, p, &results[i], &keys[i]) {
			continue
		}
		missIdx = append(missIdx, i)
		missPixels = append(missPixels, p)
	}

	var evaluated []composite.PixelResult
	if len(missPixels) > 0 {
		evaluated, _, err = h.batch.Run(ctx, missPixels)
		if err != nil {
			h.logger.WithError(err).Warn("Evaluation interrupted")
			respondError(w, r, http.StatusServiceUnavailable, "evaluation interrupted")
			return
		}
	}

	for j, res := range evaluated {
		i := missIdx[j]
		results[i] = res
		if res.Err == nil && h.cache != nil && keys[i] != "" {
			if err := h.cache.Set(ctx, keys[i], res.Output, h.cacheTTL); err != nil {
				h.logger.WithError(err).Debug("Failed to cache pixel")
			}
		}
	}

	summary := composite.Summarize(results, len(h.evaluator.Intervals()))
	summary.Duration = time.Since(started)
	metrics.RecordBatch(audit.SourceAPI, summary)

	md, err := h.emitter.Emit(h.evaluator.Intervals(), req.NormalizationFactor)
	if err != nil {
		h.logger.WithError(err).Error("Failed to emit metadata")
		respondError(w, r, http.StatusInternalServerError, "Failed to build metadata")
		return
	}

	doc := composite.BatchDocument{
		Metadata: md,
		Pixels:   h.evaluator.Documents(results),
		Summary:  summary,
	}

	if h.runs != nil {
		run := audit.NewRunRecord(audit.RunInfo{
			Source:     audit.SourceAPI,
			ConfigID:   h.evaluator.Config().Meta.ConfigID,
			ConfigHash: h.configHash,
			ConfigYAML: h.configYAML,
			NormFactor: req.NormalizationFactor,
			StartedAt:  started,
		}, summary)
		if err := h.runs.SaveRun(ctx, run); err != nil {
			h.logger.WithError(err).Error("Failed to record run")
		} else {
			doc.RunID = run.RunID.String()
		}
	}

	respond(w, r, http.StatusOK, doc)
}

// lookup fills res from the cache and reports a hit; key is set whenever
// the pixel can be cached
func (h *CompositeHandler) lookup(ctx context.Context, p s0_data.RawPixel, res *composite.PixelResult, key *string) bool {
	if h.cache == nil {
		return false
	}

	fp, err := s0_data.Fingerprint(p)
	if err != nil {
		return false
	}
	*key = redis.PixelKey(h.configHash, fp)

	var out contracts.PixelOutput
	found, err := h.cache.Get(ctx, *key, &out)
	if err != nil || !found {
		metrics.RecordCacheMiss()
		return false
	}

	metrics.RecordCacheHit()
	*res = composite.PixelResult{ID: p.ID, Output: &out}
	return true
}

// ListRuns returns recent recorded runs
// GET /api/composite/runs?limit=20
func (h *CompositeHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, r, http.StatusServiceUnavailable, "audit is disabled")
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunLimit {
			respondError(w, r, http.StatusBadRequest, "limit must be in [1, 200]")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, r, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one recorded run with its config YAML
// GET /api/composite/runs/{id}
func (h *CompositeHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, r, http.StatusServiceUnavailable, "audit is disabled")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if errors.Is(err, audit.ErrRunNotFound) {
		respondError(w, r, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, r, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respond(w, r, http.StatusOK, run)
}

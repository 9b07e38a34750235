package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency whose liveness is part of the health report
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	deps    map[string]Pinger
	service string
}

// NewHealthHandler creates a health handler; nil dependencies are skipped
func NewHealthHandler(service string, deps map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{deps: active, service: service}
}

// Health pings every dependency
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	respond(w, r, code, map[string]interface{}{
		"status":  status,
		"service": h.service,
		"checks":  checks,
	})
}

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/metrics"
	"github.com/go-chi/chi/v5"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves /healthz and /metrics.
type Health struct {
	store   Pinger
	backend string
	log     logger.Logger
}

func NewHealth(store Pinger, backend string, log logger.Logger) *Health {
	return &Health{store: store, backend: backend, log: log}
}

func (h *Health) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", metrics.Handler())
}

// HandleHealth pings the store and answers 200 or 503.
func (h *Health) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "backend": h.backend}
	if err := h.store.Ping(ctx); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

package handler

import (
	"net/http"

	natsclient "github.com/roomlink/messaging-platform/internal/nats"
	"github.com/roomlink/messaging-platform/internal/store"
	"github.com/roomlink/messaging-platform/pkg/logger"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	store  store.Store
	nats   *natsclient.Client
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st store.Store, nc *natsclient.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:  st,
		nats:   nc,
		logger: log,
	}
}

// Health handles GET /health. Always healthy while the process serves.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready. Ready means the database answers and the push
// queue connection is up.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
		"nats":     "ok",
	}
	ready := true

	if err := h.store.Ping(r.Context()); err != nil {
		checks["database"] = "unreachable"
		ready = false
	}
	if !h.nats.IsConnected() {
		checks["nats"] = "disconnected"
		ready = false
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

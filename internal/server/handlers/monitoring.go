package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/server/responses"
	"github.com/INF-UCT/code-lens/internal/version"
)

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueLength reports buffered events.
type QueueLength interface {
	Len() int
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	store        Pinger
	queue        QueueLength
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates monitoring handlers. queue may be nil.
func NewMonitoringHandlers(store Pinger, queue QueueLength) *MonitoringHandlers {
	return &MonitoringHandlers{
		store:        store,
		queue:        queue,
		startTime:    time.Now(),
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles GET /healthz. An unreachable store reports 503.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Store:     "ok",
	}
	if h.queue != nil {
		health.QueueDepth = h.queue.Len()
	}

	status := http.StatusOK
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			slog.Warn("Health check: store unavailable", "error", err)
			health.Status = "unhealthy"
			health.Store = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	if err := writeJSONPretty(w, r, status, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

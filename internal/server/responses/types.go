// Package responses defines API response types used by Code Lens HTTP handlers.
package responses

import (
	"time"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/store"
)

// Analysis statuses.
const (
	StatusCompleted = "completed"
	StatusQueued    = "queued"
)

// AnalysisResponse is returned by POST /repositories.
type AnalysisResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// RepositoryListResponse is returned by GET /repositories.
type RepositoryListResponse struct {
	Repositories []store.Repository `json:"repositories"`
	Count        int                `json:"count"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Uptime     float64   `json:"uptime"`
	QueueDepth int       `json:"queue_depth"`
	Store      string    `json:"store"`
}

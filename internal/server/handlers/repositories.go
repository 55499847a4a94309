package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/pipeline"
	"github.com/INF-UCT/code-lens/internal/server/responses"
	"github.com/INF-UCT/code-lens/internal/store"
)

// Pipeline is the part of the orchestrator the API drives.
type Pipeline interface {
	GenerateDocs(ctx context.Context, req pipeline.AnalysisRequest, owner pipeline.Owner) (uuid.UUID, error)
	Enqueue(ctx context.Context, req pipeline.AnalysisRequest, owner pipeline.Owner) (uuid.UUID, error)
}

// OwnerResolver maps a username onto an owner.
type OwnerResolver interface {
	Resolve(ctx context.Context, username string) (pipeline.Owner, error)
}

// RepositoryHandlers serves the /repositories endpoints.
type RepositoryHandlers struct {
	pipeline     Pipeline
	owners       OwnerResolver
	repos        store.RepositoryStore
	errorAdapter *errors.HTTPErrorAdapter
}

// NewRepositoryHandlers creates repository handlers.
func NewRepositoryHandlers(p Pipeline, owners OwnerResolver, repos store.RepositoryStore) *RepositoryHandlers {
	return &RepositoryHandlers{
		pipeline:     p,
		owners:       owners,
		repos:        repos,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleAnalyze handles POST /repositories. With ?async=true the request is
// queued after sanitization and 202 is returned.
func (h *RepositoryHandlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	async, err := parseBoolQuery(r, "async")
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	owner, err := h.owners.Resolve(r.Context(), req.Owner)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var (
		id     uuid.UUID
		status = responses.StatusCompleted
		code   = http.StatusCreated
	)
	if async {
		id, err = h.pipeline.Enqueue(r.Context(), req, owner)
		status, code = responses.StatusQueued, http.StatusAccepted
	} else {
		id, err = h.pipeline.GenerateDocs(r.Context(), req, owner)
	}
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, code, responses.AnalysisResponse{ID: id, Status: status}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

// HandleList handles GET /repositories.
func (h *RepositoryHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repos.List(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if repos == nil {
		repos = []store.Repository{}
	}
	if err := writeJSONPretty(w, r, http.StatusOK, responses.RepositoryListResponse{Repositories: repos, Count: len(repos)}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

// HandleGet handles GET /repositories/{id}.
func (h *RepositoryHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid repository id").
			WithContext("id", raw).
			Build())
		return
	}
	repo, err := h.repos.FindByID(r.Context(), id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := writeJSONPretty(w, r, http.StatusOK, repo); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

func parseBoolQuery(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.ValidationError("invalid boolean query parameter").
			WithContext("parameter", key).
			WithContext("value", v).
			Build()
	}
	return b, nil
}

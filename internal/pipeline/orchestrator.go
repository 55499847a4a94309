// Package pipeline coordinates repository ingestion: find-or-create the
// record, materialize, sanitize, render and hand off to the notification and
// documentation services.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/events"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/git"
	"github.com/INF-UCT/code-lens/internal/logfields"
	"github.com/INF-UCT/code-lens/internal/metrics"
	"github.com/INF-UCT/code-lens/internal/observability"
	"github.com/INF-UCT/code-lens/internal/sanitize"
	"github.com/INF-UCT/code-lens/internal/store"
)

// Materializer produces a pinned clone for a target.
type Materializer interface {
	Materialize(ctx context.Context, t git.Target) (string, error)
}

// Sanitizer applies the ignore and size policies to a clone.
type Sanitizer interface {
	Sanitize(ctx context.Context, clonePath string) (*sanitize.Report, error)
}

// Publisher accepts events without blocking.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) bool
}

// Dependencies wires an Orchestrator.
type Dependencies struct {
	Repositories store.RepositoryStore
	Materializer Materializer
	Sanitizer    Sanitizer
	// Handoff renders the tree then mails the owner and requests docs.
	Handoff  events.Handler
	Events   Publisher
	Recorder metrics.Recorder
}

// Orchestrator runs the ingestion pipeline.
type Orchestrator struct {
	deps     Dependencies
	recorder metrics.Recorder
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	rec := deps.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Orchestrator{deps: deps, recorder: rec}
}

// GenerateDocs ingests req for owner synchronously and returns the repository
// id. The clone is never removed, including after a failed sanitization.
// When either final side effect fails the call fails, even though the other
// may already have happened.
func (o *Orchestrator) GenerateDocs(ctx context.Context, req AnalysisRequest, owner Owner) (id uuid.UUID, err error) {
	start := time.Now()
	defer func() { o.finish(start, err) }()

	repo, clonePath, err := o.prepare(ctx, req, owner)
	if err != nil {
		return uuid.Nil, err
	}
	ctx = observability.WithRepoID(ctx, repo.ID.String())
	ctx = observability.WithRepoName(ctx, repo.Name)

	if o.deps.Handoff == nil {
		return uuid.Nil, errors.InternalError("pipeline handoff is not configured").Build()
	}
	err = o.deps.Handoff.Handle(ctx, events.DocsGenerationRequested{
		RepoID:     repo.ID,
		RepoName:   repo.Name,
		RepoPath:   clonePath,
		OwnerEmail: owner.Email,
	})
	if err != nil {
		return uuid.Nil, err
	}
	observability.InfoContext(ctx, "Documentation pipeline complete",
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return repo.ID, nil
}

// Enqueue runs find-or-create, materialization and sanitization, then
// publishes a docs generation event and returns. Rendering and the final side
// effects happen on the dispatcher. A dropped event is logged by the queue.
func (o *Orchestrator) Enqueue(ctx context.Context, req AnalysisRequest, owner Owner) (uuid.UUID, error) {
	if o.deps.Events == nil {
		return uuid.Nil, errors.InternalError("event publisher is not configured").Build()
	}
	repo, clonePath, err := o.prepare(ctx, req, owner)
	if err != nil {
		o.recorder.IncPipelineOutcome(outcome(err))
		return uuid.Nil, err
	}
	o.deps.Events.Publish(ctx, events.DocsGenerationRequested{
		RepoID:     repo.ID,
		RepoName:   repo.Name,
		RepoPath:   clonePath,
		OwnerEmail: owner.Email,
	})
	return repo.ID, nil
}

func (o *Orchestrator) prepare(ctx context.Context, req AnalysisRequest, owner Owner) (*store.Repository, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}
	ctx = observability.WithRepoName(ctx, req.Name)

	var repo *store.Repository
	err := o.stage(ctx, metrics.StageResolve, func() error {
		var ferr error
		repo, ferr = o.findOrCreate(ctx, req, owner)
		return ferr
	})
	if err != nil {
		return nil, "", err
	}
	ctx = observability.WithRepoID(ctx, repo.ID.String())

	var clonePath string
	err = o.stage(ctx, metrics.StageMaterialize, func() error {
		cloneStart := time.Now()
		var merr error
		clonePath, merr = o.deps.Materializer.Materialize(ctx, git.Target{
			ID:        repo.ID,
			URL:       repo.URL,
			Branch:    repo.DefaultBranch,
			CommitSHA: repo.LastCommitSHA,
		})
		o.recorder.ObserveCloneDuration(time.Since(cloneStart), merr == nil)
		return merr
	})
	if err != nil {
		return nil, "", err
	}

	err = o.stage(ctx, metrics.StageSanitize, func() error {
		report, serr := o.deps.Sanitizer.Sanitize(ctx, clonePath)
		if report != nil {
			o.recorder.AddRemovedPaths(len(report.Removed))
		}
		return serr
	})
	if err != nil {
		return nil, "", err
	}
	return repo, clonePath, nil
}

// findOrCreate returns the stored record for req.Name, creating it when
// absent. An existing record is reused as stored.
func (o *Orchestrator) findOrCreate(ctx context.Context, req AnalysisRequest, owner Owner) (*store.Repository, error) {
	existing, err := o.deps.Repositories.FindByName(ctx, req.Name)
	if err == nil {
		if existing.LastCommitSHA != req.CommitSHA || existing.DefaultBranch != req.Branch {
			observability.WarnContext(ctx, "Reusing stored repository revision; requested revision ignored",
				logfields.Branch(existing.DefaultBranch),
				logfields.Commit(existing.LastCommitSHA),
				slog.String("requested_branch", req.Branch),
				slog.String("requested_commit", req.CommitSHA))
		}
		return existing, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	created, err := o.deps.Repositories.Save(ctx, store.Repository{
		Name:          req.Name,
		URL:           req.URL,
		OwnerID:       owner.ID,
		DefaultBranch: req.Branch,
		LastCommitSHA: req.CommitSHA,
	})
	if err != nil {
		return nil, err
	}
	observability.InfoContext(ctx, "Registered repository",
		logfields.RepoID(created.ID.String()),
		logfields.URL(created.URL))
	return created, nil
}

func (o *Orchestrator) stage(ctx context.Context, name string, fn func() error) error {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn()
	o.recorder.ObserveStageDuration(name, time.Since(start))
	if err != nil {
		o.recorder.IncStageResult(name, outcome(err))
		observability.ErrorContext(ctx, "Pipeline stage failed", logfields.Error(err))
		return err
	}
	o.recorder.IncStageResult(name, metrics.ResultSuccess)
	return nil
}

func (o *Orchestrator) finish(start time.Time, err error) {
	o.recorder.ObservePipelineDuration(time.Since(start))
	if err != nil {
		o.recorder.IncPipelineOutcome(outcome(err))
		return
	}
	o.recorder.IncPipelineOutcome(metrics.ResultSuccess)
}

func outcome(err error) metrics.ResultLabel {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFailed
}

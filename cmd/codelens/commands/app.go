package commands

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/events"
	"github.com/INF-UCT/code-lens/internal/git"
	"github.com/INF-UCT/code-lens/internal/mailer"
	"github.com/INF-UCT/code-lens/internal/metrics"
	"github.com/INF-UCT/code-lens/internal/pipeline"
	"github.com/INF-UCT/code-lens/internal/sanitize"
	"github.com/INF-UCT/code-lens/internal/store"
	"github.com/INF-UCT/code-lens/internal/tree"
	"github.com/INF-UCT/code-lens/internal/wiki"
	"github.com/INF-UCT/code-lens/internal/workspace"
)

// app holds the wired collaborators shared by serve and analyze.
type app struct {
	cfg          *config.Config
	store        store.Store
	repositories store.RepositoryStore
	recorder     metrics.Recorder
	metrics      http.Handler
	workspace    *workspace.Manager
	sideEffects  *events.SideEffects
	publisher    *events.Publisher
	receiver     *events.Receiver
	mirror       *events.NATSMirror
	orchestrator *pipeline.Orchestrator
	owners       pipeline.OwnerResolver
}

func newSanitizer(cfg *config.Config) *sanitize.Sanitizer {
	return sanitize.New(sanitize.Options{
		GlobalIgnoreFile: cfg.Repositories.IgnoreFile,
		LocalIgnoreFile:  cfg.Repositories.LocalIgnoreFile,
		MaxFileSizeMB:    cfg.Repositories.MaxFileSizeMB,
	})
}

// newApp opens the store and builds every pipeline collaborator from cfg.
// The caller must call close.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Enabled {
		pr := metrics.NewPrometheusRecorder(nil)
		a.recorder, a.metrics = pr, pr.HTTPHandler()
	}

	a.workspace = workspace.NewManager(cfg.Repositories.CloneDir)
	if err := a.workspace.Ensure(); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.store = st
	cached, err := store.NewCachedRepositories(st.Repositories(), cfg.Database.CacheSize)
	if err != nil {
		a.close()
		return nil, err
	}
	a.repositories = cached
	a.owners = pipeline.OwnerResolver{Users: st.Users()}

	auth, err := git.CreateAuth(cfg.Repositories.Auth)
	if err != nil {
		a.close()
		return nil, err
	}
	mail, err := mailer.NewClient(cfg.Mailer)
	if err != nil {
		a.close()
		return nil, err
	}

	a.sideEffects = &events.SideEffects{
		Renderer: tree.NewRenderer(cfg.Tree),
		Mailer:   mail,
		Wiki:     wiki.NewClient(cfg.Wiki),
		Recorder: a.recorder,
	}
	a.publisher, a.receiver = events.NewQueue(cfg.Queue.Capacity, events.WithRecorder(a.recorder))

	if cfg.NATS.URL != "" {
		m, merr := events.ConnectNATSMirror(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if merr != nil {
			// The mirror is optional; the queue works without it.
			slog.Warn("Event mirror disabled", "error", merr)
		} else {
			a.mirror = m
		}
	}

	a.orchestrator = pipeline.NewOrchestrator(pipeline.Dependencies{
		Repositories: a.repositories,
		Materializer: git.NewMaterializer(a.workspace.Root(), git.WithAuth(auth)),
		Sanitizer:    newSanitizer(cfg),
		Handoff:      a.sideEffects,
		Events:       a.publisher,
		Recorder:     a.recorder,
	})
	return a, nil
}

func (a *app) dispatcher() *events.Dispatcher {
	opts := []events.DispatcherOption{events.WithDispatchRecorder(a.recorder)}
	if a.mirror != nil {
		opts = append(opts, events.WithMirror(a.mirror))
	}
	return events.NewDispatcher(a.receiver, a.sideEffects, opts...)
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.mirror != nil {
		a.mirror.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}
}

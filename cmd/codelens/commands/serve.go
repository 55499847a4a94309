package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/server/httpserver"
	"github.com/INF-UCT/code-lens/internal/workspace"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Override the listen address (host:port)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg, s.Addr)
}

// RunServe starts every long-running component and blocks until ctx is done,
// then shuts down in reverse order: HTTP first so no new events arrive, then
// the queue is closed and in-flight handlers are awaited.
func RunServe(ctx context.Context, cfg *config.Config, addr string) error {
	if addr != "" {
		host, port, err := splitAddr(addr)
		if err != nil {
			return err
		}
		cfg.Server.Host, cfg.Server.Port = host, port
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	dispatcher := a.dispatcher()
	dispatchDone := make(chan error, 1)
	go func() { dispatchDone <- dispatcher.Run(context.WithoutCancel(ctx)) }()

	var janitor *workspace.Janitor
	if cfg.Repositories.Retention > 0 {
		janitor, err = workspace.NewJanitor(a.workspace, cfg.Repositories.Retention, cfg.Repositories.JanitorInterval)
		if err != nil {
			return err
		}
		if err := janitor.Start(ctx); err != nil {
			return err
		}
	}

	srv := httpserver.New(cfg, httpserver.Options{
		Pipeline:     a.orchestrator,
		Owners:       a.owners,
		Store:        a.store,
		Repositories: a.repositories,
		Queue:        a.publisher,
		Metrics:      a.metrics,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	slog.Info("Code Lens started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()

	if err := srv.Stop(stopCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	a.publisher.Close()
	select {
	case <-dispatchDone:
	case <-stopCtx.Done():
	}
	if err := dispatcher.Wait(stopCtx); err != nil {
		slog.Warn("Event handlers still running at shutdown",
			"error", err,
			"in_flight", dispatcher.InFlight())
	}
	if janitor != nil {
		if err := janitor.Stop(); err != nil {
			slog.Warn("Clone janitor shutdown failed", "error", err)
		}
	}
	slog.Info("Code Lens stopped")
	return nil
}

package workspace

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

// Janitor periodically sweeps expired clones using gocron.
type Janitor struct {
	scheduler gocron.Scheduler
	manager   *Manager
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewJanitor creates a janitor. A zero retention is rejected; callers skip the
// janitor entirely when retention is disabled.
func NewJanitor(m *Manager, retention, interval time.Duration) (*Janitor, error) {
	if retention <= 0 {
		return nil, errors.ConfigError("clone retention must be positive").
			WithContext("field", "repositories.retention").
			Build()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create gocron scheduler").Build()
	}
	return &Janitor{scheduler: s, manager: m, retention: retention, interval: interval, now: time.Now}, nil
}

// Start schedules the sweep job and starts the scheduler.
func (j *Janitor) Start(ctx context.Context) error {
	_, err := j.scheduler.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func(ctx context.Context) { j.sweep(ctx) }, ctx),
		gocron.WithName("clone-janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to schedule clone janitor").Build()
	}
	slog.Info("Starting clone janitor",
		slog.Duration("interval", j.interval),
		slog.Duration("retention", j.retention))
	j.scheduler.Start()
	return nil
}

// Stop shuts down the scheduler, waiting for a running sweep.
func (j *Janitor) Stop() error {
	slog.Info("Stopping clone janitor")
	return j.scheduler.Shutdown()
}

// RunOnce performs a single sweep immediately.
func (j *Janitor) RunOnce(ctx context.Context) int {
	return j.sweep(ctx)
}

func (j *Janitor) sweep(ctx context.Context) int {
	start := time.Now()
	removed, err := j.manager.Sweep(ctx, j.retention, j.now())
	if err != nil {
		slog.Error("Clone sweep failed", logfields.Error(err))
	}
	if len(removed) > 0 {
		slog.Info("Clone sweep complete",
			slog.Int("removed", len(removed)),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}
	return len(removed)
}

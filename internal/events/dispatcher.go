package events

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/INF-UCT/code-lens/internal/logfields"
	"github.com/INF-UCT/code-lens/internal/metrics"
	"github.com/INF-UCT/code-lens/internal/observability"
)

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Mirror receives a copy of every dequeued event, e.g. for external fan-out.
type Mirror interface {
	Mirror(ctx context.Context, e Event) error
}

// Dispatcher drains a Receiver and spawns a detached goroutine per event.
type Dispatcher struct {
	rx       *Receiver
	handler  Handler
	mirror   Mirror
	recorder metrics.Recorder

	mu       sync.Mutex
	inflight int
	idle     chan struct{} // closed when inflight drops to zero
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMirror forwards each dequeued event to m before handling it.
func WithMirror(m Mirror) DispatcherOption {
	return func(d *Dispatcher) { d.mirror = m }
}

// WithDispatchRecorder reports handler outcomes.
func WithDispatchRecorder(r metrics.Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(rx *Receiver, h Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{rx: rx, handler: h, recorder: metrics.NoopRecorder{}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run receives events until ctx is done or the queue is closed and drained.
// It returns an error only if another Run is already draining the receiver.
// Handlers are not cancelled when ctx is; use Wait to let them finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	release, err := d.rx.acquire()
	if err != nil {
		return err
	}
	defer release()

	slog.Info("Event dispatcher started")
	defer slog.Info("Event dispatcher stopped")

	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-d.rx.ch:
			if !ok {
				return nil
			}
			d.recorder.SetQueueDepth(len(d.rx.ch))
			d.spawn(handlerCtx, e)
		}
	}
}

// Wait blocks until no handler is running or ctx is done. It is safe to call
// while Run is still receiving; handlers spawned after Wait returns are not
// covered.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	if d.inflight == 0 {
		d.mu.Unlock()
		return nil
	}
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports the number of running handlers.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight
}

func (d *Dispatcher) begin() {
	d.mu.Lock()
	if d.inflight == 0 {
		d.idle = make(chan struct{})
	}
	d.inflight++
	d.mu.Unlock()
}

func (d *Dispatcher) end() {
	d.mu.Lock()
	d.inflight--
	if d.inflight == 0 {
		close(d.idle)
	}
	d.mu.Unlock()
}

func (d *Dispatcher) spawn(ctx context.Context, e Event) {
	d.begin()
	go func() {
		defer d.end()
		ctx := observability.WithEvent(ctx, e.Kind())
		start := time.Now()

		if d.mirror != nil {
			if err := d.mirror.Mirror(ctx, e); err != nil {
				observability.WarnContext(ctx, "Event mirror failed", logfields.Error(err))
			}
		}

		err := d.safeHandle(ctx, e)
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailed
			observability.ErrorContext(ctx, "Event handler failed",
				logfields.Error(err),
				logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		} else {
			observability.DebugContext(ctx, "Event handled",
				logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		}
		d.recorder.IncEventHandled(e.Kind(), result)
	}()
}

func (d *Dispatcher) safeHandle(ctx context.Context, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked",
				logfields.Event(e.Kind()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return d.handler.Handle(ctx, e)
}

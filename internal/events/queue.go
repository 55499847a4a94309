package events

import (
	"context"
	"sync"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
	"github.com/INF-UCT/code-lens/internal/metrics"
	"github.com/INF-UCT/code-lens/internal/observability"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 100

// Publisher is the sending half of the queue. It is safe for concurrent use
// by any number of producers.
type Publisher struct {
	mu       sync.RWMutex
	ch       chan Event
	closed   bool
	recorder metrics.Recorder
}

// Receiver is the receiving half of the queue. Only one drain may be active
// at a time.
type Receiver struct {
	draining sync.Mutex
	ch       <-chan Event
}

// QueueOption configures NewQueue.
type QueueOption func(*Publisher)

// WithRecorder reports published, dropped and depth metrics.
func WithRecorder(r metrics.Recorder) QueueOption {
	return func(p *Publisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// NewQueue creates a bounded queue and returns its two halves.
func NewQueue(capacity int, opts ...QueueOption) (*Publisher, *Receiver) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ch := make(chan Event, capacity)
	p := &Publisher{ch: ch, recorder: metrics.NoopRecorder{}}
	for _, o := range opts {
		o(p)
	}
	return p, &Receiver{ch: ch}
}

// Publish enqueues e without blocking. It reports whether the event was
// accepted; a full or closed queue drops the event with a warning.
func (p *Publisher) Publish(ctx context.Context, e Event) bool {
	if e == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		observability.WarnContext(ctx, "Event dropped: queue closed", logfields.Event(e.Kind()))
		p.recorder.IncEventDropped(e.Kind())
		return false
	}

	select {
	case p.ch <- e:
		p.recorder.IncEventPublished(e.Kind())
		p.recorder.SetQueueDepth(len(p.ch))
		return true
	default:
		observability.WarnContext(ctx, "Event dropped: queue full",
			logfields.Event(e.Kind()))
		p.recorder.IncEventDropped(e.Kind())
		return false
	}
}

// Close stops accepting events. Buffered events remain available to the
// receiver, which observes end-of-stream once they are drained.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
}

// Len returns the number of buffered events.
func (p *Publisher) Len() int { return len(p.ch) }

// Cap returns the queue capacity.
func (p *Publisher) Cap() int { return cap(p.ch) }

// acquire claims exclusive draining rights on the receiver.
func (r *Receiver) acquire() (func(), error) {
	if !r.draining.TryLock() {
		return nil, errors.RuntimeError("event receiver is already being drained").Build()
	}
	return r.draining.Unlock, nil
}

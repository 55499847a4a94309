package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/INF-UCT/code-lens/internal/foundation/errors"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []Event
}

func (h *recordingHandler) Handle(_ context.Context, e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, e)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func TestDispatcher_HandlesEveryEventAndStopsOnClose(t *testing.T) {
	pub, rx := NewQueue(8)
	h := &recordingHandler{}
	d := NewDispatcher(rx, h)

	for i := 0; i < 5; i++ {
		require.True(t, pub.Publish(context.Background(), NotificationRequested{}))
	}
	pub.Close()

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after queue close")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
	require.Equal(t, 5, h.count())
}

func TestDispatcher_SlowHandlerDoesNotBlockReceiving(t *testing.T) {
	pub, rx := NewQueue(4)
	release := make(chan struct{})
	started := make(chan struct{}, 4)

	d := NewDispatcher(rx, HandlerFunc(func(ctx context.Context, e Event) error {
		started <- struct{}{}
		<-release
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	for i := 0; i < 3; i++ {
		pub.Publish(ctx, NotificationRequested{})
	}
	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatalf("handler %d not started while earlier handlers were blocked", i)
		}
	}
	close(release)

	wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
	defer wcancel()
	require.NoError(t, d.Wait(wctx))
}

func TestDispatcher_SecondRunRejected(t *testing.T) {
	_, rx := NewQueue(1)
	d1 := NewDispatcher(rx, &recordingHandler{})
	d2 := NewDispatcher(rx, &recordingHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	running := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		close(running)
		_ = d1.Run(ctx)
		close(stopped)
	}()
	<-running

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	require.Eventually(t, func() bool {
		err := d2.Run(cancelled)
		return ferrors.HasCategory(err, ferrors.CategoryRuntime)
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
}

func TestDispatcher_HandlerFailureAndPanicAreContained(t *testing.T) {
	pub, rx := NewQueue(4)
	var mu sync.Mutex
	calls := 0
	d := NewDispatcher(rx, HandlerFunc(func(ctx context.Context, e Event) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			return errors.New("smtp down")
		case 2:
			panic("boom")
		}
		return nil
	}))

	for i := 0; i < 3; i++ {
		pub.Publish(context.Background(), NotificationRequested{})
	}
	pub.Close()
	require.NoError(t, d.Run(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
	require.Equal(t, 3, calls)
}

type fakeMirror struct {
	mu    sync.Mutex
	kinds []string
}

func (m *fakeMirror) Mirror(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, e.Kind())
	return errors.New("mirror unavailable")
}

func TestDispatcher_MirrorFailureDoesNotBlockHandler(t *testing.T) {
	pub, rx := NewQueue(2)
	h := &recordingHandler{}
	mirror := &fakeMirror{}
	d := NewDispatcher(rx, h, WithMirror(mirror))

	pub.Publish(context.Background(), DocsGenerationRequested{RepoName: "r"})
	pub.Close()
	require.NoError(t, d.Run(context.Background()))
	require.NoError(t, d.Wait(context.Background()))

	require.Equal(t, 1, h.count())
	require.Equal(t, []string{KindDocsGenerationRequested}, mirror.kinds)
}

func TestDispatcher_WaitConcurrentWithRun(t *testing.T) {
	pub, rx := NewQueue(DefaultCapacity)
	var handled atomic.Int32
	d := NewDispatcher(rx, HandlerFunc(func(context.Context, Event) error {
		handled.Add(1)
		return nil
	}))

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = d.Run(context.Background())
	}()

	waiters := make(chan struct{})
	go func() {
		defer close(waiters)
		for i := 0; i < 50; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			_ = d.Wait(ctx)
			cancel()
		}
	}()

	for i := 0; i < 50; i++ {
		pub.Publish(context.Background(), NotificationRequested{})
	}
	pub.Close()

	<-waiters
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after the queue closed")
	}
	require.NoError(t, d.Wait(context.Background()))
	assert.Zero(t, d.InFlight())
	assert.EqualValues(t, 50, handled.Load())
}

func TestDispatcher_WaitTimesOutWithBlockedHandler(t *testing.T) {
	pub, rx := NewQueue(1)
	release := make(chan struct{})
	started := make(chan struct{})
	d := NewDispatcher(rx, HandlerFunc(func(context.Context, Event) error {
		close(started)
		<-release
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	pub.Publish(ctx, NotificationRequested{})
	<-started
	assert.Equal(t, 1, d.InFlight())

	wctx, wcancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer wcancel()
	require.ErrorIs(t, d.Wait(wctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Wait(context.Background()))
}

package poller

import (
	"context"
	"io"
	"log"
	"math"
	"sync"
	"testing"
	"time"

	"training-dashboard/pkg/store"
	"training-dashboard/pkg/testutil"
)

// countingReader wraps a store and counts Snapshot calls.
type countingReader struct {
	mu    sync.Mutex
	inner store.Reader
	calls int
}

func (r *countingReader) Snapshot() store.Snapshot {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.inner.Snapshot()
}

func (r *countingReader) getCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recordingRenderer struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recordingRenderer) Render(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestFPSEstimator(t *testing.T) {
	start := time.Unix(1000, 0)
	var e FPSEstimator

	if got := e.Observe(start); got != 0 {
		t.Errorf("expected 0 after first observation, got %f", got)
	}
	// dt = 0.1s -> instantaneous 10 fps
	if got := e.Observe(start.Add(100 * time.Millisecond)); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %f", got)
	}
	if got := e.Observe(start.Add(200 * time.Millisecond)); math.Abs(got-1.9) > 1e-9 {
		t.Errorf("expected 1.9, got %f", got)
	}
}

func TestFPSEstimator_IgnoresNonPositiveInterval(t *testing.T) {
	start := time.Unix(1000, 0)
	var e FPSEstimator
	e.Observe(start)
	e.Observe(start.Add(100 * time.Millisecond))

	before := e.FPS()
	e.Observe(start.Add(100 * time.Millisecond))
	e.Observe(start.Add(50 * time.Millisecond))
	if e.FPS() != before {
		t.Errorf("expected estimate unchanged for dt <= 0, got %f want %f", e.FPS(), before)
	}
}

func TestPoller_TickWithoutData(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(1000, 0))
	reader := &countingReader{inner: store.New(10, clock)}
	renderer := &recordingRenderer{}
	p := New(reader, renderer, time.Second, clock, testLogger())

	if p.Tick() {
		t.Error("expected no frame before the first batch")
	}
	clock.Advance(100 * time.Millisecond)
	p.Tick()

	if renderer.count() != 0 {
		t.Errorf("expected renderer untouched, got %d frames", renderer.count())
	}
	if reader.getCalls() != 2 {
		t.Errorf("expected one snapshot per tick, got %d", reader.getCalls())
	}
	if p.FPS() == 0 {
		t.Error("expected FPS estimate to advance even without data")
	}
	if _, ok := p.LastFrame(); ok {
		t.Error("expected no last frame")
	}
}

func TestPoller_TickComputesLatency(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(1000, 0))
	st := store.New(10, clock)
	renderer := &recordingRenderer{}
	p := New(st, renderer, time.Second, clock, testLogger())

	st.Update(store.BatchRecord{Iteration: 4, Loss: 0.3})
	clock.Advance(250 * time.Millisecond)

	if !p.Tick() {
		t.Fatal("expected a frame")
	}
	frame, ok := p.LastFrame()
	if !ok {
		t.Fatal("expected last frame to be recorded")
	}
	if frame.Latency != 250*time.Millisecond {
		t.Errorf("expected latency 250ms, got %s", frame.Latency)
	}
	if frame.Snapshot.Latest.Iteration != 4 {
		t.Errorf("expected iteration 4, got %d", frame.Snapshot.Latest.Iteration)
	}
}

func TestPoller_RerendersUnchangedSnapshot(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(1000, 0))
	st := store.New(10, clock)
	renderer := &recordingRenderer{}
	p := New(st, renderer, time.Second, clock, testLogger())

	st.Update(store.BatchRecord{Iteration: 1, Loss: 0.5})
	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Millisecond)
		p.Tick()
	}
	if renderer.count() != 3 {
		t.Errorf("expected 3 frames, got %d", renderer.count())
	}
}

func TestPoller_RunUntilCancelled(t *testing.T) {
	st := store.New(10, nil)
	st.Update(store.BatchRecord{Iteration: 1})

	renderer := &recordingRenderer{}
	p := New(st, renderer, 5*time.Millisecond, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for renderer.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("poller did not render")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	p := New(store.New(1, nil), RendererFunc(func(Frame) {}), 0, nil, testLogger())
	if p.interval != DefaultInterval {
		t.Errorf("expected %s, got %s", DefaultInterval, p.interval)
	}
}

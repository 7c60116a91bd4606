package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"training-dashboard/pkg/store"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 50 * time.Millisecond

// Frame is what the presentation layer draws on one tick.
type Frame struct {
	Snapshot store.Snapshot
	// FPS is the viewer refresh rate, not the producer's.
	FPS float64
	// Latency is now minus the store's last update time.
	Latency time.Duration
	At      time.Time
}

// Renderer consumes frames. Render is called from the poller goroutine and
// must not block for long.
type Renderer interface {
	Render(Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame)

func (f RendererFunc) Render(fr Frame) { f(fr) }

// Poller periodically reads the store and hands the result to a Renderer.
type Poller struct {
	reader   store.Reader
	renderer Renderer
	clock    store.Clock
	interval time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	fps    FPSEstimator
	ticks  uint64
	frames uint64
	last   Frame
}

// New creates a poller. A non-positive interval selects DefaultInterval.
func New(reader store.Reader, renderer Renderer, interval time.Duration, clock store.Clock, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = store.RealClock{}
	}
	return &Poller{
		reader:   reader,
		renderer: renderer,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Tick performs one poll. It reports whether a frame was rendered, which is
// false until the store holds its first batch.
func (p *Poller) Tick() bool {
	now := p.clock.Now()

	p.mu.Lock()
	fps := p.fps.Observe(now)
	p.ticks++
	p.mu.Unlock()

	snap := p.reader.Snapshot()
	if !snap.HasData() {
		return false
	}

	frame := Frame{
		Snapshot: snap,
		FPS:      fps,
		Latency:  now.Sub(snap.UpdatedAt),
		At:       now,
	}

	p.mu.Lock()
	p.frames++
	p.last = frame
	p.mu.Unlock()

	p.renderer.Render(frame)
	return true
}

// Run ticks on the configured interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Printf("poller started, interval=%s", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.Printf("poller stopped after %d ticks", p.Ticks())
			return nil
		case <-ticker.C:
			p.Tick()
		}
	}
}

// FPS returns the current refresh rate estimate.
func (p *Poller) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps.FPS()
}

// Ticks returns how many polls have run.
func (p *Poller) Ticks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

// LastFrame returns the most recently rendered frame and whether one exists.
func (p *Poller) LastFrame() (Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.frames > 0
}

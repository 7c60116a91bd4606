package telemetry

import (
	"context"
	"sync"
	"time"
)

// Clock interface allows for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Config for telemetry settings
type Config struct {
	BufferSize        int `default:"1000"`
	MaxRecentErrors   int `default:"20"`
	RateWindowSeconds int `default:"10"`
}

func DefaultConfig() Config {
	return Config{
		BufferSize:        1000,
		MaxRecentErrors:   20,
		RateWindowSeconds: 10,
	}
}

// Aggregator folds ingest telemetry events into counters readable via Snapshot.
// Publish never blocks; events are applied by a single goroutine started with Start.
type Aggregator struct {
	mu    sync.RWMutex
	clock Clock
	cfg   Config

	// Core counters
	batchesReceived    uint64
	imagesReceived     uint64
	imageBytesReceived uint64
	pingsReceived      uint64
	lastIteration      int64
	errorsTotal        uint64

	// Stream state
	streamsOpened uint64
	streamsClosed uint64
	activeStreams int
	lastRunID     string

	// Error breakdown
	errorsByContext  map[string]uint64
	errorsBySeverity map[ErrorSeverity]uint64

	// Rate calculations
	batchTimes []time.Time

	// Recent errors (ring buffer)
	recentErrors []string
	errorIndex   int

	// Control channels
	eventCh  chan TelemetryEvent
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	startTime time.Time
}

// NewAggregator creates a new telemetry aggregator
func NewAggregator(clock Clock, cfg Config) *Aggregator {
	if clock == nil {
		clock = RealClock{}
	}
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.MaxRecentErrors <= 0 {
		cfg.MaxRecentErrors = def.MaxRecentErrors
	}
	if cfg.RateWindowSeconds <= 0 {
		cfg.RateWindowSeconds = def.RateWindowSeconds
	}

	return &Aggregator{
		clock:            clock,
		cfg:              cfg,
		errorsByContext:  make(map[string]uint64),
		errorsBySeverity: make(map[ErrorSeverity]uint64),
		batchTimes:       make([]time.Time, 0, cfg.RateWindowSeconds*20), // ~20 batches per second estimate
		recentErrors:     make([]string, cfg.MaxRecentErrors),
		eventCh:          make(chan TelemetryEvent, cfg.BufferSize),
		done:             make(chan struct{}),
		startTime:        clock.Now(),
	}
}

// Start begins processing telemetry events
func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.processEvents(ctx)
}

// Stop shuts down the processing goroutine. Safe to call more than once.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()
}

// Publish implements TelemetryPublisher interface
func (a *Aggregator) Publish(event TelemetryEvent) {
	select {
	case a.eventCh <- event:
	default:
		// drop when full; the ingest path must never block on telemetry
	}
}

// Snapshot implements TelemetryReader interface
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := a.clock.Now()

	errorsByContextCopy := make(map[string]uint64, len(a.errorsByContext))
	for k, v := range a.errorsByContext {
		errorsByContextCopy[k] = v
	}

	errorsBySeverityCopy := make(map[ErrorSeverity]uint64, len(a.errorsBySeverity))
	for k, v := range a.errorsBySeverity {
		errorsBySeverityCopy[k] = v
	}

	// newest first
	recentErrors := make([]string, 0)
	for i := 0; i < len(a.recentErrors); i++ {
		idx := (a.errorIndex - i - 1 + len(a.recentErrors)) % len(a.recentErrors)
		if a.recentErrors[idx] != "" {
			recentErrors = append(recentErrors, a.recentErrors[idx])
		}
	}

	return Snapshot{
		BatchesReceived:    a.batchesReceived,
		ImagesReceived:     a.imagesReceived,
		ImageBytesReceived: a.imageBytesReceived,
		PingsReceived:      a.pingsReceived,
		LastIteration:      a.lastIteration,
		StreamsOpened:      a.streamsOpened,
		StreamsClosed:      a.streamsClosed,
		ActiveStreams:      a.activeStreams,
		LastRunID:          a.lastRunID,
		BatchesPerSecond:   a.calculateRate(a.batchTimes, now),
		UptimeSeconds:      now.Sub(a.startTime).Seconds(),
		ChannelUtilization: float64(len(a.eventCh)) / float64(cap(a.eventCh)) * 100,
		ErrorsTotal:        a.errorsTotal,
		ErrorsByContext:    errorsByContextCopy,
		ErrorsBySeverity:   errorsBySeverityCopy,
		RecentErrors:       recentErrors,
	}
}

func (a *Aggregator) processEvents(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case event := <-a.eventCh:
			a.handleEvent(event)
		}
	}
}

func (a *Aggregator) handleEvent(event TelemetryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()

	switch e := event.(type) {
	case StreamOpened:
		a.streamsOpened++
		a.activeStreams++
		if e.RunID != "" {
			a.lastRunID = e.RunID
		}

	case StreamClosed:
		a.streamsClosed++
		if a.activeStreams > 0 {
			a.activeStreams--
		}

	case BatchIngested:
		a.batchesReceived++
		a.imagesReceived += uint64(e.Images)
		a.imageBytesReceived += uint64(e.ImageBytes)
		a.lastIteration = e.Iteration
		a.addBatchTime(now)

	case PingReceived:
		a.pingsReceived++

	case IngestError:
		a.errorsTotal++
		a.errorsByContext[e.Context]++
		a.errorsBySeverity[e.Severity]++
		if e.Err != nil {
			a.addRecentError(e.Context + ": " + e.Err.Error())
		} else {
			a.addRecentError(e.Context)
		}
	}
}

func (a *Aggregator) addBatchTime(t time.Time) {
	cutoff := t.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)

	// Remove old entries
	for len(a.batchTimes) > 0 && a.batchTimes[0].Before(cutoff) {
		a.batchTimes = a.batchTimes[1:]
	}

	a.batchTimes = append(a.batchTimes, t)
}

func (a *Aggregator) addRecentError(err string) {
	a.recentErrors[a.errorIndex] = err
	a.errorIndex = (a.errorIndex + 1) % len(a.recentErrors)
}

func (a *Aggregator) calculateRate(times []time.Time, now time.Time) float64 {
	if len(times) == 0 {
		return 0.0
	}

	cutoff := now.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)
	count := 0

	for _, t := range times {
		if t.After(cutoff) {
			count++
		}
	}

	return float64(count) / float64(a.cfg.RateWindowSeconds)
}

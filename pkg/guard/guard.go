package guard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"training-dashboard/pkg/dashboardpb"
	"training-dashboard/pkg/store"
)

// State of the connection to the dashboard.
type State int32

const (
	Online State = iota
	Offline
)

func (s State) String() string {
	switch s {
	case Online:
		return "ONLINE"
	case Offline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// DefaultPingTimeout bounds the initial liveness probe.
const DefaultPingTimeout = 2 * time.Second

// Transport delivers batches to the dashboard.
type Transport interface {
	Ping(ctx context.Context, hb *dashboardpb.Heartbeat) (*dashboardpb.Ack, error)
	Send(ctx context.Context, batch *dashboardpb.TrainingBatch) error
	// Close finishes any open stream and returns the server's final ack, or
	// nil when nothing was open.
	Close(ctx context.Context) (*dashboardpb.Ack, error)
}

// Guard wraps a Transport so that the training loop never fails because of
// it. The first transport error moves the guard to Offline for the rest of
// the run; nothing is retried.
type Guard struct {
	transport   Transport
	pingTimeout time.Duration
	logger      *log.Logger

	state    atomic.Int32
	attempts atomic.Uint64
	skipped  atomic.Uint64
}

// New returns a guard in the Online state.
func New(t Transport, pingTimeout time.Duration, logger *log.Logger) *Guard {
	if pingTimeout <= 0 {
		pingTimeout = DefaultPingTimeout
	}
	return &Guard{
		transport:   t,
		pingTimeout: pingTimeout,
		logger:      logger,
	}
}

// Probe pings the dashboard and goes Offline if it does not answer within
// the ping timeout. It reports whether the guard is Online afterwards.
func (g *Guard) Probe(ctx context.Context) bool {
	if g.State() == Offline {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, g.pingTimeout)
	defer cancel()

	ack, err := g.transport.Ping(pingCtx, &dashboardpb.Heartbeat{TimestampMs: time.Now().UnixMilli()})
	if err != nil {
		g.goOffline("ping", err)
		return false
	}
	if ack == nil || !ack.Ok {
		g.goOffline("ping", rejected(ack))
		return false
	}
	g.logger.Printf("dashboard reachable: %s", ack.Message)
	return true
}

// Forward sends batch unless the guard is Offline. It reports whether the
// batch was handed to the transport successfully.
func (g *Guard) Forward(ctx context.Context, batch store.BatchRecord) bool {
	if g.State() == Offline {
		g.skipped.Add(1)
		return false
	}

	g.attempts.Add(1)
	if err := g.transport.Send(ctx, BatchToWire(batch)); err != nil {
		g.goOffline("send", err)
		return false
	}
	return true
}

// Close finishes the transport when Online. Errors are logged only.
func (g *Guard) Close(ctx context.Context) {
	if g.State() == Offline {
		return
	}
	ack, err := g.transport.Close(ctx)
	if err != nil {
		g.goOffline("close", err)
		return
	}
	if ack != nil {
		g.logger.Printf("dashboard ack: ok=%t message=%q", ack.Ok, ack.Message)
	}
}

func (g *Guard) State() State {
	return State(g.state.Load())
}

// Attempts returns how many batches were handed to the transport.
func (g *Guard) Attempts() uint64 {
	return g.attempts.Load()
}

// Skipped returns how many batches were dropped while Offline.
func (g *Guard) Skipped() uint64 {
	return g.skipped.Load()
}

// ErrNotAcknowledged marks a reply whose Ack is not ok.
var ErrNotAcknowledged = errors.New("dashboard did not acknowledge")

func rejected(ack *dashboardpb.Ack) error {
	if ack == nil {
		return fmt.Errorf("%w: empty reply", ErrNotAcknowledged)
	}
	return fmt.Errorf("%w: %q", ErrNotAcknowledged, ack.Message)
}

func (g *Guard) goOffline(op string, err error) {
	if g.state.Swap(int32(Offline)) == int32(Offline) {
		return
	}
	g.logger.Printf("dashboard %s failed (%s), continuing without visualization: %v", op, Classify(err), err)
}

// BatchToWire converts a record into its wire message, keeping at most
// store.MaxImages samples.
func BatchToWire(b store.BatchRecord) *dashboardpb.TrainingBatch {
	msg := &dashboardpb.TrainingBatch{
		Iteration: b.Iteration,
		Loss:      b.Loss,
		Fps:       b.FPS,
	}
	images := b.Images
	if len(images) > store.MaxImages {
		images = images[:store.MaxImages]
	}
	for _, img := range images {
		msg.Images = append(msg.Images, &dashboardpb.ImageSample{
			Id:             img.ID,
			TrueLabel:      img.TrueLabel,
			PredictedLabel: img.PredictedLabel,
			ImageData:      img.ImageData,
		})
	}
	return msg
}

package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"training-dashboard/pkg/dashboardpb"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	ModePersistent = "persistent"
	ModePerBatch   = "per-batch"
)

var errStreamClosed = errors.New("stream closed by server")

// Dial creates a lazily connecting, insecure client connection to addr.
func Dial(addr string, maxMessageBytes int, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if maxMessageBytes > 0 {
		base = append(base, grpc.WithDefaultCallOptions(grpc.MaxCallSendMsgSize(maxMessageBytes)))
	}
	conn, err := grpc.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}
	return conn, nil
}

// NewRunID returns a fresh identifier sent with every stream of a run.
func NewRunID() string {
	return uuid.NewString()
}

// NewTransport returns the transport for mode over client.
func NewTransport(mode string, client dashboardpb.DashboardClient, runID string) (Transport, error) {
	switch mode {
	case ModePersistent, "":
		return NewStreamTransport(client, runID), nil
	case ModePerBatch:
		return NewPerBatchTransport(client, runID), nil
	default:
		return nil, fmt.Errorf("unknown stream mode %q", mode)
	}
}

type pinger struct {
	client dashboardpb.DashboardClient
	runID  string
}

func (p pinger) Ping(ctx context.Context, hb *dashboardpb.Heartbeat) (*dashboardpb.Ack, error) {
	return p.client.Ping(ctx, hb)
}

func (p pinger) streamContext(ctx context.Context) context.Context {
	if p.runID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, dashboardpb.RunIDMetadataKey, p.runID)
}

// StreamTransport keeps one client stream open across batches. The stream is
// opened on the first Send and finished by Close.
type StreamTransport struct {
	pinger

	mu     sync.Mutex
	stream grpc.ClientStreamingClient[dashboardpb.TrainingBatch, dashboardpb.Ack]
	cancel context.CancelFunc
}

func NewStreamTransport(client dashboardpb.DashboardClient, runID string) *StreamTransport {
	return &StreamTransport{pinger: pinger{client: client, runID: runID}}
}

// Send writes batch to the open stream. The ctx only bounds opening the
// stream; the stream itself lives until Close.
func (t *StreamTransport) Send(ctx context.Context, batch *dashboardpb.TrainingBatch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stream == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		streamCtx, cancel := context.WithCancel(t.streamContext(context.Background()))
		stream, err := t.client.StreamTraining(streamCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("open stream: %w", err)
		}
		t.stream, t.cancel = stream, cancel
	}

	err := t.stream.Send(batch)
	if errors.Is(err, io.EOF) {
		// the real status is only available from the receive side
		if _, rerr := t.stream.CloseAndRecv(); rerr != nil {
			err = rerr
		} else {
			err = errStreamClosed
		}
	}
	if err != nil {
		t.reset()
		return fmt.Errorf("send iteration %d: %w", batch.Iteration, err)
	}
	return nil
}

// Close half-closes the stream and waits for the server's ack.
func (t *StreamTransport) Close(ctx context.Context) (*dashboardpb.Ack, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stream == nil {
		return nil, nil
	}
	defer t.reset()

	type result struct {
		ack *dashboardpb.Ack
		err error
	}
	done := make(chan result, 1)
	stream := t.stream
	go func() {
		ack, err := stream.CloseAndRecv()
		done <- result{ack, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("close stream: %w", r.err)
		}
		return r.ack, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("close stream: %w", ctx.Err())
	}
}

func (t *StreamTransport) reset() {
	if t.cancel != nil {
		t.cancel()
	}
	t.stream, t.cancel = nil, nil
}

// PerBatchTransport opens a new stream for every batch and waits for its ack.
type PerBatchTransport struct {
	pinger
}

func NewPerBatchTransport(client dashboardpb.DashboardClient, runID string) *PerBatchTransport {
	return &PerBatchTransport{pinger: pinger{client: client, runID: runID}}
}

func (t *PerBatchTransport) Send(ctx context.Context, batch *dashboardpb.TrainingBatch) error {
	ctx, cancel := context.WithCancel(t.streamContext(ctx))
	defer cancel()

	stream, err := t.client.StreamTraining(ctx)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Send(batch); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("send iteration %d: %w", batch.Iteration, err)
	}
	if _, err := stream.CloseAndRecv(); err != nil {
		return fmt.Errorf("send iteration %d: %w", batch.Iteration, err)
	}
	return nil
}

// Close is a no-op: every stream is already finished by Send.
func (t *PerBatchTransport) Close(ctx context.Context) (*dashboardpb.Ack, error) {
	return nil, nil
}

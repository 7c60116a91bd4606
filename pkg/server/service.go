package server

import (
	"context"
	"errors"
	"io"
	"log"

	"training-dashboard/pkg/dashboardpb"
	"training-dashboard/pkg/store"
	"training-dashboard/pkg/telemetry"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	StreamEndedMessage = "stream ended on server"
	PongMessage        = "pong from dashboard server"
)

// Service implements dashboardpb.DashboardServer on top of a store writer.
type Service struct {
	store     store.Writer
	telemetry telemetry.TelemetryPublisher
	logger    *log.Logger
}

var _ dashboardpb.DashboardServer = (*Service)(nil)

// NewService creates the dashboard service. A nil publisher disables telemetry.
func NewService(w store.Writer, pub telemetry.TelemetryPublisher, logger *log.Logger) *Service {
	if pub == nil {
		pub = telemetry.NewNoopPublisher()
	}
	return &Service{store: w, telemetry: pub, logger: logger}
}

// StreamTraining applies every received batch to the store in arrival order
// and acknowledges once the producer closes the stream.
func (s *Service) StreamTraining(stream grpc.ClientStreamingServer[dashboardpb.TrainingBatch, dashboardpb.Ack]) error {
	ctx := stream.Context()
	runID := runIDFromContext(ctx)
	s.telemetry.Publish(telemetry.NewStreamOpened(runID, peerAddr(ctx)))
	s.logger.Printf("stream opened run=%s peer=%s", runID, peerAddr(ctx))

	count := 0
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			s.telemetry.Publish(telemetry.NewStreamClosed(runID, count, nil))
			s.logger.Printf("stream ended run=%s batches=%d", runID, count)
			return stream.SendAndClose(&dashboardpb.Ack{Ok: true, Message: StreamEndedMessage})
		}
		if err != nil {
			// records already applied stay in the store
			s.telemetry.Publish(telemetry.NewIngestError(err, "stream_recv", severityFor(err)))
			s.telemetry.Publish(telemetry.NewStreamClosed(runID, count, err))
			s.logger.Printf("stream aborted run=%s batches=%d: %v", runID, count, err)
			return err
		}

		batch := BatchFromWire(msg)
		s.store.Update(batch)
		count++

		s.telemetry.Publish(telemetry.NewBatchIngested(runID, batch.Iteration, len(batch.Images), imageBytes(batch)))
		s.logger.Printf("batch iter=%d, images=%d, loss=%.4f", batch.Iteration, len(batch.Images), batch.Loss)
	}
}

// Ping answers a liveness probe. It does not touch the store.
func (s *Service) Ping(ctx context.Context, hb *dashboardpb.Heartbeat) (*dashboardpb.Ack, error) {
	s.telemetry.Publish(telemetry.NewPingReceived(hb.TimestampMs))
	s.logger.Printf("ping received, timestamp=%d", hb.TimestampMs)
	return &dashboardpb.Ack{Ok: true, Message: PongMessage}, nil
}

// BatchFromWire converts a wire batch into a store record, keeping at most
// store.MaxImages samples. No other validation is applied.
func BatchFromWire(msg *dashboardpb.TrainingBatch) store.BatchRecord {
	batch := store.BatchRecord{
		Iteration: msg.Iteration,
		Loss:      msg.Loss,
		FPS:       msg.Fps,
	}

	n := len(msg.Images)
	if n > store.MaxImages {
		n = store.MaxImages
	}
	if n > 0 {
		batch.Images = make([]store.ImageSample, 0, n)
	}
	for _, img := range msg.Images[:n] {
		if img == nil {
			continue
		}
		batch.Images = append(batch.Images, store.ImageSample{
			ID:             img.Id,
			TrueLabel:      img.TrueLabel,
			PredictedLabel: img.PredictedLabel,
			ImageData:      img.ImageData,
		})
	}
	return batch
}

func imageBytes(b store.BatchRecord) int {
	total := 0
	for _, img := range b.Images {
		total += len(img.ImageData)
	}
	return total
}

func runIDFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(dashboardpb.RunIDMetadataKey); len(v) > 0 {
		return v[0]
	}
	return ""
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// severityFor grades a receive error: a producer going away is routine.
func severityFor(err error) telemetry.ErrorSeverity {
	switch status.Code(err) {
	case codes.Canceled, codes.Unavailable:
		return telemetry.ErrorSeverityWarning
	default:
		return telemetry.ErrorSeverityError
	}
}

package telemetry

import "time"

type TelemetryEvent interface {
	Timestamp() time.Time // When the event occurred
	EventType() string    // For categorization/filtering
}

// StreamOpened is emitted when a producer opens a StreamTraining call.
type StreamOpened struct {
	timestamp time.Time
	RunID     string
	Peer      string
}

func (e StreamOpened) Timestamp() time.Time { return e.timestamp }
func (e StreamOpened) EventType() string    { return "stream_opened" }

func NewStreamOpened(runID, peer string) StreamOpened {
	return StreamOpened{
		timestamp: time.Now(),
		RunID:     runID,
		Peer:      peer,
	}
}

// StreamClosed is emitted when a StreamTraining call ends, cleanly or not.
type StreamClosed struct {
	timestamp time.Time
	RunID     string
	Batches   int
	Err       error // nil when the producer closed the stream
}

func (e StreamClosed) Timestamp() time.Time { return e.timestamp }
func (e StreamClosed) EventType() string    { return "stream_closed" }

func NewStreamClosed(runID string, batches int, err error) StreamClosed {
	return StreamClosed{
		timestamp: time.Now(),
		RunID:     runID,
		Batches:   batches,
		Err:       err,
	}
}

// BatchIngested is emitted after a batch has been applied to the store.
type BatchIngested struct {
	timestamp  time.Time
	RunID      string
	Iteration  int64
	Images     int
	ImageBytes int
}

func (e BatchIngested) Timestamp() time.Time { return e.timestamp }
func (e BatchIngested) EventType() string    { return "batch_ingested" }

func NewBatchIngested(runID string, iteration int64, images, imageBytes int) BatchIngested {
	return BatchIngested{
		timestamp:  time.Now(),
		RunID:      runID,
		Iteration:  iteration,
		Images:     images,
		ImageBytes: imageBytes,
	}
}

type PingReceived struct {
	timestamp   time.Time
	TimestampMs int64 // client supplied
}

func (e PingReceived) Timestamp() time.Time { return e.timestamp }
func (e PingReceived) EventType() string    { return "ping_received" }

func NewPingReceived(timestampMs int64) PingReceived {
	return PingReceived{
		timestamp:   time.Now(),
		TimestampMs: timestampMs,
	}
}

type IngestError struct {
	timestamp time.Time
	Err       error
	Context   string // e.g. "stream_recv", "serve"
	Severity  ErrorSeverity
}

func (e IngestError) Timestamp() time.Time { return e.timestamp }
func (e IngestError) EventType() string    { return "ingest_error" }

func NewIngestError(err error, context string, severity ErrorSeverity) IngestError {
	return IngestError{
		timestamp: time.Now(),
		Err:       err,
		Context:   context,
		Severity:  severity,
	}
}

type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type TelemetryPublisher interface {
	// Publish sends a telemetry event to the aggregator.
	// This is a non-blocking, fire-and-forget call.
	Publish(event TelemetryEvent)
}

package store

import "time"

// MaxImages is the display limit for sample tiles carried by one batch.
const MaxImages = 16

// DefaultHistorySize is the number of loss points kept when no capacity is configured.
const DefaultHistorySize = 500

// ImageSample is one sampled training image with its label and prediction.
// ImageData holds the encoded image (PNG) and must not be modified after construction.
type ImageSample struct {
	ID             int32
	TrueLabel      string
	PredictedLabel string
	ImageData      []byte
}

// BatchRecord summarizes one reported training step.
type BatchRecord struct {
	Iteration int64
	Loss      float64
	// FPS is reported by the producer and not used by the viewer.
	FPS    float64
	Images []ImageSample
}

// MetricPoint is one (iteration, loss) entry in the history.
type MetricPoint struct {
	Iteration int64
	Loss      float64
}

// Snapshot is a point-in-time copy of the store contents.
type Snapshot struct {
	// Latest is nil until the first batch arrives.
	Latest    *BatchRecord
	History   []MetricPoint
	UpdatedAt time.Time
}

// HasData reports whether at least one batch has been recorded.
func (s Snapshot) HasData() bool {
	return s.Latest != nil
}

// Clock interface allows for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

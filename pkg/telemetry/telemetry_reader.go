package telemetry

type Snapshot struct {
	// Ingest counters
	BatchesReceived    uint64
	ImagesReceived     uint64
	ImageBytesReceived uint64
	PingsReceived      uint64
	LastIteration      int64

	// Stream state
	StreamsOpened uint64
	StreamsClosed uint64
	ActiveStreams int
	LastRunID     string

	// Rate metrics
	BatchesPerSecond float64

	// System metrics
	UptimeSeconds      float64
	ChannelUtilization float64

	// Error breakdown
	ErrorsTotal      uint64
	ErrorsByContext  map[string]uint64
	ErrorsBySeverity map[ErrorSeverity]uint64
	RecentErrors     []string
}

type TelemetryReader interface {
	Snapshot() Snapshot
}

package config

// Configuration key constants
// These double as environment variable names and, lower-cased, as config file keys.

const (
	// Shared
	KeyConfigFile   = "DASHBOARD_CONFIG"
	KeyMaxMessageMB = "DASHBOARD_MAX_MESSAGE_MB"

	// Viewer
	KeyListenAddr    = "DASHBOARD_LISTEN_ADDR"
	KeyHistorySize   = "DASHBOARD_HISTORY_SIZE"
	KeyRefreshMS     = "DASHBOARD_REFRESH_MS"
	KeyWorkers       = "DASHBOARD_WORKERS"
	KeyUI            = "DASHBOARD_UI"
	KeyStatusSeconds = "DASHBOARD_STATUS_SECONDS"

	// Trainer
	KeyDashboardAddr = "DASHBOARD_ADDR"
	KeyStreamMode    = "TRAINER_STREAM_MODE"
	KeyPingTimeoutMS = "TRAINER_PING_TIMEOUT_MS"
	KeyBatches       = "TRAINER_BATCHES"
	KeyStepMS        = "TRAINER_STEP_MS"
	KeyBatchSize     = "TRAINER_BATCH_SIZE"
	KeyTiles         = "TRAINER_TILES"
	KeyImageSize     = "TRAINER_IMAGE_SIZE"
	KeyLossMode      = "TRAINER_LOSS_MODE"
)

// Default values for configuration
const (
	DefaultMaxMessageMB = 16

	DefaultListenAddr    = ":50051"
	DefaultHistorySize   = 500
	DefaultRefreshMS     = 50
	DefaultWorkers       = 10
	DefaultUI            = UITUI
	DefaultStatusSeconds = 10

	DefaultDashboardAddr = "localhost:50051"
	DefaultStreamMode    = "persistent"
	DefaultPingTimeoutMS = 2000
	DefaultBatches       = 10
	DefaultStepMS        = 300
	DefaultBatchSize     = 32
	DefaultTiles         = 16
	DefaultImageSize     = 64
	DefaultLossMode      = "random"
)

// UI modes
const (
	UITUI   = "tui"
	UIQuiet = "quiet"
)

// CLI flag name constants
const (
	FlagConfigFile    = "config"
	FlagMaxMessageMB  = "max-message-mb"
	FlagListenAddr    = "listen-addr"
	FlagHistorySize   = "history-size"
	FlagRefreshMS     = "refresh-ms"
	FlagWorkers       = "workers"
	FlagUI            = "ui"
	FlagStatusSeconds = "status-seconds"
	FlagDashboardAddr = "dashboard-addr"
	FlagStreamMode    = "stream-mode"
	FlagPingTimeoutMS = "ping-timeout-ms"
	FlagBatches       = "batches"
	FlagStepMS        = "step-ms"
	FlagBatchSize     = "batch-size"
	FlagTiles         = "tiles"
	FlagImageSize     = "image-size"
	FlagLossMode      = "loss-mode"
	FlagHelp          = "help"
	FlagVersion       = "version"
)

// Help message constants
const (
	ViewerName        = "Training Dashboard"
	ViewerDescription = "Receive training progress over gRPC and display it live"
	ViewerUsage       = "dashboard [OPTIONS]"

	TrainerName        = "Training Simulator"
	TrainerDescription = "Simulate a training loop and stream batches to the dashboard"
	TrainerUsage       = "trainer [OPTIONS]"

	HelpConfigFile    = "Path to a YAML config file"
	HelpMaxMessageMB  = "Max gRPC message size in MiB"
	HelpListenAddr    = "Address the gRPC server listens on"
	HelpHistorySize   = "Number of loss points kept for the chart"
	HelpRefreshMS     = "Display refresh period in milliseconds"
	HelpWorkers       = "gRPC stream worker goroutines"
	HelpUI            = "Presentation: tui or quiet"
	HelpStatusSeconds = "Status log period in quiet mode"
	HelpDashboardAddr = "Dashboard gRPC address"
	HelpStreamMode    = "persistent (one stream per run) or per-batch"
	HelpPingTimeoutMS = "Initial ping timeout in milliseconds"
	HelpBatches       = "Batches to send, 0 runs until interrupted"
	HelpStepMS        = "Simulated time per iteration in milliseconds"
	HelpBatchSize     = "Simulated batch size"
	HelpTiles         = "Sample images sent per batch (max 16)"
	HelpImageSize     = "Sample image edge length in pixels"
	HelpLossMode      = "random or decay"
	HelpShowHelp      = "Show this help message"
	HelpShowVersion   = "Show version information"

	HelpOptions         = "Options:"
	HelpEnvironmentVars = "Environment Variables:"
	HelpUsage           = "Usage:"
	HelpNote            = "Note: CLI options override environment variables, which override the config file"
)

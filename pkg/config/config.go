package config

import (
	"fmt"
	"io"
	"time"

	"training-dashboard/pkg/version"
)

// ViewerConfig configures the dashboard process.
type ViewerConfig struct {
	ListenAddr      string
	HistorySize     int
	RefreshInterval time.Duration
	Workers         int
	MaxMessageBytes int
	UI              string
	StatusInterval  time.Duration
	ConfigFile      string
}

// TrainerConfig configures the simulated training process.
type TrainerConfig struct {
	DashboardAddr   string
	StreamMode      string
	PingTimeout     time.Duration
	Batches         int
	Step            time.Duration
	BatchSize       int
	Tiles           int
	ImageSize       int
	LossMode        string
	MaxMessageBytes int
	ConfigFile      string
}

// LoadViewer loads the viewer configuration from args, the environment and
// an optional config file. It returns nil, nil when help or version output
// was requested and written to out.
func LoadViewer(args []string, out io.Writer) (*ViewerConfig, error) {
	resolver, file, done, err := load("dashboard", viewerOptions, args, out, ViewerName, ViewerDescription, ViewerUsage)
	if err != nil || done {
		return nil, err
	}

	cfg := &ViewerConfig{
		ListenAddr:      resolver.ResolveString(KeyListenAddr, DefaultListenAddr),
		HistorySize:     resolver.ResolveInt(KeyHistorySize, DefaultHistorySize),
		RefreshInterval: millis(resolver.ResolveInt(KeyRefreshMS, DefaultRefreshMS)),
		Workers:         resolver.ResolveInt(KeyWorkers, DefaultWorkers),
		MaxMessageBytes: resolver.ResolveInt(KeyMaxMessageMB, DefaultMaxMessageMB) << 20,
		UI:              resolver.ResolveString(KeyUI, DefaultUI),
		StatusInterval:  time.Duration(resolver.ResolveInt(KeyStatusSeconds, DefaultStatusSeconds)) * time.Second,
		ConfigFile:      file,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTrainer is LoadViewer for the trainer process.
func LoadTrainer(args []string, out io.Writer) (*TrainerConfig, error) {
	resolver, file, done, err := load("trainer", trainerOptions, args, out, TrainerName, TrainerDescription, TrainerUsage)
	if err != nil || done {
		return nil, err
	}

	cfg := &TrainerConfig{
		DashboardAddr:   resolver.ResolveString(KeyDashboardAddr, DefaultDashboardAddr),
		StreamMode:      resolver.ResolveString(KeyStreamMode, DefaultStreamMode),
		PingTimeout:     millis(resolver.ResolveInt(KeyPingTimeoutMS, DefaultPingTimeoutMS)),
		Batches:         resolver.ResolveInt(KeyBatches, DefaultBatches),
		Step:            millis(resolver.ResolveInt(KeyStepMS, DefaultStepMS)),
		BatchSize:       resolver.ResolveInt(KeyBatchSize, DefaultBatchSize),
		Tiles:           resolver.ResolveInt(KeyTiles, DefaultTiles),
		ImageSize:       resolver.ResolveInt(KeyImageSize, DefaultImageSize),
		LossMode:        resolver.ResolveString(KeyLossMode, DefaultLossMode),
		MaxMessageBytes: resolver.ResolveInt(KeyMaxMessageMB, DefaultMaxMessageMB) << 20,
		ConfigFile:      file,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// load builds the resolver with precedence: CLI flags > environment > config file.
func load(cmd string, opts []option, args []string, out io.Writer, name, description, usage string) (*ConfigResolver, string, bool, error) {
	flagSource, req, err := parseCLIFlags(cmd, opts, args)
	if err != nil {
		return nil, "", false, err
	}
	if req.help {
		printUsage(out, name, description, usage, opts)
		return nil, "", true, nil
	}
	if req.version {
		fmt.Fprintln(out, version.Info().String(cmd))
		return nil, "", true, nil
	}

	env := &EnvSource{}
	path := NewConfigResolver(flagSource, env).ResolveString(KeyConfigFile, "")
	fileSource, err := NewFileSource(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := checkInts(opts, env, fileSource); err != nil {
		return nil, "", false, err
	}

	return NewConfigResolver(flagSource, env, fileSource), fileSource.Used(), false, nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

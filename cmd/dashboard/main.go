package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"training-dashboard/pkg/config"
	"training-dashboard/pkg/poller"
	"training-dashboard/pkg/server"
	"training-dashboard/pkg/store"
	"training-dashboard/pkg/telemetry"
	"training-dashboard/pkg/tui"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadViewer(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg == nil {
		return // help or version was printed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, tui.ErrQuit) {
		log.Fatalf("dashboard: %v", err)
	}
}

func run(ctx context.Context, cfg *config.ViewerConfig) error {
	agg := telemetry.NewAggregator(nil, telemetry.DefaultConfig())

	var ui *tui.Dashboard
	var logOut io.Writer = os.Stdout
	if cfg.UI == config.UITUI {
		ui = tui.New(agg)
		logOut = ui.LogWriter()
	}
	logger := log.New(logOut, "[dashboard] ", log.LstdFlags)
	if cfg.ConfigFile != "" {
		logger.Printf("using config file %s", cfg.ConfigFile)
	}

	st := store.New(cfg.HistorySize, nil)
	srv := server.New(server.Config{
		ListenAddr:      cfg.ListenAddr,
		Workers:         cfg.Workers,
		MaxMessageBytes: cfg.MaxMessageBytes,
	}, server.NewService(st, agg, logger), logger)

	// a bound port must fail before the terminal UI takes over the screen
	if err := srv.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	agg.Start(ctx)
	defer agg.Stop()

	g.Go(func() error { return srv.Run(ctx) })

	var renderer poller.Renderer
	if ui != nil {
		renderer = ui
		g.Go(func() error { return ui.Run(ctx) })
	} else {
		cli := NewCLI(agg, cfg, logger)
		renderer = cli
		g.Go(func() error { return cli.Run(ctx) })
	}

	p := poller.New(st, renderer, cfg.RefreshInterval, nil, logger)
	g.Go(func() error { return p.Run(ctx) })

	return g.Wait()
}

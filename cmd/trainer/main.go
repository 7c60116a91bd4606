package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"training-dashboard/pkg/config"
	"training-dashboard/pkg/dashboardpb"
	"training-dashboard/pkg/guard"
	"training-dashboard/pkg/trainsim"
)

const closeTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadTrainer(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg == nil {
		return // help or version was printed
	}

	logger := log.New(os.Stdout, "[trainer] ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("trainer: %v", err)
	}
}

func run(ctx context.Context, cfg *config.TrainerConfig, logger *log.Logger) error {
	conn, err := guard.Dial(cfg.DashboardAddr, cfg.MaxMessageBytes)
	if err != nil {
		return err
	}
	defer conn.Close()

	runID := guard.NewRunID()
	transport, err := guard.NewTransport(cfg.StreamMode, dashboardpb.NewDashboardClient(conn), runID)
	if err != nil {
		return err
	}

	g := guard.New(transport, cfg.PingTimeout, logger)
	logger.Printf("run %s: dashboard %s, stream mode %s", runID, cfg.DashboardAddr, cfg.StreamMode)
	g.Probe(ctx)

	trainer := trainsim.NewTrainer(trainsim.Config{
		Batches:   cfg.Batches,
		Step:      cfg.Step,
		BatchSize: cfg.BatchSize,
		Tiles:     cfg.Tiles,
		ImageSize: cfg.ImageSize,
		LossMode:  cfg.LossMode,
	}, g, logger)

	stats, err := trainer.Run(ctx)

	// finish the stream even after an interrupt
	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	g.Close(closeCtx)

	logger.Printf("run %s finished: iterations=%d forwarded=%d skipped=%d dashboard=%s",
		runID, stats.Iterations, stats.Forwarded, g.Skipped(), g.State())
	return err
}

package main

import (
	"context"
	"log"
	"sync"
	"time"

	"training-dashboard/pkg/config"
	"training-dashboard/pkg/poller"
	"training-dashboard/pkg/telemetry"
	"training-dashboard/pkg/utils"
)

// CLI is the quiet-mode presentation: it keeps the latest frame and logs a
// status line periodically instead of drawing a terminal UI.
type CLI struct {
	telemetry telemetry.TelemetryReader
	config    *config.ViewerConfig
	logger    *log.Logger

	mu           sync.Mutex
	frame        poller.Frame
	hasFrame     bool
	lastSnapshot telemetry.Snapshot
	lastIter     int64
	printed      bool
}

var _ poller.Renderer = (*CLI)(nil)

// NewCLI creates a new command-line interface runner
func NewCLI(telemetryReader telemetry.TelemetryReader, cfg *config.ViewerConfig, logger *log.Logger) *CLI {
	return &CLI{
		telemetry: telemetryReader,
		config:    cfg,
		logger:    logger,
	}
}

// Render implements poller.Renderer by remembering the frame.
func (c *CLI) Render(f poller.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = f
	c.hasFrame = true
}

// Run prints status updates until ctx is cancelled
func (c *CLI) Run(ctx context.Context) error {
	c.logger.Printf("Starting Training Dashboard in quiet mode")
	c.logger.Printf("Listening on: %s", c.config.ListenAddr)
	c.logger.Printf("History size: %d, refresh: %s", c.config.HistorySize, c.config.RefreshInterval)

	ticker := time.NewTicker(c.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Printf("Shutting down...")
			return nil
		case <-ticker.C:
			c.printStatus()
		}
	}
}

// printStatus prints the latest frame and ingest telemetry
func (c *CLI) printStatus() {
	snapshot := c.telemetry.Snapshot()

	c.mu.Lock()
	frame, hasFrame := c.frame, c.hasFrame
	c.mu.Unlock()

	if !c.shouldPrintStatus(snapshot, frame, hasFrame) {
		return
	}

	if hasFrame {
		latest := frame.Snapshot.Latest
		c.logger.Printf("Status - iter=%d, loss=%s, images=%d, history=%d, latency=%s, viewer fps=%.1f",
			latest.Iteration,
			utils.FormatLoss(latest.Loss),
			len(latest.Images),
			len(frame.Snapshot.History),
			utils.FormatLatency(frame.Latency),
			frame.FPS)
		c.lastIter = latest.Iteration
	} else {
		c.logger.Printf("Status - waiting for training data")
	}

	c.logger.Printf("Ingest - batches=%s (%.1f/s), payload=%s, streams=%d active, pings=%s, errors=%d",
		utils.FormatNumber(snapshot.BatchesReceived),
		snapshot.BatchesPerSecond,
		utils.FormatBytes(snapshot.ImageBytesReceived),
		snapshot.ActiveStreams,
		utils.FormatNumber(snapshot.PingsReceived),
		snapshot.ErrorsTotal)

	if snapshot.ErrorsTotal > c.lastSnapshot.ErrorsTotal && len(snapshot.RecentErrors) > 0 {
		c.logger.Printf("ERROR: %s", snapshot.RecentErrors[0])
	}

	c.lastSnapshot = snapshot
	c.printed = true
}

// shouldPrintStatus determines if we should print a status update
func (c *CLI) shouldPrintStatus(snapshot telemetry.Snapshot, frame poller.Frame, hasFrame bool) bool {
	// Always print first status
	if !c.printed {
		return true
	}

	if hasFrame && frame.Snapshot.Latest.Iteration != c.lastIter {
		return true
	}

	if snapshot.BatchesReceived != c.lastSnapshot.BatchesReceived ||
		snapshot.PingsReceived != c.lastSnapshot.PingsReceived {
		return true
	}

	if snapshot.ErrorsTotal > c.lastSnapshot.ErrorsTotal {
		return true
	}

	if snapshot.ActiveStreams != c.lastSnapshot.ActiveStreams {
		return true
	}

	return false
}

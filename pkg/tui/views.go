package tui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"math"
	"strings"

	"training-dashboard/pkg/poller"
	"training-dashboard/pkg/store"
	"training-dashboard/pkg/telemetry"
	"training-dashboard/pkg/utils"
)

// GridSize is the edge of the square tile grid.
const GridSize = 4

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// InfoLine renders the one-line summary above the grid.
func InfoLine(f poller.Frame) string {
	latest := f.Snapshot.Latest
	if latest == nil {
		return fmt.Sprintf("waiting for training data | viewer fps %.1f", f.FPS)
	}
	return fmt.Sprintf("iter %d | loss %s | viewer fps %.1f | latency %s",
		latest.Iteration, utils.FormatLoss(latest.Loss), f.FPS, utils.FormatLatency(f.Latency))
}

// TileText describes one sample image: prediction, truth and decoded size.
// Correct predictions are green, wrong ones red.
func TileText(img store.ImageSample) string {
	color := "red"
	if img.PredictedLabel == img.TrueLabel {
		color = "green"
	}
	size := "no image"
	if len(img.ImageData) > 0 {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(img.ImageData)); err == nil {
			size = fmt.Sprintf("%dx%d %s", cfg.Width, cfg.Height, format)
		} else {
			size = "undecodable"
		}
	}
	return fmt.Sprintf("#%d\n[%s]pred: %s[-]\ntrue: %s\n%s\n%s",
		img.ID, color, img.PredictedLabel, img.TrueLabel, size, utils.FormatBytes(uint64(len(img.ImageData))))
}

// Sparkline draws the last width points of history as block characters,
// scaled between the min and max finite loss shown. Non-finite losses
// render as spaces.
func Sparkline(history []store.MetricPoint, width int) string {
	if width <= 0 || len(history) == 0 {
		return ""
	}
	if len(history) > width {
		history = history[len(history)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range history {
		if math.IsNaN(p.Loss) || math.IsInf(p.Loss, 0) {
			continue
		}
		lo = math.Min(lo, p.Loss)
		hi = math.Max(hi, p.Loss)
	}

	var b strings.Builder
	for _, p := range history {
		if math.IsNaN(p.Loss) || math.IsInf(p.Loss, 0) {
			b.WriteRune(' ')
			continue
		}
		idx := 0
		if hi > lo {
			idx = int((p.Loss - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// ChartText renders the loss history block: range header plus sparkline.
func ChartText(history []store.MetricPoint, width int) string {
	if len(history) == 0 {
		return "no loss history yet"
	}
	first, last := history[0], history[len(history)-1]
	return fmt.Sprintf("loss over iterations %d..%d (%d points)\n%s",
		first.Iteration, last.Iteration, len(history), Sparkline(history, width))
}

// TelemetryLines renders the ingest counters for the status pane.
func TelemetryLines(s telemetry.Snapshot) []string {
	lines := []string{
		fmt.Sprintf("batches: %s (%.1f/s)  images: %s  payload: %s",
			utils.FormatNumber(s.BatchesReceived), s.BatchesPerSecond,
			utils.FormatNumber(s.ImagesReceived), utils.FormatBytes(s.ImageBytesReceived)),
		fmt.Sprintf("streams: %d active, %d opened  pings: %s  run: %s",
			s.ActiveStreams, s.StreamsOpened, utils.FormatNumber(s.PingsReceived), orDash(s.LastRunID)),
		fmt.Sprintf("errors: %d  uptime: %.0fs  buffer: %.0f%%",
			s.ErrorsTotal, s.UptimeSeconds, s.ChannelUtilization),
	}
	if len(s.RecentErrors) > 0 {
		lines = append(lines, "last error: "+s.RecentErrors[0])
	}
	return lines
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

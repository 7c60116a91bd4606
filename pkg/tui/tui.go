package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"training-dashboard/pkg/poller"
	"training-dashboard/pkg/telemetry"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const chartWidth = 120

// ErrQuit is returned by Run when the user closes the UI.
var ErrQuit = errors.New("quit by user")

// Dashboard is the terminal presentation of polled frames: an info line, a
// 4x4 grid of sample tiles, a loss sparkline, ingest telemetry and the log.
type Dashboard struct {
	app       *tview.Application
	info      *tview.TextView
	tiles     [GridSize * GridSize]*tview.TextView
	chart     *tview.TextView
	stats     *tview.TextView
	logView   *tview.TextView
	telemetry telemetry.TelemetryReader

	// QueueUpdateDraw blocks until the event loop runs the update, so widget
	// changes are batched here and handed over by a single goroutine.
	mu        sync.Mutex
	pending   []func()
	scheduled bool

	closed   atomic.Bool
	stopping chan struct{}
	stopOnce sync.Once
}

var _ poller.Renderer = (*Dashboard)(nil)

// New builds the layout. reader may be nil to hide telemetry.
func New(reader telemetry.TelemetryReader) *Dashboard {
	info := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	info.SetTextColor(tcell.ColorYellow)
	info.SetText("waiting for training data")

	grid := tview.NewGrid().SetBorders(true)
	d := &Dashboard{telemetry: reader, stopping: make(chan struct{})}
	for i := range d.tiles {
		tile := tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
		d.tiles[i] = tile
		grid.AddItem(tile, i/GridSize, i%GridSize, 1, 1, 0, 0, false)
	}

	chart := tview.NewTextView().SetWrap(false)
	chart.SetBorder(true).SetTitle("Loss").SetTitleAlign(tview.AlignLeft)

	stats := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	stats.SetBorder(true).SetTitle("Ingest").SetTitleAlign(tview.AlignLeft)

	logView := tview.NewTextView().SetDynamicColors(false).SetMaxLines(200)
	logView.SetBorder(true).SetTitle("Log").SetTitleAlign(tview.AlignLeft)
	logView.SetTextColor(tcell.ColorGray)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(info, 1, 0, false).
		AddItem(grid, 0, 1, false).
		AddItem(chart, 4, 0, false).
		AddItem(stats, 6, 0, false).
		AddItem(logView, 8, 0, false)

	d.app = tview.NewApplication().SetRoot(layout, true).EnableMouse(false)
	d.info, d.chart, d.stats, d.logView = info, chart, stats, logView
	return d
}

// Run blocks running the terminal UI until ctx is cancelled or the user
// quits with q or Ctrl-C. It returns ErrQuit in the latter case.
func (d *Dashboard) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		d.Stop()
		return nil
	}
	select {
	case <-d.stopping:
		return nil
	default:
	}

	quit := make(chan struct{})
	var quitOnce sync.Once
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' {
			quitOnce.Do(func() { close(quit) })
			d.Stop()
			return nil
		}
		return event
	})

	// Application.Stop is a no-op until Run has created the screen, so the
	// stop is queued and applied by the event loop itself.
	runDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			d.Stop()
		case <-d.stopping:
		case <-runDone:
			return
		}
		d.app.QueueUpdate(d.app.Stop)
	}()

	err := d.app.Run()
	close(runDone)
	if err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	select {
	case <-quit:
		return ErrQuit
	default:
		return nil
	}
}

// Stop ends Run. It is safe to call before Run, from the event loop and more
// than once.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		d.closed.Store(true)
		close(d.stopping)
	})
}

// queue schedules f on the UI goroutine without blocking the caller.
func (d *Dashboard) queue(f func()) {
	if d.closed.Load() {
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, f)
	schedule := !d.scheduled
	d.scheduled = true
	d.mu.Unlock()
	if schedule {
		go d.app.QueueUpdateDraw(d.flush)
	}
}

func (d *Dashboard) flush() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.scheduled = false
	d.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

// Render implements poller.Renderer. Widget updates run on the UI goroutine.
func (d *Dashboard) Render(f poller.Frame) {
	if d.closed.Load() {
		return
	}
	info := InfoLine(f)
	chart := ChartText(f.Snapshot.History, chartWidth)

	var tiles [GridSize * GridSize]string
	if f.Snapshot.Latest != nil {
		for i, img := range f.Snapshot.Latest.Images {
			if i >= len(tiles) {
				break
			}
			tiles[i] = TileText(img)
		}
	}

	var stats string
	if d.telemetry != nil {
		stats = strings.Join(TelemetryLines(d.telemetry.Snapshot()), "\n")
	}

	d.queue(func() {
		d.info.SetText(info)
		d.chart.SetText(chart)
		d.stats.SetText(stats)
		for i, tile := range d.tiles {
			tile.SetText(tiles[i])
		}
	})
}

// LogWriter returns a writer that appends to the log pane, for use with
// log.New while the terminal UI owns the screen.
func (d *Dashboard) LogWriter() *PaneWriter {
	return &PaneWriter{view: d.logView, dashboard: d}
}

// PaneWriter appends text to a TextView from any goroutine. Writes never
// block, also before Run has started or after Stop.
type PaneWriter struct {
	view      *tview.TextView
	dashboard *Dashboard
}

func (w *PaneWriter) Write(p []byte) (int, error) {
	if w == nil || w.view == nil {
		return len(p), nil
	}
	text := string(p)
	if w.dashboard == nil {
		fmt.Fprint(w.view, text)
		return len(p), nil
	}
	w.dashboard.queue(func() {
		fmt.Fprint(w.view, text)
		w.view.ScrollToEnd()
	})
	return len(p), nil
}

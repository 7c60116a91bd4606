package main

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"training-dashboard/pkg/config"
	"training-dashboard/pkg/poller"
	"training-dashboard/pkg/store"
	"training-dashboard/pkg/telemetry"
)

type fakeTelemetry struct {
	mu   sync.Mutex
	snap telemetry.Snapshot
}

func (f *fakeTelemetry) Snapshot() telemetry.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeTelemetry) set(s telemetry.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func newTestCLI(reader telemetry.TelemetryReader) (*CLI, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &config.ViewerConfig{ListenAddr: ":0", StatusInterval: time.Second}
	return NewCLI(reader, cfg, log.New(&buf, "", 0)), &buf
}

func TestCLI_PrintStatusWaiting(t *testing.T) {
	cli, buf := newTestCLI(&fakeTelemetry{})
	cli.printStatus()

	out := buf.String()
	if !strings.Contains(out, "waiting for training data") {
		t.Errorf("expected idle status, got %q", out)
	}
	if !strings.Contains(out, "Ingest - batches=0") {
		t.Errorf("expected ingest line, got %q", out)
	}
}

func TestCLI_PrintStatusWithFrame(t *testing.T) {
	reader := &fakeTelemetry{}
	cli, buf := newTestCLI(reader)

	cli.Render(poller.Frame{
		Snapshot: store.Snapshot{
			Latest:  &store.BatchRecord{Iteration: 7, Loss: 0.125, Images: make([]store.ImageSample, 4)},
			History: []store.MetricPoint{{Iteration: 6, Loss: 0.2}, {Iteration: 7, Loss: 0.125}},
		},
		Latency: 30 * time.Millisecond,
		FPS:     19.5,
	})
	reader.set(telemetry.Snapshot{BatchesReceived: 8, ImageBytesReceived: 4096})
	cli.printStatus()

	out := buf.String()
	for _, want := range []string{"iter=7", "loss=0.1250", "images=4", "history=2", "latency=30 ms", "batches=8", "payload=4.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestCLI_SkipsUnchangedStatus(t *testing.T) {
	reader := &fakeTelemetry{}
	cli, buf := newTestCLI(reader)

	cli.printStatus()
	first := buf.Len()
	cli.printStatus()
	if buf.Len() != first {
		t.Errorf("expected no output for an unchanged status, got %q", buf.String()[first:])
	}

	reader.set(telemetry.Snapshot{ErrorsTotal: 1, RecentErrors: []string{"stream_recv: reset"}})
	cli.printStatus()
	if !strings.Contains(buf.String(), "ERROR: stream_recv: reset") {
		t.Errorf("expected error line, got %q", buf.String())
	}
}

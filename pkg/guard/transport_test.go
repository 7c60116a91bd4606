package guard

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"training-dashboard/pkg/dashboardpb"
	"training-dashboard/pkg/server"
	"training-dashboard/pkg/store"
	"training-dashboard/pkg/telemetry"
	"training-dashboard/pkg/testutil"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type dashboard struct {
	store  *store.Store
	events *testutil.CapturingPublisher
	client dashboardpb.DashboardClient
	srv    *server.Server
}

func startDashboard(t *testing.T) *dashboard {
	t.Helper()

	st := store.New(0, nil)
	events := testutil.NewCapturingPublisher()
	srv := server.New(server.Config{}, server.NewService(st, events, testLogger()), testLogger())

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := Dial("passthrough:///bufnet", 0, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &dashboard{store: st, events: events, client: dashboardpb.NewDashboardClient(conn), srv: srv}
}

func TestStreamTransport_SingleStreamAcrossBatches(t *testing.T) {
	d := startDashboard(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := NewStreamTransport(d.client, "run-1")
	g := New(tr, time.Second, testLogger())

	if !g.Probe(ctx) {
		t.Fatal("expected dashboard to be reachable")
	}
	for i := 0; i < 5; i++ {
		if !g.Forward(ctx, store.BatchRecord{Iteration: int64(i), Loss: 1 / float64(i+1)}) {
			t.Fatalf("forward %d failed", i)
		}
	}

	ack, err := tr.Close(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ack.Ok || ack.Message != server.StreamEndedMessage {
		t.Errorf("unexpected ack: %+v", ack)
	}

	if got := d.store.Len(); got != 5 {
		t.Errorf("expected 5 history points, got %d", got)
	}
	if got := d.events.CountType("stream_opened"); got != 1 {
		t.Errorf("expected one stream for the whole run, got %d", got)
	}
	for _, e := range d.events.Snapshot() {
		if so, ok := e.(telemetry.StreamOpened); ok && so.RunID != "run-1" {
			t.Errorf("expected run id on stream metadata, got %q", so.RunID)
		}
	}

	// a second Close has nothing to finish
	if ack, err := tr.Close(ctx); ack != nil || err != nil {
		t.Errorf("expected nil ack and error, got %+v, %v", ack, err)
	}
}

func TestPerBatchTransport_StreamPerBatch(t *testing.T) {
	d := startDashboard(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g := New(NewPerBatchTransport(d.client, "run-2"), time.Second, testLogger())
	for i := 0; i < 3; i++ {
		if !g.Forward(ctx, store.BatchRecord{Iteration: int64(i)}) {
			t.Fatalf("forward %d failed", i)
		}
	}
	g.Close(ctx)

	if got := d.store.Snapshot().Latest.Iteration; got != 2 {
		t.Errorf("expected latest iteration 2, got %d", got)
	}
	if got := d.events.CountType("stream_opened"); got != 3 {
		t.Errorf("expected 3 streams, got %d", got)
	}
}

func TestStreamTransport_ServerGoneGoesOffline(t *testing.T) {
	d := startDashboard(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := NewStreamTransport(d.client, "")
	g := New(tr, time.Second, testLogger())
	if !g.Forward(ctx, store.BatchRecord{Iteration: 0}) {
		t.Fatal("expected first forward to succeed")
	}

	d.srv.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for g.State() == Online {
		if time.Now().After(deadline) {
			t.Fatal("guard never went OFFLINE after the server stopped")
		}
		g.Forward(ctx, store.BatchRecord{Iteration: 1})
		time.Sleep(5 * time.Millisecond)
	}

	attempts := g.Attempts()
	g.Forward(ctx, store.BatchRecord{Iteration: 2})
	if g.Attempts() != attempts {
		t.Errorf("expected no attempts once OFFLINE, got %d then %d", attempts, g.Attempts())
	}
}

func TestProbe_Unreachable(t *testing.T) {
	conn, err := Dial("passthrough:///nowhere", 0, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	g := New(NewStreamTransport(dashboardpb.NewDashboardClient(conn), ""), 200*time.Millisecond, testLogger())
	if g.Probe(context.Background()) {
		t.Fatal("expected probe to fail against an unreachable address")
	}
	if g.State() != Offline {
		t.Errorf("expected OFFLINE, got %s", g.State())
	}
}

func TestNewTransport(t *testing.T) {
	testCases := []struct {
		mode    string
		wantErr bool
	}{
		{ModePersistent, false},
		{"", false},
		{ModePerBatch, false},
		{"carrier-pigeon", true},
	}
	for _, tc := range testCases {
		_, err := NewTransport(tc.mode, nil, "")
		if (err != nil) != tc.wantErr {
			t.Errorf("mode %q: expected error %t, got %v", tc.mode, tc.wantErr, err)
		}
	}
	if NewRunID() == NewRunID() {
		t.Error("expected distinct run ids")
	}
}

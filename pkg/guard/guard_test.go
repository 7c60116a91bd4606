package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"training-dashboard/pkg/dashboardpb"
	"training-dashboard/pkg/store"
	"training-dashboard/pkg/testutil"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestGuard_StartsOnline(t *testing.T) {
	g := New(&testutil.MockTransport{}, 0, testLogger())
	if g.State() != Online {
		t.Errorf("expected ONLINE, got %s", g.State())
	}
	if g.pingTimeout != DefaultPingTimeout {
		t.Errorf("expected default ping timeout, got %s", g.pingTimeout)
	}
}

func TestGuard_ForwardWhileOnline(t *testing.T) {
	mock := &testutil.MockTransport{}
	g := New(mock, 0, testLogger())

	for i := 0; i < 3; i++ {
		if !g.Forward(context.Background(), store.BatchRecord{Iteration: int64(i), Loss: 0.5}) {
			t.Fatalf("forward %d: expected success", i)
		}
	}
	if mock.SendCount() != 3 {
		t.Errorf("expected 3 sends, got %d", mock.SendCount())
	}
	if g.Attempts() != 3 {
		t.Errorf("expected 3 attempts, got %d", g.Attempts())
	}
	if mock.SendCalls[2].Iteration != 2 {
		t.Errorf("expected batches forwarded in order, got iteration %d last", mock.SendCalls[2].Iteration)
	}
}

func TestGuard_TransportErrorGoesOffline(t *testing.T) {
	mock := &testutil.MockTransport{SendError: status.Error(codes.Unavailable, "connection refused")}
	g := New(mock, 0, testLogger())

	if g.Forward(context.Background(), store.BatchRecord{Iteration: 0}) {
		t.Fatal("expected first forward to fail")
	}
	if g.State() != Offline {
		t.Fatalf("expected OFFLINE after transport error, got %s", g.State())
	}

	if g.Forward(context.Background(), store.BatchRecord{Iteration: 1}) {
		t.Error("expected second forward to be skipped")
	}
	if mock.SendCount() != 1 {
		t.Errorf("expected transport touched exactly once, got %d", mock.SendCount())
	}
	if g.Skipped() != 1 {
		t.Errorf("expected 1 skipped batch, got %d", g.Skipped())
	}
}

func TestGuard_AttemptsConstantAfterFailure(t *testing.T) {
	mock := &testutil.MockTransport{}
	g := New(mock, 0, testLogger())

	g.Forward(context.Background(), store.BatchRecord{Iteration: 0})
	mock.SetSendError(errors.New("broken pipe"))
	g.Forward(context.Background(), store.BatchRecord{Iteration: 1})

	after := g.Attempts()
	for i := 2; i < 50; i++ {
		g.Forward(context.Background(), store.BatchRecord{Iteration: int64(i)})
	}
	if g.Attempts() != after {
		t.Errorf("expected attempts to stay at %d, got %d", after, g.Attempts())
	}

	// recovering transport does not bring the guard back
	mock.SetSendError(nil)
	g.Forward(context.Background(), store.BatchRecord{Iteration: 50})
	if g.State() != Offline || mock.SendCount() != 2 {
		t.Errorf("expected guard to stay OFFLINE with 2 sends, got %s with %d", g.State(), mock.SendCount())
	}
}

func TestGuard_ProbeFailure(t *testing.T) {
	mock := &testutil.MockTransport{PingError: status.Error(codes.Unavailable, "no route")}
	g := New(mock, 0, testLogger())

	if g.Probe(context.Background()) {
		t.Fatal("expected probe to fail")
	}
	if g.State() != Offline {
		t.Fatalf("expected OFFLINE, got %s", g.State())
	}
	g.Forward(context.Background(), store.BatchRecord{})
	if mock.SendCount() != 0 || g.Attempts() != 0 {
		t.Errorf("expected no sends after failed probe, got %d", mock.SendCount())
	}

	// a second probe does not touch the transport
	g.Probe(context.Background())
	if len(mock.PingCalls) != 1 {
		t.Errorf("expected 1 ping, got %d", len(mock.PingCalls))
	}
}

func TestGuard_ProbeSuccess(t *testing.T) {
	mock := &testutil.MockTransport{}
	g := New(mock, 0, testLogger())

	if !g.Probe(context.Background()) {
		t.Fatal("expected probe to succeed")
	}
	if len(mock.PingCalls) != 1 || mock.PingCalls[0].TimestampMs == 0 {
		t.Errorf("expected one ping carrying a timestamp, got %+v", mock.PingCalls)
	}
}

func TestGuard_ProbeNotAcknowledged(t *testing.T) {
	testCases := []struct {
		name string
		ack  *dashboardpb.Ack
	}{
		{"ok false", &dashboardpb.Ack{Ok: false, Message: "busy"}},
		{"empty ack", &dashboardpb.Ack{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &testutil.MockTransport{PingReturn: tc.ack}
			g := New(mock, 0, testLogger())

			if g.Probe(context.Background()) {
				t.Fatal("expected probe to fail")
			}
			if g.State() != Offline {
				t.Fatalf("expected OFFLINE, got %s", g.State())
			}
			if g.Forward(context.Background(), store.BatchRecord{}) || mock.SendCount() != 0 {
				t.Errorf("expected batch to be skipped, sends=%d", mock.SendCount())
			}
		})
	}
}

func TestGuard_Close(t *testing.T) {
	t.Run("online closes transport", func(t *testing.T) {
		mock := &testutil.MockTransport{CloseReturn: &dashboardpb.Ack{Ok: true, Message: "stream ended on server"}}
		g := New(mock, 0, testLogger())
		g.Close(context.Background())
		if mock.CloseCalls != 1 {
			t.Errorf("expected 1 close, got %d", mock.CloseCalls)
		}
	})

	t.Run("offline leaves transport alone", func(t *testing.T) {
		mock := &testutil.MockTransport{SendError: errors.New("reset")}
		g := New(mock, 0, testLogger())
		g.Forward(context.Background(), store.BatchRecord{})
		g.Close(context.Background())
		if mock.CloseCalls != 0 {
			t.Errorf("expected no close, got %d", mock.CloseCalls)
		}
	})

	t.Run("close error goes offline", func(t *testing.T) {
		mock := &testutil.MockTransport{CloseError: errors.New("reset")}
		g := New(mock, 0, testLogger())
		g.Close(context.Background())
		if g.State() != Offline {
			t.Errorf("expected OFFLINE, got %s", g.State())
		}
	})
}

func TestBatchToWire(t *testing.T) {
	images := make([]store.ImageSample, store.MaxImages+3)
	for i := range images {
		images[i] = store.ImageSample{ID: int32(i), TrueLabel: "car", PredictedLabel: "plane", ImageData: []byte{byte(i)}}
	}
	msg := BatchToWire(store.BatchRecord{Iteration: 5, Loss: 0.7, FPS: 30, Images: images})

	if msg.Iteration != 5 || msg.Loss != 0.7 || msg.Fps != 30 {
		t.Errorf("unexpected scalars: %+v", msg)
	}
	if len(msg.Images) != store.MaxImages {
		t.Fatalf("expected %d images, got %d", store.MaxImages, len(msg.Images))
	}
	if msg.Images[3].Id != 3 || msg.Images[3].PredictedLabel != "plane" {
		t.Errorf("unexpected image: %+v", msg.Images[3])
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "cancelled"},
		{status.Error(codes.Unavailable, "x"), "unreachable"},
		{status.Error(codes.DeadlineExceeded, "x"), "timeout"},
		{status.Error(codes.ResourceExhausted, "x"), "message too large"},
		{status.Error(codes.Unimplemented, "x"), "not a dashboard server"},
		{errors.New("plain"), "local"},
		{fmt.Errorf("%w: busy", ErrNotAcknowledged), "rejected"},
	}
	for _, tc := range testCases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v): expected %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestStateString(t *testing.T) {
	if Online.String() != "ONLINE" || Offline.String() != "OFFLINE" {
		t.Errorf("unexpected state names: %s %s", Online, Offline)
	}
}

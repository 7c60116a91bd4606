package testutil

import (
	"context"
	"sync"

	"training-dashboard/pkg/dashboardpb"
)

// MockTransport is a reusable mock of the producer-side transport.
// It records every call so tests can assert the transport was (not) touched.
type MockTransport struct {
	mu sync.Mutex

	PingReturn  *dashboardpb.Ack
	PingError   error
	SendError   error
	CloseReturn *dashboardpb.Ack
	CloseError  error

	PingCalls  []*dashboardpb.Heartbeat
	SendCalls  []*dashboardpb.TrainingBatch
	CloseCalls int
}

func (m *MockTransport) Ping(ctx context.Context, hb *dashboardpb.Heartbeat) (*dashboardpb.Ack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PingCalls = append(m.PingCalls, hb)
	if m.PingError != nil {
		return nil, m.PingError
	}
	if m.PingReturn == nil {
		return &dashboardpb.Ack{Ok: true, Message: "pong"}, nil
	}
	return m.PingReturn, nil
}

func (m *MockTransport) Send(ctx context.Context, batch *dashboardpb.TrainingBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendCalls = append(m.SendCalls, batch)
	return m.SendError
}

func (m *MockTransport) Close(ctx context.Context) (*dashboardpb.Ack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	if m.CloseError != nil {
		return nil, m.CloseError
	}
	if m.CloseReturn == nil {
		return &dashboardpb.Ack{Ok: true}, nil
	}
	return m.CloseReturn, nil
}

// SendCount returns the number of Send calls observed.
func (m *MockTransport) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendCalls)
}

// SetSendError changes the error returned by subsequent Send calls.
func (m *MockTransport) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendError = err
}

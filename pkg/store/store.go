package store

import (
	"sync"
	"time"
)

// Reader is the read side of the store, used by the polling reader.
type Reader interface {
	Snapshot() Snapshot
}

// Writer is the write side of the store, used by the ingest endpoint.
type Writer interface {
	Update(batch BatchRecord)
}

// Store holds the most recent batch and a bounded trailing loss history.
//
// A Store is created once per viewer process and handed explicitly to the
// ingest service and the poller. All access goes through one mutex so that a
// reader never sees the latest batch without its history point, or the other
// way round. Nothing under the lock performs I/O.
type Store struct {
	mu    sync.Mutex
	clock Clock

	latest    *BatchRecord
	updatedAt time.Time

	// history is a ring of capacity len(history); head is the oldest entry.
	history []MetricPoint
	head    int
	count   int
}

// New creates an empty store keeping at most capacity history points.
func New(capacity int, clock Clock) *Store {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Store{
		clock:   clock,
		history: make([]MetricPoint, capacity),
	}
}

// Update records batch as the latest state and appends its loss to the history,
// evicting the oldest point once the history is full.
func (s *Store) Update(batch BatchRecord) {
	now := s.clock.Now()
	b := batch

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &b
	s.updatedAt = now

	point := MetricPoint{Iteration: batch.Iteration, Loss: batch.Loss}
	capacity := len(s.history)
	if s.count < capacity {
		s.history[(s.head+s.count)%capacity] = point
		s.count++
		return
	}
	// full: overwrite the oldest slot and advance head
	s.history[s.head] = point
	s.head = (s.head + 1) % capacity
}

// Snapshot returns a copy of the current state. The history slice and the
// batch value are freshly allocated; image payloads are shared and immutable.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		History:   make([]MetricPoint, s.count),
		UpdatedAt: s.updatedAt,
	}

	capacity := len(s.history)
	for i := 0; i < s.count; i++ {
		snap.History[i] = s.history[(s.head+i)%capacity]
	}

	if s.latest != nil {
		b := *s.latest
		if s.latest.Images != nil {
			b.Images = make([]ImageSample, len(s.latest.Images))
			copy(b.Images, s.latest.Images)
		}
		snap.Latest = &b
	}

	return snap
}

// Len returns the number of history points currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Capacity returns the maximum number of history points.
func (s *Store) Capacity() int {
	return len(s.history)
}

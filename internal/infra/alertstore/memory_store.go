package alertstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

// MemoryStore keeps alert history in process memory for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts map[string][]livetrack.Alert
	ttl    time.Duration
	limit  int
	now    func() time.Time
}

// NewMemoryStore constructs a store that keeps the newest limit alerts of
// each user for ttl.
func NewMemoryStore(ttl time.Duration, limit int) *MemoryStore {
	if ttl <= 0 {
		ttl = livetrack.AlertTTL
	}
	if limit <= 0 {
		limit = livetrack.HistoryLimit
	}
	return &MemoryStore{
		alerts: make(map[string][]livetrack.Alert),
		ttl:    ttl,
		limit:  limit,
		now:    time.Now,
	}
}

// Append implements livetrack.Store.
func (s *MemoryStore) Append(_ context.Context, userID string, alert livetrack.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]livetrack.Alert{alert}, s.alerts[userID]...)
	if len(list) > s.limit {
		list = list[:s.limit]
	}
	s.alerts[userID] = list
	return nil
}

// List returns unexpired alerts, newest first.
func (s *MemoryStore) List(_ context.Context, userID string) ([]livetrack.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := unexpired(s.alerts[userID], s.now().Add(-s.ttl))
	if len(live) == 0 {
		delete(s.alerts, userID)
		return []livetrack.Alert{}, nil
	}
	s.alerts[userID] = live
	return append([]livetrack.Alert(nil), live...), nil
}

// Clear drops the history of a user.
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.alerts, userID)
	s.mu.Unlock()
	return nil
}

func unexpired(alerts []livetrack.Alert, cutoff time.Time) []livetrack.Alert {
	out := make([]livetrack.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, a)
	}
	return out
}

var _ livetrack.Store = (*MemoryStore)(nil)

package alertstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

// ValkeyStore keeps alert history in a capped Valkey list per user.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	limit  int
	now    func() time.Time
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration, limit int) *ValkeyStore {
	if prefix == "" {
		prefix = "alerts"
	}
	if ttl <= 0 {
		ttl = livetrack.AlertTTL
	}
	if limit <= 0 {
		limit = livetrack.HistoryLimit
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl, limit: limit, now: time.Now}
}

func (s *ValkeyStore) Append(ctx context.Context, userID string, alert livetrack.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	key := s.key(userID)
	results := s.client.DoMulti(ctx,
		s.client.B().Lpush().Key(key).Element(string(payload)).Build(),
		s.client.B().Ltrim().Key(key).Start(0).Stop(int64(s.limit-1)).Build(),
		s.client.B().Expire().Key(key).Seconds(int64(s.ttl/time.Second)).Build(),
	)
	for _, res := range results {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (s *ValkeyStore) List(ctx context.Context, userID string) ([]livetrack.Alert, error) {
	resp := s.client.Do(ctx, s.client.B().Lrange().Key(s.key(userID)).Start(0).Stop(int64(s.limit-1)).Build())
	items, err := resp.AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return []livetrack.Alert{}, nil
		}
		return nil, err
	}
	alerts := make([]livetrack.Alert, 0, len(items))
	for _, raw := range items {
		var alert livetrack.Alert
		if err := json.Unmarshal([]byte(raw), &alert); err != nil {
			// skip entries written by an incompatible version
			continue
		}
		alerts = append(alerts, alert)
	}
	return unexpired(alerts, s.now().Add(-s.ttl)), nil
}

func (s *ValkeyStore) Clear(ctx context.Context, userID string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(userID)).Build()).Error()
}

func (s *ValkeyStore) key(userID string) string {
	return s.prefix + ":" + userID
}

var _ livetrack.Store = (*ValkeyStore)(nil)

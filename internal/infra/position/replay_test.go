package position

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	"github.com/yanqian/aqi-advisor/internal/domain/tracker"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func replayOf(content string, opts ...ReplayOption) *Replay {
	open := func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}
	stamp := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]ReplayOption{WithClock(func() time.Time { return stamp })}, opts...)
	return newReplay(open, 0, opts...)
}

func TestReplayDeliversFixesInOrder(t *testing.T) {
	r := replayOf(`# morning walk
{"lat":28.6139,"lon":77.209,"accuracy":12}

{"lat":28.5,"lon":77.3}
{"error":"denied"}
`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Watch(ctx)
	require.NoError(t, err)

	first := <-updates
	require.NoError(t, first.Err)
	require.InDelta(t, 28.6139, first.Position.Latitude, 1e-9)
	require.InDelta(t, 12, first.Position.AccuracyMeters, 1e-9)
	require.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), first.Position.CapturedAt)

	second := <-updates
	require.InDelta(t, 77.3, second.Position.Longitude, 1e-9)

	third := <-updates
	require.True(t, apperrors.IsCode(third.Err, apperrors.CodeGeolocationDenied))

	select {
	case upd, ok := <-updates:
		t.Fatalf("unexpected update %+v (open=%v)", upd, ok)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	_, ok := <-updates
	require.False(t, ok)
}

func TestReplayLoops(t *testing.T) {
	r := replayOf(`{"lat":1,"lon":2}`, WithLoop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := r.Watch(ctx)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		upd := <-updates
		require.InDelta(t, 1, upd.Position.Latitude, 1e-9)
	}
}

func TestReplayRejectsBadInput(t *testing.T) {
	_, err := replayOf(`{"lat":1,"lon":2}
not json`).Watch(context.Background())
	require.ErrorContains(t, err, "line 2")

	_, err = replayOf(`{"lat":95,"lon":2}`).Watch(context.Background())
	require.ErrorContains(t, err, "line 1")

	_, err = replayOf("").Watch(context.Background())
	require.ErrorIs(t, err, tracker.ErrLocationUnavailable)
}

func TestFixError(t *testing.T) {
	require.ErrorIs(t, fixError("timeout"), tracker.ErrLocationTimeout)
	require.ErrorIs(t, fixError("Denied"), tracker.ErrLocationDenied)
	require.ErrorIs(t, fixError("gps off"), tracker.ErrLocationUnavailable)
}

func TestStatic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	updates, err := Static{Position: geo.Position{Latitude: 10, Longitude: 20}}.Watch(ctx)
	require.NoError(t, err)

	upd := <-updates
	require.NoError(t, upd.Err)
	require.False(t, upd.Position.CapturedAt.IsZero())

	cancel()
	_, ok := <-updates
	require.False(t, ok)

	_, err = Static{Position: geo.Position{Latitude: 100}}.Watch(context.Background())
	require.Error(t, err)
}

package position

import (
	"context"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	"github.com/yanqian/aqi-advisor/internal/domain/tracker"
)

// Static reports a single fixed position and then stays quiet.
type Static struct {
	Position geo.Position
}

// Watch implements tracker.PositionSource.
func (s Static) Watch(ctx context.Context) (<-chan tracker.PositionUpdate, error) {
	if err := geo.ValidateCoordinates(s.Position.Latitude, s.Position.Longitude); err != nil {
		return nil, err
	}
	pos := s.Position
	if pos.CapturedAt.IsZero() {
		pos.CapturedAt = time.Now().UTC()
	}
	out := make(chan tracker.PositionUpdate, 1)
	out <- tracker.PositionUpdate{Position: pos}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

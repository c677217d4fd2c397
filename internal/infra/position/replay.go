package position

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	"github.com/yanqian/aqi-advisor/internal/domain/tracker"
)

// Fix is one line of a replay file. Error, when set, is one of "denied",
// "unavailable" or "timeout" and replaces the position.
type Fix struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Replay feeds recorded fixes from a JSON lines file, one per interval.
// After the last fix the watch stays open until its context ends, so the
// engine keeps tracking the final position.
type Replay struct {
	open     func() (io.ReadCloser, error)
	interval time.Duration
	loop     bool
	now      func() time.Time
}

// ReplayOption tweaks a Replay.
type ReplayOption func(*Replay)

// WithLoop restarts the file from the top after the last fix.
func WithLoop() ReplayOption {
	return func(r *Replay) { r.loop = true }
}

// WithClock overrides the timestamp source of emitted positions.
func WithClock(now func() time.Time) ReplayOption {
	return func(r *Replay) { r.now = now }
}

// NewReplay replays the file at path.
func NewReplay(path string, interval time.Duration, opts ...ReplayOption) *Replay {
	return newReplay(func() (io.ReadCloser, error) { return os.Open(path) }, interval, opts...)
}

func newReplay(open func() (io.ReadCloser, error), interval time.Duration, opts ...ReplayOption) *Replay {
	r := &Replay{open: open, interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Watch implements tracker.PositionSource. The file is read up front so a
// malformed line fails the watch before any fix is delivered.
func (r *Replay) Watch(ctx context.Context) (<-chan tracker.PositionUpdate, error) {
	fixes, err := r.load()
	if err != nil {
		return nil, err
	}
	if len(fixes) == 0 {
		return nil, tracker.ErrLocationUnavailable
	}

	out := make(chan tracker.PositionUpdate)
	go func() {
		defer close(out)
		for {
			for i, fix := range fixes {
				if i > 0 && !r.wait(ctx) {
					return
				}
				select {
				case out <- r.update(fix):
				case <-ctx.Done():
					return
				}
			}
			if !r.loop {
				<-ctx.Done()
				return
			}
			if !r.wait(ctx) {
				return
			}
		}
	}()
	return out, nil
}

func (r *Replay) wait(ctx context.Context) bool {
	if r.interval <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Replay) update(fix Fix) tracker.PositionUpdate {
	if fix.Error != "" {
		return tracker.PositionUpdate{Err: fixError(fix.Error)}
	}
	return tracker.PositionUpdate{Position: geo.Position{
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyMeters: fix.Accuracy,
		CapturedAt:     r.now().UTC(),
	}}
}

func (r *Replay) load() ([]Fix, error) {
	f, err := r.open()
	if err != nil {
		return nil, fmt.Errorf("open position replay: %w", err)
	}
	defer f.Close()

	var fixes []Fix
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var fix Fix
		if err := json.Unmarshal([]byte(text), &fix); err != nil {
			return nil, fmt.Errorf("position replay line %d: %w", line, err)
		}
		if fix.Error == "" {
			if err := geo.ValidateCoordinates(fix.Latitude, fix.Longitude); err != nil {
				return nil, fmt.Errorf("position replay line %d: %w", line, err)
			}
		}
		fixes = append(fixes, fix)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read position replay: %w", err)
	}
	return fixes, nil
}

func fixError(kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "denied":
		return tracker.ErrLocationDenied
	case "timeout":
		return tracker.ErrLocationTimeout
	default:
		return tracker.ErrLocationUnavailable
	}
}

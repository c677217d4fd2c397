package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

const defaultFetchTimeout = 10 * time.Second

// Option customises an Engine.
type Option func(*Engine)

// WithObserver registers the event sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTickerFactory replaces the periodic check ticker.
func WithTickerFactory(fn func(time.Duration) Ticker) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newTicker = fn
		}
	}
}

// WithFetchTimeout bounds each AQI lookup.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.fetchTimeout = d
		}
	}
}

// Engine follows the user's position while tracking is active and raises
// alerts when they move far or the air quality shifts.
//
// Position events and ticks are handled by a single goroutine, so session
// mutations never interleave. mu only guards the snapshot accessors against
// that goroutine.
type Engine struct {
	sessions  SessionChecker
	positions PositionSource
	fetcher   AQIFetcher
	alerts    AlertBackend
	observer  Observer
	logger    *slog.Logger

	now          func() time.Time
	newTicker    func(time.Duration) Ticker
	fetchTimeout time.Duration

	// life serialises Start and Stop.
	life sync.Mutex

	mu         sync.Mutex
	state      State
	session    Session
	current    *aqi.Reading
	history    []Alert
	abortStart context.CancelFunc
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewEngine wires the engine to its collaborators.
func NewEngine(sessions SessionChecker, positions PositionSource, fetcher AQIFetcher, alerts AlertBackend, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		sessions:     sessions,
		positions:    positions,
		fetcher:      fetcher,
		alerts:       alerts,
		observer:     NopObserver{},
		logger:       logger.With("component", "tracker.engine"),
		now:          time.Now,
		newTicker:    newTimeTicker,
		fetchTimeout: defaultFetchTimeout,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start verifies the login, waits for the first position fix and raises the
// initial alert. On success the engine is Active and keeps watching until
// Stop is called or the position source fails.
func (e *Engine) Start(ctx context.Context) error {
	e.life.Lock()
	defer e.life.Unlock()

	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return errAlreadyTracking
	}
	startCtx, abort := context.WithCancel(ctx)
	defer abort()
	e.abortStart = abort
	e.state = StateStarting
	e.mu.Unlock()
	e.observer.StateChanged(StateStarting)

	loggedIn, err := e.sessions.LoggedIn(startCtx)
	if startCtx.Err() != nil {
		e.resetIdle()
		return startCtx.Err()
	}
	if err != nil || !loggedIn {
		e.resetIdle()
		e.observer.LoginRequired()
		if err != nil {
			e.logger.Warn("session check failed", "error", err)
		}
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "please log in to use live tracking", err)
	}

	// The watch outlives the Start call; only Stop or a source failure ends it.
	watchCtx, cancel := context.WithCancel(context.Background())
	updates, err := e.positions.Watch(watchCtx)
	if err != nil {
		cancel()
		e.resetIdle()
		return e.locationFailure(err)
	}

	var first PositionUpdate
	select {
	case upd, ok := <-updates:
		if !ok {
			upd.Err = errWatchClosed
		}
		first = upd
	case <-startCtx.Done():
		cancel()
		e.resetIdle()
		return startCtx.Err()
	}
	if first.Err != nil {
		cancel()
		e.resetIdle()
		return e.locationFailure(first.Err)
	}

	done := make(chan struct{})
	e.mu.Lock()
	e.state = StateActive
	e.session = Session{Active: true}
	e.current = nil
	e.abortStart = nil
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()
	e.observer.StateChanged(StateActive)
	e.logger.Info("live tracking started", "lat", first.Position.Latitude, "lon", first.Position.Longitude)

	e.handlePosition(watchCtx, first.Position)

	go e.run(watchCtx, cancel, updates, e.newTicker(CheckInterval), done)
	return nil
}

// Stop ends tracking. The watch and the ticker are released before Stop
// returns; the alert history is kept. Stopping an idle engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == StateStarting && e.abortStart != nil {
		e.abortStart()
	}
	e.mu.Unlock()

	e.life.Lock()
	defer e.life.Unlock()

	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	<-done
	if e.resetIdle() {
		e.logger.Info("live tracking stopped")
	}
}

func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, updates <-chan PositionUpdate, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				upd.Err = errWatchClosed
			}
			if upd.Err != nil {
				err := asLocationError(upd.Err)
				e.logger.Warn("position watch failed, stopping live tracking", "error", err)
				e.observer.TrackingError(err)
				cancel()
				e.finish(done)
				return
			}
			e.handlePosition(ctx, upd.Position)
		case <-ticker.C():
			e.checkAQIChange(ctx)
		}
	}
}

// handlePosition records the fix and raises an initial or location change
// alert when one is due.
func (e *Engine) handlePosition(ctx context.Context, pos geo.Position) {
	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return
	}
	p := pos
	e.session.CurrentPosition = &p
	var last *geo.Position
	if e.session.LastAlertPosition != nil {
		lp := *e.session.LastAlertPosition
		last = &lp
	}
	e.mu.Unlock()

	reading, ok := e.fetch(ctx, pos)
	if !ok {
		return
	}

	switch {
	case last == nil:
		e.dispatch(ctx, AlertInitial, pos, reading)
	case last.DistanceTo(pos) >= DistanceThresholdKm:
		e.dispatch(ctx, AlertLocationChange, pos, reading)
	}
}

// checkAQIChange re-reads the AQI at the current position and raises an
// alert when it moved at least AQIChangeThreshold from the last alert.
func (e *Engine) checkAQIChange(ctx context.Context) {
	e.mu.Lock()
	if e.state != StateActive || e.session.CurrentPosition == nil {
		e.mu.Unlock()
		return
	}
	pos := *e.session.CurrentPosition
	lastAQI, haveLast := 0, e.session.LastAlertAQI != nil
	if haveLast {
		lastAQI = *e.session.LastAlertAQI
	}
	e.mu.Unlock()

	reading, ok := e.fetch(ctx, pos)
	if !ok || !haveLast {
		return
	}
	if absInt(reading.AQI-lastAQI) >= AQIChangeThreshold {
		e.dispatch(ctx, AlertAQIChange, pos, reading)
	}
}

func (e *Engine) fetch(ctx context.Context, pos geo.Position) (aqi.Reading, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	reading, err := e.fetcher.FetchByCoordinates(fetchCtx, pos.Latitude, pos.Longitude)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("aqi lookup failed, skipping", "lat", pos.Latitude, "lon", pos.Longitude, "error", err)
		}
		return aqi.Reading{}, false
	}
	e.mu.Lock()
	e.current = &reading
	e.mu.Unlock()
	return reading, true
}

// dispatch sends the alert and, only once the backend accepted it, moves the
// session's last alert markers.
func (e *Engine) dispatch(ctx context.Context, kind AlertType, pos geo.Position, reading aqi.Reading) {
	now := e.now()

	e.mu.Lock()
	sendEmail := reading.AQI > EmailMinAQI &&
		(e.session.LastEmailSentAt == nil || now.Sub(*e.session.LastEmailSentAt) >= EmailCooldown)
	e.mu.Unlock()

	receipt, err := e.alerts.DispatchAlert(ctx, AlertRequest{
		Type:      kind,
		Position:  pos,
		Reading:   reading,
		SendEmail: sendEmail,
	})
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("alert dispatch failed", "type", kind, "aqi", reading.AQI, "error", err)
			e.observer.AlertFailed(err)
		}
		return
	}

	alert := Alert{
		ID:              receipt.ID,
		Type:            kind,
		Position:        pos,
		Reading:         reading,
		Location:        firstNonEmpty(receipt.Location, reading.CityName, "Unknown"),
		Message:         receipt.Message,
		Recommendations: receipt.Recommendations,
		EmailRequested:  sendEmail,
		Timestamp:       receipt.Timestamp,
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = now
	}

	e.mu.Lock()
	if e.state == StateActive {
		p := pos
		value := reading.AQI
		e.session.LastAlertPosition = &p
		e.session.LastAlertAQI = &value
		e.session.AlertCount++
		if sendEmail {
			ts := now
			e.session.LastEmailSentAt = &ts
		}
	}
	e.history = prependAlert(e.history, alert)
	e.mu.Unlock()

	e.logger.Info("alert raised", "type", kind, "aqi", reading.AQI, "location", alert.Location, "email", sendEmail)
	e.observer.AlertRaised(alert)
}

// SyncHistory replaces the local history with the server's copy.
func (e *Engine) SyncHistory(ctx context.Context) error {
	alerts, err := e.alerts.ListAlerts(ctx)
	if err != nil {
		return err
	}
	if len(alerts) > HistoryLimit {
		alerts = alerts[:HistoryLimit]
	}
	e.mu.Lock()
	e.history = append([]Alert(nil), alerts...)
	if e.state != StateActive {
		e.session.AlertCount = len(alerts)
	}
	e.mu.Unlock()
	return nil
}

// ClearHistory deletes the alert history locally and on the server. A running
// session keeps its alert count.
func (e *Engine) ClearHistory(ctx context.Context) error {
	if err := e.alerts.ClearAlerts(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.history = nil
	if e.state != StateActive {
		e.session.AlertCount = 0
	}
	e.mu.Unlock()
	return nil
}

// State reports the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns a copy of the current session.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone()
}

// History returns the alerts newest first.
func (e *Engine) History() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Alert(nil), e.history...)
}

// CurrentReading returns the last reading fetched, if any.
func (e *Engine) CurrentReading() (aqi.Reading, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return aqi.Reading{}, false
	}
	return *e.current, true
}

func (e *Engine) locationFailure(err error) error {
	err = asLocationError(err)
	e.logger.Warn("unable to get position", "error", err)
	e.observer.TrackingError(err)
	return err
}

// resetIdle discards the session. It reports whether the state changed.
func (e *Engine) resetIdle() bool {
	e.mu.Lock()
	changed := e.state != StateIdle
	e.state = StateIdle
	e.session = Session{}
	e.abortStart = nil
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()
	if changed {
		e.observer.StateChanged(StateIdle)
	}
	return changed
}

// finish is the run loop's own shutdown path. It leaves a newer session alone.
func (e *Engine) finish(done chan struct{}) {
	e.mu.Lock()
	if e.done != done {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.resetIdle()
}

func prependAlert(history []Alert, alert Alert) []Alert {
	out := make([]Alert, 0, len(history)+1)
	out = append(out, alert)
	out = append(out, history...)
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

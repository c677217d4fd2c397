package tracker

import (
	"context"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/geo"
)

// Thresholds fixed by the product; they are not configurable.
const (
	DistanceThresholdKm = 10.0
	AQIChangeThreshold  = 50
	CheckInterval       = 60 * time.Second
	EmailCooldown       = 30 * time.Minute
	// EmailMinAQI is exclusive: emails go out only when aqi > EmailMinAQI.
	EmailMinAQI  = 50
	HistoryLimit = 50
)

// State of the tracking engine.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
)

// AlertType tells why an alert was raised.
type AlertType string

const (
	AlertInitial        AlertType = "initial"
	AlertLocationChange AlertType = "location_change"
	AlertAQIChange      AlertType = "aqi_change"
)

// Session is the mutable tracking state. It is reset every time tracking stops.
type Session struct {
	Active            bool
	CurrentPosition   *geo.Position
	LastAlertPosition *geo.Position
	LastAlertAQI      *int
	LastEmailSentAt   *time.Time
	AlertCount        int
}

func (s Session) clone() Session {
	out := Session{Active: s.Active, AlertCount: s.AlertCount}
	if s.CurrentPosition != nil {
		p := *s.CurrentPosition
		out.CurrentPosition = &p
	}
	if s.LastAlertPosition != nil {
		p := *s.LastAlertPosition
		out.LastAlertPosition = &p
	}
	if s.LastAlertAQI != nil {
		v := *s.LastAlertAQI
		out.LastAlertAQI = &v
	}
	if s.LastEmailSentAt != nil {
		ts := *s.LastEmailSentAt
		out.LastEmailSentAt = &ts
	}
	return out
}

// Alert is an immutable record of a dispatched alert.
type Alert struct {
	ID              string       `json:"id"`
	Type            AlertType    `json:"type"`
	Position        geo.Position `json:"position"`
	Reading         aqi.Reading  `json:"reading"`
	Location        string       `json:"location"`
	Message         string       `json:"message"`
	Recommendations []string     `json:"recommendations"`
	EmailRequested  bool         `json:"email_requested"`
	Timestamp       time.Time    `json:"timestamp"`
}

// AlertRequest is what the engine asks the backend to record.
type AlertRequest struct {
	Type      AlertType
	Position  geo.Position
	Reading   aqi.Reading
	SendEmail bool
}

// AlertReceipt is the backend's view of a recorded alert.
type AlertReceipt struct {
	ID              string
	Location        string
	Message         string
	Recommendations []string
	Timestamp       time.Time
}

// PositionUpdate is one event from a position subscription.
type PositionUpdate struct {
	Position geo.Position
	Err      error
}

// SessionChecker reports whether the caller is logged in.
type SessionChecker interface {
	LoggedIn(ctx context.Context) (bool, error)
}

// PositionSource opens a position subscription. The channel delivers updates
// until ctx is cancelled; implementations close it when they stop.
type PositionSource interface {
	Watch(ctx context.Context) (<-chan PositionUpdate, error)
}

// AQIFetcher resolves the reading for a coordinate.
type AQIFetcher interface {
	FetchByCoordinates(ctx context.Context, lat, lon float64) (aqi.Reading, error)
}

// AlertBackend records alerts and serves their history.
type AlertBackend interface {
	DispatchAlert(ctx context.Context, req AlertRequest) (AlertReceipt, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
	ClearAlerts(ctx context.Context) error
}

// Observer receives engine events. Callbacks run on engine goroutines and
// must not call back into Start or Stop.
type Observer interface {
	StateChanged(state State)
	AlertRaised(alert Alert)
	LoginRequired()
	// TrackingError reports a failure that ended the session.
	TrackingError(err error)
	// AlertFailed reports an alert the backend rejected. Tracking continues
	// and the alert is retried on the next qualifying check.
	AlertFailed(err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StateChanged(State)  {}
func (NopObserver) AlertRaised(Alert)   {}
func (NopObserver) LoginRequired()      {}
func (NopObserver) TrackingError(error) {}
func (NopObserver) AlertFailed(error)   {}

// Ticker is the periodic check handle owned by the engine.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

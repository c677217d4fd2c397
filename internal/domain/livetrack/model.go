package livetrack

import (
	"context"
	"time"

	"github.com/yanqian/aqi-advisor/internal/infra/llm/chatgpt"
)

// Alert retention: the newest HistoryLimit alerts stay visible for AlertTTL.
const (
	AlertTTL       = 30 * time.Minute
	HistoryLimit   = 50
	EmailMinAQI    = 50
	UnknownPlace   = "Unknown"
	maxTypeLength  = 32
	recommendCount = 3
)

// Alert types known to the message templates. Other non-empty types are
// accepted and get the generic update message.
const (
	TypeInitial        = "initial"
	TypeLocationChange = "location_change"
	TypeAQIChange      = "aqi_change"
)

// Config wires runtime dependencies for the live-track domain.
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// AlertRequest is the body of POST /api/live-tracker/alert.
type AlertRequest struct {
	Type              string             `json:"type" binding:"required"`
	Latitude          float64            `json:"latitude"`
	Longitude         float64            `json:"longitude"`
	AQI               int                `json:"aqi" binding:"gte=0"`
	AQICategory       string             `json:"aqi_category"`
	Pollutants        map[string]float64 `json:"pollutants"`
	CityName          string             `json:"city_name"`
	DominantPollutant string             `json:"dominant_pollutant"`
	SendEmail         bool               `json:"send_email"`
}

// Alert is a recorded live tracking alert.
type Alert struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"`
	Timestamp       time.Time          `json:"timestamp"`
	Location        string             `json:"location"`
	Latitude        float64            `json:"latitude"`
	Longitude       float64            `json:"longitude"`
	AQI             int                `json:"aqi"`
	AQICategory     string             `json:"aqi_category"`
	Message         string             `json:"message"`
	Recommendations []string           `json:"recommendations"`
	Pollutants      map[string]float64 `json:"pollutants,omitempty"`
	EmailSent       bool               `json:"email_sent"`
}

// Recipient identifies who an alert belongs to and where to notify them.
type Recipient struct {
	UserID         string
	Email          string
	Name           string
	TelegramChatID int64
}

// Store keeps the recent alert history of each user.
type Store interface {
	Append(ctx context.Context, userID string, alert Alert) error
	List(ctx context.Context, userID string) ([]Alert, error)
	Clear(ctx context.Context, userID string) error
}

// Notifier delivers an alert out of band (email, chat).
type Notifier interface {
	NotifyAlert(ctx context.Context, to Recipient, alert Alert) error
}

// Publisher pushes recorded alerts to live subscribers.
type Publisher interface {
	Publish(userID string, alert Alert)
}

// Geocoder resolves a coordinate to a place name.
type Geocoder interface {
	CityName(ctx context.Context, lat, lon float64) (string, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

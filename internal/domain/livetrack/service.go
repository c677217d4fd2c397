package livetrack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	"github.com/yanqian/aqi-advisor/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
	"github.com/yanqian/aqi-advisor/pkg/util"
)

// Service records live tracking alerts and serves their history.
type Service interface {
	Record(ctx context.Context, to Recipient, req AlertRequest) (Alert, error)
	List(ctx context.Context, userID string) ([]Alert, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	cfg       Config
	store     Store
	notifier  Notifier
	publisher Publisher
	geocoder  Geocoder
	client    ChatClient
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires up the live-track domain. notifier, publisher, geocoder
// and client may be nil.
func NewService(cfg Config, store Store, notifier Notifier, publisher Publisher, geocoder Geocoder, client ChatClient, logger *slog.Logger) Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 250
	}
	return &service{
		cfg:       cfg,
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		geocoder:  geocoder,
		client:    client,
		logger:    logger.With("component", "livetrack.service"),
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

func (s *service) Record(ctx context.Context, to Recipient, req AlertRequest) (Alert, error) {
	if strings.TrimSpace(to.UserID) == "" {
		return Alert{}, apperrors.Wrap(apperrors.CodeUnauthenticated, "Please log in to use Live Tracking", nil)
	}
	if err := validateRequest(req); err != nil {
		return Alert{}, err
	}

	class := aqi.Classify(req.AQI)
	alert := Alert{
		ID:          s.newID(),
		Type:        strings.TrimSpace(req.Type),
		Timestamp:   s.now(),
		Location:    s.resolveLocation(ctx, req),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		AQI:         req.AQI,
		AQICategory: class.Label,
		Pollutants:  req.Pollutants,
	}
	alert.Message = alertMessage(alert.Type, alert.Location, alert.AQI, alert.AQICategory)
	alert.Recommendations = s.recommendations(ctx, req, class.Label)

	if req.SendEmail && req.AQI > EmailMinAQI && s.notifier != nil {
		if err := s.notifier.NotifyAlert(ctx, to, alert); err != nil {
			s.logger.Warn("alert notification failed", "user_id", to.UserID, "error", err)
		} else {
			alert.EmailSent = true
		}
	}

	if err := s.store.Append(ctx, to.UserID, alert); err != nil {
		s.logger.Error("store alert failed", "user_id", to.UserID, "error", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(to.UserID, alert)
	}
	s.logger.Info("live tracking alert recorded",
		"user_id", to.UserID,
		"type", alert.Type,
		"location", alert.Location,
		"aqi", alert.AQI,
		"email_sent", alert.EmailSent,
	)
	return alert, nil
}

func (s *service) List(ctx context.Context, userID string) ([]Alert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "Not logged in", nil)
	}
	alerts, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDataUnavailable, "Failed to retrieve alerts", err)
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "Not logged in", nil)
	}
	if err := s.store.Clear(ctx, userID); err != nil {
		return apperrors.Wrap(apperrors.CodeDataUnavailable, "Failed to clear alerts", err)
	}
	s.logger.Info("live tracking alerts cleared", "user_id", userID)
	return nil
}

func validateRequest(req AlertRequest) error {
	kind := strings.TrimSpace(req.Type)
	if kind == "" || len(kind) > maxTypeLength {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "alert type is required", nil)
	}
	if req.AQI < 0 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "aqi cannot be negative", nil)
	}
	if err := geo.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid coordinates", err)
	}
	return nil
}

func (s *service) resolveLocation(ctx context.Context, req AlertRequest) string {
	name := strings.TrimSpace(req.CityName)
	if name != "" && !strings.EqualFold(name, UnknownPlace) {
		return name
	}
	if s.geocoder == nil {
		return UnknownPlace
	}
	resolved, err := s.geocoder.CityName(ctx, req.Latitude, req.Longitude)
	if err != nil || strings.TrimSpace(resolved) == "" {
		if err != nil {
			s.logger.Warn("reverse geocode failed", "lat", req.Latitude, "lon", req.Longitude, "error", err)
		}
		return UnknownPlace
	}
	return strings.TrimSpace(resolved)
}

func alertMessage(kind, location string, value int, label string) string {
	switch kind {
	case TypeInitial:
		return fmt.Sprintf("Live tracking started in %s. Current air quality: %s (AQI: %d).", location, label, value)
	case TypeLocationChange:
		return fmt.Sprintf("You've moved to a new location: %s. Air quality here: %s (AQI: %d).", location, label, value)
	case TypeAQIChange:
		return fmt.Sprintf("Significant air quality change detected in %s. Current AQI: %d (%s).", location, value, label)
	default:
		return fmt.Sprintf("Air quality update for %s: AQI %d (%s).", location, value, label)
	}
}

const recommendationPrompt = `You are a professional air quality health advisor with expertise in environmental health and respiratory medicine.

Generate exactly 3 concise, actionable health recommendations for the current air quality conditions.

RULES:
- Each recommendation must be ONE clear sentence
- Keep each recommendation under 20 words
- Focus on immediate, practical protective actions
- Be specific and actionable
- Number them 1, 2, 3`

func (s *service) recommendations(ctx context.Context, req AlertRequest, label string) []string {
	if s.client == nil {
		return aqi.AlertRecommendations(req.AQI)
	}
	recs, err := s.generate(ctx, req, label)
	if err != nil {
		s.logger.Warn("alert recommendations unavailable, using fallback", "aqi", req.AQI, "error", err)
		return aqi.AlertRecommendations(req.AQI)
	}
	return recs
}

func (s *service) generate(ctx context.Context, req AlertRequest, label string) ([]string, error) {
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: recommendationPrompt},
			{Role: "user", Content: recommendationRequest(req, label)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("alert recommendations generated", "total_tokens", completion.Usage.TotalTokens)
	text, err := completion.Content()
	if err != nil {
		return nil, err
	}
	recs := parseRecommendations(text)
	if len(recs) < recommendCount {
		return nil, fmt.Errorf("model returned %d recommendations, want %d", len(recs), recommendCount)
	}
	return recs[:recommendCount], nil
}

func recommendationRequest(req AlertRequest, label string) string {
	var b strings.Builder
	dominant := req.DominantPollutant
	if dominant == "" {
		dominant = "Not specified"
	}
	fmt.Fprintf(&b, "Current Air Quality Conditions:\n- AQI Level: %d (%s)\n- Primary Pollutant: %s\n", req.AQI, label, dominant)
	if v, ok := req.Pollutants[aqi.PollutantPM25]; ok {
		fmt.Fprintf(&b, "- PM2.5 Concentration: %.1f µg/m³\n", v)
	}
	if v, ok := req.Pollutants[aqi.PollutantPM10]; ok {
		fmt.Fprintf(&b, "- PM10 Concentration: %.1f µg/m³\n", v)
	}
	if v, ok := req.Pollutants[aqi.PollutantO3]; ok {
		fmt.Fprintf(&b, "- Ozone (O₃) Level: %.1f ppb\n", v)
	}
	b.WriteString("\nGenerate 3 specific health recommendations. Number them 1, 2, 3.")
	return b.String()
}

// parseRecommendations keeps numbered or dashed lines with meaningful content.
func parseRecommendations(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !(line[0] >= '0' && line[0] <= '9') && line[0] != '-' {
			continue
		}
		clean := strings.TrimSpace(strings.TrimLeft(line, "0123456789.-) "))
		if len(clean) > 10 {
			out = append(out, clean)
		}
	}
	return out
}

package aqiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/advice"
	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
	"github.com/yanqian/aqi-advisor/internal/domain/tracker"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

const defaultBaseURL = "http://localhost:8080"

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 10 * time.Second

// Client talks to the advisory backend on behalf of the command line client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a backend client. token may be empty for anonymous use.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", base, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FetchByCoordinates returns the reading of the station nearest to a point.
func (c *Client) FetchByCoordinates(ctx context.Context, lat, lon float64) (aqi.Reading, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return aqi.Reading{}, err
	}
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetchReading(ctx, "/api/aqi/geo?"+query.Encode())
}

// FetchByCityName returns the reading of a named city.
func (c *Client) FetchByCityName(ctx context.Context, name string) (aqi.Reading, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return aqi.Reading{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please enter a city name", nil)
	}
	return c.fetchReading(ctx, "/api/aqi/city/"+url.PathEscape(name))
}

// FetchByStation returns the reading of a station uid.
func (c *Client) FetchByStation(ctx context.Context, uid string) (aqi.Reading, error) {
	uid = strings.TrimPrefix(strings.TrimSpace(uid), "@")
	if uid == "" {
		return aqi.Reading{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please enter a station id", nil)
	}
	return c.fetchReading(ctx, "/api/aqi/station/"+url.PathEscape(uid))
}

// Search lists stations matching keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]aqi.Station, error) {
	keyword = strings.TrimSpace(keyword)
	if len([]rune(keyword)) < 2 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "Search keyword must be at least 2 characters", nil)
	}
	var out struct {
		Stations []aqi.Station `json:"stations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/aqi/search/"+url.PathEscape(keyword), nil, &out); err != nil {
		return nil, unavailable("Failed to search stations", err)
	}
	return out.Stations, nil
}

func (c *Client) fetchReading(ctx context.Context, path string) (aqi.Reading, error) {
	var feed aqi.Feed
	if err := c.do(ctx, http.MethodGet, path, nil, &feed); err != nil {
		return aqi.Reading{}, unavailable("Failed to fetch air quality data", err)
	}
	return feed.Reading(), nil
}

// AIRecommendation implements advice.Backend.
func (c *Client) AIRecommendation(ctx context.Context, aqiValue int, conditions []string) (string, error) {
	var out advisor.RecommendationResponse
	req := advisor.RecommendationRequest{AQI: aqiValue, Conditions: conditions}
	if err := c.do(ctx, http.MethodPost, "/api/aqi/ai-recommendation", req, &out); err != nil {
		return "", unavailable("Failed to get recommendation", err)
	}
	return out.Recommendation, nil
}

// PersonalizedAdvice implements advice.Backend. A rejected session is
// reported as unauthenticated.
func (c *Client) PersonalizedAdvice(ctx context.Context, req advice.PersonalizedRequest) (string, error) {
	body := advisor.AdviceRequest{AirContext: airContext(req.Reading), Profile: req.Profile}
	var out advisor.AdviceResponse
	if err := c.do(ctx, http.MethodPost, "/api/aqi/ai-personalized-advice", body, &out); err != nil {
		if unauthorized(err) {
			return "", apperrors.Wrap(apperrors.CodeUnauthenticated, "Please log in to get personalized advice", err)
		}
		return "", unavailable("Failed to get personalized advice", err)
	}
	return out.Advice, nil
}

// SessionInfo is the answer of the session check endpoint.
type SessionInfo struct {
	LoggedIn         bool     `json:"logged_in"`
	Name             string   `json:"name,omitempty"`
	City             string   `json:"city,omitempty"`
	Age              int      `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	HealthConditions []string `json:"health_conditions,omitempty"`
}

// CheckSession asks the backend who the token belongs to.
func (c *Client) CheckSession(ctx context.Context) (SessionInfo, error) {
	var out SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/user/check", nil, &out); err != nil {
		return SessionInfo{}, unavailable("Failed to check session", err)
	}
	return out, nil
}

// LoggedIn implements tracker.SessionChecker.
func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	if c.token == "" {
		return false, nil
	}
	info, err := c.CheckSession(ctx)
	if err != nil {
		return false, err
	}
	return info.LoggedIn, nil
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (auth.LoginResponse, error) {
	var out auth.LoginResponse
	req := auth.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			return auth.LoginResponse{}, apperrors.Wrap(apperrors.CodeUnauthenticated, apiErr.message("invalid email or password"), err)
		}
		return auth.LoginResponse{}, unavailable("Login failed", err)
	}
	return out, nil
}

// DispatchAlert implements tracker.AlertBackend.
func (c *Client) DispatchAlert(ctx context.Context, req tracker.AlertRequest) (tracker.AlertReceipt, error) {
	body := livetrack.AlertRequest{
		Type:              string(req.Type),
		Latitude:          req.Position.Latitude,
		Longitude:         req.Position.Longitude,
		AQI:               req.Reading.AQI,
		AQICategory:       aqi.Classify(req.Reading.AQI).Label,
		Pollutants:        req.Reading.Pollutants,
		CityName:          req.Reading.CityName,
		DominantPollutant: req.Reading.DominantPollutant,
		SendEmail:         req.SendEmail,
	}
	var out livetrack.Alert
	if err := c.do(ctx, http.MethodPost, "/api/live-tracker/alert", body, &out); err != nil {
		return tracker.AlertReceipt{}, c.trackerError("Failed to create alert", err)
	}
	return tracker.AlertReceipt{
		ID:              out.ID,
		Location:        out.Location,
		Message:         out.Message,
		Recommendations: out.Recommendations,
		Timestamp:       out.Timestamp,
	}, nil
}

// ListAlerts implements tracker.AlertBackend.
func (c *Client) ListAlerts(ctx context.Context) ([]tracker.Alert, error) {
	var out struct {
		Alerts []livetrack.Alert `json:"alerts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/live-tracker/alerts", nil, &out); err != nil {
		return nil, c.trackerError("Failed to retrieve alerts", err)
	}
	alerts := make([]tracker.Alert, 0, len(out.Alerts))
	for _, a := range out.Alerts {
		alerts = append(alerts, toTrackerAlert(a))
	}
	return alerts, nil
}

// ClearAlerts implements tracker.AlertBackend.
func (c *Client) ClearAlerts(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/live-tracker/alerts/clear", nil, nil); err != nil {
		return c.trackerError("Failed to clear alerts", err)
	}
	return nil
}

func (c *Client) trackerError(message string, err error) error {
	if unauthorized(err) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "Please log in to use Live Tracking", err)
	}
	return unavailable(message, err)
}

func toTrackerAlert(a livetrack.Alert) tracker.Alert {
	return tracker.Alert{
		ID:   a.ID,
		Type: tracker.AlertType(a.Type),
		Position: geo.Position{
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			CapturedAt: a.Timestamp,
		},
		Reading: aqi.Reading{
			AQI:        a.AQI,
			Category:   aqi.Classify(a.AQI).Category,
			Pollutants: a.Pollutants,
			CityName:   a.Location,
		},
		Location:        a.Location,
		Message:         a.Message,
		Recommendations: a.Recommendations,
		EmailRequested:  a.EmailSent,
		Timestamp:       a.Timestamp,
	}
}

func airContext(r aqi.Reading) advisor.AirContext {
	pollutants := make(map[string]*float64, len(r.Pollutants))
	for code, v := range r.Pollutants {
		pollutants[code] = aqi.Float(v)
	}
	return advisor.AirContext{
		AQI:               r.AQI,
		AQICategory:       aqi.Classify(r.AQI).Label,
		Pollutants:        pollutants,
		DominantPollutant: r.DominantPollutant,
		Weather:           r.Weather,
		CityName:          r.CityName,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return newAPIError(resp.StatusCode, payload)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read backend response: %w", err)
	}
	if apiErr := embeddedError(resp.StatusCode, payload); apiErr != nil {
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

package nominatim

import (
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

	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "aqi-advisor"
)

// ErrNotFound is returned when no place matches.
var ErrNotFound = errors.New("location not found")

// Place is a geocoding result. Name is the short city-level name.
type Place struct {
	Name        string  `json:"name"`
	FullAddress string  `json:"full_address"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// Client queries a Nominatim instance.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient builds a geocoding client. Nominatim rejects requests without a
// user agent, so an empty one falls back to the application name.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reverse resolves coordinates to a place.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("addressdetails", "1")
	q.Set("accept-language", "en")

	var raw result
	if err := c.get(ctx, "/reverse", q, &raw); err != nil {
		return Place{}, err
	}
	if raw.Error != "" || raw.DisplayName == "" {
		return Place{}, ErrNotFound
	}
	return raw.place(), nil
}

// Search resolves a free-form name to the best matching places.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = 1
	}
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", strings.TrimSpace(name))
	q.Set("addressdetails", "1")
	q.Set("accept-language", "en")
	q.Set("limit", strconv.Itoa(limit))

	var raw []result
	if err := c.get(ctx, "/search", q, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		places = append(places, r.place())
	}
	return places, nil
}

// CityName implements the live tracking location lookup.
func (c *Client) CityName(ctx context.Context, lat, lon float64) (string, error) {
	place, err := c.Reverse(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	return place.Name, nil
}

// VerifyCity resolves a user typed place to its short name.
func (c *Client) VerifyCity(ctx context.Context, name string) (string, error) {
	places, err := c.Search(ctx, name, 1)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w: %s", advisor.ErrLocationNotFound, name)
	}
	if err != nil {
		return "", err
	}
	return places[0].Name, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("geocode request error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geocode response: %w", err)
	}
	return nil
}

type result struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// cityKeys are tried in order before falling back to the first part of the
// display name.
var cityKeys = []string{"city", "town", "village", "municipality", "county"}

func (r result) place() Place {
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)
	return Place{
		Name:        shortName(r.Address, r.DisplayName),
		FullAddress: r.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
	}
}

func shortName(address map[string]string, displayName string) string {
	for _, key := range cityKeys {
		if v := strings.TrimSpace(address[key]); v != "" {
			return v
		}
	}
	first, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(first)
}

package waqi

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

	"github.com/yanqian/aqi-advisor/internal/domain/airquality"
	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
)

const defaultBaseURL = "https://api.waqi.info"

// Client talks to the World Air Quality Index API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("waqi token cannot be empty")
	}
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FeedByCity fetches the feed of a named city.
func (c *Client) FeedByCity(ctx context.Context, name string) (aqi.Feed, error) {
	return c.feed(ctx, url.PathEscape(strings.TrimSpace(name)))
}

// FeedByGeo fetches the feed of the station nearest to a coordinate.
func (c *Client) FeedByGeo(ctx context.Context, lat, lon float64) (aqi.Feed, error) {
	return c.feed(ctx, fmt.Sprintf("geo:%s;%s", formatCoord(lat), formatCoord(lon)))
}

// FeedByStation fetches a station feed by uid.
func (c *Client) FeedByStation(ctx context.Context, uid string) (aqi.Feed, error) {
	return c.feed(ctx, "@"+url.PathEscape(strings.TrimSpace(uid)))
}

// Search lists stations matching keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]aqi.Station, error) {
	endpoint := fmt.Sprintf("%s/search/?token=%s&keyword=%s", c.baseURL, url.QueryEscape(c.token), url.QueryEscape(keyword))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode waqi search: %w", err)
	}
	if raw.Status != "ok" {
		return nil, fmt.Errorf("waqi search error: %s", upstreamMessage(raw.Data))
	}

	var hits []searchHit
	if err := json.Unmarshal(raw.Data, &hits); err != nil {
		return nil, fmt.Errorf("decode waqi search hits: %w", err)
	}
	stations := make([]aqi.Station, 0, len(hits))
	for _, h := range hits {
		stations = append(stations, aqi.Station{
			UID:  strconv.Itoa(h.UID),
			Name: h.Station.Name,
			AQI:  strings.Trim(string(h.AQI), `"`),
			Time: h.Time.STime,
		})
	}
	return stations, nil
}

func (c *Client) feed(ctx context.Context, target string) (aqi.Feed, error) {
	endpoint := fmt.Sprintf("%s/feed/%s/?token=%s", c.baseURL, target, url.QueryEscape(c.token))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return aqi.Feed{}, err
	}

	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return aqi.Feed{}, fmt.Errorf("decode waqi feed: %w", err)
	}
	if raw.Status != "ok" {
		return aqi.Feed{}, fmt.Errorf("%w: %s", airquality.ErrStationNotFound, upstreamMessage(raw.Data))
	}

	var data feedData
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return aqi.Feed{}, fmt.Errorf("decode waqi feed data: %w", err)
	}
	value, ok := parseAQI(data.AQI)
	if !ok {
		return aqi.Feed{}, fmt.Errorf("%w: station reports no aqi", airquality.ErrStationNotFound)
	}

	return aqi.Feed{
		AQI:               value,
		StationIndex:      data.Idx,
		City:              data.City,
		DominantPollutant: data.DominentPol,
		IAQI:              data.IAQI,
		Time:              data.Time,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build waqi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("waqi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("waqi request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read waqi response: %w", err)
	}
	return body, nil
}

type feedData struct {
	AQI         json.RawMessage        `json:"aqi"`
	Idx         int                    `json:"idx"`
	City        aqi.FeedCity           `json:"city"`
	DominentPol string                 `json:"dominentpol"`
	IAQI        map[string]aqi.Measure `json:"iaqi"`
	Time        aqi.FeedTime           `json:"time"`
}

type searchHit struct {
	UID     int             `json:"uid"`
	AQI     json.RawMessage `json:"aqi"`
	Time    searchTime      `json:"time"`
	Station searchStation   `json:"station"`
}

type searchTime struct {
	STime string `json:"stime"`
}

type searchStation struct {
	Name string `json:"name"`
}

// parseAQI accepts numbers and numeric strings. Stations without a current
// value report "-".
func parseAQI(raw json.RawMessage) (int, bool) {
	text := strings.Trim(string(bytes.TrimSpace(raw)), `"`)
	if text == "" || text == "-" || text == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f + 0.5), true
}

func upstreamMessage(raw json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
		return msg
	}
	return strings.TrimSpace(string(raw))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package openweather

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

	"github.com/yanqian/aqi-advisor/internal/domain/airquality"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client reads current conditions from OpenWeather.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openweather api key cannot be empty")
	}
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Current returns metric weather at a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (airquality.WeatherObservation, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return airquality.WeatherObservation{}, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return airquality.WeatherObservation{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return airquality.WeatherObservation{}, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return airquality.WeatherObservation{}, fmt.Errorf("decode weather response: %w", err)
	}
	return raw.observation(), nil
}

type currentResponse struct {
	Name       string         `json:"name"`
	Weather    []weatherEntry `json:"weather"`
	Main       *mainBlock     `json:"main"`
	Wind       *windBlock     `json:"wind"`
	Visibility *int           `json:"visibility"`
	Sys        sysBlock       `json:"sys"`
}

type weatherEntry struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
}

type sysBlock struct {
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
}

func (r currentResponse) observation() airquality.WeatherObservation {
	obs := airquality.WeatherObservation{
		CityName:   r.Name,
		Visibility: r.Visibility,
		Sunrise:    r.Sys.Sunrise,
		Sunset:     r.Sys.Sunset,
	}
	if len(r.Weather) > 0 {
		obs.Description = r.Weather[0].Description
		obs.Icon = r.Weather[0].Icon
	}
	if r.Main != nil {
		obs.Temperature = float(r.Main.Temp)
		obs.FeelsLike = float(r.Main.FeelsLike)
		obs.Pressure = float(r.Main.Pressure)
		obs.Humidity = float(r.Main.Humidity)
	}
	if r.Wind != nil {
		obs.WindSpeed = float(r.Wind.Speed)
	}
	return obs
}

func float(v float64) *float64 {
	return &v
}

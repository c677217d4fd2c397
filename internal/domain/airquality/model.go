package airquality

import (
	"context"
	"errors"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
)

// ErrStationNotFound is returned by a Source when upstream has no station
// for the requested target.
var ErrStationNotFound = errors.New("station not found")

// MinSearchKeyword is the shortest accepted station search keyword.
const MinSearchKeyword = 2

// Source is the upstream AQI provider.
type Source interface {
	FeedByCity(ctx context.Context, name string) (aqi.Feed, error)
	FeedByGeo(ctx context.Context, lat, lon float64) (aqi.Feed, error)
	FeedByStation(ctx context.Context, uid string) (aqi.Feed, error)
	Search(ctx context.Context, keyword string) ([]aqi.Station, error)
}

// WeatherObservation is the current weather at a coordinate.
type WeatherObservation struct {
	CityName    string
	Temperature *float64
	FeelsLike   *float64
	Humidity    *float64
	Pressure    *float64
	WindSpeed   *float64
	Visibility  *int
	Description string
	Icon        string
	Sunrise     int64
	Sunset      int64
}

// WeatherSource looks up current weather.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (WeatherObservation, error)
}

// Config tunes the service.
type Config struct {
	// WeatherTimeout bounds the enhancement lookup separately from the AQI call.
	WeatherTimeout time.Duration
	// Alternatives caps the extra stations listed with a nearest-station result.
	Alternatives int
}

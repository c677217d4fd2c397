package airquality

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// Service resolves AQI feeds for cities, coordinates and stations.
type Service interface {
	ByCity(ctx context.Context, name string) (aqi.Feed, error)
	ByGeo(ctx context.Context, lat, lon float64) (aqi.Feed, error)
	ByStation(ctx context.Context, uid string) (aqi.Feed, error)
	Search(ctx context.Context, keyword string) ([]aqi.Station, error)
}

type service struct {
	cfg     Config
	source  Source
	weather WeatherSource
	logger  *slog.Logger
}

// NewService wires the air quality domain. weather may be nil, in which case
// feeds are returned without enhancement.
func NewService(cfg Config, source Source, weather WeatherSource, logger *slog.Logger) Service {
	if cfg.WeatherTimeout <= 0 {
		cfg.WeatherTimeout = 5 * time.Second
	}
	if cfg.Alternatives < 0 {
		cfg.Alternatives = 0
	}
	return &service{
		cfg:     cfg,
		source:  source,
		weather: weather,
		logger:  logger.With("component", "airquality.service"),
	}
}

func (s *service) ByCity(ctx context.Context, name string) (aqi.Feed, error) {
	city := strings.TrimSpace(name)
	if city == "" {
		return aqi.Feed{}, apperrors.Wrap(apperrors.CodeInvalidInput, "city name is required", nil)
	}

	feed, err := s.source.FeedByCity(ctx, city)
	if err == nil {
		return s.enhance(ctx, feed), nil
	}
	if !errors.Is(err, ErrStationNotFound) {
		return aqi.Feed{}, upstreamError(err)
	}

	s.logger.Info("no feed for city, trying nearest station", "city", city)
	feed, err = s.nearestStation(ctx, city)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			return aqi.Feed{}, apperrors.Wrap(apperrors.CodeDataUnavailable,
				fmt.Sprintf("No air quality data found for %q or nearby areas.", city), err)
		}
		return aqi.Feed{}, upstreamError(err)
	}
	return s.enhance(ctx, feed), nil
}

func (s *service) nearestStation(ctx context.Context, city string) (aqi.Feed, error) {
	stations, err := s.source.Search(ctx, city)
	if err != nil {
		return aqi.Feed{}, err
	}
	if len(stations) == 0 {
		return aqi.Feed{}, ErrStationNotFound
	}
	nearest := stations[0]
	feed, err := s.source.FeedByStation(ctx, nearest.UID)
	if err != nil {
		return aqi.Feed{}, err
	}

	feed.IsNearest = true
	feed.NearestInfo = &aqi.NearestInfo{
		StationName:    firstNonEmpty(nearest.Name, "Unknown"),
		OriginalSearch: city,
	}
	if rest := stations[1:]; len(rest) > 0 && s.cfg.Alternatives > 0 {
		if len(rest) > s.cfg.Alternatives {
			rest = rest[:s.cfg.Alternatives]
		}
		feed.AlternativeStations = append([]aqi.Station(nil), rest...)
	}
	return feed, nil
}

func (s *service) ByGeo(ctx context.Context, lat, lon float64) (aqi.Feed, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return aqi.Feed{}, err
	}

	feed, err := s.source.FeedByGeo(ctx, lat, lon)
	if err == nil {
		return s.enhance(ctx, feed), nil
	}
	if !errors.Is(err, ErrStationNotFound) {
		return aqi.Feed{}, upstreamError(err)
	}

	notFound := apperrors.Wrap(apperrors.CodeDataUnavailable, "No air quality monitoring station found near your location.", ErrStationNotFound)
	if s.weather == nil {
		return aqi.Feed{}, notFound
	}
	obs, wErr := s.lookupWeather(ctx, lat, lon)
	if wErr != nil || strings.TrimSpace(obs.CityName) == "" {
		s.logger.Warn("reverse city lookup failed", "lat", lat, "lon", lon, "error", wErr)
		return aqi.Feed{}, notFound
	}
	s.logger.Info("no station at coordinates, falling back to city", "city", obs.CityName)
	feed, err = s.ByCity(ctx, obs.CityName)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			return aqi.Feed{}, notFound
		}
		return aqi.Feed{}, err
	}
	return feed, nil
}

func (s *service) ByStation(ctx context.Context, uid string) (aqi.Feed, error) {
	id := strings.TrimPrefix(strings.TrimSpace(uid), "@")
	if id == "" {
		return aqi.Feed{}, apperrors.Wrap(apperrors.CodeInvalidInput, "station id is required", nil)
	}
	feed, err := s.source.FeedByStation(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			return aqi.Feed{}, apperrors.Wrap(apperrors.CodeDataUnavailable, fmt.Sprintf("No air quality data found for station %s.", id), err)
		}
		return aqi.Feed{}, upstreamError(err)
	}
	return s.enhance(ctx, feed), nil
}

func (s *service) Search(ctx context.Context, keyword string) ([]aqi.Station, error) {
	kw := strings.TrimSpace(keyword)
	if len([]rune(kw)) < MinSearchKeyword {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("Search keyword must be at least %d characters", MinSearchKeyword), nil)
	}
	stations, err := s.source.Search(ctx, kw)
	if err != nil {
		return nil, upstreamError(err)
	}
	if len(stations) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeDataUnavailable, "No stations found", ErrStationNotFound)
	}
	return stations, nil
}

// enhance fills weather measurements the station did not report. Failures
// are logged and the feed is returned unchanged.
func (s *service) enhance(ctx context.Context, feed aqi.Feed) aqi.Feed {
	if s.weather == nil {
		return feed
	}
	lat, lon, ok := feed.Coordinates()
	if !ok {
		return feed
	}
	obs, err := s.lookupWeather(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("weather enhancement failed", "station", feed.City.Name, "error", err)
		return feed
	}

	fill := func(key string, v *float64, round bool) {
		if v == nil || feed.HasMeasure(key) {
			return
		}
		value := *v
		if round {
			value = math.Round(value*10) / 10
		}
		feed.SetMeasure(key, value)
	}
	fill(aqi.IAQITemperature, obs.Temperature, true)
	fill(aqi.IAQIHumidity, obs.Humidity, false)
	fill(aqi.IAQIPressure, obs.Pressure, false)
	fill(aqi.IAQIWind, obs.WindSpeed, true)

	feed.EnhancedWeather = &aqi.EnhancedWeather{
		Description: obs.Description,
		Icon:        obs.Icon,
		FeelsLike:   obs.FeelsLike,
		Visibility:  obs.Visibility,
		Sunrise:     obs.Sunrise,
		Sunset:      obs.Sunset,
	}
	return feed
}

func (s *service) lookupWeather(ctx context.Context, lat, lon float64) (WeatherObservation, error) {
	wctx, cancel := context.WithTimeout(ctx, s.cfg.WeatherTimeout)
	defer cancel()
	return s.weather.Current(wctx, lat, lon)
}

func upstreamError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeDataUnavailable, "Request timed out. Please try again.", err)
	}
	return apperrors.Wrap(apperrors.CodeDataUnavailable, "Failed to fetch air quality data", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

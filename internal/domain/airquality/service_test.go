package airquality

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func TestByCityEnhancesWithWeather(t *testing.T) {
	source := &stubSource{cityFeed: aqi.Feed{
		AQI:  88,
		City: aqi.FeedCity{Name: "Delhi", Geo: []float64{28.61, 77.21}},
		IAQI: map[string]aqi.Measure{"pm25": {V: 88}, "h": {V: 40}},
	}}
	weather := &stubWeather{obs: WeatherObservation{
		Temperature: aqi.Float(31.26),
		Humidity:    aqi.Float(55),
		WindSpeed:   aqi.Float(2.04),
		Description: "haze",
	}}
	svc := newTestService(source, weather)

	feed, err := svc.ByCity(context.Background(), "  Delhi ")
	require.NoError(t, err)
	require.Equal(t, "Delhi", source.lastCity)
	require.Equal(t, 31.3, feed.IAQI["t"].V)
	require.Equal(t, 40.0, feed.IAQI["h"].V, "station humidity wins")
	require.Equal(t, 2.0, feed.IAQI["w"].V)
	require.False(t, feed.HasMeasure("p"))
	require.Equal(t, "haze", feed.EnhancedWeather.Description)
}

func TestByCityFallsBackToNearestStation(t *testing.T) {
	source := &stubSource{
		cityErr: ErrStationNotFound,
		stations: []aqi.Station{
			{UID: "1437", Name: "Anand Vihar"},
			{UID: "1438", Name: "ITO"},
			{UID: "1439", Name: "RK Puram"},
		},
		stationFeed: aqi.Feed{AQI: 190, City: aqi.FeedCity{Name: "Anand Vihar"}},
	}
	svc := newTestService(source, nil)

	feed, err := svc.ByCity(context.Background(), "Noida Sector 62")
	require.NoError(t, err)
	require.True(t, feed.IsNearest)
	require.Equal(t, &aqi.NearestInfo{StationName: "Anand Vihar", OriginalSearch: "Noida Sector 62"}, feed.NearestInfo)
	require.Equal(t, "1437", source.lastStation)
	require.Len(t, feed.AlternativeStations, 2)
}

func TestByCityNotFound(t *testing.T) {
	svc := newTestService(&stubSource{cityErr: ErrStationNotFound}, nil)

	_, err := svc.ByCity(context.Background(), "Atlantis")
	require.True(t, apperrors.IsCode(err, apperrors.CodeDataUnavailable))
	require.ErrorIs(t, err, ErrStationNotFound)
	require.Equal(t, `No air quality data found for "Atlantis" or nearby areas.`, apperrors.MessageOf(err))
}

func TestByCityUpstreamFailure(t *testing.T) {
	svc := newTestService(&stubSource{cityErr: errors.New("status=503")}, nil)

	_, err := svc.ByCity(context.Background(), "Delhi")
	require.True(t, apperrors.IsCode(err, apperrors.CodeDataUnavailable))
	require.False(t, errors.Is(err, ErrStationNotFound))

	_, err = svc.ByCity(context.Background(), " ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestByGeoValidatesAndFallsBackToCity(t *testing.T) {
	source := &stubSource{
		geoErr:   ErrStationNotFound,
		cityFeed: aqi.Feed{AQI: 40, City: aqi.FeedCity{Name: "Gurugram"}},
	}
	weather := &stubWeather{obs: WeatherObservation{CityName: "Gurugram"}}
	svc := newTestService(source, weather)

	_, err := svc.ByGeo(context.Background(), 91, 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	feed, err := svc.ByGeo(context.Background(), 28.45, 77.02)
	require.NoError(t, err)
	require.Equal(t, "Gurugram", feed.City.Name)
	require.Equal(t, "Gurugram", source.lastCity)
}

func TestByGeoWithoutWeatherNotFound(t *testing.T) {
	svc := newTestService(&stubSource{geoErr: fmt.Errorf("wrap: %w", ErrStationNotFound)}, nil)

	_, err := svc.ByGeo(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrStationNotFound)
	require.Equal(t, "No air quality monitoring station found near your location.", apperrors.MessageOf(err))
}

func TestSearchKeywordLength(t *testing.T) {
	source := &stubSource{stations: []aqi.Station{{UID: "1", Name: "Delhi"}}}
	svc := newTestService(source, nil)

	_, err := svc.Search(context.Background(), "d")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	got, err := svc.Search(context.Background(), "de")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = newTestService(&stubSource{}, nil).Search(context.Background(), "zz")
	require.ErrorIs(t, err, ErrStationNotFound)
}

func TestByStationTrimsPrefix(t *testing.T) {
	source := &stubSource{stationFeed: aqi.Feed{AQI: 12}}
	svc := newTestService(source, nil)

	feed, err := svc.ByStation(context.Background(), "@1437")
	require.NoError(t, err)
	require.Equal(t, 12, feed.AQI)
	require.Equal(t, "1437", source.lastStation)
}

func newTestService(source Source, weather WeatherSource) Service {
	return NewService(Config{Alternatives: 3}, source, weather, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubSource struct {
	cityFeed    aqi.Feed
	cityErr     error
	geoFeed     aqi.Feed
	geoErr      error
	stationFeed aqi.Feed
	stationErr  error
	stations    []aqi.Station

	lastCity    string
	lastStation string
}

func (s *stubSource) FeedByCity(ctx context.Context, name string) (aqi.Feed, error) {
	s.lastCity = name
	return s.cityFeed, s.cityErr
}

func (s *stubSource) FeedByGeo(ctx context.Context, lat, lon float64) (aqi.Feed, error) {
	return s.geoFeed, s.geoErr
}

func (s *stubSource) FeedByStation(ctx context.Context, uid string) (aqi.Feed, error) {
	s.lastStation = uid
	return s.stationFeed, s.stationErr
}

func (s *stubSource) Search(ctx context.Context, keyword string) ([]aqi.Station, error) {
	return s.stations, nil
}

type stubWeather struct {
	obs WeatherObservation
	err error
}

func (s *stubWeather) Current(ctx context.Context, lat, lon float64) (WeatherObservation, error) {
	return s.obs, s.err
}

package aqi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedReadingKeepsAbsentMeasurementsAbsent(t *testing.T) {
	raw := `{
		"aqi": 162,
		"idx": 1437,
		"city": {"name": "Anand Vihar, Delhi", "geo": [28.647, 77.316]},
		"dominentpol": "PM25",
		"iaqi": {"pm25": {"v": 162}, "no2": {"v": 0}, "t": {"v": 0}, "h": {"v": 61}},
		"time": {"s": "2024-03-01 09:00:00"},
		"enhanced_weather": {"description": "haze"}
	}`
	var feed Feed
	require.NoError(t, json.Unmarshal([]byte(raw), &feed))

	r := feed.Reading()
	require.Equal(t, 162, r.AQI)
	require.Equal(t, CategoryUnhealthy, r.Category)
	require.Equal(t, "pm25", r.DominantPollutant)
	require.Equal(t, "1437", r.StationID)
	require.Equal(t, "Anand Vihar, Delhi", r.CityName)
	require.Equal(t, &Coordinates{Latitude: 28.647, Longitude: 77.316}, r.Geo)

	no2, ok := r.Pollutant(PollutantNO2)
	require.True(t, ok)
	require.Zero(t, no2)
	_, ok = r.Pollutant(PollutantO3)
	require.False(t, ok)

	require.NotNil(t, r.Weather.Temperature)
	require.Zero(t, *r.Weather.Temperature)
	require.Nil(t, r.Weather.Pressure)
	require.Nil(t, r.Weather.WindSpeed)
	require.Equal(t, "haze", r.Weather.Description)
}

func TestFeedMeasureHelpers(t *testing.T) {
	var feed Feed
	require.False(t, feed.HasMeasure(IAQIWind))
	feed.SetMeasure(IAQIWind, 3.4)
	require.True(t, feed.HasMeasure(IAQIWind))

	_, _, ok := feed.Coordinates()
	require.False(t, ok)
	require.Empty(t, feed.Reading().Pollutants)
}

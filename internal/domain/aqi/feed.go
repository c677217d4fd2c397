package aqi

import (
	"strconv"
	"strings"
)

// Weather keys carried in a feed's iaqi block next to the pollutants.
const (
	IAQITemperature = "t"
	IAQIHumidity    = "h"
	IAQIPressure    = "p"
	IAQIWind        = "w"
)

// Feed is the station feed served by the backend's AQI endpoints. It keeps
// the upstream field names so the measurements map one to one.
type Feed struct {
	AQI                 int                `json:"aqi"`
	StationIndex        int                `json:"idx"`
	City                FeedCity           `json:"city"`
	DominantPollutant   string             `json:"dominentpol,omitempty"`
	IAQI                map[string]Measure `json:"iaqi"`
	Time                FeedTime           `json:"time"`
	IsNearest           bool               `json:"is_nearest,omitempty"`
	NearestInfo         *NearestInfo       `json:"nearest_info,omitempty"`
	AlternativeStations []Station          `json:"alternative_stations,omitempty"`
	EnhancedWeather     *EnhancedWeather   `json:"enhanced_weather,omitempty"`
}

// FeedCity names the station. Geo is [lat, lon] when known.
type FeedCity struct {
	Name string    `json:"name"`
	Geo  []float64 `json:"geo,omitempty"`
	URL  string    `json:"url,omitempty"`
}

// FeedTime is the station's measurement time.
type FeedTime struct {
	S   string `json:"s"`
	TZ  string `json:"tz,omitempty"`
	ISO string `json:"iso,omitempty"`
}

// Measure is one iaqi value.
type Measure struct {
	V float64 `json:"v"`
}

// EnhancedWeather is attached when current conditions could be looked up.
type EnhancedWeather struct {
	Description string   `json:"description"`
	Icon        string   `json:"icon,omitempty"`
	FeelsLike   *float64 `json:"feels_like,omitempty"`
	Visibility  *int     `json:"visibility,omitempty"`
	Sunrise     int64    `json:"sunrise,omitempty"`
	Sunset      int64    `json:"sunset,omitempty"`
}

// Reading normalizes the feed. Measurements missing from iaqi stay absent.
func (f Feed) Reading() Reading {
	r := Reading{
		AQI:                 f.AQI,
		Category:            Classify(f.AQI).Category,
		DominantPollutant:   strings.ToLower(strings.TrimSpace(f.DominantPollutant)),
		CityName:            f.City.Name,
		UpdatedAt:           f.Time.S,
		IsNearest:           f.IsNearest,
		NearestInfo:         f.NearestInfo,
		AlternativeStations: f.AlternativeStations,
	}
	if r.AQI < 0 {
		r.AQI = 0
	}
	if f.StationIndex > 0 {
		r.StationID = strconv.Itoa(f.StationIndex)
	}
	if len(f.City.Geo) == 2 {
		r.Geo = &Coordinates{Latitude: f.City.Geo[0], Longitude: f.City.Geo[1]}
	}
	for _, code := range PollutantCodes() {
		if m, ok := f.IAQI[code]; ok {
			if r.Pollutants == nil {
				r.Pollutants = make(map[string]float64)
			}
			r.Pollutants[code] = m.V
		}
	}
	r.Weather = Weather{
		Temperature: f.measure(IAQITemperature),
		Humidity:    f.measure(IAQIHumidity),
		Pressure:    f.measure(IAQIPressure),
		WindSpeed:   f.measure(IAQIWind),
	}
	if f.EnhancedWeather != nil {
		r.Weather.Description = f.EnhancedWeather.Description
	}
	return r
}

// Coordinates returns the station position when the feed carries one.
func (f Feed) Coordinates() (lat, lon float64, ok bool) {
	if len(f.City.Geo) != 2 {
		return 0, 0, false
	}
	return f.City.Geo[0], f.City.Geo[1], true
}

// SetMeasure fills an iaqi value.
func (f *Feed) SetMeasure(key string, v float64) {
	if f.IAQI == nil {
		f.IAQI = make(map[string]Measure)
	}
	f.IAQI[key] = Measure{V: v}
}

// HasMeasure reports whether the feed carries key.
func (f Feed) HasMeasure(key string) bool {
	_, ok := f.IAQI[key]
	return ok
}

func (f Feed) measure(key string) *float64 {
	m, ok := f.IAQI[key]
	if !ok {
		return nil
	}
	return Float(m.V)
}

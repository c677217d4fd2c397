package aqi

// Pollutant codes reported by upstream stations.
const (
	PollutantPM25 = "pm25"
	PollutantPM10 = "pm10"
	PollutantO3   = "o3"
	PollutantNO2  = "no2"
	PollutantSO2  = "so2"
	PollutantCO   = "co"
)

// Reading is a normalized AQI observation. It is derived on every fetch and
// never persisted.
type Reading struct {
	AQI                 int                `json:"aqi"`
	Category            Category           `json:"category"`
	DominantPollutant   string             `json:"dominant_pollutant,omitempty"`
	Pollutants          map[string]float64 `json:"pollutants,omitempty"`
	Weather             Weather            `json:"weather"`
	CityName            string             `json:"city_name"`
	UpdatedAt           string             `json:"update_time,omitempty"`
	StationID           string             `json:"station_id,omitempty"`
	Geo                 *Coordinates       `json:"geo,omitempty"`
	IsNearest           bool               `json:"is_nearest,omitempty"`
	NearestInfo         *NearestInfo       `json:"nearest_info,omitempty"`
	AlternativeStations []Station          `json:"alternative_stations,omitempty"`
}

// Weather fields are pointers because 0 is a valid measurement.
type Weather struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
	Description string   `json:"conditions,omitempty"`
}

// Coordinates of a monitoring station.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NearestInfo explains that a reading comes from a substitute station.
type NearestInfo struct {
	StationName    string `json:"station_name"`
	OriginalSearch string `json:"original_search"`
}

// Station is a search hit for a monitoring station.
type Station struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	AQI  string `json:"aqi,omitempty"`
	Time string `json:"time,omitempty"`
}

// Pollutant returns the measured value and whether the station reported it.
func (r Reading) Pollutant(code string) (float64, bool) {
	v, ok := r.Pollutants[code]
	return v, ok
}

// Classification classifies the reading's AQI value.
func (r Reading) Classification() Classification {
	return Classify(r.AQI)
}

// Float is a helper for building optional measurements.
func Float(v float64) *float64 {
	return &v
}

package geo

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Position is a device location fix.
type Position struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// DistanceTo returns the great-circle distance to other in kilometres.
func (p Position) DistanceTo(other Position) float64 {
	return DistanceKm(p.Latitude, p.Longitude, other.Latitude, other.Longitude)
}

// DistanceKm computes the haversine distance between two points. NaN inputs
// yield NaN.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidateCoordinates rejects non-finite or out of range coordinates.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "coordinates must be finite numbers", nil)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("invalid coordinates %.4f,%.4f", lat, lon), nil)
	}
	return nil
}

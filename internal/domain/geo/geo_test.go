package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func TestDistanceKmDelhi(t *testing.T) {
	// Connaught Place to north Delhi; the haversine result is 14.44 km.
	d := DistanceKm(28.6139, 77.2090, 28.7041, 77.1025)
	require.InDelta(t, 14.44, d, 0.05)
}

func TestDistanceKmZeroAndSymmetric(t *testing.T) {
	points := [][2]float64{{0, 0}, {51.5074, -0.1278}, {-33.8688, 151.2093}, {89.9, 179.9}}
	for _, a := range points {
		require.Zero(t, DistanceKm(a[0], a[1], a[0], a[1]))
		for _, b := range points {
			require.InDelta(t, DistanceKm(a[0], a[1], b[0], b[1]), DistanceKm(b[0], b[1], a[0], a[1]), 1e-9)
		}
	}
}

func TestDistanceKmAlongMeridian(t *testing.T) {
	// One degree of latitude is R*pi/180 km.
	require.InDelta(t, EarthRadiusKm*math.Pi/180, DistanceKm(10, 20, 11, 20), 1e-6)
}

func TestDistanceKmNaN(t *testing.T) {
	require.True(t, math.IsNaN(DistanceKm(math.NaN(), 0, 0, 0)))
}

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(28.6, 77.2))
	err := ValidateCoordinates(math.Inf(1), 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	err = ValidateCoordinates(91, 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

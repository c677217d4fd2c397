package aqi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		value    int
		category Category
		tier     int
	}{
		{0, CategoryGood, 1},
		{50, CategoryGood, 1},
		{51, CategoryModerate, 2},
		{100, CategoryModerate, 2},
		{101, CategoryUnhealthySensitive, 3},
		{150, CategoryUnhealthySensitive, 3},
		{151, CategoryUnhealthy, 4},
		{200, CategoryUnhealthy, 4},
		{201, CategoryVeryUnhealthy, 5},
		{300, CategoryVeryUnhealthy, 5},
		{301, CategoryHazardous, 6},
		{999, CategoryHazardous, 6},
	}
	for _, tc := range cases {
		got := Classify(tc.value)
		require.Equal(t, tc.category, got.Category, "aqi %d", tc.value)
		require.Equal(t, tc.tier, got.Tier, "aqi %d", tc.value)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(0).Tier
	for v := 1; v <= 600; v++ {
		tier := Classify(v).Tier
		require.GreaterOrEqual(t, tier, prev)
		prev = tier
	}
}

func TestClassifyNegativeClampsToGood(t *testing.T) {
	require.Equal(t, CategoryGood, Classify(-5).Category)
}

func TestClassifySeverityAndLabel(t *testing.T) {
	require.Equal(t, SeveritySuccess, Classify(80).Severity)
	require.Equal(t, SeverityWarning, Classify(120).Severity)
	require.Equal(t, SeverityDanger, Classify(250).Severity)
	require.Equal(t, "Unhealthy for Sensitive Groups", Classify(120).Label)
	require.Equal(t, "Hazardous", Classify(400).Label)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Very Unhealthy")
	require.True(t, ok)
	require.Equal(t, CategoryVeryUnhealthy, c)

	c, ok = ParseCategory("moderate")
	require.True(t, ok)
	require.Equal(t, CategoryModerate, c)

	_, ok = ParseCategory("bad")
	require.False(t, ok)
}

func TestDominantPollutantName(t *testing.T) {
	require.Equal(t, "PM2.5 (Fine Particulate Matter)", DominantPollutantName("pm25"))
	require.Equal(t, "NH3", DominantPollutantName("nh3"))
	require.Empty(t, DominantPollutantName(" "))
}

package aqi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFallbackRecommendationHazardous(t *testing.T) {
	require.Equal(t,
		"☠️ HAZARDOUS CONDITIONS - This is a health emergency! Avoid all outdoor activities. Stay indoors with windows and doors sealed. Run air purifiers continuously. If you experience any respiratory symptoms, seek medical attention immediately. Consider evacuation if you have severe respiratory or heart conditions.",
		FallbackRecommendation(CategoryHazardous))
}

func TestFallbackRecommendationCoversEveryCategory(t *testing.T) {
	seen := make(map[string]struct{})
	for _, c := range Categories() {
		text := FallbackRecommendation(c)
		require.NotEmpty(t, text)
		_, dup := seen[text]
		require.False(t, dup, "category %s reuses another category's text", c)
		seen[text] = struct{}{}
	}
}

func TestAlertRecommendations(t *testing.T) {
	tips := AlertRecommendations(42)
	require.Len(t, tips, 3)
	require.Equal(t, "Air quality is excellent - enjoy outdoor activities without restrictions", tips[0])

	tips = AlertRecommendations(350)
	require.Equal(t, "EMERGENCY: Remain indoors at all times - do not go outside", tips[0])

	tips[0] = "mutated"
	require.NotEqual(t, "mutated", AlertRecommendations(350)[0])
}

func TestCards(t *testing.T) {
	cards := Cards(10)
	require.Len(t, cards, 4)
	require.Equal(t, "Excellent Air Quality", cards[0].Title)
}

package aqi

var fallbackRecommendations = map[Category]string{
	CategoryGood:               "🌟 Excellent news! The air quality today is outstanding. This is the perfect opportunity to engage in outdoor activities, exercise, and enjoy nature. Take advantage of this clean air!",
	CategoryModerate:           "👍 Air quality is acceptable for most people. You can proceed with your normal outdoor activities. However, if you're unusually sensitive to air pollution, consider limiting very intense or prolonged outdoor activities.",
	CategoryUnhealthySensitive: "⚠️ Sensitive individuals should take precautions. If you have respiratory conditions like asthma, are elderly, or have children, consider reducing prolonged outdoor activities. Everyone else can generally maintain normal activities.",
	CategoryUnhealthy:          "🚨 Air quality is unhealthy for everyone. Reduce time spent outdoors, especially strenuous activities. Children, elderly, and those with respiratory or heart conditions should avoid prolonged outdoor exposure. Consider wearing an N95 mask if you must go outside.",
	CategoryVeryUnhealthy:      "⛔ Very unhealthy air quality alert! Everyone should minimize outdoor exposure. Avoid all strenuous outdoor activities. Keep windows and doors closed. Use air purifiers indoors. If you must go outside, wear a properly fitted N95 or N99 mask.",
	CategoryHazardous:          "☠️ HAZARDOUS CONDITIONS - This is a health emergency! Avoid all outdoor activities. Stay indoors with windows and doors sealed. Run air purifiers continuously. If you experience any respiratory symptoms, seek medical attention immediately. Consider evacuation if you have severe respiratory or heart conditions.",
}

// FallbackRecommendation is the fixed advice shown when no generated
// recommendation can be obtained. Unknown categories get the Hazardous text.
func FallbackRecommendation(c Category) string {
	if text, ok := fallbackRecommendations[c]; ok {
		return text
	}
	return fallbackRecommendations[CategoryHazardous]
}

var alertRecommendations = map[Category][3]string{
	CategoryGood: {
		"Air quality is excellent - enjoy outdoor activities without restrictions",
		"Perfect conditions for exercise and spending time outside",
		"Consider opening windows to ventilate your indoor spaces naturally",
	},
	CategoryModerate: {
		"Air quality is acceptable for most outdoor activities",
		"Sensitive individuals should watch for symptoms and limit prolonged exertion",
		"Monitor air quality if you have respiratory or heart conditions",
	},
	CategoryUnhealthySensitive: {
		"Limit prolonged outdoor activities, especially for sensitive groups",
		"Wear an N95 mask if you need to spend extended time outside",
		"Keep windows closed and use air purifiers with HEPA filters indoors",
	},
	CategoryUnhealthy: {
		"Avoid prolonged outdoor activities and stay indoors when possible",
		"Wear N95 or KN95 masks whenever you go outside for protection",
		"Run HEPA air purifiers continuously and seal windows and doors",
	},
	CategoryVeryUnhealthy: {
		"Stay indoors and avoid going outside unless absolutely necessary",
		"Use N95 or N99 respirators for any unavoidable outdoor exposure",
		"Create a clean air room with multiple HEPA air purifiers running",
	},
	CategoryHazardous: {
		"EMERGENCY: Remain indoors at all times - do not go outside",
		"Seal all windows and doors and run air purifiers on maximum settings",
		"Monitor your health closely and have emergency contacts readily available",
	},
}

// AlertRecommendations returns the three canned tips attached to live
// tracking alerts for the given AQI value.
func AlertRecommendations(value int) []string {
	tips := alertRecommendations[Classify(value).Category]
	return []string{tips[0], tips[1], tips[2]}
}

// Card is a short recommendation tile shown next to a reading.
type Card struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var cards = map[Category][]Card{
	CategoryGood: {
		{"🏃", "Excellent Air Quality", "Air quality is satisfactory with little or no risk."},
		{"🌳", "Perfect for Outdoor Activities", "Great day for outdoor exercise and activities."},
		{"🪟", "Fresh Air Ventilation", "Open windows to let fresh air circulate indoors."},
		{"👨‍👩‍👧", "Safe for Everyone", "No precautions needed for any group."},
	},
	CategoryModerate: {
		{"🚶", "Acceptable Air Quality", "Air quality is acceptable for most people."},
		{"⚠️", "Sensitive Groups Take Care", "Unusually sensitive people should limit prolonged exertion."},
		{"🏠", "Monitor Indoor Air", "Consider closing windows during peak traffic hours."},
		{"👀", "Watch for Symptoms", "Pay attention to coughing or shortness of breath."},
	},
	CategoryUnhealthySensitive: {
		{"😷", "Sensitive Groups at Risk", "Children, elderly and people with lung disease should reduce outdoor exertion."},
		{"⏱️", "Limit Outdoor Time", "Take more breaks during outdoor activities."},
		{"🪟", "Keep Windows Closed", "Reduce indoor exposure to outdoor air."},
		{"💨", "Use Air Purifiers", "Run a HEPA purifier in rooms you use most."},
	},
	CategoryUnhealthy: {
		{"😷", "Wear a Mask Outdoors", "Use an N95 mask when going outside."},
		{"🏠", "Stay Indoors", "Everyone should reduce prolonged outdoor exertion."},
		{"🚫", "Avoid Outdoor Exercise", "Move workouts indoors."},
		{"💨", "Run Air Purifiers", "Keep purifiers running in living spaces."},
	},
	CategoryVeryUnhealthy: {
		{"🚨", "Health Alert", "Everyone may experience serious health effects."},
		{"🏠", "Remain Indoors", "Avoid all outdoor physical activity."},
		{"😷", "N95 or N99 Required", "Wear a well fitted respirator if you must go out."},
		{"🪟", "Seal Your Home", "Keep windows and doors shut."},
	},
	CategoryHazardous: {
		{"☠️", "Health Emergency", "Everyone is likely to be affected."},
		{"🏠", "Do Not Go Outside", "Stay indoors with doors and windows sealed."},
		{"💨", "Maximum Filtration", "Run purifiers on the highest setting."},
		{"🏥", "Seek Medical Help", "Get care immediately if you have breathing difficulty."},
	},
}

// Cards returns the recommendation tiles for an AQI value.
func Cards(value int) []Card {
	src := cards[Classify(value).Category]
	out := make([]Card, len(src))
	copy(out, src)
	return out
}

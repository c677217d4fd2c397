package advisor

import (
	"fmt"
	"strings"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
)

var quickRecommendations = map[aqi.Category]string{
	aqi.CategoryGood:               "Air quality is excellent today! This is the perfect time to engage in outdoor activities.",
	aqi.CategoryModerate:           "Air quality is acceptable. Most people can go about their normal activities.",
	aqi.CategoryUnhealthySensitive: "Sensitive groups should consider limiting prolonged outdoor exposure.",
	aqi.CategoryUnhealthy:          "Everyone should reduce prolonged or heavy outdoor exertion.",
	aqi.CategoryVeryUnhealthy:      "Everyone should avoid prolonged outdoor exposure.",
	aqi.CategoryHazardous:          "Health warning: everyone should avoid all outdoor physical activities.",
}

const (
	respiratoryNote = " As someone with respiratory conditions, please keep your rescue inhaler nearby and monitor symptoms closely."
	vulnerableNote  = " Extra precautions are recommended for vulnerable individuals."
)

func quickRecommendation(value int, conditions []string) string {
	text := quickRecommendations[aqi.Classify(value).Category]
	has := func(keys ...string) bool {
		for _, c := range conditions {
			for _, k := range keys {
				if strings.EqualFold(strings.TrimSpace(c), k) {
					return true
				}
			}
		}
		return false
	}
	if has("asthma", "respiratory") {
		text += respiratoryNote
	}
	if has("elderly", "children") {
		text += vulnerableNote
	}
	return text
}

var assessments = map[aqi.Category]string{
	aqi.CategoryGood:               "The air quality in %s is excellent with an AQI of %d. This is ideal for all outdoor activities.",
	aqi.CategoryModerate:           "The air quality in %s is moderate with an AQI of %d. Outdoor activity is generally safe with basic precautions.",
	aqi.CategoryUnhealthySensitive: "The air quality in %s is unhealthy for sensitive groups with an AQI of %d. Take protective measures outdoors.",
	aqi.CategoryUnhealthy:          "The air quality in %s is unhealthy with an AQI of %d. Everyone outdoors needs significant protection.",
	aqi.CategoryVeryUnhealthy:      "The air quality in %s is very unhealthy with an AQI of %d. Being outdoors poses serious health risks.",
	aqi.CategoryHazardous:          "⚠️ HAZARDOUS AIR QUALITY in %s with an AQI of %d. Outdoor exposure is extremely dangerous.",
}

var actions = map[aqi.Category][]string{
	aqi.CategoryGood:               {"Enjoy outdoor activities without restrictions", "No special precautions needed"},
	aqi.CategoryModerate:           {"Normal outdoor activities are acceptable", "Sensitive groups should watch for symptoms"},
	aqi.CategoryUnhealthySensitive: {"Limit prolonged outdoor exposure", "Wear an N95 mask if going outside", "Keep windows closed during peak hours"},
	aqi.CategoryUnhealthy:          {"Minimize outdoor time", "N95/KN95 masks are essential outside", "Stay indoors as much as possible"},
	aqi.CategoryVeryUnhealthy:      {"Stay indoors", "Avoid all strenuous outdoor activities", "Run air purifiers indoors"},
	aqi.CategoryHazardous:          {"Stay indoors", "Avoid all outdoor activities", "Run air purifiers continuously"},
}

var outdoorProtection = map[bool][]string{
	false: {"Wear an N95 or N99 respirator while outside", "Take a 10 minute break indoors every hour", "Drink water regularly even if not thirsty"},
	true:  {"Use only N99 or P100 respirators", "Work at a slower pace with 20 minute breaks in filtered air", "Wear goggles and long sleeves", "Stop immediately if you feel chest pain, dizziness or severe breathlessness"},
}

// fallbackAdvice is the rule based advice used when the model is unavailable.
// It uses the same numbered section layout as the generated advice.
func fallbackAdvice(location string, req AdviceRequest) string {
	class := req.classification()
	p := req.Profile

	var vulnerable []string
	switch {
	case p.Age > 0 && p.Age < 18:
		vulnerable = append(vulnerable, "young age")
	case p.Age > 60:
		vulnerable = append(vulnerable, "senior age")
	case p.Age == 0 && (p.AgeGroup == "child" || p.AgeGroup == "teen" || p.AgeGroup == "senior"):
		vulnerable = append(vulnerable, p.AgeGroup)
	}
	vulnerable = append(vulnerable, reportedConditions(p.Conditions)...)

	var b strings.Builder
	b.WriteString("1. **Current Air Quality Assessment** ")
	fmt.Fprintf(&b, assessments[class.Category], location, req.AQI)
	if pm, ok := req.pollutant(aqi.PollutantPM25); ok {
		fmt.Fprintf(&b, " PM2.5 levels: %.1f µg/m³.", pm)
	}

	b.WriteString("\n\n2. **Health Impact for You** ")
	switch {
	case len(vulnerable) > 0 && class.Tier <= 2:
		fmt.Fprintf(&b, "With %s, monitor for symptoms, but normal activity is fine.", strings.Join(vulnerable, ", "))
	case len(vulnerable) > 0:
		fmt.Fprintf(&b, "Your profile (%s) puts you at higher risk. Take extra precautions outdoors.", strings.Join(vulnerable, ", "))
	case class.Tier <= 3:
		b.WriteString("For healthy individuals, outdoor activity is manageable with proper protection.")
	default:
		b.WriteString("Even healthy people will feel respiratory discomfort and reduced stamina.")
	}

	b.WriteString("\n\n3. **Recommended Actions**\n")
	items := actions[class.Category]
	if mustBeOutside(p.Question) && class.Tier >= 3 {
		items = outdoorProtection[class.Tier >= 5]
	}
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func personalizedFallback(user *UserContext, value int) string {
	class := aqi.Classify(value)
	text := aqi.FallbackRecommendation(class.Category)
	if user == nil {
		return text
	}
	if conditions := reportedConditions(user.Conditions); len(conditions) > 0 && class.Tier >= 2 {
		text += fmt.Sprintf(" Given your health conditions (%s), take extra care and keep any prescribed medication with you.", strings.Join(conditions, ", "))
	}
	if user.Age >= 60 || (user.Age > 0 && user.Age < 18) {
		if class.Tier >= 3 {
			text += " Your age group is more sensitive to pollution, so limit time outdoors."
		}
	}
	return text
}

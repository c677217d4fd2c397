package advisor

import (
	"fmt"
	"strings"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
)

const adviceSystemPrompt = `You are an expert air quality health advisor with deep knowledge of environmental health, respiratory medicine and pollution science.

Give clear, actionable advice based on the current air quality and the user's profile. When the user says they must work or stay outside, give practical protection for being outdoors instead of telling them to stay in.

Structure the answer in numbered sections, each starting with a bold header on the same line:

1. **Current Air Quality Assessment** 2-3 sentences.
2. **Health Impact for You** 2-3 sentences tailored to the profile.
3. **Recommended Actions** short "- " bullet points.
4. **Timing** when to be outside, 1-2 sentences.
5. **Additional Safety Measures** short "- " bullet points, including warning signs.

Keep each section concise. Use simple language.`

const personalizedSystemPrompt = `You are an expert air quality health advisor with medical knowledge.

Provide personalized, actionable recommendations in this exact format:

**🌍 Current Situation**
2-3 sentences on the air quality and its immediate health implications here.

**⚠️ Your Risk Level**
2-3 sentences on the risks for this user's profile.

**💡 Recommended Actions**
• 4-7 bullet points starting with "•"

**🏥 Health Precautions**
2-3 sentences on symptoms to watch and when to seek help.

Be more cautious for respiratory conditions, children and seniors. Keep it concise and practical.`

var ageGroupLabels = map[string]string{
	"child":  "Child (0-12 years)",
	"teen":   "Teenager (13-19 years)",
	"adult":  "Adult (20-60 years)",
	"senior": "Senior (60+ years)",
}

var pollutantLabels = []struct {
	code  string
	label string
	unit  string
}{
	{aqi.PollutantPM25, "PM2.5", "µg/m³"},
	{aqi.PollutantPM10, "PM10", "µg/m³"},
	{aqi.PollutantO3, "Ozone (O₃)", "ppb"},
	{aqi.PollutantNO2, "Nitrogen Dioxide (NO₂)", "ppb"},
	{aqi.PollutantSO2, "Sulfur Dioxide (SO₂)", "ppb"},
	{aqi.PollutantCO, "Carbon Monoxide (CO)", "ppm"},
}

var outdoorWorkKeywords = []string{"work", "job", "have to", "must", "need to", "required"}

func mustBeOutside(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range outdoorWorkKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func (s *service) systemPrompt(base string) string {
	if extra := strings.TrimSpace(s.cfg.Prompt); extra != "" {
		return base + "\n\n" + extra
	}
	return base
}

func buildAdvicePrompt(location string, req AdviceRequest) string {
	var b strings.Builder
	class := req.classification()
	fmt.Fprintf(&b, "LOCATION & AIR QUALITY DATA:\n- Location: %s\n- Current AQI: %d (%s)\n", location, req.AQI, class.Label)
	writeAirDetails(&b, req.AirContext)

	p := req.Profile
	b.WriteString("\nUSER PROFILE:\n")
	switch {
	case p.Age > 0:
		fmt.Fprintf(&b, "- Age: %d years old\n", p.Age)
	case p.AgeGroup != "":
		label, ok := ageGroupLabels[p.AgeGroup]
		if !ok {
			label = p.AgeGroup
		}
		fmt.Fprintf(&b, "- Age Group: %s\n", label)
	}
	if p.Gender != "" && p.Gender != "prefer-not-to-say" {
		fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	}
	if p.TimeOutside != "" {
		fmt.Fprintf(&b, "- Daily time spent outside: %s hours\n", p.TimeOutside)
	}
	if conditions := reportedConditions(p.Conditions); len(conditions) > 0 {
		fmt.Fprintf(&b, "- Health Conditions: %s\n", strings.Join(conditions, ", "))
	} else {
		b.WriteString("- Health Conditions: None reported\n")
	}
	if p.Question != "" {
		fmt.Fprintf(&b, "\nUSER'S SPECIFIC QUESTION:\n%s\n", p.Question)
		if mustBeOutside(p.Question) {
			b.WriteString("\nIMPORTANT: The user must be outside. Give practical protective measures for outdoor work.\n")
		}
	}
	b.WriteString("\nProvide personalized health advice following the structured format above.")
	return b.String()
}

func buildPersonalizedPrompt(location string, user *UserContext, req PersonalizedRequest) string {
	var b strings.Builder
	class := req.classification()
	fmt.Fprintf(&b, "📍 Location: %s\n🌡️ Current AQI: %d (%s)\n", location, req.AQI, class.Label)
	writeAirDetails(&b, req.AirContext)
	fmt.Fprintf(&b, "\n👤 User Profile: %s\n", describeUser(user))
	b.WriteString("\nProvide personalized air quality health advice for this specific user.")
	return b.String()
}

func writeAirDetails(b *strings.Builder, air AirContext) {
	var lines []string
	for _, p := range pollutantLabels {
		if v, ok := air.pollutant(p.code); ok {
			lines = append(lines, fmt.Sprintf("- %s: %.1f %s", p.label, v, p.unit))
		}
	}
	if len(lines) > 0 {
		b.WriteString("\nPOLLUTANT LEVELS:\n" + strings.Join(lines, "\n") + "\n")
	}
	if air.DominantPollutant != "" {
		fmt.Fprintf(b, "\nDominant Pollutant: %s\n", strings.ToUpper(air.DominantPollutant))
	}

	lines = lines[:0]
	w := air.Weather
	if w.Temperature != nil {
		lines = append(lines, fmt.Sprintf("- Temperature: %.1f°C", *w.Temperature))
	}
	if w.Humidity != nil {
		lines = append(lines, fmt.Sprintf("- Humidity: %.0f%%", *w.Humidity))
	}
	if w.WindSpeed != nil {
		lines = append(lines, fmt.Sprintf("- Wind Speed: %.1f m/s", *w.WindSpeed))
	}
	if w.Description != "" {
		lines = append(lines, "- Conditions: "+w.Description)
	}
	if len(lines) > 0 {
		b.WriteString("\nWEATHER CONDITIONS:\n" + strings.Join(lines, "\n") + "\n")
	}
}

func describeUser(user *UserContext) string {
	if user == nil {
		return "General user (no profile data)"
	}
	var parts []string
	if user.Name != "" {
		parts = append(parts, "User: "+user.Name)
	}
	if user.Age > 0 {
		parts = append(parts, fmt.Sprintf("Age: %d years", user.Age))
		switch {
		case user.Age < 5:
			parts = append(parts, "(Infant/Toddler - very high sensitivity to pollution)")
		case user.Age < 18:
			parts = append(parts, "(Child/Teen - high sensitivity, developing lungs)")
		case user.Age >= 60:
			parts = append(parts, "(Senior - increased vulnerability)")
		}
	}
	if user.Gender != "" {
		parts = append(parts, "Gender: "+user.Gender)
	}
	if user.City != "" {
		parts = append(parts, "Home City: "+user.City)
	}
	if conditions := reportedConditions(user.Conditions); len(conditions) > 0 {
		parts = append(parts, "Health Conditions: "+strings.Join(conditions, ", "))
	}
	if len(parts) == 0 {
		return "General user (no profile data)"
	}
	return strings.Join(parts, " | ")
}

// reportedConditions drops the explicit "none" marker.
func reportedConditions(conditions []string) []string {
	out := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if c = strings.TrimSpace(c); c != "" && !strings.EqualFold(c, "none") {
			out = append(out, c)
		}
	}
	return out
}

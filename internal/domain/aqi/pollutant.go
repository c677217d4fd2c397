package aqi

import "strings"

// PollutantInfo describes how a pollutant is displayed.
type PollutantInfo struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

var pollutantInfo = map[string]PollutantInfo{
	PollutantPM25: {Name: "PM2.5", Unit: "µg/m³", Description: "Fine Particles"},
	PollutantPM10: {Name: "PM10", Unit: "µg/m³", Description: "Coarse Particles"},
	PollutantO3:   {Name: "O₃", Unit: "ppb", Description: "Ozone"},
	PollutantNO2:  {Name: "NO₂", Unit: "ppb", Description: "Nitrogen Dioxide"},
	PollutantSO2:  {Name: "SO₂", Unit: "ppb", Description: "Sulfur Dioxide"},
	PollutantCO:   {Name: "CO", Unit: "ppm", Description: "Carbon Monoxide"},
}

var dominantNames = map[string]string{
	PollutantPM25: "PM2.5 (Fine Particulate Matter)",
	PollutantPM10: "PM10 (Coarse Particulate Matter)",
	PollutantO3:   "O₃ (Ozone)",
	PollutantNO2:  "NO₂ (Nitrogen Dioxide)",
	PollutantSO2:  "SO₂ (Sulfur Dioxide)",
	PollutantCO:   "CO (Carbon Monoxide)",
}

// PollutantCodes lists the pollutants in display order.
func PollutantCodes() []string {
	return []string{PollutantPM25, PollutantPM10, PollutantO3, PollutantNO2, PollutantSO2, PollutantCO}
}

// DescribePollutant returns display metadata for a pollutant code.
func DescribePollutant(code string) (PollutantInfo, bool) {
	info, ok := pollutantInfo[strings.ToLower(code)]
	return info, ok
}

// DominantPollutantName expands a pollutant code; unknown codes are uppercased.
func DominantPollutantName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if name, ok := dominantNames[strings.ToLower(code)]; ok {
		return name
	}
	return strings.ToUpper(code)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/tracker"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReading(w io.Writer, r aqi.Reading) {
	class := aqi.Classify(r.AQI)
	name := r.CityName
	if name == "" {
		name = "Unknown location"
	}
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "AQI: %d (%s)\n", r.AQI, class.Label)
	if r.DominantPollutant != "" {
		fmt.Fprintf(w, "Dominant pollutant: %s\n", strings.ToUpper(r.DominantPollutant))
	}
	if len(r.Pollutants) > 0 {
		codes := make([]string, 0, len(r.Pollutants))
		for code := range r.Pollutants {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			parts = append(parts, fmt.Sprintf("%s=%.1f", code, r.Pollutants[code]))
		}
		fmt.Fprintf(w, "Pollutants: %s\n", strings.Join(parts, " "))
	}
	if weather := formatWeather(r.Weather); weather != "" {
		fmt.Fprintf(w, "Weather: %s\n", weather)
	}
	if r.UpdatedAt != "" {
		fmt.Fprintf(w, "Updated: %s\n", r.UpdatedAt)
	}
	if r.IsNearest && r.NearestInfo != nil {
		fmt.Fprintf(w, "Showing nearest station %q for %q\n", r.NearestInfo.StationName, r.NearestInfo.OriginalSearch)
	}
	if len(r.AlternativeStations) > 0 {
		fmt.Fprintln(w, "Other stations:")
		printStations(w, r.AlternativeStations)
	}
	fmt.Fprintln(w, "What to do:")
	for _, c := range aqi.Cards(r.AQI) {
		fmt.Fprintf(w, "  %s %s: %s\n", c.Icon, c.Title, c.Description)
	}
}

func formatWeather(wx aqi.Weather) string {
	var parts []string
	if wx.Temperature != nil {
		parts = append(parts, fmt.Sprintf("%.1f°C", *wx.Temperature))
	}
	if wx.Humidity != nil {
		parts = append(parts, fmt.Sprintf("humidity %.0f%%", *wx.Humidity))
	}
	if wx.WindSpeed != nil {
		parts = append(parts, fmt.Sprintf("wind %.1f m/s", *wx.WindSpeed))
	}
	if wx.Description != "" {
		parts = append(parts, wx.Description)
	}
	return strings.Join(parts, ", ")
}

func printStations(w io.Writer, stations []aqi.Station) {
	for _, s := range stations {
		value := s.AQI
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "  @%-8s AQI %-4s %s\n", s.UID, value, s.Name)
	}
}

func printAlert(w io.Writer, a tracker.Alert) {
	class := aqi.Classify(a.Reading.AQI)
	fmt.Fprintf(w, "[%s] %s at %s, AQI %d (%s)\n", a.Timestamp.Local().Format(time.Kitchen), a.Type, a.Location, a.Reading.AQI, class.Label)
	if a.Message != "" {
		fmt.Fprintf(w, "  %s\n", a.Message)
	}
	for _, rec := range a.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
}

// Package weather turns OpenWeather current conditions and forecast into the
// dashboard's weather card, with "-" placeholders whenever data is missing.
package weather

import (
	"time"

	"krishi/pkg/reading"
)

type Current struct {
	Temp        reading.Value `json:"temp"`
	Humidity    reading.Value `json:"humidity"`
	Rainfall    reading.Value `json:"rainfall"`
	Condition   string        `json:"condition"`
	RainChance  reading.Value `json:"rainChance"`
	WindSpeed   string        `json:"windSpeed"`
	Description string        `json:"description"`
}

type ForecastDay struct {
	Day         string        `json:"day"`
	Temp        reading.Value `json:"temp"`
	Condition   string        `json:"condition"`
	Humidity    reading.Value `json:"humidity"`
	Wind        string        `json:"wind"`
	Description string        `json:"description"`
}

type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
	AlertError   AlertType = "error"
)

type Alert struct {
	Type     AlertType `json:"type"`
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
}

type Report struct {
	Current        Current       `json:"current"`
	WeeklyForecast []ForecastDay `json:"weeklyForecast"`
	Alerts         []Alert       `json:"alerts"`
}

const forecastDays = 5

const (
	hotThreshold  = 35.0
	rainThreshold = 80.0
)

// DayLabel names the i-th forecast day counted from now.
func DayLabel(now time.Time, i int) string {
	switch i {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return now.AddDate(0, 0, i).Format("Mon")
}

// Placeholder is a fully "-" report carrying a single alert.
func Placeholder(now time.Time, alert Alert) Report {
	days := make([]ForecastDay, forecastDays)
	for i := range days {
		days[i] = ForecastDay{
			Day:         DayLabel(now, i),
			Temp:        reading.Missing,
			Condition:   reading.Placeholder,
			Humidity:    reading.Missing,
			Wind:        reading.Placeholder,
			Description: reading.Placeholder,
		}
	}
	return Report{
		Current: Current{
			Condition:   reading.Placeholder,
			WindSpeed:   reading.Placeholder,
			Description: reading.Placeholder,
		},
		WeeklyForecast: days,
		Alerts:         []Alert{alert},
	}
}

var (
	alertUnavailable  = Alert{Type: AlertError, Message: "Weather data unavailable", Severity: "low"}
	alertNeedLocation = Alert{Type: AlertInfo, Message: "Location data needed for weather", Severity: "low"}
)

// Alerts derives farm alerts from current conditions.
func Alerts(c Current) []Alert {
	var out []Alert
	if t, ok := c.Temp.Float(); ok && t > hotThreshold {
		out = append(out, Alert{Type: AlertWarning, Message: "High temperature - protect crops", Severity: "high"})
	}
	if r, ok := c.RainChance.Float(); ok && r > rainThreshold {
		out = append(out, Alert{Type: AlertInfo, Message: "High chance of rain", Severity: "low"})
	}
	if len(out) == 0 {
		out = append(out, Alert{Type: AlertInfo, Message: "Weather conditions are normal", Severity: "low"})
	}
	return out
}

var icons = map[string]string{
	"01d": "☀️", "01n": "🌙", "02d": "⛅", "02n": "⛅",
	"03d": "☁️", "03n": "☁️", "04d": "☁️", "04n": "☁️",
	"09d": "🌧️", "09n": "🌧️", "10d": "🌦️", "10n": "🌧️",
	"11d": "⛈️", "11n": "⛈️", "13d": "❄️", "13n": "❄️",
	"50d": "🌫️", "50n": "🌫️",
}

// Emoji maps an OpenWeather icon code; unknown codes show "-".
func Emoji(icon string) string {
	if e, ok := icons[icon]; ok {
		return e
	}
	return reading.Placeholder
}

package models

import "time"

// RecoveryStatus is the current recovery state with explanation.
type RecoveryStatus struct {
	Score            float64  `json:"score"`
	Category         string   `json:"category"` // "green", "yellow", "red"
	HRV              *float64 `json:"hrv,omitempty"`
	RestingHeartRate *float64 `json:"resting_heart_rate,omitempty"`
	KeyDriver        string   `json:"key_driver"`
	VsBaseline       string   `json:"vs_baseline,omitempty"` // e.g. "+8% vs your 28-day average"
}

// DailyAction is a single prioritised action for the day.
type DailyAction struct {
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
	Category  string `json:"category"` // "training", "sleep", "recovery", "lifestyle"
	Priority  int    `json:"priority"` // 1 = highest
}

// SleepTarget is tonight's sleep recommendation.
type SleepTarget struct {
	TargetBedtime string  `json:"target_bedtime,omitempty"` // "22:30"
	TargetHours   float64 `json:"target_hours"`
	Reasoning     string  `json:"reasoning"`
}

// ContextSummary is the environmental context affecting daily planning.
type ContextSummary struct {
	Weather       string `json:"weather,omitempty"`
	AirQuality    string `json:"air_quality,omitempty"`
	Transport     string `json:"transport,omitempty"`
	OutdoorWindow string `json:"outdoor_window,omitempty"`
}

// DailyPlanResponse is the complete daily action card.
type DailyPlanResponse struct {
	RecoveryStatus RecoveryStatus `json:"recovery_status"`
	Actions        []DailyAction  `json:"actions"`
	SleepTarget    SleepTarget    `json:"sleep_target"`
	Context        ContextSummary `json:"context"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// WeatherContext is pre-fetched weather data. The API client that
// produces it lives outside this service; the daily engine only reads it.
type WeatherContext struct {
	Current       WeatherCurrent     `json:"current"`
	AirQuality    WeatherAirQuality  `json:"air_quality"`
	ForecastToday string             `json:"forecast_today,omitempty"`
}

// WeatherCurrent holds present conditions.
type WeatherCurrent struct {
	Temp       *float64 `json:"temp,omitempty"`
	Conditions string   `json:"conditions,omitempty"`
	Sunrise    string   `json:"sunrise,omitempty"`
	Sunset     string   `json:"sunset,omitempty"`
}

// WeatherAirQuality holds the AQI reading on the 1-5 scale.
type WeatherAirQuality struct {
	AQI         int    `json:"aqi,omitempty"`
	Description string `json:"description,omitempty"`
}

// TransportLine is the status of one transport line.
type TransportLine struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// TideContext is pre-fetched tide data, used only for the outdoor window.
type TideContext struct {
	NextHighTide string `json:"next_high_tide,omitempty"`
	NextLowTide  string `json:"next_low_tide,omitempty"`
}

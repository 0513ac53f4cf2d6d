package models

import "time"

// ScenarioInput describes one hypothetical night/day. Only sleep hours
// is required; unset fields fall back to historical medians.
type ScenarioInput struct {
	Label           string   `json:"label,omitempty"`
	SleepHours      float64  `json:"sleep_hours" binding:"required,gte=0,lte=14"`
	SleepEfficiency *float64 `json:"sleep_efficiency,omitempty" binding:"omitempty,gte=0,lte=100"`
	Strain          *float64 `json:"strain,omitempty" binding:"omitempty,gte=0,lte=21"`
	HRV             *float64 `json:"hrv,omitempty" binding:"omitempty,gte=0"`
	RHR             *float64 `json:"rhr,omitempty" binding:"omitempty,gte=30,lte=120"`
}

// ScenarioResult is the prediction for a single scenario.
type ScenarioResult struct {
	Label               string             `json:"label,omitempty"`
	PredictedRecovery   float64            `json:"predicted_recovery"`
	ConfidenceInterval  [2]float64         `json:"confidence_interval"`
	RecoveryCategory    string             `json:"recovery_category"` // "green", "yellow", "red"
	VsBaseline          string             `json:"vs_baseline"`
	Verdict             string             `json:"verdict"`
	ContributingFactors map[string]float64 `json:"contributing_factors"`
}

// ScenarioRequest wraps a single scenario prediction request.
type ScenarioRequest struct {
	Scenario ScenarioInput `json:"scenario" binding:"required"`
}

// ScenarioResponse is the single-scenario reply.
type ScenarioResponse struct {
	Result           ScenarioResult `json:"result"`
	BaselineRecovery float64        `json:"baseline_recovery"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// CompareRequest asks for a side-by-side comparison of 2-5 scenarios.
type CompareRequest struct {
	Scenarios []ScenarioInput `json:"scenarios" binding:"required,min=2,max=5"`
}

// CompareResponse is the comparison reply.
type CompareResponse struct {
	Results          []ScenarioResult `json:"results"`
	BestOption       string           `json:"best_option"`
	BaselineRecovery float64          `json:"baseline_recovery"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

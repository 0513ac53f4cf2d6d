package service

import (
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

const fallbackBaselineRecovery = 50.0

// Sleep stage fractions used to derive stage hours from a scenario's
// total sleep. They approximate a typical healthy night.
const (
	scenarioRemFraction   = 0.2
	scenarioSWSFraction   = 0.15
	scenarioLightFraction = 0.55
)

// ScenarioPlanner runs what-if inputs through the recovery model and
// wraps the raw prediction in plain-English framing.
type ScenarioPlanner struct {
	manager    *ml.Manager
	recoveries *repository.RecoveryRepository
}

func NewScenarioPlanner(manager *ml.Manager, recoveries *repository.RecoveryRepository) *ScenarioPlanner {
	return &ScenarioPlanner{manager: manager, recoveries: recoveries}
}

// PredictScenario scores a single scenario.
func (p *ScenarioPlanner) PredictScenario(scenario models.ScenarioInput) (*models.ScenarioResponse, error) {
	predictor, err := p.manager.Recovery()
	if err != nil {
		return nil, err
	}
	baseline := p.baselineRecovery()
	result := runScenario(predictor, scenario, baseline)
	return &models.ScenarioResponse{
		Result:           result,
		BaselineRecovery: round1(baseline),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

// CompareScenarios scores each scenario and names the one with the
// highest predicted recovery.
func (p *ScenarioPlanner) CompareScenarios(scenarios []models.ScenarioInput) (*models.CompareResponse, error) {
	predictor, err := p.manager.Recovery()
	if err != nil {
		return nil, err
	}
	baseline := p.baselineRecovery()

	results := make([]models.ScenarioResult, 0, len(scenarios))
	bestIdx := 0
	for i, scenario := range scenarios {
		if scenario.Label == "" {
			scenario.Label = fmt.Sprintf("Scenario %d", i+1)
		}
		result := runScenario(predictor, scenario, baseline)
		results = append(results, result)
		if result.PredictedRecovery > results[bestIdx].PredictedRecovery {
			bestIdx = i
		}
	}

	return &models.CompareResponse{
		Results:          results,
		BestOption:       results[bestIdx].Label,
		BaselineRecovery: round1(baseline),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

// baselineRecovery is the mean of the last 28 recovery scores, with a
// neutral fallback when history is empty.
func (p *ScenarioPlanner) baselineRecovery() float64 {
	recoveries, err := p.recoveries.List(28)
	if err != nil {
		return fallbackBaselineRecovery
	}
	var scores []float64
	for _, r := range recoveries {
		if r.RecoveryScore != nil {
			scores = append(scores, *r.RecoveryScore)
		}
	}
	if len(scores) == 0 {
		return fallbackBaselineRecovery
	}
	return stats.Mean(scores)
}

// runScenario starts from the trained median vector, applies the user's
// overrides plus derived stage estimates, and frames the prediction.
func runScenario(predictor *ml.Predictor, scenario models.ScenarioInput, baseline float64) models.ScenarioResult {
	overrides := map[string]float64{
		features.ColSleepHours:      scenario.SleepHours,
		features.ColTotalSleepHours: scenario.SleepHours,
	}
	if scenario.Strain != nil {
		overrides[features.ColStrain] = *scenario.Strain
	}
	if scenario.SleepEfficiency != nil {
		overrides[features.ColSleepEfficiency] = *scenario.SleepEfficiency
	}
	if scenario.HRV != nil {
		overrides[features.ColHRV] = *scenario.HRV
	}
	if scenario.RHR != nil {
		overrides[features.ColRestingHeartRate] = *scenario.RHR
	}

	// derived stage hours and an efficiency-proxied quality score
	overrides[features.ColRemSleepHours] = scenario.SleepHours * scenarioRemFraction
	overrides[features.ColSlowWaveSleepHours] = scenario.SleepHours * scenarioSWSFraction
	overrides[features.ColLightSleepHours] = scenario.SleepHours * scenarioLightFraction
	eff := 85.0
	if scenario.SleepEfficiency != nil {
		eff = *scenario.SleepEfficiency
	} else if m, ok := predictor.Medians[features.ColSleepEfficiency]; ok && m > 0 {
		eff = m
	}
	overrides[features.ColSleepQualityScore] = eff * 0.5

	empty := features.EmptyRow()
	vec := predictor.Vector(&empty, overrides)
	prediction := predictor.Predict(vec)

	predicted := stats.Clip(prediction.Value, 0, 100)
	lo := stats.Clip(prediction.CILower, 0, 100)
	hi := stats.Clip(prediction.CIUpper, 0, 100)

	category := recoveryCategory(predicted)
	diff := predicted - baseline
	sign := ""
	if diff > 0 {
		sign = "+"
	}
	vsBaseline := fmt.Sprintf("%s%.0f%% vs your 28-day average (%.0f%%)", sign, diff, baseline)

	contributions := make(map[string]float64)
	for _, c := range predictor.Explain(vec, 5) {
		contributions[c.Feature] = round1(c.Importance)
	}

	return models.ScenarioResult{
		Label:               scenario.Label,
		PredictedRecovery:   round1(predicted),
		ConfidenceInterval:  [2]float64{round1(lo), round1(hi)},
		RecoveryCategory:    category,
		VsBaseline:          vsBaseline,
		Verdict:             scenarioVerdict(category, diff),
		ContributingFactors: contributions,
	}
}

// recoveryCategory maps a score onto the traffic-light bands.
func recoveryCategory(score float64) string {
	switch {
	case score >= 67:
		return "green"
	case score >= 34:
		return "yellow"
	default:
		return "red"
	}
}

func scenarioVerdict(category string, diff float64) string {
	switch category {
	case "green":
		if diff > 10 {
			return "You'd likely wake up well above your average — go for it"
		}
		return "You'd likely wake up green — a good day ahead"
	case "yellow":
		if diff > 0 {
			return "You'd wake up yellow but still above average — moderate intensity is fine"
		}
		return "You'd likely wake up yellow — keep it easy tomorrow"
	default:
		if diff < -10 {
			return "This would put you deep in the red — strongly consider a different plan"
		}
		return "You'd likely wake up red — prioritise recovery over training"
	}
}

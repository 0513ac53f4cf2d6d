package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

var factorNames = map[string]string{
	features.ColSleepHours:         "Sleep Duration",
	features.ColSleepEfficiency:    "Sleep Efficiency",
	features.ColHRV:                "Heart Rate Variability (HRV)",
	features.ColRestingHeartRate:   "Resting Heart Rate",
	features.ColRemSleepHours:      "REM Sleep",
	features.ColSlowWaveSleepHours: "Deep Sleep",
	features.ColStrain:             "Strain Level",
	features.ColSleepQualityScore:  "Overall Sleep Quality",
}

// FactorImportance combines the trained factor model's importance
// ranking with each feature's simple correlation against the recovery
// score, and compares the factor across the best and worst recovery
// quartiles to produce an actionable threshold.
func FactorImportance(pred *ml.Predictor, rows []features.FeatureRow) (*FactorImportanceResult, error) {
	if len(rows) < minFactorObservations {
		return nil, analysis.ErrInsufficientData("factor importance", minFactorObservations, len(rows))
	}

	result := &FactorImportanceResult{
		Target:      pred.Target,
		NObs:        len(rows),
		ModelR2:     stats.SanitizeFloat(pred.TestR2, 0),
		ModelMAE:    stats.SanitizeFloat(pred.TestMAE, 0),
		Explanation: modelExplanation(stats.SanitizeFloat(pred.TestR2, 0)),
		ComputedAt:  time.Now().UTC(),
	}

	for _, fw := range pred.FeatureImportance() {
		x, y := features.CleanPairs(rows, fw.Feature, pred.Target)
		r := stats.SanitizeFloat(stats.PearsonCorrelation(x, y), 0)
		direction := "positive"
		if r < 0 {
			direction = "negative"
		}
		importance := stats.SanitizeFloat(fw.Importance, 0)
		topAvg, bottomAvg := quartileAvgsByTarget(x, y)
		explanation, threshold := explainFactor(fw.Feature, importance, topAvg, bottomAvg)
		result.Rankings = append(result.Rankings, FactorRanking{
			Feature:           fw.Feature,
			Name:              factorName(fw.Feature),
			Importance:        importance,
			Correlation:       r,
			Direction:         direction,
			MeanValue:         stats.SanitizeFloat(stats.Mean(x), 0),
			TopQuartileAvg:    stats.SanitizeFloat(topAvg, 0),
			BottomQuartileAvg: stats.SanitizeFloat(bottomAvg, 0),
			Threshold:         threshold,
			Explanation:       explanation,
		})
	}
	if len(result.Rankings) > 0 {
		top := result.Rankings[0]
		result.TopLever = topLeverLine(top.Feature, top.Importance, top.TopQuartileAvg)
	}
	return result, nil
}

func factorName(feature string) string {
	if name, ok := factorNames[feature]; ok {
		return name
	}
	return feature
}

// quartileAvgsByTarget averages the factor over the top and bottom 25%
// of observations ranked by the target.
func quartileAvgsByTarget(x, y []float64) (topAvg, bottomAvg float64) {
	if len(x) == 0 {
		return 0, 0
	}
	q := len(x) / 4
	if q < 1 {
		q = 1
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return y[idx[a]] > y[idx[b]] })

	var topSum, bottomSum float64
	for _, i := range idx[:q] {
		topSum += x[i]
	}
	for _, i := range idx[len(idx)-q:] {
		bottomSum += x[i]
	}
	return topSum / float64(q), bottomSum / float64(q)
}

func explainFactor(feature string, importance, topAvg, bottomAvg float64) (explanation, threshold string) {
	switch feature {
	case features.ColSleepHours:
		return fmt.Sprintf("Sleep duration accounts for %.1f%% of your recovery variation. Your best recoveries average %.1f hours of sleep.", importance, topAvg),
			fmt.Sprintf(">= %.1f hours", topAvg)
	case features.ColSleepEfficiency:
		return fmt.Sprintf("Sleep efficiency accounts for %.1f%% of your recovery. Your top recoveries have %.0f%% efficiency.", importance, topAvg),
			fmt.Sprintf(">= %.0f%%", topAvg)
	case features.ColHRV:
		return fmt.Sprintf("HRV accounts for %.1f%% of recovery variation. Higher HRV (%.0fms) correlates with better recovery.", importance, topAvg),
			fmt.Sprintf(">= %.0fms", topAvg)
	case features.ColRestingHeartRate:
		return fmt.Sprintf("Resting heart rate accounts for %.1f%% of recovery. Lower RHR (%.0fbpm) indicates better recovery.", importance, topAvg),
			fmt.Sprintf("<= %.0fbpm", topAvg)
	case features.ColStrain:
		return fmt.Sprintf("Strain accounts for %.1f%% of recovery. Lower strain days (%.1f) lead to better recovery.", importance, bottomAvg),
			fmt.Sprintf("< %.1f", (topAvg+bottomAvg)/2)
	default:
		return fmt.Sprintf("%s accounts for %.1f%% of your recovery variation.", factorName(feature), importance), ""
	}
}

func topLeverLine(feature string, importance, topAvg float64) string {
	switch feature {
	case features.ColSleepHours:
		return fmt.Sprintf("Sleep duration is your biggest lever (%.0f%% of recovery) - aim for %.1f+ hours", importance, topAvg)
	case features.ColSleepEfficiency:
		return fmt.Sprintf("Sleep efficiency is your biggest lever (%.0f%% of recovery) - target %.0f%%+ efficiency", importance, topAvg)
	case features.ColHRV:
		return fmt.Sprintf("HRV is your biggest recovery driver (%.0f%%) - focus on stress management and recovery practices", importance)
	default:
		return fmt.Sprintf("%s is your biggest recovery driver at %.0f%%", factorName(feature), importance)
	}
}

func modelExplanation(r2 float64) string {
	pct := r2 * 100
	switch {
	case r2 >= 0.7:
		return fmt.Sprintf("This model explains %.0f%% of your recovery variation with high accuracy - predictions are reliable", pct)
	case r2 >= 0.5:
		return fmt.Sprintf("This model explains %.0f%% of your recovery variation with moderate accuracy", pct)
	default:
		return fmt.Sprintf("This model explains %.0f%% of recovery variation - other unmeasured factors may be important", pct)
	}
}

package engine

import (
	"math"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

// sleepQualityCandidates are the behavioral and physiological sleep
// inputs tested against next-day recovery. The quality composite is
// derived from several of these columns, so correlating them against
// it would only echo the composite's own weights; recovery is the
// independent outcome.
var sleepQualityCandidates = []string{
	features.ColBedtimeHour,
	features.ColBedtimeConsistencyScore,
	features.ColPrevStrain,
	features.ColStrain,
	features.ColRespiratoryRate,
	features.ColSleepDebtHours,
	features.ColDisturbanceCount,
	features.ColAwakeTimeHours,
}

// SleepQualityFactors ranks candidate sleep behaviors by absolute
// correlation with the recovery score, over rows with a populated
// rolling window.
func SleepQualityFactors(rows []features.FeatureRow) (*SleepQualityResult, error) {
	rows = features.WithHistory(rows)
	if len(rows) < minCorrelationObservations {
		return nil, analysis.ErrInsufficientData("sleep quality factors", minCorrelationObservations, len(rows))
	}

	result := &SleepQualityResult{NObs: len(rows), ComputedAt: time.Now().UTC()}
	for _, cand := range sleepQualityCandidates {
		x, y := features.CleanPairs(rows, cand, features.ColRecoveryScore)
		if len(x) < minCorrelationObservations {
			continue
		}
		r, p := stats.PearsonTest(x, y)
		result.Factors = append(result.Factors, SleepFactor{
			Feature:     cand,
			R:           stats.SanitizeFloat(r, 0),
			PValue:      stats.SanitizeFloat(p, 1),
			N:           len(x),
			Significant: !math.IsNaN(p) && p < 0.05,
		})
	}
	sort.SliceStable(result.Factors, func(a, b int) bool {
		return math.Abs(result.Factors[a].R) > math.Abs(result.Factors[b].R)
	})
	return result, nil
}

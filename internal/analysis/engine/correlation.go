package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

// correlationPairs is the fixed set of tested relationships with their
// display names. Bedtime against next-day recovery stays in the list
// because it is the one behavioral lever with no device dependency.
var correlationPairs = []struct {
	colX, colY   string
	nameX, nameY string
}{
	{features.ColSleepHours, features.ColRecoveryScore, "Sleep Duration", "Recovery Score"},
	{features.ColSleepEfficiency, features.ColRecoveryScore, "Sleep Efficiency", "Recovery Score"},
	{features.ColHRV, features.ColRecoveryScore, "HRV", "Recovery Score"},
	{features.ColRestingHeartRate, features.ColRecoveryScore, "Resting Heart Rate", "Recovery Score"},
	{features.ColStrain, features.ColRecoveryScore, "Strain", "Recovery Score"},
	{features.ColRemSleepHours, features.ColRecoveryScore, "REM Sleep", "Recovery Score"},
	{features.ColSleepHours, features.ColHRV, "Sleep Duration", "HRV"},
	{features.ColStrain, features.ColHRV, "Strain", "HRV"},
	{features.ColBedtimeHour, features.ColRecoveryScore, "Bedtime Hour", "Recovery Score"},
}

// Correlations tests the fixed pair list with Pearson r and a two-sided
// p-value. Only pairs that clear p < 0.05 are retained; the rest are
// noise at this sample size. Retained pairs are sorted by absolute
// correlation, strongest first, each with a plain-language explanation
// and a real example drawn from the caller's own quartiles.
func Correlations(rows []features.FeatureRow) (*CorrelationResult, error) {
	if len(rows) < minCorrelationObservations {
		return nil, analysis.ErrInsufficientData("correlations", minCorrelationObservations, len(rows))
	}

	result := &CorrelationResult{NObs: len(rows), ComputedAt: time.Now().UTC()}
	for _, pair := range correlationPairs {
		x, y := features.CleanPairs(rows, pair.colX, pair.colY)
		if len(x) < minCorrelationObservations {
			continue
		}
		r, p := stats.PearsonTest(x, y)
		if math.IsNaN(p) || p >= 0.05 {
			continue
		}
		r = stats.SanitizeFloat(r, 0)
		result.Pairs = append(result.Pairs, CorrelationEntry{
			FeatureX:    pair.colX,
			FeatureY:    pair.colY,
			MetricX:     pair.nameX,
			MetricY:     pair.nameY,
			R:           r,
			PValue:      stats.SanitizeFloat(p, 1),
			N:           len(x),
			Strength:    strengthLabel(r),
			Direction:   directionLabel(r),
			Explanation: explainCorrelation(pair.nameX, pair.nameY, r),
			Example:     correlationExample(x, y, pair.nameX, pair.nameY, r),
		})
	}
	sort.SliceStable(result.Pairs, func(a, b int) bool {
		return math.Abs(result.Pairs[a].R) > math.Abs(result.Pairs[b].R)
	})
	result.Summary = correlationSummary(result.Pairs)
	return result, nil
}

func strengthLabel(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.5:
		return "moderate"
	case a >= 0.3:
		return "weak"
	default:
		return "not_significant"
	}
}

func directionLabel(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

func explainCorrelation(nameX, nameY string, r float64) string {
	switch {
	case r >= 0.7:
		return fmt.Sprintf("Strong positive relationship (%.2f) - when %s increases, %s tends to increase significantly", r, nameX, nameY)
	case r <= -0.7:
		return fmt.Sprintf("Strong negative relationship (%.2f) - when %s increases, %s tends to decrease significantly", r, nameX, nameY)
	case r >= 0.5:
		return fmt.Sprintf("Moderate positive relationship (%.2f) - %s and %s tend to move together", r, nameX, nameY)
	case r <= -0.5:
		return fmt.Sprintf("Moderate negative relationship (%.2f) - %s and %s tend to move in opposite directions", r, nameX, nameY)
	case r >= 0:
		return fmt.Sprintf("Weak positive relationship (%.2f) - slight tendency for %s and %s to move together", r, nameX, nameY)
	default:
		return fmt.Sprintf("Weak negative relationship (%.2f) - slight tendency for %s and %s to move oppositely", r, nameX, nameY)
	}
}

// correlationExample describes the pair with the caller's own numbers:
// mean of y across the top quartile of x, against the bottom quartile
// for positive relationships.
func correlationExample(x, y []float64, nameX, nameY string, r float64) string {
	q := len(x) / 4
	if q < 1 {
		q = 1
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] > x[idx[b]] })

	var topSum float64
	for _, i := range idx[:q] {
		topSum += y[i]
	}
	topAvg := topSum / float64(q)

	if r < 0 {
		return fmt.Sprintf("When %s is high, %s averages %.1f (inverse relationship)", nameX, nameY, topAvg)
	}

	var bottomSum float64
	for _, i := range idx[len(idx)-q:] {
		bottomSum += y[i]
	}
	bottomAvg := bottomSum / float64(q)
	return fmt.Sprintf("Your highest %s days show %s averaging %.1f vs %.1f on lowest %s days",
		nameX, nameY, topAvg, bottomAvg, nameX)
}

func correlationSummary(pairs []CorrelationEntry) string {
	if len(pairs) == 0 {
		return "No significant correlations found in your data"
	}
	top := pairs[0]
	return fmt.Sprintf("Strongest relationship: %s and %s (%.2f correlation)", top.MetricX, top.MetricY, top.R)
}

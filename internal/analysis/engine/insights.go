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

const maxInsights = 5

// Insights compares the most recent seven days against the rest of the
// window and emits at most five prioritized observations.
func Insights(rows []features.FeatureRow) (*InsightsResult, error) {
	if len(rows) < minInsightObservations {
		return nil, analysis.ErrInsufficientData("insights", minInsightObservations, len(rows))
	}

	result := &InsightsResult{NObs: len(rows), ComputedAt: time.Now().UTC()}
	var insights []Insight

	add := func(category, priority, metric string, change float64, format string, args ...any) {
		insights = append(insights, Insight{
			Category: category,
			Priority: priority,
			Metric:   metric,
			Change:   round1(change),
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if chg, ok := recentChange(rows, features.ColHRV); ok {
		if chg <= -5 {
			add("recovery", "high", features.ColHRV, chg,
				"HRV is down %.1f%% over the last week. Your nervous system is under load, prioritize rest.", -chg)
		} else if chg >= 5 {
			add("recovery", "low", features.ColHRV, chg,
				"HRV is up %.1f%% over the last week, adaptation is going well.", chg)
		}
	}

	if chg, ok := recentChange(rows, features.ColRestingHeartRate); ok {
		if chg >= 3 {
			add("recovery", "high", features.ColRestingHeartRate, chg,
				"Resting heart rate is up %.1f%% this week. Watch for illness or accumulated fatigue.", chg)
		} else if chg <= -3 {
			add("recovery", "low", features.ColRestingHeartRate, chg,
				"Resting heart rate is down %.1f%% this week, a good fitness signal.", -chg)
		}
	}

	if chg, ok := recentChange(rows, features.ColRecoveryScore); ok {
		if chg <= -5 {
			add("recovery", "medium", features.ColRecoveryScore, chg,
				"Recovery scores dropped %.1f%% versus your recent baseline.", -chg)
		}
	}

	if avg, ok := recentMean(rows, features.ColStrain); ok {
		if avg > 15 {
			add("training", "medium", features.ColStrain, 0,
				"Average strain of %.1f this week is high. Schedule a lighter day to absorb the load.", avg)
		} else if avg < 8 {
			add("training", "low", features.ColStrain, 0,
				"Average strain of %.1f this week is low. Room to push if recovery allows.", avg)
		}
	}

	if avg, ok := recentMean(rows, features.ColSleepDeficit); ok && avg > 1 {
		add("sleep", "high", features.ColSleepDeficit, 0,
			"You averaged %.1fh under your sleep need this week. Debt is compounding.", avg)
	}

	if chg, ok := recentChange(rows, features.ColSleepHours); ok && chg <= -5 {
		add("sleep", "medium", features.ColSleepHours, chg,
			"Sleep duration is down %.1f%% versus your recent baseline.", -chg)
	}

	sort.SliceStable(insights, func(a, b int) bool {
		return priorityRank(insights[a].Priority) < priorityRank(insights[b].Priority)
	})
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	result.Insights = insights
	return result, nil
}

// recentChange is the percent change of the trailing 7-day mean versus
// the mean of everything before it.
func recentChange(rows []features.FeatureRow, col string) (float64, bool) {
	vals := features.Column(rows, col)
	cut := len(vals) - 7
	if cut < 3 {
		return 0, false
	}
	recent := cleanMean(vals[cut:])
	baseline := cleanMean(vals[:cut])
	if math.IsNaN(recent) || math.IsNaN(baseline) || baseline == 0 {
		return 0, false
	}
	return (recent - baseline) / math.Abs(baseline) * 100, true
}

func recentMean(rows []features.FeatureRow, col string) (float64, bool) {
	vals := features.Column(rows, col)
	if len(vals) > 7 {
		vals = vals[len(vals)-7:]
	}
	m := cleanMean(vals)
	if math.IsNaN(m) {
		return 0, false
	}
	return m, true
}

func cleanMean(vals []float64) float64 {
	var clean []float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		clean = append(clean, v)
	}
	if len(clean) < 3 {
		return math.NaN()
	}
	return stats.Mean(clean)
}

func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

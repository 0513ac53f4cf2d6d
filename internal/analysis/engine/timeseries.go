package engine

import (
	"math"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

var trendMetrics = []string{
	features.ColRecoveryScore,
	features.ColHRV,
	features.ColRestingHeartRate,
	features.ColSleepHours,
	features.ColStrain,
}

// Trends compares the last seven readings of each metric against the
// first seven of the window and flags readings beyond two standard
// deviations as anomalies.
func Trends(rows []features.FeatureRow) (*TrendsResult, error) {
	if len(rows) < minInsightObservations {
		return nil, analysis.ErrInsufficientData("trends", minInsightObservations, len(rows))
	}

	result := &TrendsResult{NObs: len(rows), ComputedAt: time.Now().UTC()}
	for _, metric := range trendMetrics {
		vals := features.Column(rows, metric)
		clean := features.CleanColumn(rows, metric)
		if len(clean) < minInsightObservations {
			continue
		}

		first := cleanMean(vals[:minInt(7, len(vals))])
		last := cleanMean(vals[maxInt(0, len(vals)-7):])
		if math.IsNaN(first) || math.IsNaN(last) {
			continue
		}

		trend := MetricTrend{
			Metric:     metric,
			RecentMean: round1(last),
			WindowMean: round1(stats.Mean(clean)),
		}
		if first != 0 {
			trend.ChangePct = round1((last - first) / math.Abs(first) * 100)
		}
		switch {
		case trend.ChangePct >= 2:
			trend.Direction = "up"
		case trend.ChangePct <= -2:
			trend.Direction = "down"
		default:
			trend.Direction = "stable"
		}

		mean := stats.Mean(clean)
		sd := stats.StdDev(clean)
		if sd > 0 {
			for i := range rows {
				v := features.Value(&rows[i], metric)
				if math.IsNaN(v) {
					continue
				}
				z := (v - mean) / sd
				if math.Abs(z) > 2 {
					trend.Anomalies = append(trend.Anomalies, Anomaly{
						Date:  rows[i].Date,
						Value: round1(v),
						Z:     round1(z),
					})
				}
			}
		}
		result.Trends = append(result.Trends, trend)
	}
	return result, nil
}

// Summary is the descriptive overview of the window.
func Summary(rows []features.FeatureRow) (*SummaryResult, error) {
	if len(rows) == 0 {
		return nil, analysis.ErrInsufficientData("summary", 1, 0)
	}

	result := &SummaryResult{
		From:       rows[0].Date,
		To:         rows[len(rows)-1].Date,
		Days:       len(rows),
		ComputedAt: time.Now().UTC(),
	}
	for _, metric := range []string{
		features.ColRecoveryScore, features.ColHRV, features.ColRestingHeartRate,
		features.ColSleepHours, features.ColSleepQualityScore, features.ColStrain,
	} {
		clean := features.CleanColumn(rows, metric)
		if len(clean) == 0 {
			continue
		}
		result.Metrics = append(result.Metrics, MetricSummary{
			Metric: metric,
			Mean:   round1(stats.Mean(clean)),
			Median: round1(stats.Median(clean)),
			Min:    round1(stats.Min(clean)),
			Max:    round1(stats.Max(clean)),
			StdDev: round1(stats.StdDev(clean)),
			N:      len(clean),
		})
	}
	return result, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

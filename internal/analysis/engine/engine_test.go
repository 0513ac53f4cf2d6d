package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/features"
)

func analyzerRows(n int, seed int64) []features.FeatureRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]features.FeatureRow, n)
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := range rows {
		r := &rows[i]
		r.RecoveryID = int64(i + 1)
		r.Date = base.AddDate(0, 0, i)
		r.DayOfWeek = float64(int(r.Date.Weekday()+6) % 7)
		r.HRVRmssdMilli = 60 + 25*rng.Float64()
		r.RestingHeartRate = 48 + 10*rng.Float64()
		r.SleepHours = 6 + 2.5*rng.Float64()
		r.SleepEfficiencyPercentage = 82 + 15*rng.Float64()
		r.RemSleepHours = 1 + rng.Float64()
		r.SlowWaveSleepHours = 0.8 + 0.8*rng.Float64()
		r.Strain = 6 + 10*rng.Float64()
		r.Strain3dSum = 3 * r.Strain
		r.SleepQualityScore = 45 + 45*rng.Float64()
		r.BedtimeHour = 22 + 2*rng.Float64()
		r.BedtimeConsistencyScore = 50 + 50*rng.Float64()
		r.PrevStrain = r.Strain
		r.RespiratoryRate = 14 + rng.Float64()
		r.SleepDebtHours = rng.Float64()
		r.DisturbanceCount = float64(rng.Intn(8))
		r.AwakeTimeHours = 0.3 + 0.4*rng.Float64()
		r.SleepDeficit = 0.5 * rng.Float64()
		r.RecoveryScore = 30 + 0.5*r.HRVRmssdMilli + 3*r.SleepHours -
			1.2*r.Strain + 2*rng.NormFloat64()
		r.HadWorkout = float64(i % 2)
		if r.HadWorkout == 1 {
			r.SportID = float64(1 + i%2)
			r.MorningWorkout = float64(i % 2)
			r.HighIntensityPct = 40 * rng.Float64()
		} else {
			r.SportID = -1
		}
		r.HasRollingFeatures = i >= 13
	}
	return rows
}

func TestCorrelationsInsufficientData(t *testing.T) {
	_, err := Correlations(analyzerRows(10, 1))
	var ie *analysis.InsufficientDataError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, minCorrelationObservations, ie.Needed)
}

// Only pairs clearing p < 0.05 survive, sorted strongest first, each
// with an explanation and a worked example from the data.
func TestCorrelationsRetainsOnlySignificantSorted(t *testing.T) {
	result, err := Correlations(analyzerRows(90, 2))
	require.NoError(t, err)
	assert.Equal(t, 90, result.NObs)
	require.NotEmpty(t, result.Pairs)

	for i, p := range result.Pairs {
		assert.Less(t, p.PValue, 0.05)
		assert.NotEmpty(t, p.MetricX)
		assert.NotEmpty(t, p.MetricY)
		assert.NotEmpty(t, p.Explanation)
		assert.NotEmpty(t, p.Example)
		if i > 0 {
			assert.GreaterOrEqual(t,
				math.Abs(result.Pairs[i-1].R), math.Abs(p.R))
		}
	}
	top := result.Pairs[0]
	assert.Contains(t, result.Summary, "Strongest relationship: "+top.MetricX+" and "+top.MetricY)
}

// A deterministic early-vs-late bedtime pattern repeated out to the
// observation floor must be retained with a negative sign and an
// inverse-relationship example.
func TestCorrelationsBedtimeSignalDetected(t *testing.T) {
	bedtimes := []float64{21, 21.5, 22, 23.5, 24.5}
	scores := []float64{85, 80, 72, 55, 40}
	rows := analyzerRows(30, 3)
	for i := range rows {
		rows[i].BedtimeHour = bedtimes[i%5] + 0.05*float64(i/5)
		rows[i].RecoveryScore = scores[i%5] + 0.3*float64(i/5)
	}
	result, err := Correlations(rows)
	require.NoError(t, err)
	var found bool
	for _, p := range result.Pairs {
		if p.FeatureX == features.ColBedtimeHour {
			found = true
			assert.Negative(t, p.R)
			assert.Equal(t, "strong", p.Strength)
			assert.Contains(t, p.Example, "inverse relationship")
		}
	}
	assert.True(t, found)
}

func TestSleepQualityFactorsRankedByMagnitude(t *testing.T) {
	result, err := SleepQualityFactors(analyzerRows(80, 4))
	require.NoError(t, err)
	require.NotEmpty(t, result.Factors)
	for i := 1; i < len(result.Factors); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(result.Factors[i-1].R),
			math.Abs(result.Factors[i].R))
	}
}

// The factors are scored against next-day recovery, not against the
// sleep quality composite they feed. A strain column that moves in
// lockstep with recovery must surface with near-unit correlation even
// when the composite is pure noise.
func TestSleepQualityFactorsScoredAgainstRecovery(t *testing.T) {
	rows := analyzerRows(80, 11)
	rng := rand.New(rand.NewSource(12))
	for i := range rows {
		rows[i].Strain = 21 - 0.2*rows[i].RecoveryScore
		rows[i].SleepQualityScore = 100 * rng.Float64()
	}
	result, err := SleepQualityFactors(rows)
	require.NoError(t, err)
	require.NotEmpty(t, result.Factors)
	assert.Equal(t, features.ColStrain, result.Factors[0].Feature)
	assert.Greater(t, math.Abs(result.Factors[0].R), 0.99)
	assert.True(t, result.Factors[0].Significant)
}

func TestRecoveryDeepDiveGroupings(t *testing.T) {
	result, err := RecoveryDeepDive(analyzerRows(100, 5))
	require.NoError(t, err)
	assert.NotEmpty(t, result.ByWorkoutTime.Groups)
	assert.NotEmpty(t, result.ByStrainLoad.Groups)
	assert.NotEmpty(t, result.ByDayOfWeek.Groups)
	for _, g := range result.ByDayOfWeek.Groups {
		assert.GreaterOrEqual(t, g.N, minGroupSize)
	}
	// groups come back sorted by mean recovery
	groups := result.ByStrainLoad.Groups
	for i := 1; i < len(groups); i++ {
		assert.GreaterOrEqual(t,
			groups[i-1].MeanRecovery,
			groups[i].MeanRecovery)
	}
}

// Every populated grouping names its best and worst bucket in a
// one-line readout.
func TestRecoveryDeepDiveInsightNamesBestAndWorst(t *testing.T) {
	result, err := RecoveryDeepDive(analyzerRows(100, 5))
	require.NoError(t, err)

	sections := []DeepDiveSection{
		result.ByWorkoutTime, result.ByStrainLoad, result.ByDayOfWeek,
	}
	for _, s := range sections {
		require.NotEmpty(t, s.Groups)
		require.NotEmpty(t, s.Insight)
		if len(s.Groups) > 1 {
			assert.Contains(t, s.Insight, "Best recovery follows "+s.Groups[0].Label)
			assert.Contains(t, s.Insight, "worst follows "+s.Groups[len(s.Groups)-1].Label)
		}
	}
}

func TestInsightsCappedAndPrioritized(t *testing.T) {
	rows := analyzerRows(40, 6)
	// force every rule to fire: crash HRV and sleep, raise RHR and
	// strain, pile on deficit in the last week
	for i := len(rows) - 7; i < len(rows); i++ {
		rows[i].HRVRmssdMilli = 40
		rows[i].RestingHeartRate = 70
		rows[i].RecoveryScore = 30
		rows[i].Strain = 18
		rows[i].SleepDeficit = 2
		rows[i].SleepHours = 4.5
	}
	result, err := Insights(rows)
	require.NoError(t, err)
	require.NotEmpty(t, result.Insights)
	assert.LessOrEqual(t, len(result.Insights), maxInsights)
	for i := 1; i < len(result.Insights); i++ {
		assert.LessOrEqual(t,
			priorityRank(result.Insights[i-1].Priority),
			priorityRank(result.Insights[i].Priority))
	}
	assert.Equal(t, "high", result.Insights[0].Priority)
}

func TestInsightsInsufficientData(t *testing.T) {
	_, err := Insights(analyzerRows(5, 7))
	var ie *analysis.InsufficientDataError
	require.True(t, errors.As(err, &ie))
}

func TestTrendsDetectsAnomalies(t *testing.T) {
	rows := analyzerRows(60, 8)
	rows[30].RecoveryScore = 1 // far outside two sigma
	result, err := Trends(rows)
	require.NoError(t, err)

	var recovery *MetricTrend
	for i := range result.Trends {
		if result.Trends[i].Metric == features.ColRecoveryScore {
			recovery = &result.Trends[i]
		}
	}
	require.NotNil(t, recovery)
	assert.Contains(t, []string{"up", "down", "stable"}, recovery.Direction)
	require.NotEmpty(t, recovery.Anomalies)
	found := false
	for _, a := range recovery.Anomalies {
		if a.Value == 1 {
			found = true
			assert.Less(t, a.Z, -2.0)
		}
	}
	assert.True(t, found)
}

func TestSummaryCoversMetrics(t *testing.T) {
	rows := analyzerRows(45, 9)
	result, err := Summary(rows)
	require.NoError(t, err)
	assert.Equal(t, 45, result.Days)
	assert.True(t, result.From.Before(result.To))
	require.NotEmpty(t, result.Metrics)
	for _, m := range result.Metrics {
		assert.LessOrEqual(t, m.Min, m.Median)
		assert.LessOrEqual(t, m.Median, m.Max)
	}
}

func TestFactorImportanceCombinesModelAndDirection(t *testing.T) {
	rows := analyzerRows(120, 10)
	pred, err := ml.TrainFactorAnalyzer(rows)
	require.NoError(t, err)

	result, err := FactorImportance(pred, rows)
	require.NoError(t, err)
	require.Len(t, result.Rankings, len(ml.FactorFeatures))

	var total float64
	byFeature := map[string]FactorRanking{}
	for _, r := range result.Rankings {
		total += r.Importance
		byFeature[r.Feature] = r
	}
	assert.InDelta(t, 100.0, total, 1e-6)
	// the planted signal makes HRV positively and strain negatively
	// correlated with recovery
	assert.Equal(t, "positive", byFeature[features.ColHRV].Direction)
	assert.Equal(t, "negative", byFeature[features.ColStrain].Direction)
}

// Each ranking compares the factor across the best and worst recovery
// quartiles and turns that into an actionable threshold string.
func TestFactorImportanceQuartilesAndThresholds(t *testing.T) {
	rows := analyzerRows(120, 10)
	pred, err := ml.TrainFactorAnalyzer(rows)
	require.NoError(t, err)

	result, err := FactorImportance(pred, rows)
	require.NoError(t, err)
	require.NotEmpty(t, result.Rankings)
	assert.NotEmpty(t, result.TopLever)
	assert.NotEmpty(t, result.Explanation)

	byFeature := map[string]FactorRanking{}
	for _, r := range result.Rankings {
		byFeature[r.Feature] = r
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Explanation)
	}

	// HRV drives recovery upward, so the best quartile carries more of
	// it and the floor reads as a minimum
	hrv := byFeature[features.ColHRV]
	assert.Greater(t, hrv.TopQuartileAvg, hrv.BottomQuartileAvg)
	assert.Regexp(t, `^>= \d+ms$`, hrv.Threshold)

	sleep := byFeature[features.ColSleepHours]
	assert.Regexp(t, `^>= \d+\.\d hours$`, sleep.Threshold)
	assert.Contains(t, sleep.Explanation, "hours of sleep")

	strain := byFeature[features.ColStrain]
	assert.Regexp(t, `^< \d+\.\d$`, strain.Threshold)

	rhr := byFeature[features.ColRestingHeartRate]
	assert.Regexp(t, `^<= \d+bpm$`, rhr.Threshold)
}

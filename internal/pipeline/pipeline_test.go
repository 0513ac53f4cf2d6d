package pipeline

import (
	"database/sql"
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ald0405/whoop-backend-go/internal/analysis/engine"
	"github.com/ald0405/whoop-backend-go/internal/database"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/internal/service"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateSchema(db))
	return db
}

func ptr(v float64) *float64 { return &v }

func millis(hours float64) *int64 {
	m := int64(hours * 3_600_000)
	return &m
}

// seedHistory writes n days of joined records ending yesterday, with
// recovery driven by sleep duration and strain so the models have
// signal to find.
func seedHistory(t *testing.T, db *sql.DB, n int) {
	t.Helper()
	recoveries := repository.NewRecoveryRepository(db)
	sleeps := repository.NewSleepRepository(db)
	cycles := repository.NewCycleRepository(db)
	workouts := repository.NewWorkoutRepository(db)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < n; i++ {
		day := time.Now().UTC().AddDate(0, 0, -(n - i))
		id := int64(i + 1)

		sleepHrs := 6 + 3*rng.Float64()
		strain := 8 + 8*rng.Float64()
		hrv := 55 + 30*rng.Float64()
		score := math.Min(100, math.Max(0,
			10*sleepHrs-1.5*strain+0.3*hrv+rng.NormFloat64()*3))

		start := day.Add(-8 * time.Hour)
		end := day
		require.NoError(t, sleeps.Upsert(&models.Sleep{
			ID:                          id,
			Start:                       &start,
			End:                         &end,
			TotalInBedTimeMilli:         millis(sleepHrs + 0.5),
			TotalAwakeTimeMilli:         millis(0.5),
			TotalRemSleepTimeMilli:      millis(sleepHrs * 0.22),
			TotalSlowWaveSleepTimeMilli: millis(sleepHrs * 0.18),
			SleepEfficiencyPercentage:   ptr(80 + 15*rng.Float64()),
			SleepConsistencyPercentage:  ptr(70 + 20*rng.Float64()),
			RespiratoryRate:             ptr(14 + rng.Float64()),
			DisturbanceCount:            func() *int64 { d := int64(rng.Intn(4)); return &d }(),
		}))

		cycleStart := day.Add(-24 * time.Hour)
		require.NoError(t, cycles.Upsert(&models.Cycle{
			ID:               id,
			Start:            &cycleStart,
			End:              &day,
			Strain:           &strain,
			Kilojoule:        ptr(6000 + 200*strain),
			AverageHeartRate: ptr(62),
			MaxHeartRate:     ptr(150 + 20*rng.Float64()),
		}))

		if i%3 == 0 {
			wStart := day.Add(-16 * time.Hour)
			wEnd := wStart.Add(time.Hour)
			require.NoError(t, workouts.Upsert(&models.Workout{
				ID:              id,
				CycleID:         id,
				SportID:         1,
				Start:           &wStart,
				End:             &wEnd,
				Strain:          ptr(strain * 0.6),
				Kilojoule:       ptr(1200),
				ZoneTwoMinutes:  30,
				ZoneFourMinutes: 20,
			}))
		}

		require.NoError(t, recoveries.Upsert(&models.Recovery{
			ID:               id,
			CreatedAt:        day,
			CycleID:          id,
			SleepID:          id,
			RecoveryScore:    &score,
			HRVRmssdMilli:    &hrv,
			RestingHeartRate: ptr(52 + 6*rng.Float64()),
		}))
	}
}

func newPipeline(t *testing.T, db *sql.DB) (*Pipeline, *repository.AnalyticsResultRepository) {
	featureSvc := service.NewFeatureService(
		repository.NewRecoveryRepository(db),
		repository.NewSleepRepository(db),
		repository.NewCycleRepository(db),
		repository.NewWorkoutRepository(db),
	)
	results := repository.NewAnalyticsResultRepository(db)
	return New(featureSvc, results, t.TempDir()), results
}

func TestPipelineFullRun(t *testing.T) {
	db := testDB(t)
	seedHistory(t, db, 160)
	pipe, results := newPipeline(t, db)

	report, err := pipe.Run(180)
	require.NoError(t, err)

	assert.Equal(t, 160, report.Rows)
	assert.ElementsMatch(t,
		[]string{"recovery_predictor", "sleep_predictor", "factor_analyzer"},
		report.ModelsTrained)
	assert.ElementsMatch(t, []string{
		models.ResultFactorImportance,
		models.ResultSleepQualityFactor,
		models.ResultRecoveryDeepDive,
		models.ResultCorrelations,
		models.ResultInsights,
		models.ResultTrends,
		models.ResultSummary,
	}, report.ResultsSaved)
	assert.Empty(t, report.Skipped)

	stored, err := results.Get(models.ResultFactorImportance, 180)
	require.NoError(t, err)
	require.NotNil(t, stored)

	var factor engine.FactorImportanceResult
	require.NoError(t, json.Unmarshal([]byte(stored.ResultData), &factor))
	assert.NotEmpty(t, factor.Rankings)

	total := 0.0
	for _, r := range factor.Rankings {
		total += r.Importance
	}
	assert.InDelta(t, 100, total, 0.5)
}

func TestPipelineThinDataSkipsAnalytics(t *testing.T) {
	db := testDB(t)
	seedHistory(t, db, 20)
	pipe, _ := newPipeline(t, db)

	report, err := pipe.Run(30)
	require.NoError(t, err)

	// 20 rows is under every model floor but enough for the light
	// analyzers
	assert.Empty(t, report.ModelsTrained)
	assert.Contains(t, report.Skipped, "recovery_predictor")
	assert.Contains(t, report.Skipped, models.ResultFactorImportance)
	assert.Contains(t, report.ResultsSaved, models.ResultInsights)
	assert.Contains(t, report.ResultsSaved, models.ResultTrends)
	assert.Contains(t, report.ResultsSaved, models.ResultSummary)
}

func TestPipelineRerunUpsertsResults(t *testing.T) {
	db := testDB(t)
	seedHistory(t, db, 160)
	pipe, results := newPipeline(t, db)

	_, err := pipe.Run(180)
	require.NoError(t, err)
	_, err = pipe.Run(180)
	require.NoError(t, err)

	types, err := results.ListTypes(180)
	require.NoError(t, err)
	assert.Len(t, types, 7)
}

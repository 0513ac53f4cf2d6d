package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ald0405/whoop-backend-go/internal/database"
	"github.com/ald0405/whoop-backend-go/internal/models"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, database.CreateSchema(db))
	return db
}

func fp(v float64) *float64 { return &v }

func TestRecoveryUpsertIsIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewRecoveryRepository(db)

	rec := &models.Recovery{
		ID:            101,
		CreatedAt:     time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
		CycleID:       11,
		SleepID:       21,
		RecoveryScore: fp(67),
		HRVRmssdMilli: fp(82.5),
	}
	require.NoError(t, repo.Upsert(rec))

	rec.RecoveryScore = fp(71)
	require.NoError(t, repo.Upsert(rec))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 71.0, *latest.RecoveryScore)
	assert.Nil(t, latest.RestingHeartRate)
}

func TestRecoveryListSinceOrdering(t *testing.T) {
	db := testDB(t)
	repo := NewRecoveryRepository(db)

	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Upsert(&models.Recovery{
			ID:            int64(i + 1),
			CreatedAt:     base.AddDate(0, 0, i),
			RecoveryScore: fp(50 + float64(i)),
		}))
	}

	got, err := repo.ListSince(base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.True(t, got[0].CreatedAt.Before(got[2].CreatedAt))
}

func TestSleepRoundTripAndNapFilter(t *testing.T) {
	db := testDB(t)
	repo := NewSleepRepository(db)

	start := time.Date(2025, 4, 1, 22, 45, 0, 0, time.UTC)
	milli := int64(8 * 3_600_000)
	s := &models.Sleep{
		ID:                        301,
		Start:                     &start,
		TotalInBedTimeMilli:       &milli,
		SleepEfficiencyPercentage: fp(91.5),
	}
	require.NoError(t, repo.Upsert(s))

	napStart := start.AddDate(0, 0, 1)
	require.NoError(t, repo.Upsert(&models.Sleep{ID: 302, Start: &napStart, Nap: true}))

	got, err := repo.ListSince(start.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(301), got[0].ID)
	assert.Equal(t, milli, *got[0].TotalInBedTimeMilli)
	assert.Equal(t, 91.5, *got[0].SleepEfficiencyPercentage)
}

func TestWorkoutsByCycle(t *testing.T) {
	db := testDB(t)
	cycles := NewCycleRepository(db)
	workouts := NewWorkoutRepository(db)

	start := time.Date(2025, 4, 2, 7, 0, 0, 0, time.UTC)
	require.NoError(t, cycles.Upsert(&models.Cycle{ID: 11, Start: &start, Strain: fp(14.2)}))
	require.NoError(t, workouts.Upsert(&models.Workout{
		ID: 501, CycleID: 11, SportID: 1, Start: &start,
		Strain: fp(9.1), ZoneThreeMinutes: 22,
	}))

	got, err := workouts.ListSince(start.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(11), got[0].CycleID)
	assert.Equal(t, 22.0, got[0].ZoneThreeMinutes)
}

func TestAnalyticsResultUpsertKeyedByTypeAndWindow(t *testing.T) {
	db := testDB(t)
	repo := NewAnalyticsResultRepository(db)

	require.NoError(t, repo.Save(models.ResultInsights, `{"v":1}`, 30))
	require.NoError(t, repo.Save(models.ResultInsights, `{"v":2}`, 30))
	require.NoError(t, repo.Save(models.ResultInsights, `{"v":3}`, 90))

	got, err := repo.Get(models.ResultInsights, 30)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":2}`, got.ResultData)

	missing, err := repo.Get(models.ResultTrends, 30)
	require.NoError(t, err)
	assert.Nil(t, missing)

	types, err := repo.ListTypes(30)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ResultInsights}, types)
}

func TestWeightCreateAssignsID(t *testing.T) {
	db := testDB(t)
	repo := NewWeightRepository(db)

	w := &models.Weight{
		MeasuredAt: time.Date(2025, 4, 3, 7, 30, 0, 0, time.UTC),
		WeightKg:   fp(74.2),
	}
	require.NoError(t, repo.Create(w))
	assert.Positive(t, w.ID)

	got, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 74.2, *got[0].WeightKg)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
)

// lifecycleRows builds a daily sequence with controllable first-half
// and second-half metric levels.
func lifecycleRows(days int, metric func(i int, r *features.FeatureRow)) []features.FeatureRow {
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	rows := make([]features.FeatureRow, days)
	for i := range rows {
		r := &rows[i]
		r.Date = base.AddDate(0, 0, i)
		r.RecoveryScore = 60
		r.HRVRmssdMilli = 70
		r.Strain = 10
		r.SleepHours = 7.5
		metric(i, r)
	}
	return rows
}

func TestClassifyLifecycleInsufficientData(t *testing.T) {
	rows := lifecycleRows(10, func(int, *features.FeatureRow) {})
	result := ClassifyLifecycle(rows, 28)
	assert.Equal(t, models.SegmentMaintaining, result.Segment)
	assert.Equal(t, "low", result.Confidence)
	assert.Equal(t, "Maintaining", result.Name)
}

func TestClassifyLifecycleBuilding(t *testing.T) {
	rows := lifecycleRows(28, func(i int, r *features.FeatureRow) {
		if i >= 14 {
			// second half clearly improving with steady strain
			r.RecoveryScore = 70
			r.HRVRmssdMilli = 80
			r.Strain = 11
		}
	})
	result := ClassifyLifecycle(rows, 28)
	require.Equal(t, models.SegmentBuilding, result.Segment)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, "high", result.Strategy.StrainTolerance)
	require.Contains(t, result.Trends, "recovery")
	assert.Greater(t, result.Trends["recovery"].ChangePct, 5.0)
}

func TestClassifyLifecycleRecovering(t *testing.T) {
	rows := lifecycleRows(28, func(i int, r *features.FeatureRow) {
		if i >= 14 {
			r.RecoveryScore = 52 // -13%
			r.HRVRmssdMilli = 62
		}
	})
	result := ClassifyLifecycle(rows, 28)
	assert.Equal(t, models.SegmentRecovering, result.Segment)
	assert.Equal(t, "high", result.Strategy.RecoveryPriority)
}

func TestClassifyLifecycleHRVDropAlone(t *testing.T) {
	rows := lifecycleRows(28, func(i int, r *features.FeatureRow) {
		if i >= 14 {
			r.HRVRmssdMilli = 60 // -14%, recovery flat
			r.Strain = 8        // declining strain blocks "building"
		}
	})
	result := ClassifyLifecycle(rows, 28)
	assert.Equal(t, models.SegmentRecovering, result.Segment)
	assert.Contains(t, result.Reason, "HRV")
}

func TestClassifyLifecycleReturningOnGap(t *testing.T) {
	rows := lifecycleRows(20, func(int, *features.FeatureRow) {})
	// open a 9-day hole in the middle
	for i := 10; i < len(rows); i++ {
		rows[i].Date = rows[i].Date.AddDate(0, 0, 9)
	}
	result := ClassifyLifecycle(rows, 28)
	assert.Equal(t, models.SegmentReturning, result.Segment)
	assert.Equal(t, "high", result.Confidence)
}

func TestClassifyLifecycleReturningOnSparseCoverage(t *testing.T) {
	// 16 rows against a 40-day lookback is under half coverage
	rows := lifecycleRows(16, func(int, *features.FeatureRow) {})
	result := ClassifyLifecycle(rows, 40)
	assert.Equal(t, models.SegmentReturning, result.Segment)
}

func TestClassifyLifecycleMaintaining(t *testing.T) {
	rows := lifecycleRows(28, func(i int, r *features.FeatureRow) {
		// small wiggle inside the 5% band
		r.RecoveryScore = 60 + float64(i%3)
	})
	result := ClassifyLifecycle(rows, 28)
	assert.Equal(t, models.SegmentMaintaining, result.Segment)
	assert.Equal(t, "high", result.Confidence)
}

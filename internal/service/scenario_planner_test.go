package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
)

// scenarioModel trains a small real predictor on synthetic rows where
// sleep drives recovery hard, so scenario contrasts are visible.
func scenarioModel(t *testing.T) *ml.Predictor {
	t.Helper()
	rng := rand.New(rand.NewSource(17))
	rows := make([]features.FeatureRow, 150)
	for i := range rows {
		r := &rows[i]
		*r = features.EmptyRow()
		r.SleepHours = 4 + 5*rng.Float64()
		r.RemSleepHours = r.SleepHours * 0.2
		r.SlowWaveSleepHours = r.SleepHours * 0.15
		r.LightSleepHours = r.SleepHours * 0.55
		r.SleepEfficiencyPercentage = 80 + 15*rng.Float64()
		r.SleepQualityScore = r.SleepEfficiencyPercentage * 0.5
		r.HRVRmssdMilli = 60 + 20*rng.Float64()
		r.RestingHeartRate = 50 + 8*rng.Float64()
		r.SpO2Percentage = 96
		r.SleepConsistencyPercentage = 80
		r.Strain = 6 + 10*rng.Float64()
		r.HasRollingFeatures = true
		r.RecoveryScore = 10*r.SleepHours - 1.5*r.Strain + 0.2*r.HRVRmssdMilli + rng.NormFloat64()
	}
	p, err := ml.TrainRecoveryPredictor(rows)
	require.NoError(t, err)
	return p
}

func TestRunScenarioMoreSleepPredictsHigherRecovery(t *testing.T) {
	pred := scenarioModel(t)
	baseline := 55.0

	short := runScenario(pred, models.ScenarioInput{Label: "short", SleepHours: 4.5}, baseline)
	long := runScenario(pred, models.ScenarioInput{Label: "long", SleepHours: 8.5}, baseline)

	assert.Greater(t, long.PredictedRecovery, short.PredictedRecovery)
	for _, r := range []models.ScenarioResult{short, long} {
		assert.GreaterOrEqual(t, r.PredictedRecovery, 0.0)
		assert.LessOrEqual(t, r.PredictedRecovery, 100.0)
		assert.LessOrEqual(t, r.ConfidenceInterval[0], r.PredictedRecovery)
		assert.LessOrEqual(t, r.PredictedRecovery, r.ConfidenceInterval[1])
		assert.Contains(t, []string{"green", "yellow", "red"}, r.RecoveryCategory)
		assert.NotEmpty(t, r.Verdict)
		assert.NotEmpty(t, r.ContributingFactors)
		assert.LessOrEqual(t, len(r.ContributingFactors), 5)
	}
}

func TestRunScenarioCategoryBands(t *testing.T) {
	assert.Equal(t, "green", recoveryCategory(67))
	assert.Equal(t, "green", recoveryCategory(92))
	assert.Equal(t, "yellow", recoveryCategory(66.9))
	assert.Equal(t, "yellow", recoveryCategory(34))
	assert.Equal(t, "red", recoveryCategory(33.9))
	assert.Equal(t, "red", recoveryCategory(0))
}

func TestScenarioVerdictTable(t *testing.T) {
	assert.Contains(t, scenarioVerdict("green", 12), "go for it")
	assert.Contains(t, scenarioVerdict("green", 3), "green")
	assert.Contains(t, scenarioVerdict("yellow", 2), "above average")
	assert.Contains(t, scenarioVerdict("yellow", -2), "easy")
	assert.Contains(t, scenarioVerdict("red", -15), "different plan")
	assert.Contains(t, scenarioVerdict("red", -3), "recovery over training")
}

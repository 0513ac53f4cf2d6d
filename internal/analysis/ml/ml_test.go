package ml

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
)

// synthetic regression surface: strong signal on column 0, weak on 1,
// noise on 2
func syntheticXY(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{rng.Float64() * 10, rng.Float64() * 10, rng.Float64() * 10}
		y[i] = 50 + 4*x[i][0] + 0.5*x[i][1] + rng.NormFloat64()
	}
	return x, y
}

func TestForestDeterministicForFixedSeed(t *testing.T) {
	x, y := syntheticXY(120, 9)
	params := ForestParams{NTrees: 30, MaxDepth: 8, MinSplit: 5, MinLeaf: 2, Seed: 42}
	a := TrainForest(x, y, params)
	b := TrainForest(x, y, params)
	probe := []float64{5, 5, 5}
	assert.Equal(t, a.Predict(probe), b.Predict(probe))
	assert.Equal(t, a.Importances, b.Importances)
}

func TestForestIntervalOrderingAndCoverage(t *testing.T) {
	x, y := syntheticXY(150, 5)
	f := TrainForest(x, y, ForestParams{NTrees: 50, MaxDepth: 10, MinSplit: 5, MinLeaf: 2, Seed: 42})
	pred, lo, hi := f.PredictInterval([]float64{5, 5, 5})
	assert.LessOrEqual(t, lo, pred)
	assert.LessOrEqual(t, pred, hi)
	// true value at the center of the surface is 50+20+2.5
	assert.InDelta(t, 72.5, pred, 6)
}

func TestForestImportanceFavorsSignal(t *testing.T) {
	x, y := syntheticXY(200, 11)
	f := TrainForest(x, y, ForestParams{NTrees: 50, MaxDepth: 10, MinSplit: 5, MinLeaf: 2, Seed: 42})
	var total float64
	for _, v := range f.Importances {
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-6)
	assert.Greater(t, f.Importances[0], f.Importances[2])
}

func TestBoosterLearnsAndClampsInterval(t *testing.T) {
	x, y := syntheticXY(200, 13)
	// shift targets near the ceiling so the clamp engages
	for i := range y {
		y[i] = math.Min(y[i], 100)
	}
	b := TrainBooster(x, y, DefaultBoostParams())
	pred, lo, hi := b.PredictInterval([]float64{9.5, 9.5, 5})
	assert.LessOrEqual(t, lo, pred)
	assert.LessOrEqual(t, hi, 100.0)
	assert.GreaterOrEqual(t, lo, 0.0)
	assert.Greater(t, b.TrainMAE, 0.0)

	// prediction tracks the surface away from the clamp
	p2 := b.Predict([]float64{2, 5, 5})
	assert.InDelta(t, 60.5, p2, 8)
}

func TestBoosterDeterministicForFixedSeed(t *testing.T) {
	x, y := syntheticXY(100, 21)
	a := TrainBooster(x, y, DefaultBoostParams())
	b := TrainBooster(x, y, DefaultBoostParams())
	probe := []float64{3, 7, 1}
	assert.Equal(t, a.Predict(probe), b.Predict(probe))
}

func predictorRows(n int) []features.FeatureRow {
	rng := rand.New(rand.NewSource(4))
	rows := make([]features.FeatureRow, n)
	for i := range rows {
		r := &rows[i]
		r.HRVRmssdMilli = 50 + 40*rng.Float64()
		r.RestingHeartRate = 45 + 15*rng.Float64()
		r.SpO2Percentage = 94 + 4*rng.Float64()
		r.SleepHours = 5 + 4*rng.Float64()
		r.RemSleepHours = 1 + rng.Float64()
		r.SlowWaveSleepHours = 0.8 + rng.Float64()
		r.LightSleepHours = 3 + rng.Float64()
		r.SleepEfficiencyPercentage = 80 + 18*rng.Float64()
		r.SleepConsistencyPercentage = 60 + 35*rng.Float64()
		r.RemPercentage = 18 + 6*rng.Float64()
		r.DeepSleepPercentage = 14 + 6*rng.Float64()
		r.SleepQualityScore = 50 + 40*rng.Float64()
		r.SleepDeficit = rng.Float64() * 2
		r.SleepDebtHours = rng.Float64()
		r.DisturbanceCount = float64(rng.Intn(10))
		r.RespiratoryRate = 13 + 3*rng.Float64()
		r.Strain = 5 + 12*rng.Float64()
		r.Kilojoule = 6000 + 4000*rng.Float64()
		r.HRReserve = 100 + 20*rng.Float64()
		r.PrevRecoveryScore = 40 + 50*rng.Float64()
		r.PrevHRV = r.HRVRmssdMilli + rng.NormFloat64()
		r.PrevRHR = r.RestingHeartRate + rng.NormFloat64()
		r.PrevStrain = r.Strain + rng.NormFloat64()
		r.HRVRolling7d = r.HRVRmssdMilli + rng.NormFloat64()
		r.RHRRolling7d = r.RestingHeartRate + rng.NormFloat64()
		r.StrainRolling7d = r.Strain + rng.NormFloat64()
		r.SleepRolling7d = r.SleepHours + rng.NormFloat64()
		r.HRVStd7d = 3 + 2*rng.Float64()
		r.RHRStd7d = 1 + rng.Float64()
		r.HRVDeviationFromAvg = rng.NormFloat64()
		r.RHRDeviationFromAvg = rng.NormFloat64()
		r.StrainDeviationFromAvg = rng.NormFloat64()
		r.Strain3dSum = 3 * r.Strain
		r.DayOfWeek = float64(i % 7)
		r.IsWeekend = 0
		r.AwakeTimeHours = 0.3 + 0.4*rng.Float64()
		r.BedtimeHour = 22 + 2*rng.Float64()
		r.BedtimeConsistencyScore = 60 + 40*rng.Float64()
		r.HasRollingFeatures = true
		r.RecoveryScore = 0.4*r.HRVRmssdMilli + 4*r.SlowWaveSleepHours -
			0.8*r.StrainDeviationFromAvg + 20 + rng.NormFloat64()
	}
	return rows
}

func TestTrainRecoveryPredictorInsufficientData(t *testing.T) {
	_, err := TrainRecoveryPredictor(predictorRows(30))
	var ie *analysis.InsufficientDataError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, minTrainObservations, ie.Needed)
}

func TestTrainRecoveryPredictorEndToEnd(t *testing.T) {
	rows := predictorRows(120)
	p, err := TrainRecoveryPredictor(rows)
	require.NoError(t, err)
	require.NotNil(t, p.Forest)
	assert.Equal(t, 96, p.NTrain)
	assert.Equal(t, 24, p.NTest)

	vec := p.Vector(&rows[0], nil)
	pred := p.Predict(vec)
	assert.False(t, math.IsNaN(pred.Value))
	assert.LessOrEqual(t, pred.CILower, pred.Value)
	assert.LessOrEqual(t, pred.Value, pred.CIUpper)

	ranked := p.FeatureImportance()
	require.Len(t, ranked, len(RecoveryFeatures))
	var total float64
	for _, fw := range ranked {
		total += fw.Importance
	}
	assert.InDelta(t, 100.0, total, 1e-6)
}

func TestTrainSleepPredictorTargetsEfficiency(t *testing.T) {
	rows := predictorRows(120)
	p, err := TrainSleepPredictor(rows)
	require.NoError(t, err)
	require.NotNil(t, p.Boost)
	assert.Equal(t, features.ColSleepEfficiency, p.Target)

	// predictions live on the efficiency scale (80-98 here), not on the
	// quality composite centered near 70
	var sum float64
	for i := 0; i < 20; i++ {
		sum += p.Predict(p.Vector(&rows[i], nil)).Value
	}
	assert.InDelta(t, 89, sum/20, 6)
}

func TestTrainFactorAnalyzerRequiresRollingHistory(t *testing.T) {
	rows := predictorRows(60)
	for i := 0; i < 20; i++ {
		rows[i].HasRollingFeatures = false
	}
	_, err := TrainFactorAnalyzer(rows)
	var ie *analysis.InsufficientDataError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, minTrainObservations, ie.Needed)
	assert.Equal(t, 40, ie.Got)
}

func TestSleepPredictorIntervalWidthFromHoldout(t *testing.T) {
	rows := predictorRows(120)
	p, err := TrainSleepPredictor(rows)
	require.NoError(t, err)
	require.NotNil(t, p.Boost)
	assert.Equal(t, p.TestMAE, p.Boost.IntervalMAE)

	pred, lo, hi := p.Boost.PredictInterval(p.Vector(&rows[5], nil))
	if lo > 0 && hi < 100 {
		assert.InDelta(t, 1.96*p.TestMAE, pred-lo, 1e-9)
		assert.InDelta(t, 1.96*p.TestMAE, hi-pred, 1e-9)
	} else {
		assert.LessOrEqual(t, hi-lo, 2*1.96*p.TestMAE+1e-9)
	}
}

func TestVectorOverridesAndMedianFill(t *testing.T) {
	rows := predictorRows(80)
	p, err := TrainSleepPredictor(rows)
	require.NoError(t, err)
	require.NotNil(t, p.Boost)

	var blank features.FeatureRow
	blank.SleepHours = math.NaN()
	blank.BedtimeHour = math.NaN()
	vec := p.Vector(&blank, map[string]float64{features.ColBedtimeHour: 23.5})

	pos := map[string]int{}
	for j, name := range p.Features {
		pos[name] = j
	}
	assert.Equal(t, 23.5, vec[pos[features.ColBedtimeHour]])
	assert.Equal(t, p.Medians[features.ColTotalSleepHours], vec[pos[features.ColTotalSleepHours]])
}

func TestSaveLoadRoundTripAndManager(t *testing.T) {
	dir := t.TempDir()
	rows := predictorRows(80)
	p, err := TrainFactorAnalyzer(rows)
	require.NoError(t, err)

	mgr := NewManager(dir)
	_, err = mgr.Factor()
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.False(t, mgr.ModelsExist())

	require.NoError(t, SaveModel(dir, FactorModelFile, p))
	mgr.Reload()
	got, err := mgr.Factor()
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)

	vec := p.Vector(&rows[3], nil)
	assert.InDelta(t, p.Predict(vec).Value, got.Predict(vec).Value, 1e-9)
}

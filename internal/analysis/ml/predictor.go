package ml

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

const (
	minTrainObservations = 50
	holdoutFraction      = 0.2
	splitSeed            = 42
)

// RecoveryFeatures is the full engineered set for next-day recovery
// prediction. Training rows must have their rolling window populated.
var RecoveryFeatures = []string{
	features.ColHRV,
	features.ColRestingHeartRate,
	features.ColSpO2,
	features.ColSleepHours,
	features.ColRemSleepHours,
	features.ColSlowWaveSleepHours,
	features.ColLightSleepHours,
	features.ColSleepEfficiency,
	features.ColSleepConsistency,
	features.ColRemPercentage,
	features.ColDeepSleepPercentage,
	features.ColSleepQualityScore,
	features.ColSleepDeficit,
	features.ColSleepDebtHours,
	features.ColDisturbanceCount,
	features.ColRespiratoryRate,
	features.ColStrain,
	features.ColKilojoule,
	features.ColHRReserve,
	features.ColPrevRecoveryScore,
	features.ColPrevHRV,
	features.ColPrevRHR,
	features.ColPrevStrain,
	features.ColHRVRolling7d,
	features.ColRHRRolling7d,
	features.ColStrainRolling7d,
	features.ColSleepRolling7d,
	features.ColHRVStd7d,
	features.ColRHRStd7d,
	features.ColHRVDeviationFromAvg,
	features.ColRHRDeviationFromAvg,
	features.ColStrainDeviationFromAvg,
	features.ColStrain3dSum,
	features.ColDayOfWeek,
	features.ColIsWeekend,
}

// SleepFeatures predicts tonight's sleep performance from behavior
// and debt state.
var SleepFeatures = []string{
	features.ColTotalSleepHours,
	features.ColRemSleepHours,
	features.ColSlowWaveSleepHours,
	features.ColAwakeTimeHours,
	features.ColBedtimeHour,
	features.ColDayOfWeek,
	features.ColRespiratoryRate,
	features.ColPrevStrain,
	features.ColPrevRecoveryScore,
	features.ColSleepDebtHours,
	features.ColSleepDeficit,
	features.ColDisturbanceCount,
	features.ColBedtimeConsistencyScore,
}

// FactorFeatures is the compact, directly actionable set used for
// factor importance ranking.
var FactorFeatures = []string{
	features.ColHRV,
	features.ColRestingHeartRate,
	features.ColSleepHours,
	features.ColSleepEfficiency,
	features.ColRemSleepHours,
	features.ColSlowWaveSleepHours,
	features.ColStrain,
	features.ColSleepQualityScore,
}

// Predictor is a persisted ensemble with everything inference needs:
// the feature order, per-feature medians for fill-in, and holdout
// metrics.
type Predictor struct {
	Name      string             `json:"name"`
	Target    string             `json:"target"`
	Features  []string           `json:"features"`
	Medians   map[string]float64 `json:"medians"`
	NTrain    int                `json:"n_train"`
	NTest     int                `json:"n_test"`
	TestMAE   float64            `json:"test_mae"`
	TestR2    float64            `json:"test_r2"`
	TrainedAt time.Time          `json:"trained_at"`
	Forest    *Forest            `json:"forest,omitempty"`
	Boost     *Booster           `json:"boost,omitempty"`
}

// Prediction is one scored inference with its 95% interval.
type Prediction struct {
	Value   float64 `json:"predicted_value"`
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`
}

// FeatureWeight is one entry of an importance ranking.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TrainRecoveryPredictor fits the random forest on rows whose rolling
// window is populated.
func TrainRecoveryPredictor(rows []features.FeatureRow) (*Predictor, error) {
	return trainForest("recovery_predictor", features.ColRecoveryScore, RecoveryFeatures,
		features.WithHistory(rows))
}

// TrainFactorAnalyzer fits a forest on the compact factor set purely
// for its importance ranking. Like the recovery model it only trains
// on rows with a populated rolling window.
func TrainFactorAnalyzer(rows []features.FeatureRow) (*Predictor, error) {
	return trainForest("factor_analyzer", features.ColRecoveryScore, FactorFeatures,
		features.WithHistory(rows))
}

// TrainSleepPredictor fits the gradient booster for sleep efficiency.
// Prediction intervals from the returned model are sized from the
// holdout MAE rather than the training fit.
func TrainSleepPredictor(rows []features.FeatureRow) (*Predictor, error) {
	x, y, medians, err := designFor("sleep_predictor", features.ColSleepEfficiency, SleepFeatures,
		features.WithHistory(rows))
	if err != nil {
		return nil, err
	}
	trainX, trainY, testX, testY := split(x, y)

	b := TrainBooster(trainX, trainY, DefaultBoostParams())
	p := &Predictor{
		Name: "sleep_predictor", Target: features.ColSleepEfficiency,
		Features: SleepFeatures, Medians: medians,
		NTrain: len(trainX), NTest: len(testX),
		TrainedAt: time.Now().UTC(), Boost: b,
	}
	p.TestMAE, p.TestR2 = holdoutMetrics(testX, testY, b.Predict)
	b.IntervalMAE = p.TestMAE
	return p, nil
}

func trainForest(name, target string, cols []string, rows []features.FeatureRow) (*Predictor, error) {
	x, y, medians, err := designFor(name, target, cols, rows)
	if err != nil {
		return nil, err
	}
	trainX, trainY, testX, testY := split(x, y)

	f := TrainForest(trainX, trainY, DefaultForestParams())
	p := &Predictor{
		Name: name, Target: target,
		Features: cols, Medians: medians,
		NTrain: len(trainX), NTest: len(testX),
		TrainedAt: time.Now().UTC(), Forest: f,
	}
	p.TestMAE, p.TestR2 = holdoutMetrics(testX, testY, f.Predict)
	return p, nil
}

// designFor drops rows without a target, median-fills missing feature
// values and enforces the observation floor.
func designFor(name, target string, cols []string, rows []features.FeatureRow) (x [][]float64, y []float64, medians map[string]float64, err error) {
	medians = features.Medians(rows, cols)
	for i := range rows {
		t := features.Value(&rows[i], target)
		if math.IsNaN(t) {
			continue
		}
		vec := make([]float64, len(cols))
		for j, col := range cols {
			v := features.Value(&rows[i], col)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = medians[col]
			}
			vec[j] = v
		}
		x = append(x, vec)
		y = append(y, t)
	}
	if len(x) < minTrainObservations {
		return nil, nil, nil, analysis.ErrInsufficientData(name, minTrainObservations, len(x))
	}
	return x, y, medians, nil
}

// split shuffles deterministically and holds out the last fifth.
func split(x [][]float64, y []float64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(splitSeed))
	rng.Shuffle(n, func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

	nTest := int(float64(n) * holdoutFraction)
	if nTest < 1 {
		nTest = 1
	}
	for k, i := range idx {
		if k < n-nTest {
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		} else {
			testX = append(testX, x[i])
			testY = append(testY, y[i])
		}
	}
	return trainX, trainY, testX, testY
}

func holdoutMetrics(testX [][]float64, testY []float64, predict func([]float64) float64) (mae, r2 float64) {
	preds := make([]float64, len(testX))
	for i, row := range testX {
		preds[i] = predict(row)
	}
	return stats.MAE(testY, preds), stats.SanitizeFloat(stats.RSquaredScore(testY, preds), 0)
}

// Vector builds the model input for one row, median-filling gaps, with
// optional per-feature overrides by column name.
func (p *Predictor) Vector(row *features.FeatureRow, overrides map[string]float64) []float64 {
	vec := make([]float64, len(p.Features))
	for j, col := range p.Features {
		if v, ok := overrides[col]; ok {
			vec[j] = v
			continue
		}
		v := features.Value(row, col)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = p.Medians[col]
		}
		vec[j] = v
	}
	return vec
}

// Predict scores one input vector with its interval.
func (p *Predictor) Predict(vec []float64) Prediction {
	var pred, lo, hi float64
	switch {
	case p.Forest != nil:
		pred, lo, hi = p.Forest.PredictInterval(vec)
	case p.Boost != nil:
		pred, lo, hi = p.Boost.PredictInterval(vec)
	default:
		return Prediction{Value: math.NaN(), CILower: math.NaN(), CIUpper: math.NaN()}
	}
	return Prediction{Value: pred, CILower: lo, CIUpper: hi}
}

// FeatureImportance ranks features by normalized impurity decrease,
// descending. The weights sum to 100.
func (p *Predictor) FeatureImportance() []FeatureWeight {
	var raw []float64
	switch {
	case p.Forest != nil:
		raw = p.Forest.Importances
	case p.Boost != nil:
		raw = p.Boost.Importances
	default:
		return nil
	}
	out := make([]FeatureWeight, len(p.Features))
	for i, name := range p.Features {
		out[i] = FeatureWeight{Feature: name, Importance: raw[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}

// Contribution pairs a top feature with the input's deviation from the
// training median, for explanation payloads.
type Contribution struct {
	Feature     string  `json:"feature"`
	Importance  float64 `json:"importance"`
	Value       float64 `json:"value"`
	TypicalNorm float64 `json:"typical"`
	Deviation   float64 `json:"deviation"`
}

// Explain reports the top-k features by importance alongside how far
// the given input sits from its training median.
func (p *Predictor) Explain(vec []float64, k int) []Contribution {
	ranked := p.FeatureImportance()
	if k > len(ranked) {
		k = len(ranked)
	}
	pos := make(map[string]int, len(p.Features))
	for j, name := range p.Features {
		pos[name] = j
	}
	out := make([]Contribution, 0, k)
	for _, fw := range ranked[:k] {
		j := pos[fw.Feature]
		med := p.Medians[fw.Feature]
		out = append(out, Contribution{
			Feature:     fw.Feature,
			Importance:  fw.Importance,
			Value:       vec[j],
			TypicalNorm: med,
			Deviation:   vec[j] - med,
		})
	}
	return out
}

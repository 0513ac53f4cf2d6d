package ml

import (
	"math/rand"

	"github.com/ald0405/whoop-backend-go/internal/stats"
)

// Booster is a gradient-boosted tree regressor with squared-error loss.
// Each stage fits a shallow tree to the current residuals on a row and
// column subsample. Intervals are pred +/- 1.96 * IntervalMAE, clamped
// to the target range. IntervalMAE starts as the training MAE; trainers
// with a holdout set overwrite it with the test MAE so intervals
// reflect out-of-sample error, not the fit.
type Booster struct {
	Base        float64     `json:"base"`
	Trees       []*treeNode `json:"trees"`
	LearnRate   float64     `json:"learn_rate"`
	NFeatures   int         `json:"n_features"`
	Importances []float64   `json:"importances"`
	TrainMAE    float64     `json:"train_mae"`
	IntervalMAE float64     `json:"interval_mae"`
	TargetMin   float64     `json:"target_min"`
	TargetMax   float64     `json:"target_max"`
	Seed        int64       `json:"seed"`
}

// BoostParams fixes the boosting schedule.
type BoostParams struct {
	NTrees    int
	MaxDepth  int
	LearnRate float64
	Subsample float64
	ColSample float64
	TargetMin float64
	TargetMax float64
	Seed      int64
}

// DefaultBoostParams matches the production sleep ensemble. The target
// range clamps score intervals to 0-100.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		NTrees: 150, MaxDepth: 7, LearnRate: 0.08,
		Subsample: 0.8, ColSample: 0.8,
		TargetMin: 0, TargetMax: 100, Seed: 42,
	}
}

// TrainBooster fits the staged ensemble.
func TrainBooster(x [][]float64, y []float64, params BoostParams) *Booster {
	n := len(x)
	p := len(x[0])
	rng := rand.New(rand.NewSource(params.Seed))

	b := &Booster{
		LearnRate:   params.LearnRate,
		NFeatures:   p,
		Importances: make([]float64, p),
		TargetMin:   params.TargetMin,
		TargetMax:   params.TargetMax,
		Seed:        params.Seed,
	}
	b.Base = stats.Mean(y)

	current := make([]float64, n)
	residual := make([]float64, n)
	for i := range current {
		current[i] = b.Base
	}

	cfg := treeConfig{
		maxDepth:    params.MaxDepth,
		minSplit:    5,
		minLeaf:     2,
		maxFeatures: int(params.ColSample * float64(p)),
	}
	if cfg.maxFeatures < 1 {
		cfg.maxFeatures = 1
	}

	sampleSize := int(params.Subsample * float64(n))
	if sampleSize < 1 {
		sampleSize = n
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	for t := 0; t < params.NTrees; t++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		rng.Shuffle(n, func(a, c int) { all[a], all[c] = all[c], all[a] })
		idx := append([]int(nil), all[:sampleSize]...)

		tree := growTree(x, residual, idx, cfg, rng, b.Importances)
		b.Trees = append(b.Trees, tree)
		for i := range current {
			current[i] += params.LearnRate * tree.predict(x[i])
		}
	}

	var total float64
	for _, v := range b.Importances {
		total += v
	}
	if total > 0 {
		for i := range b.Importances {
			b.Importances[i] = b.Importances[i] / total * 100
		}
	}

	preds := make([]float64, n)
	for i := range preds {
		preds[i] = current[i]
	}
	b.TrainMAE = stats.MAE(y, preds)
	b.IntervalMAE = b.TrainMAE
	return b
}

// Predict returns the staged prediction for one row.
func (b *Booster) Predict(row []float64) float64 {
	pred := b.Base
	for _, t := range b.Trees {
		pred += b.LearnRate * t.predict(row)
	}
	return pred
}

// PredictInterval returns the prediction with a symmetric 95% interval
// sized from IntervalMAE, clamped to the target range.
func (b *Booster) PredictInterval(row []float64) (pred, lo, hi float64) {
	pred = b.Predict(row)
	span := 1.96 * b.IntervalMAE
	lo = stats.Clip(pred-span, b.TargetMin, b.TargetMax)
	hi = stats.Clip(pred+span, b.TargetMin, b.TargetMax)
	return pred, lo, hi
}

package ml

import (
	"math/rand"

	"github.com/ald0405/whoop-backend-go/internal/stats"
)

// Forest is a random forest regressor. Confidence intervals come from
// the spread of per-tree predictions.
type Forest struct {
	Trees       []*treeNode `json:"trees"`
	NFeatures   int         `json:"n_features"`
	Importances []float64   `json:"importances"`
	Seed        int64       `json:"seed"`
}

// ForestParams fixes the ensemble shape.
type ForestParams struct {
	NTrees   int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64
}

// DefaultForestParams matches the production recovery ensemble.
func DefaultForestParams() ForestParams {
	return ForestParams{NTrees: 200, MaxDepth: 15, MinSplit: 5, MinLeaf: 2, Seed: 42}
}

// TrainForest fits params.NTrees trees on bootstrap resamples, each
// split considering a third of the features.
func TrainForest(x [][]float64, y []float64, params ForestParams) *Forest {
	n := len(x)
	p := len(x[0])
	maxFeatures := p / 3
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	cfg := treeConfig{
		maxDepth:    params.MaxDepth,
		minSplit:    params.MinSplit,
		minLeaf:     params.MinLeaf,
		maxFeatures: maxFeatures,
	}

	rng := rand.New(rand.NewSource(params.Seed))
	f := &Forest{NFeatures: p, Importances: make([]float64, p), Seed: params.Seed}
	for t := 0; t < params.NTrees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, growTree(x, y, idx, cfg, rng, f.Importances))
	}

	// normalize importances to percentages
	var total float64
	for _, v := range f.Importances {
		total += v
	}
	if total > 0 {
		for i := range f.Importances {
			f.Importances[i] = f.Importances[i] / total * 100
		}
	}
	return f
}

// Predict returns the mean of per-tree predictions.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.Trees))
}

// PredictInterval returns the mean prediction with a 95% interval from
// the 2.5th and 97.5th percentiles of per-tree predictions.
func (f *Forest) PredictInterval(row []float64) (pred, lo, hi float64) {
	preds := make([]float64, len(f.Trees))
	var sum float64
	for i, t := range f.Trees {
		preds[i] = t.predict(row)
		sum += preds[i]
	}
	pred = sum / float64(len(f.Trees))
	lo = stats.Percentile(preds, 2.5)
	hi = stats.Percentile(preds, 97.5)
	return pred, lo, hi
}

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PearsonCorrelation calculates the Pearson correlation coefficient between two variables
// Returns value between -1 and 1
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var sumXY, sumX2, sumY2 float64
	for i := 0; i < len(x); i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}

	if sumX2 == 0 || sumY2 == 0 {
		return 0
	}

	return sumXY / math.Sqrt(sumX2*sumY2)
}

// PearsonTest computes the Pearson correlation and a two-sided p-value
// for the null hypothesis of zero correlation. The p-value comes from
// the exact t transform: t = r*sqrt((n-2)/(1-r^2)) with n-2 degrees of
// freedom.
func PearsonTest(x, y []float64) (r, pValue float64) {
	n := len(x)
	if n != len(y) || n < 3 {
		return 0, 1
	}

	r = PearsonCorrelation(x, y)
	if r >= 1 || r <= -1 {
		// Perfect correlation: the t statistic diverges.
		return r, 0
	}
	if r == 0 {
		return 0, 1
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * dist.CDF(-math.Abs(t))
	return r, Clip(pValue, 0, 1)
}

// TwoSidedPValue converts a t statistic with the given residual degrees
// of freedom into a two-sided p-value.
func TwoSidedPValue(t, dfResid float64) float64 {
	if dfResid <= 0 {
		return 1
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfResid}
	return Clip(2*dist.CDF(-math.Abs(t)), 0, 1)
}

// TCritical returns the two-sided critical t value for the given
// confidence level (e.g. 0.95) and residual degrees of freedom.
func TCritical(confidence, dfResid float64) float64 {
	if dfResid <= 0 {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfResid}
	return dist.Quantile(1 - (1-confidence)/2)
}

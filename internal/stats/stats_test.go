package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 2.138, StdDev(values), 0.001)
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 3, Median([]float64{1, 3, 5}), 1e-9)
	assert.InDelta(t, 2.5, Median([]float64{1, 2, 3, 4}), 1e-9)
	assert.Equal(t, 0.0, Median(nil))
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.InDelta(t, 1, Percentile(values, 0), 1e-9)
	assert.InDelta(t, 10, Percentile(values, 100), 1e-9)
	assert.InDelta(t, 5.5, Percentile(values, 50), 1e-9)
}

func TestPearsonCorrelationPerfect(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 1.0, PearsonCorrelation(x, y), 1e-9)

	yNeg := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, PearsonCorrelation(x, yNeg), 1e-9)
}

func TestPearsonCorrelationZeroVariance(t *testing.T) {
	x := []float64{3, 3, 3, 3}
	y := []float64{1, 2, 3, 4}

	assert.Equal(t, 0.0, PearsonCorrelation(x, y))
}

func TestPearsonTestPValueBounds(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7, 10, 9}

	r, p := PearsonTest(x, y)
	assert.True(t, r >= -1 && r <= 1)
	assert.True(t, p >= 0 && p <= 1)
}

func TestPearsonTestStrongRelationshipSignificant(t *testing.T) {
	x := []float64{22, 22, 22, 22, 22, 23, 23, 23, 23, 23}
	y := []float64{80, 82, 78, 85, 79, 60, 58, 65, 62, 59}

	r, p := PearsonTest(x, y)
	assert.Less(t, r, 0.0)
	assert.Less(t, p, 0.05)
}

func TestTwoSidedPValue(t *testing.T) {
	// Large |t| with plenty of df should be near zero.
	assert.Less(t, TwoSidedPValue(10, 50), 1e-6)
	// t of zero is maximally insignificant.
	assert.InDelta(t, 1.0, TwoSidedPValue(0, 50), 1e-9)
	// NaN propagates so the serializer can defuse it explicitly.
	assert.True(t, math.IsNaN(TwoSidedPValue(math.NaN(), 50)))
}

func TestSanitizeFloat(t *testing.T) {
	assert.Equal(t, 0.0, SanitizeFloat(math.NaN(), 0))
	assert.Equal(t, 1.0, SanitizeFloat(math.Inf(1), 1))
	assert.Equal(t, 2.5, SanitizeFloat(2.5, 0))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-5, 0, 100))
	assert.Equal(t, 100.0, Clip(120, 0, 100))
	assert.Equal(t, 42.0, Clip(42, 0, 100))
}

func TestRSquaredScore(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, RSquaredScore(actual, actual), 1e-9)

	mean := []float64{2.5, 2.5, 2.5, 2.5}
	assert.InDelta(t, 0.0, RSquaredScore(actual, mean), 1e-9)
}

package features

import (
	"math"
	"sort"
)

func fval(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func i64val(p *int64) float64 {
	if p == nil {
		return math.NaN()
	}
	return float64(*p)
}

func millisOrZero(p *int64) float64 {
	if p == nil {
		return 0
	}
	return float64(*p)
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func median(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

package stats

import (
	"log"
	"math"
)

// SanitizeFloat replaces NaN/Inf with a default so the value can be
// stored as JSON. Degenerate features (constant columns, zero variance)
// produce NaN coefficients and p-values; those are defused here rather
// than failing the whole result. Every substitution is logged so the
// lossy step stays auditable.
func SanitizeFloat(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		log.Printf("sanitize: replacing non-finite value with %v", def)
		return def
	}
	return v
}

// SanitizeSlice applies SanitizeFloat to every element, in place.
func SanitizeSlice(vs []float64, def float64) []float64 {
	for i, v := range vs {
		vs[i] = SanitizeFloat(v, def)
	}
	return vs
}

package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

const minGroupSize = 3

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// RecoveryDeepDive slices next-day recovery along behavioral groupings:
// sport, workout timing, intensity mix, cumulative load and weekday.
// Buckets under the minimum size are dropped. Each grouping carries a
// one-line readout naming its best and worst bucket.
func RecoveryDeepDive(rows []features.FeatureRow) (*DeepDiveResult, error) {
	if len(rows) < minFactorObservations {
		return nil, analysis.ErrInsufficientData("recovery deep dive", minFactorObservations, len(rows))
	}

	result := &DeepDiveResult{NObs: len(rows), ComputedAt: time.Now().UTC()}
	result.BySport = groupBy(rows, func(r *features.FeatureRow) (string, bool) {
		if r.HadWorkout != 1 || r.SportID < 0 {
			return "", false
		}
		return fmt.Sprintf("sport_%d", int(r.SportID)), true
	})
	result.ByWorkoutTime = groupBy(rows, func(r *features.FeatureRow) (string, bool) {
		if r.HadWorkout != 1 {
			return "no_workout", true
		}
		if r.MorningWorkout == 1 {
			return "morning", true
		}
		if r.EveningWorkout == 1 {
			return "evening", true
		}
		return "midday", true
	})
	result.ByIntensity = groupBy(rows, func(r *features.FeatureRow) (string, bool) {
		if r.HadWorkout != 1 {
			return "", false
		}
		switch {
		case r.HighIntensityPct >= 30:
			return "high_intensity", true
		case r.HighIntensityPct >= 10:
			return "mixed", true
		default:
			return "low_intensity", true
		}
	})
	result.ByStrainLoad = groupBy(rows, func(r *features.FeatureRow) (string, bool) {
		if math.IsNaN(r.Strain3dSum) {
			return "", false
		}
		switch {
		case r.Strain3dSum >= 40:
			return "heavy_3d_load", true
		case r.Strain3dSum >= 25:
			return "moderate_3d_load", true
		default:
			return "light_3d_load", true
		}
	})
	result.ByDayOfWeek = groupBy(rows, func(r *features.FeatureRow) (string, bool) {
		d := int(r.DayOfWeek)
		if d < 0 || d > 6 {
			return "", false
		}
		return weekdayNames[d], true
	})
	return result, nil
}

func groupBy(rows []features.FeatureRow, key func(*features.FeatureRow) (string, bool)) DeepDiveSection {
	buckets := make(map[string][]*features.FeatureRow)
	for i := range rows {
		k, ok := key(&rows[i])
		if !ok {
			continue
		}
		buckets[k] = append(buckets[k], &rows[i])
	}

	var out []GroupStat
	for label, members := range buckets {
		if len(members) < minGroupSize {
			continue
		}
		out = append(out, GroupStat{
			Label:        label,
			N:            len(members),
			MeanRecovery: groupMean(members, func(r *features.FeatureRow) float64 { return r.RecoveryScore }),
			MeanHRV:      groupMean(members, func(r *features.FeatureRow) float64 { return r.HRVRmssdMilli }),
			MeanStrain:   groupMean(members, func(r *features.FeatureRow) float64 { return r.Strain }),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].MeanRecovery > out[b].MeanRecovery })
	return DeepDiveSection{Groups: out, Insight: sectionInsight(out)}
}

// sectionInsight names the best and worst bucket of a grouping.
func sectionInsight(groups []GroupStat) string {
	switch len(groups) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("Only %s has enough data, averaging %.1f%% recovery", groups[0].Label, groups[0].MeanRecovery)
	default:
		best, worst := groups[0], groups[len(groups)-1]
		return fmt.Sprintf("Best recovery follows %s (%.1f%% avg); worst follows %s (%.1f%% avg)",
			best.Label, best.MeanRecovery, worst.Label, worst.MeanRecovery)
	}
}

func groupMean(members []*features.FeatureRow, get func(*features.FeatureRow) float64) float64 {
	var vals []float64
	for _, m := range members {
		v := get(m)
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
	}
	return stats.SanitizeFloat(stats.Mean(vals), 0)
}

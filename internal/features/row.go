package features

import (
	"math"
	"time"
)

// FeatureRow is one model-ready observation: one row per scored
// recovery, carrying the raw vitals plus every engineered column.
// Missing values are NaN; DropNA gates them out before model fitting.
type FeatureRow struct {
	RecoveryID int64     `json:"recovery_id"`
	CycleID    int64     `json:"cycle_id"`
	SleepID    int64     `json:"sleep_id"`
	Date       time.Time `json:"date"`

	// Core vitals
	RecoveryScore    float64 `json:"recovery_score"`
	HRVRmssdMilli    float64 `json:"hrv_rmssd_milli"`
	RestingHeartRate float64 `json:"resting_heart_rate"`
	SpO2Percentage   float64 `json:"spo2_percentage"`
	SkinTempCelsius  float64 `json:"skin_temp_celsius"`

	// Sleep duration and stages (hours)
	SleepHours         float64 `json:"sleep_hours"`
	TimeInBedHours     float64 `json:"time_in_bed_hours"`
	RemSleepHours      float64 `json:"rem_sleep_hours"`
	SlowWaveSleepHours float64 `json:"slow_wave_sleep_hours"`
	LightSleepHours    float64 `json:"light_sleep_hours"`
	AwakeTimeHours     float64 `json:"awake_time_hours"`

	// Sleep stage ratios
	RemPercentage       float64 `json:"rem_percentage"`
	DeepSleepPercentage float64 `json:"deep_sleep_percentage"`

	// Sleep quality and debt
	SleepEfficiencyPercentage  float64 `json:"sleep_efficiency_percentage"`
	SleepConsistencyPercentage float64 `json:"sleep_consistency_percentage"`
	DisturbanceCount           float64 `json:"disturbance_count"`
	RespiratoryRate            float64 `json:"respiratory_rate"`
	SleepQualityScore          float64 `json:"sleep_quality_score"`
	SleepNeedHours             float64 `json:"sleep_need_hours"`
	SleepDeficit               float64 `json:"sleep_deficit"`
	SleepDebtHours             float64 `json:"sleep_debt_hours"`
	BedtimeHour                float64 `json:"bedtime_hour"`

	// Activity and strain
	Strain           float64 `json:"strain"`
	Kilojoule        float64 `json:"kilojoule"`
	AverageHeartRate float64 `json:"average_heart_rate"`
	MaxHeartRate     float64 `json:"max_heart_rate"`
	HRReserve        float64 `json:"hr_reserve"`

	// Temporal
	DayOfWeek float64 `json:"day_of_week"`
	IsWeekend float64 `json:"is_weekend"`

	// Previous day (lag-1)
	PrevRecoveryScore float64 `json:"prev_recovery_score"`
	PrevHRV           float64 `json:"prev_hrv"`
	PrevRHR           float64 `json:"prev_rhr"`
	PrevStrain        float64 `json:"prev_strain"`

	// Rolling 7-day statistics
	RecoveryRolling7d float64 `json:"recovery_rolling_7d"`
	HRVRolling7d      float64 `json:"hrv_rolling_7d"`
	RHRRolling7d      float64 `json:"rhr_rolling_7d"`
	StrainRolling7d   float64 `json:"strain_rolling_7d"`
	SleepRolling7d    float64 `json:"sleep_rolling_7d"`
	HRVStd7d          float64 `json:"hrv_std_7d"`
	RHRStd7d          float64 `json:"rhr_std_7d"`

	// Rolling 14-day statistics
	HRVRolling14d    float64 `json:"hrv_rolling_14d"`
	RHRRolling14d    float64 `json:"rhr_rolling_14d"`
	StrainRolling14d float64 `json:"strain_rolling_14d"`
	SleepRolling14d  float64 `json:"sleep_rolling_14d"`

	// Deviations from rolling baseline
	HRVDeviationFromAvg    float64 `json:"hrv_deviation_from_avg"`
	RHRDeviationFromAvg    float64 `json:"rhr_deviation_from_avg"`
	StrainDeviationFromAvg float64 `json:"strain_deviation_from_avg"`

	// Cumulative strain
	Strain3dSum float64 `json:"strain_3d_sum"`

	// Bedtime consistency (std of bedtime hour over 7d, inverted to 0-100)
	BedtimeConsistencyScore float64 `json:"bedtime_consistency_score"`

	// Workout aggregates for the day's cycle
	HadWorkout       float64 `json:"had_workout"`
	WorkoutCount     float64 `json:"workout_count"`
	WorkoutStrain    float64 `json:"workout_strain"`
	WorkoutKilojoule float64 `json:"workout_kilojoule"`
	SportID          float64 `json:"sport_id"`
	WorkoutStartHour float64 `json:"workout_start_hour"`
	MorningWorkout   float64 `json:"morning_workout"`
	EveningWorkout   float64 `json:"evening_workout"`
	Zone0Minutes     float64 `json:"zone_zero_minutes"`
	Zone1Minutes     float64 `json:"zone_one_minutes"`
	Zone2Minutes     float64 `json:"zone_two_minutes"`
	Zone3Minutes     float64 `json:"zone_three_minutes"`
	Zone4Minutes     float64 `json:"zone_four_minutes"`
	Zone5Minutes     float64 `json:"zone_five_minutes"`
	Zone0Pct         float64 `json:"zone_zero_pct"`
	Zone1Pct         float64 `json:"zone_one_pct"`
	Zone2Pct         float64 `json:"zone_two_pct"`
	Zone3Pct         float64 `json:"zone_three_pct"`
	Zone4Pct         float64 `json:"zone_four_pct"`
	Zone5Pct         float64 `json:"zone_five_pct"`
	HighIntensityPct float64 `json:"high_intensity_pct"`

	// True once the full 14-day rolling window is populated. Model
	// training must filter on this flag.
	HasRollingFeatures bool `json:"has_rolling_features"`
}

// Canonical feature names. Model feature lists, scenario overrides and
// median fills all address columns by these names.
const (
	ColRecoveryScore             = "recovery_score"
	ColHRV                       = "hrv_rmssd_milli"
	ColRestingHeartRate          = "resting_heart_rate"
	ColSpO2                      = "spo2_percentage"
	ColSkinTemp                  = "skin_temp_celsius"
	ColSleepHours                = "sleep_hours"
	ColRemSleepHours             = "rem_sleep_hours"
	ColSlowWaveSleepHours        = "slow_wave_sleep_hours"
	ColLightSleepHours           = "light_sleep_hours"
	ColAwakeTimeHours            = "awake_time_hours"
	ColRemPercentage             = "rem_percentage"
	ColDeepSleepPercentage       = "deep_sleep_percentage"
	ColSleepEfficiency           = "sleep_efficiency_percentage"
	ColSleepConsistency          = "sleep_consistency_percentage"
	ColDisturbanceCount          = "disturbance_count"
	ColRespiratoryRate           = "respiratory_rate"
	ColSleepQualityScore         = "sleep_quality_score"
	ColSleepDeficit              = "sleep_deficit"
	ColSleepDebtHours            = "sleep_debt_hours"
	ColBedtimeHour               = "bedtime_hour"
	ColStrain                    = "strain"
	ColKilojoule                 = "kilojoule"
	ColMaxHeartRate              = "max_heart_rate"
	ColHRReserve                 = "hr_reserve"
	ColDayOfWeek                 = "day_of_week"
	ColIsWeekend                 = "is_weekend"
	ColPrevRecoveryScore         = "prev_recovery_score"
	ColPrevHRV                   = "prev_hrv"
	ColPrevRHR                   = "prev_rhr"
	ColPrevStrain                = "prev_strain"
	ColHRVRolling7d              = "hrv_rolling_7d"
	ColRHRRolling7d              = "rhr_rolling_7d"
	ColStrainRolling7d           = "strain_rolling_7d"
	ColSleepRolling7d            = "sleep_rolling_7d"
	ColHRVStd7d                  = "hrv_std_7d"
	ColRHRStd7d                  = "rhr_std_7d"
	ColHRVDeviationFromAvg       = "hrv_deviation_from_avg"
	ColRHRDeviationFromAvg       = "rhr_deviation_from_avg"
	ColStrainDeviationFromAvg    = "strain_deviation_from_avg"
	ColStrain3dSum               = "strain_3d_sum"
	ColBedtimeConsistencyScore   = "bedtime_consistency_score"
	ColHadWorkout                = "had_workout"
	ColWorkoutStrain             = "workout_strain"
	ColHighIntensityPct          = "high_intensity_pct"
	ColTotalSleepHours           = "total_sleep_hours"
	ColDeepSleepHrs              = "deep_sleep_hrs"
	ColRemSleepHrs               = "rem_sleep_hrs"
	ColTotalSleepHrs             = "total_sleep_hrs"
	ColWorkoutStrainAgg          = "workout_strain_agg"
	ColDayStrain                 = "day_strain"
)

var getters = map[string]func(*FeatureRow) float64{
	ColRecoveryScore:           func(r *FeatureRow) float64 { return r.RecoveryScore },
	ColHRV:                     func(r *FeatureRow) float64 { return r.HRVRmssdMilli },
	ColRestingHeartRate:        func(r *FeatureRow) float64 { return r.RestingHeartRate },
	ColSpO2:                    func(r *FeatureRow) float64 { return r.SpO2Percentage },
	ColSkinTemp:                func(r *FeatureRow) float64 { return r.SkinTempCelsius },
	ColSleepHours:              func(r *FeatureRow) float64 { return r.SleepHours },
	ColRemSleepHours:           func(r *FeatureRow) float64 { return r.RemSleepHours },
	ColSlowWaveSleepHours:      func(r *FeatureRow) float64 { return r.SlowWaveSleepHours },
	ColLightSleepHours:         func(r *FeatureRow) float64 { return r.LightSleepHours },
	ColAwakeTimeHours:          func(r *FeatureRow) float64 { return r.AwakeTimeHours },
	ColRemPercentage:           func(r *FeatureRow) float64 { return r.RemPercentage },
	ColDeepSleepPercentage:     func(r *FeatureRow) float64 { return r.DeepSleepPercentage },
	ColSleepEfficiency:         func(r *FeatureRow) float64 { return r.SleepEfficiencyPercentage },
	ColSleepConsistency:        func(r *FeatureRow) float64 { return r.SleepConsistencyPercentage },
	ColDisturbanceCount:        func(r *FeatureRow) float64 { return r.DisturbanceCount },
	ColRespiratoryRate:         func(r *FeatureRow) float64 { return r.RespiratoryRate },
	ColSleepQualityScore:       func(r *FeatureRow) float64 { return r.SleepQualityScore },
	ColSleepDeficit:            func(r *FeatureRow) float64 { return r.SleepDeficit },
	ColSleepDebtHours:          func(r *FeatureRow) float64 { return r.SleepDebtHours },
	ColBedtimeHour:             func(r *FeatureRow) float64 { return r.BedtimeHour },
	ColStrain:                  func(r *FeatureRow) float64 { return r.Strain },
	ColKilojoule:               func(r *FeatureRow) float64 { return r.Kilojoule },
	ColMaxHeartRate:            func(r *FeatureRow) float64 { return r.MaxHeartRate },
	ColHRReserve:               func(r *FeatureRow) float64 { return r.HRReserve },
	ColDayOfWeek:               func(r *FeatureRow) float64 { return r.DayOfWeek },
	ColIsWeekend:               func(r *FeatureRow) float64 { return r.IsWeekend },
	ColPrevRecoveryScore:       func(r *FeatureRow) float64 { return r.PrevRecoveryScore },
	ColPrevHRV:                 func(r *FeatureRow) float64 { return r.PrevHRV },
	ColPrevRHR:                 func(r *FeatureRow) float64 { return r.PrevRHR },
	ColPrevStrain:              func(r *FeatureRow) float64 { return r.PrevStrain },
	ColHRVRolling7d:            func(r *FeatureRow) float64 { return r.HRVRolling7d },
	ColRHRRolling7d:            func(r *FeatureRow) float64 { return r.RHRRolling7d },
	ColStrainRolling7d:         func(r *FeatureRow) float64 { return r.StrainRolling7d },
	ColSleepRolling7d:          func(r *FeatureRow) float64 { return r.SleepRolling7d },
	ColHRVStd7d:                func(r *FeatureRow) float64 { return r.HRVStd7d },
	ColRHRStd7d:                func(r *FeatureRow) float64 { return r.RHRStd7d },
	ColHRVDeviationFromAvg:     func(r *FeatureRow) float64 { return r.HRVDeviationFromAvg },
	ColRHRDeviationFromAvg:     func(r *FeatureRow) float64 { return r.RHRDeviationFromAvg },
	ColStrainDeviationFromAvg:  func(r *FeatureRow) float64 { return r.StrainDeviationFromAvg },
	ColStrain3dSum:             func(r *FeatureRow) float64 { return r.Strain3dSum },
	ColBedtimeConsistencyScore: func(r *FeatureRow) float64 { return r.BedtimeConsistencyScore },
	ColHadWorkout:              func(r *FeatureRow) float64 { return r.HadWorkout },
	ColWorkoutStrain:           func(r *FeatureRow) float64 { return r.WorkoutStrain },
	ColHighIntensityPct:        func(r *FeatureRow) float64 { return r.HighIntensityPct },
	ColTotalSleepHours:         func(r *FeatureRow) float64 { return r.SleepHours },
	ColDeepSleepHrs:            func(r *FeatureRow) float64 { return r.SlowWaveSleepHours },
	ColRemSleepHrs:             func(r *FeatureRow) float64 { return r.RemSleepHours },
	ColTotalSleepHrs: func(r *FeatureRow) float64 {
		return r.SlowWaveSleepHours + r.RemSleepHours + r.LightSleepHours
	},
	ColWorkoutStrainAgg: func(r *FeatureRow) float64 { return r.WorkoutStrain },
	ColDayStrain:        func(r *FeatureRow) float64 { return r.Strain },
}

// Value returns the named column from a row, or NaN when the name is
// unknown.
func Value(r *FeatureRow, name string) float64 {
	if g, ok := getters[name]; ok {
		return g(r)
	}
	return math.NaN()
}

// HasColumn reports whether the named column exists.
func HasColumn(name string) bool {
	_, ok := getters[name]
	return ok
}

// Matrix extracts the named columns from rows, dropping any row with a
// missing value in the selection or the target accessor. It returns the
// design matrix and the surviving rows in order.
func Matrix(rows []FeatureRow, names []string) (x [][]float64, kept []FeatureRow) {
	for i := range rows {
		vec := make([]float64, len(names))
		ok := true
		for j, name := range names {
			v := Value(&rows[i], name)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
			vec[j] = v
		}
		if !ok {
			continue
		}
		x = append(x, vec)
		kept = append(kept, rows[i])
	}
	return x, kept
}

// Column extracts a single named column, keeping NaNs in place.
func Column(rows []FeatureRow, name string) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = Value(&rows[i], name)
	}
	return out
}

// CleanColumn extracts a single named column with NaN/Inf removed.
func CleanColumn(rows []FeatureRow, name string) []float64 {
	out := make([]float64, 0, len(rows))
	for i := range rows {
		v := Value(&rows[i], name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// CleanPairs extracts two columns keeping only rows where both are
// present.
func CleanPairs(rows []FeatureRow, a, b string) (x, y []float64) {
	for i := range rows {
		va := Value(&rows[i], a)
		vb := Value(&rows[i], b)
		if math.IsNaN(va) || math.IsNaN(vb) || math.IsInf(va, 0) || math.IsInf(vb, 0) {
			continue
		}
		x = append(x, va)
		y = append(y, vb)
	}
	return x, y
}

// Medians computes per-column medians over non-missing values. Columns
// with no data at all get 0.
func Medians(rows []FeatureRow, names []string) map[string]float64 {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		vals := CleanColumn(rows, name)
		if len(vals) == 0 {
			out[name] = 0
			continue
		}
		out[name] = median(vals)
	}
	return out
}

// WithHistory filters to rows whose full rolling window is populated.
func WithHistory(rows []FeatureRow) []FeatureRow {
	var out []FeatureRow
	for _, r := range rows {
		if r.HasRollingFeatures {
			out = append(out, r)
		}
	}
	return out
}

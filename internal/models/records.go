package models

import "time"

// Recovery is one scored physiological cycle. It is the hub record:
// it links to the cycle that produced the strain and the sleep that
// produced the score. Nullable metrics are pointers; a recovery row
// can exist before the device has finished scoring it.
type Recovery struct {
	ID               int64     `json:"id" db:"id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	CycleID          int64     `json:"cycle_id" db:"cycle_id"`
	SleepID          int64     `json:"sleep_id" db:"sleep_id"`
	RecoveryScore    *float64  `json:"recovery_score,omitempty" db:"recovery_score"`
	HRVRmssdMilli    *float64  `json:"hrv_rmssd_milli,omitempty" db:"hrv_rmssd_milli"`
	RestingHeartRate *float64  `json:"resting_heart_rate,omitempty" db:"resting_heart_rate"`
	SpO2Percentage   *float64  `json:"spo2_percentage,omitempty" db:"spo2_percentage"`
	SkinTempCelsius  *float64  `json:"skin_temp_celsius,omitempty" db:"skin_temp_celsius"`
	UserCalibrating  bool      `json:"user_calibrating" db:"user_calibrating"`
}

// Sleep is one sleep activity with stage durations in milliseconds.
type Sleep struct {
	ID                          int64      `json:"id" db:"id"`
	Start                       *time.Time `json:"start,omitempty" db:"start"`
	End                         *time.Time `json:"end,omitempty" db:"end"`
	Nap                         bool       `json:"nap" db:"nap"`
	TotalInBedTimeMilli         *int64     `json:"total_in_bed_time_milli,omitempty" db:"total_in_bed_time_milli"`
	TotalAwakeTimeMilli         *int64     `json:"total_awake_time_milli,omitempty" db:"total_awake_time_milli"`
	TotalNoDataTimeMilli        *int64     `json:"total_no_data_time_milli,omitempty" db:"total_no_data_time_milli"`
	TotalRemSleepTimeMilli      *int64     `json:"total_rem_sleep_time_milli,omitempty" db:"total_rem_sleep_time_milli"`
	TotalSlowWaveSleepTimeMilli *int64     `json:"total_slow_wave_sleep_time_milli,omitempty" db:"total_slow_wave_sleep_time_milli"`
	SleepCycleCount             *int64     `json:"sleep_cycle_count,omitempty" db:"sleep_cycle_count"`
	DisturbanceCount            *int64     `json:"disturbance_count,omitempty" db:"disturbance_count"`
	SleepNeedBaselineMilli      *int64     `json:"sleep_need_baseline_milli,omitempty" db:"sleep_need_baseline_milli"`
	SleepNeedFromDebtMilli      *int64     `json:"sleep_need_from_debt_milli,omitempty" db:"sleep_need_from_debt_milli"`
	SleepNeedFromStrainMilli    *int64     `json:"sleep_need_from_strain_milli,omitempty" db:"sleep_need_from_strain_milli"`
	SleepEfficiencyPercentage   *float64   `json:"sleep_efficiency_percentage,omitempty" db:"sleep_efficiency_percentage"`
	SleepConsistencyPercentage  *float64   `json:"sleep_consistency_percentage,omitempty" db:"sleep_consistency_percentage"`
	RespiratoryRate             *float64   `json:"respiratory_rate,omitempty" db:"respiratory_rate"`
}

// Cycle is the day-level strain container.
type Cycle struct {
	ID               int64      `json:"id" db:"id"`
	Start            *time.Time `json:"start,omitempty" db:"start"`
	End              *time.Time `json:"end,omitempty" db:"end"`
	Strain           *float64   `json:"strain,omitempty" db:"strain"`
	Kilojoule        *float64   `json:"kilojoule,omitempty" db:"kilojoule"`
	AverageHeartRate *float64   `json:"average_heart_rate,omitempty" db:"average_heart_rate"`
	MaxHeartRate     *float64   `json:"max_heart_rate,omitempty" db:"max_heart_rate"`
}

// Workout is a single training activity within a cycle. Zone durations
// are minutes spent in each heart-rate zone.
type Workout struct {
	ID               int64      `json:"id" db:"id"`
	CycleID          int64      `json:"cycle_id" db:"cycle_id"`
	SportID          int64      `json:"sport_id" db:"sport_id"`
	Start            *time.Time `json:"start,omitempty" db:"start"`
	End              *time.Time `json:"end,omitempty" db:"end"`
	Strain           *float64   `json:"strain,omitempty" db:"strain"`
	Kilojoule        *float64   `json:"kilojoule,omitempty" db:"kilojoule"`
	ZoneZeroMinutes  float64    `json:"zone_zero_minutes" db:"zone_zero_minutes"`
	ZoneOneMinutes   float64    `json:"zone_one_minutes" db:"zone_one_minutes"`
	ZoneTwoMinutes   float64    `json:"zone_two_minutes" db:"zone_two_minutes"`
	ZoneThreeMinutes float64    `json:"zone_three_minutes" db:"zone_three_minutes"`
	ZoneFourMinutes  float64    `json:"zone_four_minutes" db:"zone_four_minutes"`
	ZoneFiveMinutes  float64    `json:"zone_five_minutes" db:"zone_five_minutes"`
}

// Weight is a Withings body measurement.
type Weight struct {
	ID         int64     `json:"id" db:"id"`
	MeasuredAt time.Time `json:"measured_at" db:"measured_at"`
	WeightKg   *float64  `json:"weight_kg,omitempty" db:"weight_kg"`
	FatRatio   *float64  `json:"fat_ratio,omitempty" db:"fat_ratio"`
	HeartRate  *float64  `json:"heart_rate,omitempty" db:"heart_rate"`
}

// AnalyticsResult is one pre-computed analyzer output, stored as a JSON
// blob. Exactly one row exists per (result_type, days_back).
type AnalyticsResult struct {
	ID         int64     `json:"id" db:"id"`
	ResultType string    `json:"result_type" db:"result_type"`
	ResultData string    `json:"result_data" db:"result_data"`
	DaysBack   int       `json:"days_back" db:"days_back"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// Result types written by the analytics pipeline.
const (
	ResultFactorImportance   = "factor_importance"
	ResultSleepQualityFactor = "sleep_quality_factors"
	ResultRecoveryDeepDive   = "recovery_deep_dive"
	ResultCorrelations       = "correlations"
	ResultInsights           = "insights"
	ResultTrends             = "trends"
	ResultSummary            = "summary"
)

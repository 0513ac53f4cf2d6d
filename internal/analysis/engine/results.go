// Package engine computes the pre-calculated analyzer payloads that the
// pipeline persists and the API serves verbatim.
package engine

import "time"

// Observation floors. Running an analyzer below its floor returns an
// InsufficientDataError instead of a noisy result.
const (
	minFactorObservations      = 50
	minCorrelationObservations = 30
	minInsightObservations     = 7
)

// FactorRanking is one feature in the importance ranking with its
// marginal direction and the quartile comparison behind the
// actionable threshold.
type FactorRanking struct {
	Feature           string  `json:"feature"`
	Name              string  `json:"name"`
	Importance        float64 `json:"importance"`
	Correlation       float64 `json:"correlation"`
	Direction         string  `json:"direction"`
	MeanValue         float64 `json:"mean_value"`
	TopQuartileAvg    float64 `json:"top_quartile_avg"`
	BottomQuartileAvg float64 `json:"bottom_quartile_avg"`
	Threshold         string  `json:"actionable_threshold,omitempty"`
	Explanation       string  `json:"explanation"`
}

// FactorImportanceResult ranks what moves the recovery score.
type FactorImportanceResult struct {
	Target      string          `json:"target"`
	NObs        int             `json:"n_observations"`
	ModelR2     float64         `json:"model_r2"`
	ModelMAE    float64         `json:"model_mae"`
	Rankings    []FactorRanking `json:"rankings"`
	TopLever    string          `json:"top_lever"`
	Explanation string          `json:"explanation"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// CorrelationEntry is one retained metric pair. Only pairs that clear
// p < 0.05 make it into the result, so every entry is significant.
type CorrelationEntry struct {
	FeatureX    string  `json:"feature_x"`
	FeatureY    string  `json:"feature_y"`
	MetricX     string  `json:"metric_1"`
	MetricY     string  `json:"metric_2"`
	R           float64 `json:"correlation"`
	PValue      float64 `json:"p_value"`
	N           int     `json:"n"`
	Strength    string  `json:"strength"`
	Direction   string  `json:"direction"`
	Explanation string  `json:"explanation"`
	Example     string  `json:"example"`
}

// CorrelationResult holds the retained pairs, strongest first.
type CorrelationResult struct {
	Pairs      []CorrelationEntry `json:"pairs"`
	Summary    string             `json:"summary"`
	NObs       int                `json:"n_observations"`
	ComputedAt time.Time          `json:"computed_at"`
}

// SleepFactor is one candidate driver of the sleep quality composite.
type SleepFactor struct {
	Feature     string  `json:"feature"`
	R           float64 `json:"correlation"`
	PValue      float64 `json:"p_value"`
	N           int     `json:"n"`
	Significant bool    `json:"significant"`
}

// SleepQualityResult ranks what correlates with sleeping well.
type SleepQualityResult struct {
	Factors    []SleepFactor `json:"factors"`
	NObs       int           `json:"n_observations"`
	ComputedAt time.Time     `json:"computed_at"`
}

// GroupStat is one bucket of a deep-dive grouping.
type GroupStat struct {
	Label        string  `json:"label"`
	N            int     `json:"n"`
	MeanRecovery float64 `json:"mean_recovery"`
	MeanHRV      float64 `json:"mean_hrv"`
	MeanStrain   float64 `json:"mean_strain"`
}

// DeepDiveSection is one grouping with its buckets sorted by mean
// recovery and a one-line best/worst readout.
type DeepDiveSection struct {
	Groups  []GroupStat `json:"groups"`
	Insight string      `json:"insight,omitempty"`
}

// DeepDiveResult slices recovery along behavioral groupings.
type DeepDiveResult struct {
	BySport       DeepDiveSection `json:"by_sport"`
	ByWorkoutTime DeepDiveSection `json:"by_workout_time"`
	ByIntensity   DeepDiveSection `json:"by_intensity"`
	ByStrainLoad  DeepDiveSection `json:"by_strain_load"`
	ByDayOfWeek   DeepDiveSection `json:"by_day_of_week"`
	NObs          int             `json:"n_observations"`
	ComputedAt    time.Time       `json:"computed_at"`
}

// Insight is one prioritized observation about the recent window.
type Insight struct {
	Category string  `json:"category"`
	Priority string  `json:"priority"`
	Message  string  `json:"message"`
	Metric   string  `json:"metric"`
	Change   float64 `json:"change_pct"`
}

// InsightsResult caps the list at five entries, highest priority first.
type InsightsResult struct {
	Insights   []Insight `json:"insights"`
	NObs       int       `json:"n_observations"`
	ComputedAt time.Time `json:"computed_at"`
}

// MetricTrend summarizes one metric's direction over the window.
type MetricTrend struct {
	Metric     string    `json:"metric"`
	Direction  string    `json:"direction"`
	ChangePct  float64   `json:"change_pct"`
	RecentMean float64   `json:"recent_mean"`
	WindowMean float64   `json:"window_mean"`
	Anomalies  []Anomaly `json:"anomalies,omitempty"`
}

// Anomaly is a single reading outside two standard deviations.
type Anomaly struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Z     float64   `json:"z_score"`
}

// TrendsResult is the time-series payload.
type TrendsResult struct {
	Trends     []MetricTrend `json:"trends"`
	NObs       int           `json:"n_observations"`
	ComputedAt time.Time     `json:"computed_at"`
}

// MetricSummary is descriptive statistics for one metric.
type MetricSummary struct {
	Metric string  `json:"metric"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// SummaryResult is the top-level overview payload.
type SummaryResult struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Days       int             `json:"days"`
	Metrics    []MetricSummary `json:"metrics"`
	ComputedAt time.Time       `json:"computed_at"`
}

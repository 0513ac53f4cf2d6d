package models

// LifecycleSegment identifies the user's current training phase.
const (
	SegmentBuilding    = "building"
	SegmentMaintaining = "maintaining"
	SegmentRecovering  = "recovering"
	SegmentReturning   = "returning"
)

// SegmentStrategy is the fixed recommendation strategy for a segment.
type SegmentStrategy struct {
	StrainTolerance  string `json:"strain_tolerance"`
	RecoveryPriority string `json:"recovery_priority"`
	SleepEmphasis    string `json:"sleep_emphasis"`
	KeyMessage       string `json:"key_message"`
}

// MetricTrend is a first-half vs second-half comparison for one metric.
type MetricTrend struct {
	FirstHalfAvg  float64 `json:"first_half_avg"`
	SecondHalfAvg float64 `json:"second_half_avg"`
	ChangePct     float64 `json:"change_pct"`
}

// LifecycleResult is the detected segment with its strategy and the
// trends that produced the classification.
type LifecycleResult struct {
	Segment     string                 `json:"segment"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Strategy    SegmentStrategy        `json:"strategy"`
	Confidence  string                 `json:"confidence"` // "low", "medium", "high"
	Reason      string                 `json:"reason"`
	Trends      map[string]MetricTrend `json:"trends,omitempty"`
}

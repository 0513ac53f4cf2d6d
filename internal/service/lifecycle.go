package service

import (
	"fmt"
	"math"

	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

// Lifecycle segment detection: classifies the current training phase
// from 28-day trends in recovery, HRV, strain and sleep.

const (
	defaultLookbackDays = 28
	minLifecycleRows    = 14
	maxDataGapDays      = 5
)

var segmentProfiles = map[string]struct {
	Name        string
	Description string
	Strategy    models.SegmentStrategy
}{
	models.SegmentBuilding: {
		Name:        "Building Fitness",
		Description: "Your metrics are trending up. Your body is adapting to increased load.",
		Strategy: models.SegmentStrategy{
			StrainTolerance:  "high",
			RecoveryPriority: "moderate",
			SleepEmphasis:    "maintain current levels",
			KeyMessage:       "You're building. Push when green, but respect yellow days.",
		},
	},
	models.SegmentMaintaining: {
		Name:        "Maintaining",
		Description: "Your metrics are stable. Focus on consistency and marginal gains.",
		Strategy: models.SegmentStrategy{
			StrainTolerance:  "moderate",
			RecoveryPriority: "moderate",
			SleepEmphasis:    "optimise efficiency",
			KeyMessage:       "Consistency is your edge. Don't chase big numbers, maintain the routine.",
		},
	},
	models.SegmentRecovering: {
		Name:        "Needs Recovery",
		Description: "Your metrics are declining. Accumulated fatigue or stress is showing.",
		Strategy: models.SegmentStrategy{
			StrainTolerance:  "low",
			RecoveryPriority: "high",
			SleepEmphasis:    "increase duration and prioritise early bedtime",
			KeyMessage:       "Your body is asking for a break. Reduce strain and maximise recovery.",
		},
	},
	models.SegmentReturning: {
		Name:        "Returning",
		Description: "You're coming back after a period of low activity or data gap.",
		Strategy: models.SegmentStrategy{
			StrainTolerance:  "low-moderate",
			RecoveryPriority: "high",
			SleepEmphasis:    "build consistency first",
			KeyMessage:       "Ease back in. Build consistency before intensity.",
		},
	},
}

// LifecycleDetector classifies the current training phase.
type LifecycleDetector struct {
	featureSvc *FeatureService
}

func NewLifecycleDetector(featureSvc *FeatureService) *LifecycleDetector {
	return &LifecycleDetector{featureSvc: featureSvc}
}

// DetectSegment loads the trailing window and classifies it.
func (d *LifecycleDetector) DetectSegment(lookbackDays int) (*models.LifecycleResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	rows, err := d.featureSvc.BuildFeatures(lookbackDays + 14)
	if err != nil {
		return nil, err
	}
	return ClassifyLifecycle(rows, lookbackDays), nil
}

// ClassifyLifecycle runs segment detection over pre-built rows, which
// must be sorted by date ascending.
func ClassifyLifecycle(rows []features.FeatureRow, lookbackDays int) *models.LifecycleResult {
	if len(rows) < minLifecycleRows {
		return segmentResult(models.SegmentMaintaining, "low",
			"Insufficient data for lifecycle detection (need 14+ days).", nil)
	}

	if hasDataGap(rows, lookbackDays) {
		return segmentResult(models.SegmentReturning, "high",
			"Detected a gap in recent data, appears to be returning from a break.", nil)
	}

	recent := rows
	if len(recent) > lookbackDays {
		recent = recent[len(recent)-lookbackDays:]
	}
	half := len(recent) / 2
	trends := computeTrends(recent[:half], recent[half:])
	segment, reason := classifyTrends(trends)

	confidence := "high"
	if len(rows) < 21 {
		confidence = "medium"
	}
	return segmentResult(segment, confidence, reason, trends)
}

func segmentResult(segment, confidence, reason string, trends map[string]models.MetricTrend) *models.LifecycleResult {
	profile := segmentProfiles[segment]
	return &models.LifecycleResult{
		Segment:     segment,
		Name:        profile.Name,
		Description: profile.Description,
		Strategy:    profile.Strategy,
		Confidence:  confidence,
		Reason:      reason,
		Trends:      trends,
	}
}

// hasDataGap flags sparse coverage or a multi-day hole in the recent
// window.
func hasDataGap(rows []features.FeatureRow, lookbackDays int) bool {
	if len(rows) < 7 {
		return true
	}
	recent := rows
	if len(recent) > lookbackDays {
		recent = recent[len(recent)-lookbackDays:]
	}
	if float64(len(recent)) < float64(lookbackDays)*0.5 {
		return true
	}
	for i := 1; i < len(recent); i++ {
		gap := recent[i].Date.Sub(recent[i-1].Date).Hours() / 24
		if gap > maxDataGapDays {
			return true
		}
	}
	return false
}

var trendColumns = []struct {
	col   string
	label string
}{
	{features.ColRecoveryScore, "recovery"},
	{features.ColHRV, "hrv"},
	{features.ColStrain, "strain"},
	{features.ColSleepHours, "sleep"},
}

func computeTrends(firstHalf, secondHalf []features.FeatureRow) map[string]models.MetricTrend {
	trends := make(map[string]models.MetricTrend)
	for _, tc := range trendColumns {
		first := features.CleanColumn(firstHalf, tc.col)
		second := features.CleanColumn(secondHalf, tc.col)
		if len(first) == 0 || len(second) == 0 {
			continue
		}
		firstAvg := stats.Mean(first)
		secondAvg := stats.Mean(second)
		if firstAvg <= 0 || math.IsNaN(firstAvg) || math.IsNaN(secondAvg) {
			continue
		}
		trends[tc.label] = models.MetricTrend{
			FirstHalfAvg:  round1(firstAvg),
			SecondHalfAvg: round1(secondAvg),
			ChangePct:     round1((secondAvg - firstAvg) / firstAvg * 100),
		}
	}
	return trends
}

func classifyTrends(trends map[string]models.MetricTrend) (string, string) {
	recovery := trends["recovery"].ChangePct
	hrv := trends["hrv"].ChangePct
	strain := trends["strain"].ChangePct

	if recovery < -5 && hrv < -5 {
		return models.SegmentRecovering, fmt.Sprintf(
			"Recovery trending %.0f%% and HRV trending %.0f%%. Your body needs more rest.",
			recovery, hrv)
	}
	if (recovery > 5 || hrv > 5) && strain >= 0 {
		return models.SegmentBuilding, fmt.Sprintf(
			"Recovery trending %+.0f%% and HRV %+.0f%% with strain %+.0f%%. You're adapting well.",
			recovery, hrv, strain)
	}
	if hrv < -10 {
		return models.SegmentRecovering, fmt.Sprintf(
			"HRV trending %.0f%%, an early sign of accumulated fatigue.", hrv)
	}
	return models.SegmentMaintaining, "Metrics are stable. Focus on consistency and marginal gains."
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package service

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis/engine"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

const maxDailyActions = 5

// DailyEngine assembles the personalised daily action card from the
// latest vitals, baselines, pre-computed factor rankings and optional
// environmental context.
type DailyEngine struct {
	recoveries *repository.RecoveryRepository
	sleeps     *repository.SleepRepository
	featureSvc *FeatureService
	results    *repository.AnalyticsResultRepository
	daysBack   int
}

func NewDailyEngine(
	recoveries *repository.RecoveryRepository,
	sleeps *repository.SleepRepository,
	featureSvc *FeatureService,
	results *repository.AnalyticsResultRepository,
	daysBack int,
) *DailyEngine {
	return &DailyEngine{
		recoveries: recoveries,
		sleeps:     sleeps,
		featureSvc: featureSvc,
		results:    results,
		daysBack:   daysBack,
	}
}

// baselines carries the trailing 7 and 28 day averages the action
// rules key off. Missing history leaves fields nil.
type baselines struct {
	Recovery7  *float64
	Recovery28 *float64
	HRV7       *float64
	HRV28      *float64
	SleepHrs7  *float64
	SleepHrs28 *float64
	SleepEff7  *float64
}

// sleepPatterns holds the historically optimal sleep targets derived
// from the user's best recovery days.
type sleepPatterns struct {
	OptimalHours      float64
	OptimalBedtime    int
	OptimalEfficiency float64
	LatestBedtime     string
}

func defaultSleepPatterns() sleepPatterns {
	return sleepPatterns{OptimalHours: 8.0, OptimalBedtime: 22, OptimalEfficiency: 85.0}
}

// GeneratePlan builds the complete daily action card. Context inputs
// are pre-fetched by their own clients and may be nil.
func (e *DailyEngine) GeneratePlan(
	weather *models.WeatherContext,
	transport []models.TransportLine,
	tide *models.TideContext,
) (*models.DailyPlanResponse, error) {
	latest, err := e.recoveries.Latest()
	if err != nil {
		return nil, err
	}
	base := e.computeBaselines()
	factors := e.topRecoveryDrivers()
	patterns := e.analyzeSleepPatterns()

	status := buildRecoveryStatus(latest, base, factors)
	actions := generateActions(status, base, factors, patterns, weather)
	target := buildSleepTarget(patterns)
	context := buildContext(weather, transport, tide)

	return &models.DailyPlanResponse{
		RecoveryStatus: status,
		Actions:        actions,
		SleepTarget:    target,
		Context:        context,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func (e *DailyEngine) computeBaselines() baselines {
	var b baselines

	r28, err := e.recoveries.List(28)
	if err != nil {
		log.Printf("baseline load failed: %v", err)
		return b
	}
	r7 := r28
	if len(r7) > 7 {
		r7 = r7[:7]
	}
	b.Recovery7 = meanPtr(r7, func(r *models.Recovery) *float64 { return r.RecoveryScore })
	b.Recovery28 = meanPtr(r28, func(r *models.Recovery) *float64 { return r.RecoveryScore })
	b.HRV7 = meanPtr(r7, func(r *models.Recovery) *float64 { return r.HRVRmssdMilli })
	b.HRV28 = meanPtr(r28, func(r *models.Recovery) *float64 { return r.HRVRmssdMilli })

	s28, err := e.sleeps.List(28)
	if err != nil {
		log.Printf("sleep baseline load failed: %v", err)
		return b
	}
	s7 := s28
	if len(s7) > 7 {
		s7 = s7[:7]
	}
	b.SleepHrs7 = meanSleepHours(s7)
	b.SleepHrs28 = meanSleepHours(s28)
	b.SleepEff7 = meanPtrSleep(s7, func(s *models.Sleep) *float64 { return s.SleepEfficiencyPercentage })
	return b
}

func meanPtr(recs []models.Recovery, get func(*models.Recovery) *float64) *float64 {
	var vals []float64
	for i := range recs {
		if v := get(&recs[i]); v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	m := stats.Mean(vals)
	return &m
}

func meanPtrSleep(sleeps []models.Sleep, get func(*models.Sleep) *float64) *float64 {
	var vals []float64
	for i := range sleeps {
		if v := get(&sleeps[i]); v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	m := stats.Mean(vals)
	return &m
}

func meanSleepHours(sleeps []models.Sleep) *float64 {
	var vals []float64
	for i := range sleeps {
		s := &sleeps[i]
		if s.TotalInBedTimeMilli == nil || s.TotalAwakeTimeMilli == nil {
			continue
		}
		vals = append(vals, float64(*s.TotalInBedTimeMilli-*s.TotalAwakeTimeMilli)/3_600_000)
	}
	if len(vals) == 0 {
		return nil
	}
	m := stats.Mean(vals)
	return &m
}

// topRecoveryDrivers reads the pre-computed factor importance payload;
// an empty slice means the pipeline has not run yet.
func (e *DailyEngine) topRecoveryDrivers() []engine.FactorRanking {
	stored, err := e.results.Get(models.ResultFactorImportance, e.daysBack)
	if err != nil || stored == nil {
		return nil
	}
	var result engine.FactorImportanceResult
	if err := json.Unmarshal([]byte(stored.ResultData), &result); err != nil {
		log.Printf("failed to parse factor importance payload: %v", err)
		return nil
	}
	if len(result.Rankings) > 3 {
		return result.Rankings[:3]
	}
	return result.Rankings
}

// analyzeSleepPatterns finds the sleep profile of the user's best
// recovery days (top quartile over 90 days).
func (e *DailyEngine) analyzeSleepPatterns() sleepPatterns {
	rows, err := e.featureSvc.BuildFeatures(90)
	if err != nil || len(rows) < 14 {
		return defaultSleepPatterns()
	}
	patterns := sleepPatternsFromRows(rows)

	latest, err := e.sleeps.List(1)
	if err == nil && len(latest) == 1 && latest[0].Start != nil {
		patterns.LatestBedtime = latest[0].Start.Format("15:04")
	}
	return patterns
}

func sleepPatternsFromRows(rows []features.FeatureRow) sleepPatterns {
	patterns := defaultSleepPatterns()

	sorted := append([]features.FeatureRow(nil), rows...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].RecoveryScore > sorted[b].RecoveryScore
	})
	quartile := sorted[:len(sorted)/4]
	if len(quartile) == 0 {
		return patterns
	}

	if hours := features.CleanColumn(quartile, features.ColSleepHours); len(hours) > 0 {
		patterns.OptimalHours = round1(stats.Median(hours))
	}
	if eff := features.CleanColumn(quartile, features.ColSleepEfficiency); len(eff) > 0 {
		patterns.OptimalEfficiency = round1(stats.Median(eff))
	}
	if bedtimes := features.CleanColumn(quartile, features.ColBedtimeHour); len(bedtimes) > 0 {
		patterns.OptimalBedtime = int(stats.Median(bedtimes))
	}
	return patterns
}

func buildRecoveryStatus(latest *models.Recovery, base baselines, factors []engine.FactorRanking) models.RecoveryStatus {
	if latest == nil {
		return models.RecoveryStatus{
			Score:     0,
			Category:  "red",
			KeyDriver: "No recovery data available",
		}
	}

	score := 0.0
	if latest.RecoveryScore != nil {
		score = *latest.RecoveryScore
	}

	status := models.RecoveryStatus{
		Score:            score,
		Category:         recoveryCategory(score),
		HRV:              latest.HRVRmssdMilli,
		RestingHeartRate: latest.RestingHeartRate,
		KeyDriver:        keyDriverText(factors),
	}

	// small deltas are noise, only surface a full point or more
	if base.Recovery28 != nil {
		diff := score - *base.Recovery28
		if math.Abs(diff) >= 1 {
			sign := ""
			if diff > 0 {
				sign = "+"
			}
			status.VsBaseline = fmt.Sprintf("%s%.0f%% vs your 28-day average", sign, diff)
		}
	}
	return status
}

func keyDriverText(factors []engine.FactorRanking) string {
	if len(factors) == 0 {
		return "Run the analytics pipeline to identify your recovery drivers"
	}
	top := factors[0]
	return fmt.Sprintf("%s is your top recovery driver (%.0f%% importance)",
		featureLabel(top.Feature), top.Importance)
}

// generateActions walks the rule waterfall (training, sleep, HRV,
// factor, weather) and caps the card at five entries.
func generateActions(
	status models.RecoveryStatus,
	base baselines,
	factors []engine.FactorRanking,
	patterns sleepPatterns,
	weather *models.WeatherContext,
) []models.DailyAction {
	var actions []models.DailyAction
	priority := 1

	if a := trainingAction(status, priority); a != nil {
		actions = append(actions, *a)
		priority++
	}
	if a := sleepAction(status, base, patterns, priority); a != nil {
		actions = append(actions, *a)
		priority++
	}
	if a := hrvAction(status, base, priority); a != nil {
		actions = append(actions, *a)
		priority++
	}
	if a := factorAction(factors, priority); a != nil {
		actions = append(actions, *a)
		priority++
	}
	if weather != nil {
		if a := weatherAction(weather, status, priority); a != nil {
			actions = append(actions, *a)
		}
	}

	if len(actions) == 0 {
		actions = append(actions, models.DailyAction{
			Action:    "Stay consistent with your routine",
			Reasoning: "Consistency is the foundation of good recovery patterns",
			Category:  "lifestyle",
			Priority:  1,
		})
	}
	if len(actions) > maxDailyActions {
		actions = actions[:maxDailyActions]
	}
	return actions
}

func trainingAction(status models.RecoveryStatus, priority int) *models.DailyAction {
	switch status.Category {
	case "green":
		return &models.DailyAction{
			Action:    "Push your training today — your body is ready",
			Reasoning: fmt.Sprintf("Recovery is %.0f%% (green). This is a high-capacity day.", status.Score),
			Category:  "training",
			Priority:  priority,
		}
	case "yellow":
		return &models.DailyAction{
			Action:    "Moderate training only — technique work or easy cardio",
			Reasoning: fmt.Sprintf("Recovery is %.0f%% (yellow). Save high-intensity sessions for green days.", status.Score),
			Category:  "training",
			Priority:  priority,
		}
	default:
		return &models.DailyAction{
			Action:    "Active recovery only — walk, stretch, or rest",
			Reasoning: fmt.Sprintf("Recovery is %.0f%% (red). Training hard today will dig a deeper hole.", status.Score),
			Category:  "recovery",
			Priority:  priority,
		}
	}
}

func sleepAction(status models.RecoveryStatus, base baselines, patterns sleepPatterns, priority int) *models.DailyAction {
	if base.SleepHrs7 != nil && *base.SleepHrs7 < patterns.OptimalHours-0.5 {
		deficit := patterns.OptimalHours - *base.SleepHrs7
		return &models.DailyAction{
			Action: fmt.Sprintf("Aim for %.0f+ hours sleep tonight", patterns.OptimalHours),
			Reasoning: fmt.Sprintf("You've averaged %.1fh this week — %.1fh below your optimal of %.1fh.",
				*base.SleepHrs7, deficit, patterns.OptimalHours),
			Category: "sleep",
			Priority: priority,
		}
	}
	if status.Category == "red" {
		return &models.DailyAction{
			Action:    "Prioritise an early bedtime tonight",
			Reasoning: "Your recovery needs a reset. Earlier sleep gives more deep and REM sleep.",
			Category:  "sleep",
			Priority:  priority,
		}
	}
	return nil
}

// hrvAction fires on asymmetric thresholds: 10% above or 15% below
// the 7-day average.
func hrvAction(status models.RecoveryStatus, base baselines, priority int) *models.DailyAction {
	if status.HRV == nil || base.HRV7 == nil || *base.HRV7 == 0 {
		return nil
	}
	diffPct := (*status.HRV - *base.HRV7) / *base.HRV7 * 100

	if diffPct > 10 {
		return &models.DailyAction{
			Action: "Your nervous system is primed — great day for a challenge",
			Reasoning: fmt.Sprintf("HRV is %.0fms, %.0f%% above your 7-day average. "+
				"Your autonomic nervous system is ready for stress.", *status.HRV, diffPct),
			Category: "training",
			Priority: priority,
		}
	}
	if diffPct < -15 {
		return &models.DailyAction{
			Action: "Take it easy — your body is signalling fatigue",
			Reasoning: fmt.Sprintf("HRV is %.0fms, %.0f%% below your 7-day average. "+
				"This typically means accumulated stress or under-recovery.", *status.HRV, -diffPct),
			Category: "recovery",
			Priority: priority,
		}
	}
	return nil
}

func factorAction(factors []engine.FactorRanking, priority int) *models.DailyAction {
	if len(factors) == 0 {
		return nil
	}
	top := factors[0]
	label := featureLabel(top.Feature)
	lever := "keep it high"
	if top.Direction == "negative" {
		lever = "keep it low"
	}
	return &models.DailyAction{
		Action: fmt.Sprintf("Focus on %s today — %s", strings.ToLower(label), lever),
		Reasoning: fmt.Sprintf("%s is your biggest recovery lever (%.0f%% importance). "+
			"Moving it has the most impact.", label, top.Importance),
		Category: "lifestyle",
		Priority: priority,
	}
}

// weatherAction applies the context rules in precedence order: poor
// air quality first, then rain, then good weather.
func weatherAction(weather *models.WeatherContext, status models.RecoveryStatus, priority int) *models.DailyAction {
	conditions := strings.ToLower(weather.Current.Conditions)
	aqi := weather.AirQuality.AQI

	if aqi >= 4 {
		desc := weather.AirQuality.Description
		if desc == "" {
			desc = "poor"
		}
		return &models.DailyAction{
			Action: "Exercise indoors today — air quality is poor",
			Reasoning: fmt.Sprintf("AQI is %d (%s). Outdoor exercise with poor air quality undermines recovery.",
				aqi, desc),
			Category: "lifestyle",
			Priority: priority,
		}
	}

	rainy := strings.Contains(conditions, "rain") ||
		strings.Contains(conditions, "drizzle") ||
		strings.Contains(conditions, "thunderstorm")
	if rainy && status.Category == "green" {
		return &models.DailyAction{
			Action: "Indoor high-intensity session — rain outside",
			Reasoning: fmt.Sprintf("Weather is %s but you're green. "+
				"Gym, indoor cycling, or bodyweight work are good options.", conditions),
			Category: "training",
			Priority: priority,
		}
	}

	if weather.Current.Temp != nil && *weather.Current.Temp >= 10 && !rainy && status.Category == "green" {
		return &models.DailyAction{
			Action:    fmt.Sprintf("Take your workout outdoors — %.0f°C and %s", *weather.Current.Temp, conditions),
			Reasoning: "Good weather combined with green recovery is ideal for outdoor training.",
			Category:  "lifestyle",
			Priority:  priority,
		}
	}
	return nil
}

func buildSleepTarget(patterns sleepPatterns) models.SleepTarget {
	bedtime := fmt.Sprintf("%02d:00", patterns.OptimalBedtime)
	if patterns.OptimalBedtime >= 20 {
		bedtime = fmt.Sprintf("%02d:30", patterns.OptimalBedtime)
	}

	reasoning := fmt.Sprintf("Your best recoveries come with %.1f+ hours of sleep", patterns.OptimalHours)
	if patterns.OptimalEfficiency > 80 {
		reasoning += fmt.Sprintf(" at %.0f%%+ efficiency", patterns.OptimalEfficiency)
	}

	return models.SleepTarget{
		TargetBedtime: bedtime,
		TargetHours:   patterns.OptimalHours,
		Reasoning:     reasoning + ".",
	}
}

func buildContext(weather *models.WeatherContext, transport []models.TransportLine, tide *models.TideContext) models.ContextSummary {
	var summary models.ContextSummary

	if weather != nil {
		var parts []string
		if weather.Current.Temp != nil {
			parts = append(parts, fmt.Sprintf("%.0f°C", *weather.Current.Temp))
		}
		if weather.Current.Conditions != "" {
			parts = append(parts, weather.Current.Conditions)
		}
		if weather.ForecastToday != "" {
			parts = append(parts, weather.ForecastToday)
		}
		summary.Weather = strings.Join(parts, ", ")

		if weather.AirQuality.AQI > 0 {
			summary.AirQuality = fmt.Sprintf("%s (AQI %d)",
				weather.AirQuality.Description, weather.AirQuality.AQI)
		}
	}

	if len(transport) > 0 {
		var issues []string
		for _, line := range transport {
			if !strings.EqualFold(line.Status, "good service") {
				issues = append(issues, fmt.Sprintf("%s: %s", line.Name, line.Status))
			}
		}
		if len(issues) > 0 {
			summary.Transport = strings.Join(issues, "; ")
		} else {
			summary.Transport = "All lines running normally"
		}
	}

	if tide != nil && weather != nil &&
		weather.Current.Sunrise != "" && weather.Current.Sunset != "" {
		summary.OutdoorWindow = fmt.Sprintf("Daylight: %s - %s",
			weather.Current.Sunrise, weather.Current.Sunset)
	}
	return summary
}

// featureLabel turns a column name into display text.
func featureLabel(col string) string {
	labels := map[string]string{
		features.ColHRV:                "HRV",
		features.ColRestingHeartRate:   "Resting heart rate",
		features.ColSleepHours:         "Sleep duration",
		features.ColSleepEfficiency:    "Sleep efficiency",
		features.ColRemSleepHours:      "REM sleep",
		features.ColSlowWaveSleepHours: "Deep sleep",
		features.ColStrain:             "Day strain",
		features.ColSleepQualityScore:  "Sleep quality",
	}
	if l, ok := labels[col]; ok {
		return l
	}
	return strings.ReplaceAll(col, "_", " ")
}

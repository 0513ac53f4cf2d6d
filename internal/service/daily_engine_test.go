package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ald0405/whoop-backend-go/internal/analysis/engine"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
)

func f64(v float64) *float64 { return &v }

func greenStatus() models.RecoveryStatus {
	return models.RecoveryStatus{Score: 75, Category: "green", HRV: f64(85)}
}

func testFactors() []engine.FactorRanking {
	return []engine.FactorRanking{
		{Feature: features.ColSlowWaveSleepHours, Importance: 32, Direction: "positive"},
		{Feature: features.ColStrain, Importance: 20, Direction: "negative"},
	}
}

func TestGenerateActionsCapAndOrdering(t *testing.T) {
	base := baselines{
		SleepHrs7: f64(6.0), // 2h under the 8h optimal, fires sleep rule
		HRV7:      f64(70),  // latest 85 is +21%, fires hrv rule
	}
	weather := &models.WeatherContext{
		Current:    models.WeatherCurrent{Temp: f64(18), Conditions: "Clear"},
		AirQuality: models.WeatherAirQuality{AQI: 1},
	}
	actions := generateActions(greenStatus(), base, testFactors(), defaultSleepPatterns(), weather)

	require.Len(t, actions, maxDailyActions)
	for i, a := range actions {
		assert.Equal(t, i+1, a.Priority)
		assert.NotEmpty(t, a.Action)
		assert.NotEmpty(t, a.Reasoning)
	}
	// waterfall order: training, sleep, hrv, factor, weather
	assert.Equal(t, "training", actions[0].Category)
	assert.Equal(t, "sleep", actions[1].Category)
	assert.Equal(t, "training", actions[2].Category)
	assert.Equal(t, "lifestyle", actions[3].Category)
	assert.Contains(t, actions[4].Action, "outdoors")
}

func TestGenerateActionsFallbackNeverEmpty(t *testing.T) {
	status := models.RecoveryStatus{Score: 50, Category: "yellow"}
	actions := generateActions(status, baselines{}, nil, defaultSleepPatterns(), nil)
	require.NotEmpty(t, actions)
	// yellow always yields at least the training action
	assert.Equal(t, "training", actions[0].Category)
	assert.Equal(t, 1, actions[0].Priority)
}

func TestTrainingActionByCategory(t *testing.T) {
	red := trainingAction(models.RecoveryStatus{Score: 20, Category: "red"}, 1)
	require.NotNil(t, red)
	assert.Equal(t, "recovery", red.Category)
	assert.Contains(t, red.Action, "Active recovery")

	green := trainingAction(models.RecoveryStatus{Score: 80, Category: "green"}, 1)
	require.NotNil(t, green)
	assert.Contains(t, green.Action, "Push your training")
}

func TestHRVActionAsymmetricThresholds(t *testing.T) {
	base := baselines{HRV7: f64(70)}

	high := hrvAction(models.RecoveryStatus{HRV: f64(78)}, base, 1) // +11.4%
	require.NotNil(t, high)
	assert.Equal(t, "training", high.Category)

	none := hrvAction(models.RecoveryStatus{HRV: f64(63)}, base, 1) // -10%, inside band
	assert.Nil(t, none)

	low := hrvAction(models.RecoveryStatus{HRV: f64(59)}, base, 1) // -15.7%
	require.NotNil(t, low)
	assert.Equal(t, "recovery", low.Category)

	assert.Nil(t, hrvAction(models.RecoveryStatus{}, base, 1))
}

func TestSleepActionHalfHourThreshold(t *testing.T) {
	patterns := defaultSleepPatterns() // optimal 8.0

	fires := sleepAction(greenStatus(), baselines{SleepHrs7: f64(7.4)}, patterns, 2)
	require.NotNil(t, fires)
	assert.Equal(t, "sleep", fires.Category)
	assert.Contains(t, fires.Reasoning, "7.4h")

	quiet := sleepAction(greenStatus(), baselines{SleepHrs7: f64(7.6)}, patterns, 2)
	assert.Nil(t, quiet)

	redReset := sleepAction(models.RecoveryStatus{Category: "red"}, baselines{}, patterns, 2)
	require.NotNil(t, redReset)
	assert.Contains(t, redReset.Action, "early bedtime")
}

func TestWeatherActionPrecedence(t *testing.T) {
	status := greenStatus()

	smog := &models.WeatherContext{
		Current:    models.WeatherCurrent{Temp: f64(20), Conditions: "Rain"},
		AirQuality: models.WeatherAirQuality{AQI: 4, Description: "poor"},
	}
	a := weatherAction(smog, status, 1)
	require.NotNil(t, a)
	assert.Contains(t, a.Action, "indoors")

	rain := &models.WeatherContext{
		Current:    models.WeatherCurrent{Temp: f64(20), Conditions: "Light rain"},
		AirQuality: models.WeatherAirQuality{AQI: 2},
	}
	a = weatherAction(rain, status, 1)
	require.NotNil(t, a)
	assert.Contains(t, a.Action, "Indoor high-intensity")

	clear := &models.WeatherContext{
		Current:    models.WeatherCurrent{Temp: f64(15), Conditions: "Sunny"},
		AirQuality: models.WeatherAirQuality{AQI: 1},
	}
	a = weatherAction(clear, status, 1)
	require.NotNil(t, a)
	assert.Contains(t, a.Action, "outdoors")

	cold := &models.WeatherContext{
		Current:    models.WeatherCurrent{Temp: f64(4), Conditions: "Sunny"},
		AirQuality: models.WeatherAirQuality{AQI: 1},
	}
	assert.Nil(t, weatherAction(cold, status, 1))

	// rain on a red day yields nothing
	red := models.RecoveryStatus{Score: 20, Category: "red"}
	assert.Nil(t, weatherAction(rain, red, 1))
}

func TestBuildRecoveryStatusBaselineDelta(t *testing.T) {
	latest := &models.Recovery{RecoveryScore: f64(72), HRVRmssdMilli: f64(80)}

	status := buildRecoveryStatus(latest, baselines{Recovery28: f64(65)}, testFactors())
	assert.Equal(t, "green", status.Category)
	assert.Equal(t, "+7% vs your 28-day average", status.VsBaseline)
	assert.Contains(t, status.KeyDriver, "Deep sleep")

	// sub-point deltas are suppressed
	status = buildRecoveryStatus(latest, baselines{Recovery28: f64(71.5)}, nil)
	assert.Empty(t, status.VsBaseline)

	missing := buildRecoveryStatus(nil, baselines{}, nil)
	assert.Equal(t, "red", missing.Category)
	assert.Equal(t, 0.0, missing.Score)
}

func TestBuildSleepTargetBedtimeFormat(t *testing.T) {
	late := buildSleepTarget(sleepPatterns{OptimalHours: 7.8, OptimalBedtime: 22, OptimalEfficiency: 90})
	assert.Equal(t, "22:30", late.TargetBedtime)
	assert.Equal(t, 7.8, late.TargetHours)
	assert.Contains(t, late.Reasoning, "90%+")

	early := buildSleepTarget(sleepPatterns{OptimalHours: 8, OptimalBedtime: 19, OptimalEfficiency: 75})
	assert.Equal(t, "19:00", early.TargetBedtime)
	assert.NotContains(t, early.Reasoning, "efficiency")
}

func TestBuildContextSummaries(t *testing.T) {
	weather := &models.WeatherContext{
		Current: models.WeatherCurrent{
			Temp: f64(16), Conditions: "Partly cloudy",
			Sunrise: "06:12", Sunset: "20:05",
		},
		AirQuality:    models.WeatherAirQuality{AQI: 2, Description: "fair"},
		ForecastToday: "dry all day",
	}
	transport := []models.TransportLine{
		{Name: "Northern", Status: "Good Service"},
		{Name: "Central", Status: "Minor Delays"},
	}
	tide := &models.TideContext{NextHighTide: "14:20"}

	ctx := buildContext(weather, transport, tide)
	assert.Equal(t, "16°C, Partly cloudy, dry all day", ctx.Weather)
	assert.Equal(t, "fair (AQI 2)", ctx.AirQuality)
	assert.Equal(t, "Central: Minor Delays", ctx.Transport)
	assert.Equal(t, "Daylight: 06:12 - 20:05", ctx.OutdoorWindow)

	allGood := buildContext(nil, []models.TransportLine{{Name: "Victoria", Status: "good service"}}, nil)
	assert.Equal(t, "All lines running normally", allGood.Transport)
	assert.Empty(t, allGood.Weather)
}

func TestSleepPatternsFromTopQuartile(t *testing.T) {
	rows := make([]features.FeatureRow, 40)
	for i := range rows {
		r := &rows[i]
		*r = features.EmptyRow()
		r.RecoveryScore = float64(30 + i) // top quartile is the last 10
		r.SleepHours = 6
		r.SleepEfficiencyPercentage = 84
		r.BedtimeHour = 23.8
		if i >= 30 {
			r.SleepHours = 8.2
			r.SleepEfficiencyPercentage = 93
			r.BedtimeHour = 22.4
		}
	}
	patterns := sleepPatternsFromRows(rows)
	assert.Equal(t, 8.2, patterns.OptimalHours)
	assert.Equal(t, 93.0, patterns.OptimalEfficiency)
	assert.Equal(t, 22, patterns.OptimalBedtime)
}

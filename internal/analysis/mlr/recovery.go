package mlr

import (
	"math"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

const minObservations = 10

// RecoveryFeatureCols are the fixed predictors for the recovery driver
// model.
var RecoveryFeatureCols = []string{
	features.ColDeepSleepHrs,
	features.ColRemSleepHrs,
	features.ColHRV,
	features.ColMaxHeartRate,
	features.ColStrain,
	features.ColHadWorkout,
}

// HRVCoreFeatures always enter the HRV driver model.
var HRVCoreFeatures = []string{
	features.ColDeepSleepHrs,
	features.ColRemSleepHrs,
	features.ColTotalSleepHrs,
	features.ColSleepEfficiency,
	features.ColRestingHeartRate,
	features.ColRespiratoryRate,
	features.ColWorkoutStrain,
	features.ColDayStrain,
}

// HRVOptionalFeatures join the HRV model only when enough rows carry
// them. Wearable firmware gates these metrics, so coverage varies.
var HRVOptionalFeatures = []string{
	features.ColSpO2,
	features.ColSkinTemp,
	features.ColDisturbanceCount,
}

// Driver is one predictor's contribution, sorted by effect size.
type Driver struct {
	Feature            string  `json:"feature"`
	Coefficient        float64 `json:"coefficient"`
	StdErr             float64 `json:"std_err"`
	TStat              float64 `json:"t_stat"`
	PValue             float64 `json:"p_value"`
	CILower            float64 `json:"ci_lower"`
	CIUpper            float64 `json:"ci_upper"`
	PartialCorrelation float64 `json:"partial_correlation"`
	Significant        bool    `json:"significant"`
}

// DriverReport is a serialization-safe regression summary.
type DriverReport struct {
	Target       string    `json:"target"`
	NObs         int       `json:"n_observations"`
	RSquared     float64   `json:"r_squared"`
	AdjRSquared  float64   `json:"adj_r_squared"`
	Drivers      []Driver  `json:"drivers"`
	FeaturesUsed []string  `json:"features_used"`
	ComputedAt   time.Time `json:"computed_at"`
}

// RecoveryDrivers fits recovery score on the fixed predictor set.
func RecoveryDrivers(rows []features.FeatureRow) (*DriverReport, error) {
	return fitDrivers(rows, features.ColRecoveryScore, RecoveryFeatureCols)
}

// HRVDrivers fits HRV on the core set plus any optional metric with
// at least minObservations non-missing values.
func HRVDrivers(rows []features.FeatureRow) (*DriverReport, error) {
	cols := append([]string(nil), HRVCoreFeatures...)
	for _, opt := range HRVOptionalFeatures {
		if len(features.CleanColumn(rows, opt)) >= minObservations {
			cols = append(cols, opt)
		}
	}
	return fitDrivers(rows, features.ColHRV, cols)
}

func fitDrivers(rows []features.FeatureRow, target string, cols []string) (*DriverReport, error) {
	sel := append([]string{target}, cols...)
	x, _ := features.Matrix(rows, sel)
	if len(x) < minObservations {
		return nil, analysis.ErrInsufficientData(target+" regression", minObservations, len(x))
	}

	y := make([]float64, len(x))
	xOnly := make([][]float64, len(x))
	for i := range x {
		y[i] = x[i][0]
		xOnly[i] = x[i][1:]
	}

	fit := FitOLS(xOnly, y, cols, target)
	if fit == nil {
		return nil, analysis.ErrInsufficientData(target+" regression", minObservations, 0)
	}
	return reportFromFit(fit, cols), nil
}

func reportFromFit(fit *Fit, cols []string) *DriverReport {
	report := &DriverReport{
		Target:       fit.Target,
		NObs:         fit.NObs,
		RSquared:     stats.SanitizeFloat(fit.RSquared, 0),
		AdjRSquared:  stats.SanitizeFloat(fit.AdjRSquared, 0),
		FeaturesUsed: cols,
		ComputedAt:   time.Now().UTC(),
	}
	for _, c := range fit.Coefficients {
		report.Drivers = append(report.Drivers, Driver{
			Feature:            c.Name,
			Coefficient:        stats.SanitizeFloat(c.Value, 0),
			StdErr:             stats.SanitizeFloat(c.StdErr, 0),
			TStat:              stats.SanitizeFloat(c.TStat, 0),
			PValue:             stats.SanitizeFloat(c.PValue, 1),
			CILower:            stats.SanitizeFloat(c.CILower, 0),
			CIUpper:            stats.SanitizeFloat(c.CIUpper, 0),
			PartialCorrelation: stats.SanitizeFloat(c.PartialCorrelation, 0),
			Significant:        !math.IsNaN(c.PValue) && c.PValue < 0.05,
		})
	}
	sort.SliceStable(report.Drivers, func(a, b int) bool {
		return math.Abs(report.Drivers[a].Coefficient) > math.Abs(report.Drivers[b].Coefficient)
	})
	return report
}

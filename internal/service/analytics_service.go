package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ald0405/whoop-backend-go/internal/analysis/mlr"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/repository"
)

// ErrResultNotComputed means the requested analyzer payload has not
// been produced by the pipeline yet.
var ErrResultNotComputed = errors.New("result not computed yet, run the analytics pipeline first")

// AnalyticsService serves pre-computed analyzer payloads and runs the
// on-demand regression summaries.
type AnalyticsService struct {
	results    *repository.AnalyticsResultRepository
	featureSvc *FeatureService
	daysBack   int
}

func NewAnalyticsService(results *repository.AnalyticsResultRepository, featureSvc *FeatureService, daysBack int) *AnalyticsService {
	return &AnalyticsService{results: results, featureSvc: featureSvc, daysBack: daysBack}
}

// GetResult returns the stored payload for a result type as raw JSON.
func (s *AnalyticsService) GetResult(resultType string, daysBack int) (json.RawMessage, error) {
	if daysBack <= 0 {
		daysBack = s.daysBack
	}
	stored, err := s.results.Get(resultType, daysBack)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%s (%d days): %w", resultType, daysBack, ErrResultNotComputed)
	}
	return json.RawMessage(stored.ResultData), nil
}

// AvailableResults lists the result types currently stored.
func (s *AnalyticsService) AvailableResults(daysBack int) ([]string, error) {
	if daysBack <= 0 {
		daysBack = s.daysBack
	}
	return s.results.ListTypes(daysBack)
}

// RecoveryDrivers fits the recovery regression on demand.
func (s *AnalyticsService) RecoveryDrivers(daysBack int) (*mlr.DriverReport, error) {
	rows, err := s.featureSvc.BuildFeatures(windowOrDefault(daysBack, s.daysBack))
	if err != nil {
		return nil, err
	}
	return mlr.RecoveryDrivers(rows)
}

// HRVDrivers fits the HRV regression on demand.
func (s *AnalyticsService) HRVDrivers(daysBack int) (*mlr.DriverReport, error) {
	rows, err := s.featureSvc.BuildFeatures(windowOrDefault(daysBack, s.daysBack))
	if err != nil {
		return nil, err
	}
	return mlr.HRVDrivers(rows)
}

func windowOrDefault(daysBack, def int) int {
	if daysBack <= 0 {
		return def
	}
	return daysBack
}

// knownResultTypes guards the URL parameter on the results endpoint.
var knownResultTypes = map[string]bool{
	models.ResultFactorImportance:   true,
	models.ResultSleepQualityFactor: true,
	models.ResultRecoveryDeepDive:   true,
	models.ResultCorrelations:       true,
	models.ResultInsights:           true,
	models.ResultTrends:             true,
	models.ResultSummary:            true,
}

// KnownResultType reports whether the pipeline produces this type.
func KnownResultType(t string) bool {
	return knownResultTypes[t]
}

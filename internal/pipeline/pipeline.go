// Package pipeline orchestrates the batch analytics run: feature
// build, model training, analyzer computation and persistence.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/analysis/engine"
	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/internal/service"
)

// Pipeline runs the full analytics pass over one trailing window.
type Pipeline struct {
	featureSvc *service.FeatureService
	results    *repository.AnalyticsResultRepository
	modelsDir  string
}

func New(featureSvc *service.FeatureService, results *repository.AnalyticsResultRepository, modelsDir string) *Pipeline {
	return &Pipeline{featureSvc: featureSvc, results: results, modelsDir: modelsDir}
}

// Report summarizes one pipeline run.
type Report struct {
	DaysBack      int           `json:"days_back"`
	Rows          int           `json:"rows"`
	ModelsTrained []string      `json:"models_trained"`
	ResultsSaved  []string      `json:"results_saved"`
	Skipped       []string      `json:"skipped,omitempty"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
	StartedAt     time.Time     `json:"started_at"`
}

// Run executes the full pass. Analyzers short of data are skipped and
// reported instead of failing the run; storage errors abort.
func (p *Pipeline) Run(daysBack int) (*Report, error) {
	started := time.Now()
	report := &Report{DaysBack: daysBack, StartedAt: started.UTC()}

	rows, err := p.featureSvc.BuildFeatures(daysBack)
	if err != nil {
		return nil, fmt.Errorf("feature build: %w", err)
	}
	report.Rows = len(rows)
	log.Printf("pipeline: built %d feature rows over %d days", len(rows), daysBack)

	factorModel := p.trainModels(rows, report)
	if err := p.computeResults(rows, factorModel, daysBack, report); err != nil {
		return nil, err
	}

	report.Duration = time.Since(started)
	report.DurationMS = report.Duration.Milliseconds()
	log.Printf("pipeline: finished in %s (%d models, %d results, %d skipped)",
		report.Duration, len(report.ModelsTrained), len(report.ResultsSaved), len(report.Skipped))
	return report, nil
}

// trainModels fits and persists the three predictors. The factor model
// is returned for the importance analyzer. Insufficient data skips a
// model rather than failing the run.
func (p *Pipeline) trainModels(rows []features.FeatureRow, report *Report) *ml.Predictor {
	var factorModel *ml.Predictor

	train := func(name, file string, fit func() (*ml.Predictor, error)) *ml.Predictor {
		model, err := fit()
		if err != nil {
			p.skip(report, name, err)
			return nil
		}
		if err := ml.SaveModel(p.modelsDir, file, model); err != nil {
			log.Printf("pipeline: save %s failed: %v", name, err)
			p.skip(report, name, err)
			return nil
		}
		report.ModelsTrained = append(report.ModelsTrained, name)
		log.Printf("pipeline: trained %s (n=%d, test MAE %.2f, test R2 %.2f)",
			name, model.NTrain, model.TestMAE, model.TestR2)
		return model
	}

	train("recovery_predictor", ml.RecoveryModelFile, func() (*ml.Predictor, error) {
		return ml.TrainRecoveryPredictor(rows)
	})
	train("sleep_predictor", ml.SleepModelFile, func() (*ml.Predictor, error) {
		return ml.TrainSleepPredictor(rows)
	})
	factorModel = train("factor_analyzer", ml.FactorModelFile, func() (*ml.Predictor, error) {
		return ml.TrainFactorAnalyzer(rows)
	})
	return factorModel
}

func (p *Pipeline) computeResults(rows []features.FeatureRow, factorModel *ml.Predictor, daysBack int, report *Report) error {
	save := func(resultType string, compute func() (any, error)) error {
		payload, err := compute()
		if err != nil {
			p.skip(report, resultType, err)
			return nil
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", resultType, err)
		}
		if err := p.results.Save(resultType, string(data), daysBack); err != nil {
			return err
		}
		report.ResultsSaved = append(report.ResultsSaved, resultType)
		return nil
	}

	steps := []struct {
		resultType string
		compute    func() (any, error)
	}{
		{models.ResultFactorImportance, func() (any, error) {
			if factorModel == nil {
				return nil, analysis.ErrInsufficientData("factor importance", 50, len(rows))
			}
			return engine.FactorImportance(factorModel, rows)
		}},
		{models.ResultSleepQualityFactor, func() (any, error) { return engine.SleepQualityFactors(rows) }},
		{models.ResultRecoveryDeepDive, func() (any, error) { return engine.RecoveryDeepDive(rows) }},
		{models.ResultCorrelations, func() (any, error) { return engine.Correlations(rows) }},
		{models.ResultInsights, func() (any, error) { return engine.Insights(rows) }},
		{models.ResultTrends, func() (any, error) { return engine.Trends(rows) }},
		{models.ResultSummary, func() (any, error) { return engine.Summary(rows) }},
	}
	for _, step := range steps {
		if err := save(step.resultType, step.compute); err != nil {
			return err
		}
	}
	return nil
}

// skip records a step that could not run. Thin data is expected on
// fresh databases and logged at info level.
func (p *Pipeline) skip(report *Report, step string, err error) {
	var ie *analysis.InsufficientDataError
	if errors.As(err, &ie) {
		log.Printf("pipeline: skipping %s: %v", step, err)
	} else {
		log.Printf("pipeline: %s failed: %v", step, err)
	}
	report.Skipped = append(report.Skipped, step)
}

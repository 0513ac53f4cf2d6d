package main

import (
	"flag"
	"log"

	"github.com/ald0405/whoop-backend-go/internal/config"
	"github.com/ald0405/whoop-backend-go/internal/database"
	"github.com/ald0405/whoop-backend-go/internal/pipeline"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/internal/service"
)

func main() {
	cfg := config.Load()

	daysBack := flag.Int("days-back", cfg.DaysBack, "trailing window of history to analyze")
	flag.Parse()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	featureSvc := service.NewFeatureService(
		repository.NewRecoveryRepository(db),
		repository.NewSleepRepository(db),
		repository.NewCycleRepository(db),
		repository.NewWorkoutRepository(db),
	)
	results := repository.NewAnalyticsResultRepository(db)

	report, err := pipeline.New(featureSvc, results, cfg.ModelsDir).Run(*daysBack)
	if err != nil {
		log.Fatal("Pipeline failed:", err)
	}

	log.Printf("Pipeline finished in %v: %d rows, models %v, results %v",
		report.Duration, report.Rows, report.ModelsTrained, report.ResultsSaved)
	for _, s := range report.Skipped {
		log.Printf("Skipped: %s", s)
	}
}

package main

import (
	"log"

	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/api"
	"github.com/ald0405/whoop-backend-go/internal/config"
	"github.com/ald0405/whoop-backend-go/internal/database"
	"github.com/ald0405/whoop-backend-go/internal/handler"
	"github.com/ald0405/whoop-backend-go/internal/pipeline"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/internal/service"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	recoveries := repository.NewRecoveryRepository(db)
	sleeps := repository.NewSleepRepository(db)
	cycles := repository.NewCycleRepository(db)
	workouts := repository.NewWorkoutRepository(db)
	weights := repository.NewWeightRepository(db)
	results := repository.NewAnalyticsResultRepository(db)

	featureSvc := service.NewFeatureService(recoveries, sleeps, cycles, workouts)
	manager := ml.NewManager(cfg.ModelsDir)
	analyticsSvc := service.NewAnalyticsService(results, featureSvc, cfg.DaysBack)
	planner := service.NewScenarioPlanner(manager, recoveries)
	dailyEngine := service.NewDailyEngine(recoveries, sleeps, featureSvc, results, cfg.DaysBack)
	lifecycle := service.NewLifecycleDetector(featureSvc)
	pipe := pipeline.New(featureSvc, results, cfg.ModelsDir)

	router := api.SetupRouter(cfg, api.Handlers{
		Records:   handler.NewRecordsHandler(recoveries, sleeps, cycles, workouts, weights),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc),
		Scenarios: handler.NewScenarioHandler(planner),
		Daily:     handler.NewDailyHandler(dailyEngine),
		Lifecycle: handler.NewLifecycleHandler(lifecycle),
		Admin:     handler.NewAdminHandler(pipe, manager, cfg.JWTSecret, cfg.DaysBack),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/config"
	"github.com/ald0405/whoop-backend-go/internal/handler"
	"github.com/ald0405/whoop-backend-go/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Records   *handler.RecordsHandler
	Analytics *handler.AnalyticsHandler
	Scenarios *handler.ScenarioHandler
	Daily     *handler.DailyHandler
	Lifecycle *handler.LifecycleHandler
	Admin     *handler.AdminHandler
}

// SetupRouter wires middleware and routes.
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Whoop Analytics API is running",
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(120, time.Minute))
	{
		api.POST("/auth/token", h.Admin.IssueToken)

		recoveries := api.Group("/recoveries")
		{
			recoveries.GET("", h.Records.ListRecoveries)
			recoveries.GET("/latest", h.Records.LatestRecovery)
			recoveries.POST("", h.Records.UpsertRecovery)
		}

		sleeps := api.Group("/sleeps")
		{
			sleeps.GET("", h.Records.ListSleeps)
			sleeps.GET("/:id", h.Records.GetSleep)
			sleeps.POST("", h.Records.UpsertSleep)
		}

		cycles := api.Group("/cycles")
		{
			cycles.GET("", h.Records.ListCycles)
			cycles.POST("", h.Records.UpsertCycle)
		}

		workouts := api.Group("/workouts")
		{
			workouts.GET("", h.Records.ListWorkouts)
			workouts.POST("", h.Records.UpsertWorkout)
		}

		weights := api.Group("/weights")
		{
			weights.GET("", h.Records.ListWeights)
			weights.POST("", h.Records.CreateWeight)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/results", h.Analytics.ListResults)
			analytics.GET("/results/:type", h.Analytics.GetResult)
			analytics.GET("/drivers/recovery", h.Analytics.RecoveryDrivers)
			analytics.GET("/drivers/hrv", h.Analytics.HRVDrivers)
		}

		scenarios := api.Group("/scenarios")
		{
			scenarios.POST("/predict", h.Scenarios.Predict)
			scenarios.POST("/compare", h.Scenarios.Compare)
		}

		daily := api.Group("/daily")
		{
			daily.GET("/plan", h.Daily.GetPlan)
			daily.POST("/plan", h.Daily.PostPlan)
		}

		api.GET("/lifecycle/segment", h.Lifecycle.GetSegment)

		// pipeline runs retrain models, keep them behind auth and a
		// tight rate limit
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(cfg.JWTSecret))
		admin.Use(middleware.RateLimit(10, time.Minute))
		{
			admin.POST("/pipeline/run", h.Admin.RunPipeline)
			admin.GET("/models", h.Admin.ModelStatus)
			admin.POST("/models/reload", h.Admin.ReloadModels)
		}
	}

	return r
}

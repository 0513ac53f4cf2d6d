package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port       string
	DBPath     string
	ModelsDir  string
	JWTSecret  string
	DaysBack   int // default history window for analytics
	GinMode    string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/whoop.db"
	}

	modelsDir := os.Getenv("MODELS_DIR")
	if modelsDir == "" {
		modelsDir = "./models"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production"
	}

	daysBack := 365
	if v := os.Getenv("ANALYTICS_DAYS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			daysBack = n
		}
	}

	return &Config{
		Port:      port,
		DBPath:    dbPath,
		ModelsDir: modelsDir,
		JWTSecret: jwtSecret,
		DaysBack:  daysBack,
		GinMode:   os.Getenv("GIN_MODE"),
	}
}

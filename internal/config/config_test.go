package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("MODELS_DIR", "")
	t.Setenv("ANALYTICS_DAYS_BACK", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "./data/whoop.db", cfg.DBPath)
	assert.Equal(t, "./models", cfg.ModelsDir)
	assert.Equal(t, 365, cfg.DaysBack)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("ANALYTICS_DAYS_BACK", "90")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 90, cfg.DaysBack)
}

func TestLoadIgnoresInvalidDaysBack(t *testing.T) {
	t.Setenv("ANALYTICS_DAYS_BACK", "not-a-number")

	cfg := Load()
	assert.Equal(t, 365, cfg.DaysBack)
}

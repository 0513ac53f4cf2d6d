package database

import (
	"database/sql"
	"fmt"
)

// Table definitions. Recovery is the hub: it references both the cycle
// and the sleep that produced the score. Workouts reference cycles.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY,
		start TIMESTAMP,
		"end" TIMESTAMP,
		strain REAL,
		kilojoule REAL,
		average_heart_rate REAL,
		max_heart_rate REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS sleeps (
		id INTEGER PRIMARY KEY,
		start TIMESTAMP,
		"end" TIMESTAMP,
		nap INTEGER DEFAULT 0,
		total_in_bed_time_milli INTEGER,
		total_awake_time_milli INTEGER,
		total_no_data_time_milli INTEGER,
		total_rem_sleep_time_milli INTEGER,
		total_slow_wave_sleep_time_milli INTEGER,
		sleep_cycle_count INTEGER,
		disturbance_count INTEGER,
		sleep_need_baseline_milli INTEGER,
		sleep_need_from_debt_milli INTEGER,
		sleep_need_from_strain_milli INTEGER,
		sleep_efficiency_percentage REAL,
		sleep_consistency_percentage REAL,
		respiratory_rate REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS recoveries (
		id INTEGER PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		cycle_id INTEGER REFERENCES cycles(id),
		sleep_id INTEGER REFERENCES sleeps(id),
		recovery_score REAL,
		hrv_rmssd_milli REAL,
		resting_heart_rate REAL,
		spo2_percentage REAL,
		skin_temp_celsius REAL,
		user_calibrating INTEGER DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS workouts (
		id INTEGER PRIMARY KEY,
		cycle_id INTEGER REFERENCES cycles(id),
		sport_id INTEGER,
		start TIMESTAMP,
		"end" TIMESTAMP,
		strain REAL,
		kilojoule REAL,
		zone_zero_minutes REAL,
		zone_one_minutes REAL,
		zone_two_minutes REAL,
		zone_three_minutes REAL,
		zone_four_minutes REAL,
		zone_five_minutes REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS weights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		measured_at TIMESTAMP NOT NULL,
		weight_kg REAL,
		fat_ratio REAL,
		heart_rate REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS analytics_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_type TEXT NOT NULL,
		result_data TEXT NOT NULL,
		days_back INTEGER,
		computed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(result_type, days_back)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recoveries_created_at ON recoveries(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_workouts_cycle_id ON workouts(cycle_id)`,
	`CREATE INDEX IF NOT EXISTS idx_result_type ON analytics_results(result_type)`,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateSchema creates all tables on the given connection. Used by the
// pipeline CLI and by tests that run against their own database.
func CreateSchema(db *sql.DB) error {
	return createSchema(db)
}

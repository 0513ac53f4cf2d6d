package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
)

// WeightRepository handles database operations for body measurements
type WeightRepository struct {
	db *sql.DB
}

// NewWeightRepository creates a new weight repository
func NewWeightRepository(db *sql.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// Create stores one measurement.
func (r *WeightRepository) Create(w *models.Weight) error {
	result, err := r.db.Exec(
		`INSERT INTO weights (measured_at, weight_kg, fat_ratio, heart_rate) VALUES (?, ?, ?, ?)`,
		w.MeasuredAt, w.WeightKg, w.FatRatio, w.HeartRate,
	)
	if err != nil {
		return fmt.Errorf("failed to create weight: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	w.ID = id
	return nil
}

// ListSince returns measurements after the cutoff, oldest first.
func (r *WeightRepository) ListSince(since time.Time) ([]models.Weight, error) {
	rows, err := r.db.Query(
		`SELECT id, measured_at, weight_kg, fat_ratio, heart_rate
		 FROM weights WHERE measured_at >= ? ORDER BY measured_at ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list weights: %w", err)
	}
	defer rows.Close()
	return scanWeights(rows)
}

// List returns the most recent measurements up to limit, newest first.
func (r *WeightRepository) List(limit int) ([]models.Weight, error) {
	rows, err := r.db.Query(
		`SELECT id, measured_at, weight_kg, fat_ratio, heart_rate
		 FROM weights ORDER BY measured_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weights: %w", err)
	}
	defer rows.Close()
	return scanWeights(rows)
}

func scanWeights(rows *sql.Rows) ([]models.Weight, error) {
	var out []models.Weight
	for rows.Next() {
		var w models.Weight
		if err := rows.Scan(&w.ID, &w.MeasuredAt, &w.WeightKg, &w.FatRatio, &w.HeartRate); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

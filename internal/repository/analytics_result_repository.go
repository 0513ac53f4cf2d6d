package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
)

// AnalyticsResultRepository handles persisted analyzer payloads
type AnalyticsResultRepository struct {
	db *sql.DB
}

// NewAnalyticsResultRepository creates a new analytics result repository
func NewAnalyticsResultRepository(db *sql.DB) *AnalyticsResultRepository {
	return &AnalyticsResultRepository{db: db}
}

// Save replaces the stored payload for (result_type, days_back).
func (r *AnalyticsResultRepository) Save(resultType, resultData string, daysBack int) error {
	query := `
		INSERT INTO analytics_results (result_type, result_data, days_back, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(result_type, days_back) DO UPDATE SET
			result_data = excluded.result_data,
			computed_at = excluded.computed_at
	`
	if _, err := r.db.Exec(query, resultType, resultData, daysBack, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save %s result: %w", resultType, err)
	}
	return nil
}

// Get returns the stored payload, or nil when the pipeline has not
// produced it yet.
func (r *AnalyticsResultRepository) Get(resultType string, daysBack int) (*models.AnalyticsResult, error) {
	var res models.AnalyticsResult
	err := r.db.QueryRow(
		`SELECT id, result_type, result_data, days_back, computed_at
		 FROM analytics_results WHERE result_type = ? AND days_back = ?`,
		resultType, daysBack,
	).Scan(&res.ID, &res.ResultType, &res.ResultData, &res.DaysBack, &res.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s result: %w", resultType, err)
	}
	return &res, nil
}

// ListTypes returns the distinct result types currently stored for the
// window.
func (r *AnalyticsResultRepository) ListTypes(daysBack int) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT result_type FROM analytics_results WHERE days_back = ? ORDER BY result_type`, daysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to list result types: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan result type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
)

// CycleRepository handles database operations for physiological cycles
type CycleRepository struct {
	db *sql.DB
}

// NewCycleRepository creates a new cycle repository
func NewCycleRepository(db *sql.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

const cycleColumns = `id, start, "end", strain, kilojoule, average_heart_rate, max_heart_rate`

// Upsert inserts or replaces a cycle keyed by its device id.
func (r *CycleRepository) Upsert(c *models.Cycle) error {
	query := `
		INSERT INTO cycles (id, start, "end", strain, kilojoule, average_heart_rate, max_heart_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start = excluded.start,
			"end" = excluded."end",
			strain = excluded.strain,
			kilojoule = excluded.kilojoule,
			average_heart_rate = excluded.average_heart_rate,
			max_heart_rate = excluded.max_heart_rate
	`
	_, err := r.db.Exec(query, c.ID, c.Start, c.End, c.Strain, c.Kilojoule, c.AverageHeartRate, c.MaxHeartRate)
	if err != nil {
		return fmt.Errorf("failed to upsert cycle %d: %w", c.ID, err)
	}
	return nil
}

// ListSince returns cycles starting after the cutoff.
func (r *CycleRepository) ListSince(since time.Time) ([]models.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles WHERE start IS NULL OR start >= ? ORDER BY start ASC`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()
	return scanCycles(rows)
}

// List returns the most recent cycles up to limit, newest first.
func (r *CycleRepository) List(limit int) ([]models.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM cycles ORDER BY start DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()
	return scanCycles(rows)
}

func scanCycles(rows *sql.Rows) ([]models.Cycle, error) {
	var out []models.Cycle
	for rows.Next() {
		var c models.Cycle
		if err := rows.Scan(&c.ID, &c.Start, &c.End, &c.Strain, &c.Kilojoule,
			&c.AverageHeartRate, &c.MaxHeartRate); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
)

// RecoveryRepository handles database operations for recovery records
type RecoveryRepository struct {
	db *sql.DB
}

// NewRecoveryRepository creates a new recovery repository
func NewRecoveryRepository(db *sql.DB) *RecoveryRepository {
	return &RecoveryRepository{db: db}
}

const recoveryColumns = `id, created_at, cycle_id, sleep_id, recovery_score,
	hrv_rmssd_milli, resting_heart_rate, spo2_percentage, skin_temp_celsius, user_calibrating`

// Upsert inserts or replaces a recovery keyed by its device id.
func (r *RecoveryRepository) Upsert(rec *models.Recovery) error {
	query := `
		INSERT INTO recoveries (
			id, created_at, cycle_id, sleep_id, recovery_score,
			hrv_rmssd_milli, resting_heart_rate, spo2_percentage,
			skin_temp_celsius, user_calibrating
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			cycle_id = excluded.cycle_id,
			sleep_id = excluded.sleep_id,
			recovery_score = excluded.recovery_score,
			hrv_rmssd_milli = excluded.hrv_rmssd_milli,
			resting_heart_rate = excluded.resting_heart_rate,
			spo2_percentage = excluded.spo2_percentage,
			skin_temp_celsius = excluded.skin_temp_celsius,
			user_calibrating = excluded.user_calibrating
	`
	_, err := r.db.Exec(query,
		rec.ID, rec.CreatedAt, rec.CycleID, rec.SleepID, rec.RecoveryScore,
		rec.HRVRmssdMilli, rec.RestingHeartRate, rec.SpO2Percentage,
		rec.SkinTempCelsius, rec.UserCalibrating,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert recovery %d: %w", rec.ID, err)
	}
	return nil
}

// ListSince returns recoveries created after the cutoff, oldest first.
func (r *RecoveryRepository) ListSince(since time.Time) ([]models.Recovery, error) {
	query := `SELECT ` + recoveryColumns + `
		FROM recoveries WHERE created_at >= ? ORDER BY created_at ASC`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recoveries: %w", err)
	}
	defer rows.Close()
	return scanRecoveries(rows)
}

// Latest returns the most recent recovery, or nil when the table is
// empty.
func (r *RecoveryRepository) Latest() (*models.Recovery, error) {
	query := `SELECT ` + recoveryColumns + `
		FROM recoveries ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRow(query)
	rec, err := scanRecovery(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest recovery: %w", err)
	}
	return rec, nil
}

// List returns the most recent recoveries up to limit, newest first.
func (r *RecoveryRepository) List(limit int) ([]models.Recovery, error) {
	query := `SELECT ` + recoveryColumns + `
		FROM recoveries ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recoveries: %w", err)
	}
	defer rows.Close()
	return scanRecoveries(rows)
}

// Count returns the number of stored recoveries.
func (r *RecoveryRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM recoveries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recoveries: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecovery(row rowScanner) (*models.Recovery, error) {
	var rec models.Recovery
	err := row.Scan(
		&rec.ID, &rec.CreatedAt, &rec.CycleID, &rec.SleepID, &rec.RecoveryScore,
		&rec.HRVRmssdMilli, &rec.RestingHeartRate, &rec.SpO2Percentage,
		&rec.SkinTempCelsius, &rec.UserCalibrating,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecoveries(rows *sql.Rows) ([]models.Recovery, error) {
	var out []models.Recovery
	for rows.Next() {
		rec, err := scanRecovery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recovery: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

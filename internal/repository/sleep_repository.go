package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
)

// SleepRepository handles database operations for sleep records
type SleepRepository struct {
	db *sql.DB
}

// NewSleepRepository creates a new sleep repository
func NewSleepRepository(db *sql.DB) *SleepRepository {
	return &SleepRepository{db: db}
}

const sleepColumns = `id, start, "end", nap, total_in_bed_time_milli,
	total_awake_time_milli, total_no_data_time_milli, total_rem_sleep_time_milli,
	total_slow_wave_sleep_time_milli, sleep_cycle_count, disturbance_count,
	sleep_need_baseline_milli, sleep_need_from_debt_milli, sleep_need_from_strain_milli,
	sleep_efficiency_percentage, sleep_consistency_percentage, respiratory_rate`

// Upsert inserts or replaces a sleep keyed by its device id.
func (r *SleepRepository) Upsert(s *models.Sleep) error {
	query := `
		INSERT INTO sleeps (
			id, start, "end", nap, total_in_bed_time_milli,
			total_awake_time_milli, total_no_data_time_milli,
			total_rem_sleep_time_milli, total_slow_wave_sleep_time_milli,
			sleep_cycle_count, disturbance_count, sleep_need_baseline_milli,
			sleep_need_from_debt_milli, sleep_need_from_strain_milli,
			sleep_efficiency_percentage, sleep_consistency_percentage,
			respiratory_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start = excluded.start,
			"end" = excluded."end",
			nap = excluded.nap,
			total_in_bed_time_milli = excluded.total_in_bed_time_milli,
			total_awake_time_milli = excluded.total_awake_time_milli,
			total_no_data_time_milli = excluded.total_no_data_time_milli,
			total_rem_sleep_time_milli = excluded.total_rem_sleep_time_milli,
			total_slow_wave_sleep_time_milli = excluded.total_slow_wave_sleep_time_milli,
			sleep_cycle_count = excluded.sleep_cycle_count,
			disturbance_count = excluded.disturbance_count,
			sleep_need_baseline_milli = excluded.sleep_need_baseline_milli,
			sleep_need_from_debt_milli = excluded.sleep_need_from_debt_milli,
			sleep_need_from_strain_milli = excluded.sleep_need_from_strain_milli,
			sleep_efficiency_percentage = excluded.sleep_efficiency_percentage,
			sleep_consistency_percentage = excluded.sleep_consistency_percentage,
			respiratory_rate = excluded.respiratory_rate
	`
	_, err := r.db.Exec(query,
		s.ID, s.Start, s.End, s.Nap, s.TotalInBedTimeMilli,
		s.TotalAwakeTimeMilli, s.TotalNoDataTimeMilli,
		s.TotalRemSleepTimeMilli, s.TotalSlowWaveSleepTimeMilli,
		s.SleepCycleCount, s.DisturbanceCount, s.SleepNeedBaselineMilli,
		s.SleepNeedFromDebtMilli, s.SleepNeedFromStrainMilli,
		s.SleepEfficiencyPercentage, s.SleepConsistencyPercentage,
		s.RespiratoryRate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sleep %d: %w", s.ID, err)
	}
	return nil
}

// ListSince returns non-nap sleeps starting after the cutoff.
func (r *SleepRepository) ListSince(since time.Time) ([]models.Sleep, error) {
	query := `SELECT ` + sleepColumns + `
		FROM sleeps WHERE nap = 0 AND (start IS NULL OR start >= ?) ORDER BY start ASC`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sleeps: %w", err)
	}
	defer rows.Close()
	return scanSleeps(rows)
}

// List returns the most recent sleeps up to limit, newest first.
func (r *SleepRepository) List(limit int) ([]models.Sleep, error) {
	query := `SELECT ` + sleepColumns + `
		FROM sleeps ORDER BY start DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sleeps: %w", err)
	}
	defer rows.Close()
	return scanSleeps(rows)
}

// GetByID returns one sleep, or nil when absent.
func (r *SleepRepository) GetByID(id int64) (*models.Sleep, error) {
	query := `SELECT ` + sleepColumns + ` FROM sleeps WHERE id = ?`
	s, err := scanSleep(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sleep %d: %w", id, err)
	}
	return s, nil
}

func scanSleep(row rowScanner) (*models.Sleep, error) {
	var s models.Sleep
	err := row.Scan(
		&s.ID, &s.Start, &s.End, &s.Nap, &s.TotalInBedTimeMilli,
		&s.TotalAwakeTimeMilli, &s.TotalNoDataTimeMilli,
		&s.TotalRemSleepTimeMilli, &s.TotalSlowWaveSleepTimeMilli,
		&s.SleepCycleCount, &s.DisturbanceCount, &s.SleepNeedBaselineMilli,
		&s.SleepNeedFromDebtMilli, &s.SleepNeedFromStrainMilli,
		&s.SleepEfficiencyPercentage, &s.SleepConsistencyPercentage,
		&s.RespiratoryRate,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSleeps(rows *sql.Rows) ([]models.Sleep, error) {
	var out []models.Sleep
	for rows.Next() {
		s, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sleep: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
)

// WorkoutRepository handles database operations for workouts
type WorkoutRepository struct {
	db *sql.DB
}

// NewWorkoutRepository creates a new workout repository
func NewWorkoutRepository(db *sql.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

const workoutColumns = `id, cycle_id, sport_id, start, "end", strain, kilojoule,
	zone_zero_minutes, zone_one_minutes, zone_two_minutes,
	zone_three_minutes, zone_four_minutes, zone_five_minutes`

// Upsert inserts or replaces a workout keyed by its device id.
func (r *WorkoutRepository) Upsert(w *models.Workout) error {
	query := `
		INSERT INTO workouts (
			id, cycle_id, sport_id, start, "end", strain, kilojoule,
			zone_zero_minutes, zone_one_minutes, zone_two_minutes,
			zone_three_minutes, zone_four_minutes, zone_five_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cycle_id = excluded.cycle_id,
			sport_id = excluded.sport_id,
			start = excluded.start,
			"end" = excluded."end",
			strain = excluded.strain,
			kilojoule = excluded.kilojoule,
			zone_zero_minutes = excluded.zone_zero_minutes,
			zone_one_minutes = excluded.zone_one_minutes,
			zone_two_minutes = excluded.zone_two_minutes,
			zone_three_minutes = excluded.zone_three_minutes,
			zone_four_minutes = excluded.zone_four_minutes,
			zone_five_minutes = excluded.zone_five_minutes
	`
	_, err := r.db.Exec(query,
		w.ID, w.CycleID, w.SportID, w.Start, w.End, w.Strain, w.Kilojoule,
		w.ZoneZeroMinutes, w.ZoneOneMinutes, w.ZoneTwoMinutes,
		w.ZoneThreeMinutes, w.ZoneFourMinutes, w.ZoneFiveMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert workout %d: %w", w.ID, err)
	}
	return nil
}

// ListSince returns workouts starting after the cutoff.
func (r *WorkoutRepository) ListSince(since time.Time) ([]models.Workout, error) {
	query := `SELECT ` + workoutColumns + `
		FROM workouts WHERE start IS NULL OR start >= ? ORDER BY start ASC`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

// List returns the most recent workouts up to limit, newest first.
func (r *WorkoutRepository) List(limit int) ([]models.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts ORDER BY start DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

func scanWorkouts(rows *sql.Rows) ([]models.Workout, error) {
	var out []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.CycleID, &w.SportID, &w.Start, &w.End,
			&w.Strain, &w.Kilojoule,
			&w.ZoneZeroMinutes, &w.ZoneOneMinutes, &w.ZoneTwoMinutes,
			&w.ZoneThreeMinutes, &w.ZoneFourMinutes, &w.ZoneFiveMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

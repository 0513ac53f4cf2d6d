package service

import (
	"fmt"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/features"
	"github.com/ald0405/whoop-backend-go/internal/repository"
)

// FeatureService loads raw records and assembles model-ready feature
// rows. Every analytics entry point goes through it.
type FeatureService struct {
	recoveries *repository.RecoveryRepository
	sleeps     *repository.SleepRepository
	cycles     *repository.CycleRepository
	workouts   *repository.WorkoutRepository
}

func NewFeatureService(
	recoveries *repository.RecoveryRepository,
	sleeps *repository.SleepRepository,
	cycles *repository.CycleRepository,
	workouts *repository.WorkoutRepository,
) *FeatureService {
	return &FeatureService{
		recoveries: recoveries,
		sleeps:     sleeps,
		cycles:     cycles,
		workouts:   workouts,
	}
}

// BuildFeatures joins the raw records of the trailing window into
// feature rows sorted by date.
func (s *FeatureService) BuildFeatures(daysBack int) ([]features.FeatureRow, error) {
	// widen the raw fetch so joined sleeps and cycles at the window
	// edge are present
	since := time.Now().UTC().AddDate(0, 0, -(daysBack + 2))

	recoveries, err := s.recoveries.ListSince(since)
	if err != nil {
		return nil, fmt.Errorf("load recoveries: %w", err)
	}
	sleeps, err := s.sleeps.ListSince(since)
	if err != nil {
		return nil, fmt.Errorf("load sleeps: %w", err)
	}
	cycles, err := s.cycles.ListSince(since)
	if err != nil {
		return nil, fmt.Errorf("load cycles: %w", err)
	}
	workouts, err := s.workouts.ListSince(since)
	if err != nil {
		return nil, fmt.Errorf("load workouts: %w", err)
	}

	return features.Build(features.BuildInput{
		Recoveries: recoveries,
		Sleeps:     sleeps,
		Cycles:     cycles,
		Workouts:   workouts,
	}), nil
}

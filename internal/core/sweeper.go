package core

import (
	"context"
	"time"

	"missionhub/internal/repository"
	"missionhub/pkg/logger"
	"missionhub/pkg/models"
	"missionhub/pkg/utils"
)

// SweeperService runs the maintenance passes over progress rows: purging
// stale uncompleted instances and resetting completed periodic missions
// at their boundaries. Both passes are idempotent; running them twice
// within the same period finds nothing left to delete.
type SweeperService interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	ResetPeriodic(ctx context.Context, now time.Time) (int64, error)
	RunAll(ctx context.Context, now time.Time) (*models.SweepResult, error)
}

type sweeperService struct {
	progressRepo repository.ProgressRepository
}

// NewSweeperService creates a new sweeper service
func NewSweeperService(progressRepo repository.ProgressRepository) SweeperService {
	return &sweeperService{progressRepo: progressRepo}
}

// PurgeExpired deletes every uncompleted instance past its expiration
func (s *sweeperService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.progressRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Sweeper("expired", count)
	}
	return count, nil
}

// ResetPeriodic deletes completed instances of periodic missions so they
// become available again. Daily resets run unconditionally (the schedule
// fires after local midnight); weekly only on the week boundary day and
// monthly only on the first of the month.
func (s *sweeperService) ResetPeriodic(ctx context.Context, now time.Time) (int64, error) {
	var total int64

	count, err := s.progressRepo.ResetCompletedByKind(ctx, models.MissionDaily)
	if err != nil {
		return total, err
	}
	total += count
	if count > 0 {
		logger.Sweeper(models.MissionDaily, count)
	}

	if now.Weekday() == time.Monday {
		count, err := s.progressRepo.ResetCompletedByKind(ctx, models.MissionWeekly)
		if err != nil {
			return total, err
		}
		total += count
		if count > 0 {
			logger.Sweeper(models.MissionWeekly, count)
		}
	}

	if now.Day() == 1 {
		count, err := s.progressRepo.ResetCompletedByKind(ctx, models.MissionMonthly)
		if err != nil {
			return total, err
		}
		total += count
		if count > 0 {
			logger.Sweeper(models.MissionMonthly, count)
		}
	}

	return total, nil
}

// RunAll runs both sweeps, reporting partial counts on failure
func (s *sweeperService) RunAll(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	result := &models.SweepResult{RanAt: now}

	var purgeErr, resetErr error
	result.ExpiredPurged, purgeErr = s.PurgeExpired(ctx, now)
	result.PeriodicReset, resetErr = s.ResetPeriodic(ctx, now)

	return result, utils.CombineErrors(purgeErr, resetErr)
}

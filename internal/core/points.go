package core

import (
	"context"
	"fmt"

	"missionhub/internal/repository"
	"missionhub/pkg/models"
)

// PointsService defines points ledger operations. Mission completion
// credits go through the progress repository's transaction; this service
// serves the other point flows (reward redemption, raffle entry,
// referrals) and the read surfaces.
type PointsService interface {
	GetLedger(ctx context.Context, userID string) (*models.LedgerView, error)
	Credit(ctx context.Context, userID string, points int) (*models.UserPointsLedger, error)
	Debit(ctx context.Context, userID string, points int) (*models.UserPointsLedger, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

type pointsService struct {
	ledgerRepo repository.LedgerRepository
}

// NewPointsService creates a new points service
func NewPointsService(ledgerRepo repository.LedgerRepository) PointsService {
	return &pointsService{ledgerRepo: ledgerRepo}
}

// GetLedger returns the profile-facing points summary
func (s *pointsService) GetLedger(ctx context.Context, userID string) (*models.LedgerView, error) {
	ledger, err := s.ledgerRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	return &models.LedgerView{
		UserID:        ledger.UserID,
		TotalPoints:   ledger.TotalPoints,
		CurrentLevel:  ledger.CurrentLevel,
		LevelProgress: ledger.LevelProgress,
		NextLevelAt:   models.NextLevelAt(ledger.TotalPoints),
	}, nil
}

// Credit awards points and recomputes the level
func (s *pointsService) Credit(ctx context.Context, userID string, points int) (*models.UserPointsLedger, error) {
	if points < 0 {
		return nil, fmt.Errorf("credit amount must not be negative: %w", models.ErrInvalidInput)
	}
	return s.ledgerRepo.AdjustPoints(ctx, userID, points)
}

// Debit spends points, guarded by a sufficient-balance check. The
// repository enforces the non-negative balance invariant as well, so a
// concurrent spend cannot push the balance below zero.
func (s *pointsService) Debit(ctx context.Context, userID string, points int) (*models.UserPointsLedger, error) {
	if points < 0 {
		return nil, fmt.Errorf("debit amount must not be negative: %w", models.ErrInvalidInput)
	}

	ledger, err := s.ledgerRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if ledger.TotalPoints < points {
		return nil, models.ErrInsufficientPoints
	}

	return s.ledgerRepo.AdjustPoints(ctx, userID, -points)
}

// Leaderboard returns the top users by total points
func (s *pointsService) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ledgerRepo.TopByPoints(ctx, limit)
}

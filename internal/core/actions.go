package core

import (
	"context"
	"fmt"

	"missionhub/internal/repository"
	"missionhub/pkg/models"
)

// ActionFeedService exposes the audit side of the action log
type ActionFeedService interface {
	GetUserFeed(ctx context.Context, userID string, limit, offset int) (*models.ActionFeedResponse, error)
}

type actionFeedService struct {
	actionRepo repository.ActionRepository
}

// NewActionFeedService creates a new action feed service
func NewActionFeedService(actionRepo repository.ActionRepository) ActionFeedService {
	return &actionFeedService{actionRepo: actionRepo}
}

// GetUserFeed retrieves a user's recent actions, newest first
func (s *actionFeedService) GetUserFeed(ctx context.Context, userID string, limit, offset int) (*models.ActionFeedResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	events, total, err := s.actionRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get action feed: %w", err)
	}

	return &models.ActionFeedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}, nil
}

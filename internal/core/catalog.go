package core

import (
	"context"
	"time"

	"missionhub/internal/repository"
	"missionhub/pkg/logger"
	"missionhub/pkg/models"
	"missionhub/pkg/utils"
)

// activeMissionsCacheKey holds the full active-catalog snapshot; trigger
// filtering happens in memory. One key keeps invalidation trivial.
const activeMissionsCacheKey = "missions:active"

// CatalogCache is the short-TTL read cache in front of the catalog.
// Satisfied by pkg/cache.Client; nil disables caching.
type CatalogCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// CatalogService defines mission catalog operations. Admin mutations
// validate before persistence and propagate errors to the caller;
// FindActive is the engine's read path.
type CatalogService interface {
	CreateMission(ctx context.Context, input *models.MissionInput) (*models.MissionDefinition, error)
	UpdateMission(ctx context.Context, id string, input *models.MissionInput) (*models.MissionDefinition, error)
	DeleteMission(ctx context.Context, id string) error
	GetMission(ctx context.Context, id string) (*models.MissionDefinition, error)
	ListMissions(ctx context.Context, limit, offset int) ([]*models.MissionDefinition, int, error)
	FindActive(ctx context.Context, actionType models.ActionType, at time.Time) ([]*models.MissionDefinition, error)
	ListActive(ctx context.Context, at time.Time) ([]*models.MissionDefinition, error)
}

type catalogService struct {
	missionRepo repository.MissionRepository
	cache       CatalogCache
}

// NewCatalogService creates a new mission catalog service
func NewCatalogService(missionRepo repository.MissionRepository, cache CatalogCache) CatalogService {
	return &catalogService{
		missionRepo: missionRepo,
		cache:       cache,
	}
}

// CreateMission validates and persists a new definition
func (s *catalogService) CreateMission(ctx context.Context, input *models.MissionInput) (*models.MissionDefinition, error) {
	mission := &models.MissionDefinition{
		ID:                utils.NewID(),
		Title:             input.Title,
		Description:       input.Description,
		RewardPoints:      input.RewardPoints,
		TriggerActionType: input.TriggerActionType,
		TargetCount:       input.TargetCount,
		MissionKind:       input.MissionKind,
		Icon:              input.Icon,
		Color:             input.Color,
		ActiveFrom:        time.Now(),
		ActiveUntil:       input.ActiveUntil,
		MinLevel:          input.MinLevel,
		MinPoints:         input.MinPoints,
		PremiumOnly:       input.PremiumOnly,
		UsageLimit:        input.UsageLimit,
		IsActive:          true,
	}
	if input.ActiveFrom != nil {
		mission.ActiveFrom = *input.ActiveFrom
	}
	if input.IsActive != nil {
		mission.IsActive = *input.IsActive
	}
	if mission.MinLevel == "" {
		mission.MinLevel = models.LevelBronze
	}

	if err := validateMission(mission); err != nil {
		return nil, err
	}

	if err := s.missionRepo.Create(ctx, mission); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return mission, nil
}

// UpdateMission validates and rewrites an existing definition
func (s *catalogService) UpdateMission(ctx context.Context, id string, input *models.MissionInput) (*models.MissionDefinition, error) {
	mission, err := s.missionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mission.Title = input.Title
	mission.Description = input.Description
	mission.RewardPoints = input.RewardPoints
	mission.TriggerActionType = input.TriggerActionType
	mission.TargetCount = input.TargetCount
	mission.MissionKind = input.MissionKind
	mission.Icon = input.Icon
	mission.Color = input.Color
	mission.ActiveUntil = input.ActiveUntil
	mission.MinLevel = input.MinLevel
	mission.MinPoints = input.MinPoints
	mission.PremiumOnly = input.PremiumOnly
	mission.UsageLimit = input.UsageLimit
	if input.ActiveFrom != nil {
		mission.ActiveFrom = *input.ActiveFrom
	}
	if input.IsActive != nil {
		mission.IsActive = *input.IsActive
	}
	if mission.MinLevel == "" {
		mission.MinLevel = models.LevelBronze
	}

	if err := validateMission(mission); err != nil {
		return nil, err
	}

	if err := s.missionRepo.Update(ctx, mission); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return mission, nil
}

// DeleteMission removes a definition and its progress rows
func (s *catalogService) DeleteMission(ctx context.Context, id string) error {
	if err := s.missionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// GetMission retrieves one definition
func (s *catalogService) GetMission(ctx context.Context, id string) (*models.MissionDefinition, error) {
	return s.missionRepo.GetByID(ctx, id)
}

// ListMissions retrieves definitions for the admin surface
func (s *catalogService) ListMissions(ctx context.Context, limit, offset int) ([]*models.MissionDefinition, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.missionRepo.List(ctx, limit, offset)
}

// FindActive returns the active definitions triggered by actionType at
// the given instant.
func (s *catalogService) FindActive(ctx context.Context, actionType models.ActionType, at time.Time) ([]*models.MissionDefinition, error) {
	active, err := s.ListActive(ctx, at)
	if err != nil {
		return nil, err
	}

	var matched []*models.MissionDefinition
	for _, mission := range active {
		if mission.TriggerActionType == string(actionType) {
			matched = append(matched, mission)
		}
	}
	return matched, nil
}

// ListActive returns every definition active at the given instant,
// served from the cache when warm. Definitions change rarely; a stale
// read within the TTL is acceptable and never a correctness concern.
func (s *catalogService) ListActive(ctx context.Context, at time.Time) ([]*models.MissionDefinition, error) {
	if s.cache != nil {
		var cached []*models.MissionDefinition
		if s.cache.GetJSON(ctx, activeMissionsCacheKey, &cached) {
			return filterActiveAt(cached, at), nil
		}
	}

	active, err := s.missionRepo.ListActive(ctx, at)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, activeMissionsCacheKey, active); err != nil {
			logger.Warnf("failed to cache active missions: %v", err)
		}
	}
	return active, nil
}

// filterActiveAt re-applies the window filter to a cached snapshot;
// entries cached moments ago may have crossed their active_until since.
func filterActiveAt(missions []*models.MissionDefinition, at time.Time) []*models.MissionDefinition {
	var result []*models.MissionDefinition
	for _, mission := range missions {
		if mission.ActiveFrom.After(at) {
			continue
		}
		if mission.ActiveUntil != nil && mission.ActiveUntil.Before(at) {
			continue
		}
		result = append(result, mission)
	}
	return result
}

func (s *catalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeMissionsCacheKey); err != nil {
		logger.Warnf("failed to invalidate mission cache: %v", err)
	}
}

// validateMission enforces the catalog invariants before persistence,
// normalizing the trigger to its canonical form on the way. A trigger
// outside the vocabulary is rejected, never stored: a definition that
// parsed to the unknown fallback would match every unrecognized action
// name instead of none. A rejected definition is never partially written.
func validateMission(mission *models.MissionDefinition) error {
	if err := utils.ValidateMissionTitle(mission.Title); err != nil {
		return models.NewValidationError("mission title must be 2-255 characters")
	}
	trigger := models.ParseActionType(mission.TriggerActionType)
	if trigger == models.ActionUnknown {
		return models.ErrInvalidTrigger
	}
	mission.TriggerActionType = string(trigger)
	if mission.TargetCount < 1 {
		return models.ErrInvalidTargetCount
	}
	if mission.RewardPoints < 0 {
		return models.ErrInvalidRewardPoints
	}
	if !models.ValidMissionKind(mission.MissionKind) {
		return models.ErrInvalidMissionKind
	}
	if mission.ActiveUntil != nil && mission.ActiveFrom.After(*mission.ActiveUntil) {
		return models.ErrInvalidActiveWindow
	}
	return nil
}

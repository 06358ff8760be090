package core

import (
	"context"
	"errors"
	"time"

	"missionhub/internal/repository"
	"missionhub/pkg/logger"
	"missionhub/pkg/models"
	"missionhub/pkg/utils"
)

// TrackerService is the engine's inbound surface. TrackAction is invoked
// after a primary user action succeeds and must never fail it: every
// error inside is caught, logged and swallowed. GetActiveMissionsForUser
// backs the missions UI.
type TrackerService interface {
	TrackAction(ctx context.Context, req *models.TrackRequest)
	GetActiveMissionsForUser(ctx context.Context, userID string) ([]*models.MissionView, error)
}

type trackerService struct {
	actionRepo   repository.ActionRepository
	progressRepo repository.ProgressRepository
	ledgerRepo   repository.LedgerRepository
	userRepo     repository.UserRepository
	catalog      CatalogService
	notifier     Notifier
}

// NewTrackerService creates the mission tracking engine
func NewTrackerService(
	actionRepo repository.ActionRepository,
	progressRepo repository.ProgressRepository,
	ledgerRepo repository.LedgerRepository,
	userRepo repository.UserRepository,
	catalog CatalogService,
	notifier Notifier,
) TrackerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &trackerService{
		actionRepo:   actionRepo,
		progressRepo: progressRepo,
		ledgerRepo:   ledgerRepo,
		userRepo:     userRepo,
		catalog:      catalog,
		notifier:     notifier,
	}
}

// TrackAction records the action and advances every matching, eligible
// mission. An error against one mission abandons that mission's update
// for this action and moves on to the next.
func (s *trackerService) TrackAction(ctx context.Context, req *models.TrackRequest) {
	if req == nil || req.UserID == "" || req.ActionType == "" {
		logger.Warn("track action called with empty user or action")
		return
	}
	if err := utils.ValidateActionName(req.ActionType); err != nil {
		logger.Engine("rejected", req.UserID, req.ActionType).Warn("malformed action name")
		return
	}

	now := time.Now()
	canonical := models.ParseActionType(req.ActionType)
	if canonical == models.ActionUnknown {
		logger.Engine("unknown_action", req.UserID, req.ActionType).Warn("action outside the canonical vocabulary")
	}

	// The audit log keeps the raw name as received; rule matching below
	// works on the canonical one. A failed append is reported and the
	// engine keeps going - the log is best-effort.
	event := &models.ActionEvent{
		ID:           utils.NewID(),
		UserID:       req.UserID,
		ActionType:   req.ActionType,
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		OccurredAt:   now,
	}
	if err := s.actionRepo.Create(ctx, event); err != nil {
		logger.Engine("log_failed", req.UserID, req.ActionType).Error(err.Error())
	}

	if _, err := s.progressRepo.DeleteExpiredForUser(ctx, req.UserID, now); err != nil {
		logger.Engine("purge_failed", req.UserID, req.ActionType).Error(err.Error())
	}

	missions, err := s.catalog.FindActive(ctx, canonical, now)
	if err != nil {
		logger.Engine("catalog_failed", req.UserID, req.ActionType).Error(err.Error())
		return
	}
	if len(missions) == 0 {
		return
	}

	user, ledger, err := s.loadUserState(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			logger.Engine("unknown_user", req.UserID, req.ActionType).Warn("skipping missions for unknown user")
		} else {
			logger.Engine("user_state_failed", req.UserID, req.ActionType).Error(err.Error())
		}
		return
	}

	for _, mission := range missions {
		if err := s.advanceMission(ctx, user, ledger, mission, canonical, now); err != nil {
			logger.WithFields(map[string]interface{}{
				"component":  "engine",
				"user_id":    req.UserID,
				"mission_id": mission.ID,
			}).Error("mission advance failed: " + err.Error())
		}
	}
}

// advanceMission runs the eligibility gates and the progress transition
// for a single (mission, action) pair.
func (s *trackerService) advanceMission(ctx context.Context, user *models.User, ledger *models.UserPointsLedger, mission *models.MissionDefinition, actionType models.ActionType, now time.Time) error {
	completions := 0
	if mission.UsageLimit > 0 {
		var err error
		completions, err = s.progressRepo.CountCompletions(ctx, user.ID, mission.ID)
		if err != nil {
			return err
		}
	}

	if !Eligible(user, ledger, mission, completions) {
		return nil
	}

	increment := progressIncrement(actionType)
	outcome, err := s.progressRepo.Advance(ctx, mission, user.ID, increment, expiryFor(mission.MissionKind, now), now)
	if err != nil {
		return err
	}
	if !outcome.CompletedNow {
		return nil
	}

	leveledUp := models.LevelIndex(outcome.Ledger.CurrentLevel) > models.LevelIndex(ledger.CurrentLevel)
	completed := &models.MissionCompletedEvent{
		UserID:       user.ID,
		MissionID:    mission.ID,
		MissionTitle: mission.Title,
		RewardPoints: mission.RewardPoints,
		TotalPoints:  outcome.Ledger.TotalPoints,
		Level:        outcome.Ledger.CurrentLevel,
		LeveledUp:    leveledUp,
		CompletedAt:  now,
	}
	s.notifier.MissionCompleted(completed)

	logger.WithFields(map[string]interface{}{
		"component":     "engine",
		"user_id":       user.ID,
		"mission_id":    mission.ID,
		"reward_points": mission.RewardPoints,
		"total_points":  outcome.Ledger.TotalPoints,
	}).Info("mission completed")

	// Completing a mission is itself a trackable fact in the audit log.
	completionEvent := &models.ActionEvent{
		ID:         utils.NewID(),
		UserID:     user.ID,
		ActionType: string(models.ActionMissionCompleted),
		ResourceID: &mission.ID,
		OccurredAt: now,
	}
	if err := s.actionRepo.Create(ctx, completionEvent); err != nil {
		logger.Engine("log_failed", user.ID, string(models.ActionMissionCompleted)).Error(err.Error())
	}

	return nil
}

// GetActiveMissionsForUser combines active definitions, the user's
// progress and eligibility filtering for display.
func (s *trackerService) GetActiveMissionsForUser(ctx context.Context, userID string) ([]*models.MissionView, error) {
	now := time.Now()

	if _, err := s.progressRepo.DeleteExpiredForUser(ctx, userID, now); err != nil {
		logger.Engine("purge_failed", userID, "").Error(err.Error())
	}

	user, ledger, err := s.loadUserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	missions, err := s.catalog.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	progressRows, err := s.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	progressByMission := make(map[string]*models.UserMissionProgress, len(progressRows))
	for _, row := range progressRows {
		progressByMission[row.MissionID] = row
	}

	views := make([]*models.MissionView, 0, len(missions))
	for _, mission := range missions {
		completions := 0
		if mission.UsageLimit > 0 {
			completions, err = s.progressRepo.CountCompletions(ctx, userID, mission.ID)
			if err != nil {
				return nil, err
			}
		}
		if !Eligible(user, ledger, mission, completions) {
			continue
		}

		view := &models.MissionView{Mission: mission}
		if row, ok := progressByMission[mission.ID]; ok && !row.Expired(now) {
			view.Progress = row.CurrentProgress
			view.Completed = row.IsCompleted
			view.CompletedAt = row.CompletedAt
			view.ExpiresAt = row.ExpiresAt
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *trackerService) loadUserState(ctx context.Context, userID string) (*models.User, *models.UserPointsLedger, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := s.ledgerRepo.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, ledger, nil
}

// progressIncrement is the per-action progress step, total over the
// action vocabulary. Every known type steps by one; unknown types also
// step by one (the caller has already logged the warning) rather than
// being rejected.
func progressIncrement(t models.ActionType) int {
	switch t {
	case models.ActionVideoWatched, models.ActionVideoLiked, models.ActionVideoCommented,
		models.ActionVideoShared, models.ActionProductDownloaded, models.ActionProductShared,
		models.ActionProductCommented, models.ActionCouponUsed, models.ActionReferralGeneral,
		models.ActionReferralFree, models.ActionReferralPremium, models.ActionLoginStreak,
		models.ActionProfileUpdated, models.ActionMissionCompleted, models.ActionRewardRedeemed,
		models.ActionRaffleEntered:
		return 1
	default:
		return 1
	}
}

// expiryFor computes the per-user expiration for a fresh progress
// instance. Achievement and permanent missions never expire.
func expiryFor(missionKind string, now time.Time) *time.Time {
	var expiry time.Time
	switch missionKind {
	case models.MissionDaily:
		expiry = utils.NextMidnight(now)
	case models.MissionWeekly:
		expiry = utils.NextWeekStart(now)
	case models.MissionMonthly:
		expiry = utils.NextMonthStart(now)
	default:
		return nil
	}
	return &expiry
}

package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionhub/pkg/models"
)

func TestTrackActionCompletesMissionAtTarget(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "Watch 3 videos",
		TriggerActionType: string(models.ActionVideoWatched),
		TargetCount:       3,
		RewardPoints:      50,
		MissionKind:       models.MissionDaily,
	})

	ctx := context.Background()
	req := &models.TrackRequest{UserID: "user-1", ActionType: "video_watched"}

	h.tracker.TrackAction(ctx, req)
	h.tracker.TrackAction(ctx, req)

	progress, err := h.progress.Get(ctx, "user-1", mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.CurrentProgress)
	assert.False(t, progress.IsCompleted)
	assert.NotNil(t, progress.ExpiresAt)

	ledger, err := h.ledger.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.TotalPoints, "no reward before the target is reached")

	h.tracker.TrackAction(ctx, req)

	progress, err = h.progress.Get(ctx, "user-1", mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.CurrentProgress)
	assert.True(t, progress.IsCompleted)
	require.NotNil(t, progress.CompletedAt)

	ledger, err = h.ledger.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 50, ledger.TotalPoints)
	assert.Equal(t, models.LevelBronze, ledger.CurrentLevel)

	assert.Equal(t, 1, h.notifier.count())

	// three raw events plus the completion audit event
	types := h.actions.loggedTypes()
	require.Len(t, types, 4)
	assert.Equal(t, string(models.ActionMissionCompleted), types[3])
}

func TestTrackActionProgressClampsAtTarget(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "Share twice",
		TriggerActionType: string(models.ActionVideoShared),
		TargetCount:       2,
		RewardPoints:      30,
	})

	ctx := context.Background()
	req := &models.TrackRequest{UserID: "user-1", ActionType: "video_shared"}
	for i := 0; i < 5; i++ {
		h.tracker.TrackAction(ctx, req)
	}

	progress, err := h.progress.Get(ctx, "user-1", mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.CurrentProgress, "progress never exceeds the target")
	assert.True(t, progress.IsCompleted)

	ledger, err := h.ledger.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 30, ledger.TotalPoints, "reward credited exactly once")
	assert.Equal(t, 1, h.notifier.count())
}

func TestTrackActionCompletionCreditedOnceUnderConcurrency(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	h.addMission(&models.MissionDefinition{
		Title:             "Use a coupon",
		TriggerActionType: string(models.ActionCouponUsed),
		TargetCount:       3,
		RewardPoints:      100,
	})

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			h.tracker.TrackAction(context.Background(), &models.TrackRequest{
				UserID:     "user-1",
				ActionType: "coupon_used",
			})
		}()
	}
	wg.Wait()

	ledger, err := h.ledger.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 100, ledger.TotalPoints, "concurrent trackers must not double-credit")
	assert.Equal(t, 1, h.notifier.count())
}

func TestTrackActionResolvesLegacyAlias(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "Like a video",
		TriggerActionType: string(models.ActionVideoLiked),
		TargetCount:       1,
		RewardPoints:      10,
	})

	ctx := context.Background()
	h.tracker.TrackAction(ctx, &models.TrackRequest{UserID: "user-1", ActionType: "like_video"})

	progress, err := h.progress.Get(ctx, "user-1", mission.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)

	// the audit log keeps the raw name, not the canonical one
	types := h.actions.loggedTypes()
	require.NotEmpty(t, types)
	assert.Equal(t, "like_video", types[0])
}

func TestTrackActionRespectsUsageLimit(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "First login bonus",
		TriggerActionType: string(models.ActionLoginStreak),
		TargetCount:       1,
		RewardPoints:      20,
		MissionKind:       models.MissionDaily,
		UsageLimit:        1,
	})

	ctx := context.Background()
	req := &models.TrackRequest{UserID: "user-1", ActionType: "login_streak"}

	h.tracker.TrackAction(ctx, req)
	ledger, err := h.ledger.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 20, ledger.TotalPoints)

	// the daily boundary removes the completed instance, but the
	// lifetime completion count survives and keeps the gate closed
	removed, err := h.progress.ResetCompletedByKind(ctx, models.MissionDaily)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	h.tracker.TrackAction(ctx, req)

	_, err = h.progress.Get(ctx, "user-1", mission.ID)
	assert.ErrorIs(t, err, models.ErrProgressNotFound, "usage-limited mission must not restart")

	ledger, err = h.ledger.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 20, ledger.TotalPoints)
}

func TestTrackActionReplacesExpiredInstance(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "Daily watcher",
		TriggerActionType: string(models.ActionVideoWatched),
		TargetCount:       5,
		RewardPoints:      15,
		MissionKind:       models.MissionDaily,
	})

	ctx := context.Background()
	req := &models.TrackRequest{UserID: "user-1", ActionType: "video_watched"}
	h.tracker.TrackAction(ctx, req)
	h.tracker.TrackAction(ctx, req)

	// age the instance past its expiration
	h.progress.mu.Lock()
	past := time.Now().Add(-time.Minute)
	h.progress.rows[progressKey{"user-1", mission.ID}].ExpiresAt = &past
	h.progress.mu.Unlock()

	h.tracker.TrackAction(ctx, req)

	progress, err := h.progress.Get(ctx, "user-1", mission.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CurrentProgress, "a fresh instance starts over")
	assert.False(t, progress.IsCompleted)
	require.NotNil(t, progress.ExpiresAt)
	assert.True(t, progress.ExpiresAt.After(time.Now()))
}

func TestTrackActionSkipsPremiumMissionForFreeUser(t *testing.T) {
	h := newEngineHarness()
	h.addUser("free-user", models.PlanFree)
	h.addUser("premium-user", models.PlanPremium)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "Premium referral",
		TriggerActionType: string(models.ActionReferralPremium),
		TargetCount:       1,
		RewardPoints:      200,
		PremiumOnly:       true,
	})

	ctx := context.Background()
	h.tracker.TrackAction(ctx, &models.TrackRequest{UserID: "free-user", ActionType: "referral_premium"})
	h.tracker.TrackAction(ctx, &models.TrackRequest{UserID: "premium-user", ActionType: "referral_premium"})

	_, err := h.progress.Get(ctx, "free-user", mission.ID)
	assert.ErrorIs(t, err, models.ErrProgressNotFound)

	progress, err := h.progress.Get(ctx, "premium-user", mission.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
}

func TestTrackActionUnknownUserStillLogsAction(t *testing.T) {
	h := newEngineHarness()
	h.addMission(&models.MissionDefinition{
		Title:             "Watch one",
		TriggerActionType: string(models.ActionVideoWatched),
		TargetCount:       1,
		RewardPoints:      5,
	})

	h.tracker.TrackAction(context.Background(), &models.TrackRequest{
		UserID:     "ghost",
		ActionType: "video_watched",
	})

	types := h.actions.loggedTypes()
	assert.Len(t, types, 1, "the audit log records the action even for unknown users")

	rows, err := h.progress.ListByUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTrackActionSurvivesActionLogFailure(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	mission := h.addMission(&models.MissionDefinition{
		Title:             "Comment once",
		TriggerActionType: string(models.ActionVideoCommented),
		TargetCount:       1,
		RewardPoints:      10,
	})

	h.actions.fail = true
	h.tracker.TrackAction(context.Background(), &models.TrackRequest{
		UserID:     "user-1",
		ActionType: "video_commented",
	})

	progress, err := h.progress.Get(context.Background(), "user-1", mission.ID)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted, "a broken audit log must not block mission progress")
}

func TestTrackActionUnrecognizedNameAdvancesNothing(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	h.addMission(&models.MissionDefinition{
		Title:             "Watch one",
		TriggerActionType: string(models.ActionVideoWatched),
		TargetCount:       1,
		RewardPoints:      40,
	})

	// well-formed but outside the vocabulary: logged for audit, but it
	// must never match a mission
	h.tracker.TrackAction(context.Background(), &models.TrackRequest{
		UserID:     "user-1",
		ActionType: "some_other_thing",
	})

	assert.Equal(t, []string{"some_other_thing"}, h.actions.loggedTypes())

	rows, err := h.progress.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	ledger, err := h.ledger.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.TotalPoints)
}

func TestTrackActionIgnoresMalformedNames(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	h.addMission(&models.MissionDefinition{
		Title:             "Watch one",
		TriggerActionType: string(models.ActionVideoWatched),
		TargetCount:       1,
		RewardPoints:      5,
	})

	for _, name := range []string{"", "VIDEO WATCHED", "1bad", "has space"} {
		h.tracker.TrackAction(context.Background(), &models.TrackRequest{
			UserID:     "user-1",
			ActionType: name,
		})
	}

	assert.Empty(t, h.actions.loggedTypes(), "malformed names are rejected before logging")
}

func TestTrackActionLevelUpFlagOnCompletion(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	h.ledger.setPoints("user-1", 90)
	h.addMission(&models.MissionDefinition{
		Title:             "Big share",
		TriggerActionType: string(models.ActionProductShared),
		TargetCount:       1,
		RewardPoints:      25,
	})

	h.tracker.TrackAction(context.Background(), &models.TrackRequest{
		UserID:     "user-1",
		ActionType: "share_product",
	})

	require.Equal(t, 1, h.notifier.count())
	event := h.notifier.events[0]
	assert.Equal(t, 115, event.TotalPoints)
	assert.Equal(t, models.LevelSilver, event.Level)
	assert.True(t, event.LeveledUp)
}

func TestGetActiveMissionsForUserMergesProgress(t *testing.T) {
	h := newEngineHarness()
	h.addUser("user-1", models.PlanFree)
	tracked := h.addMission(&models.MissionDefinition{
		Title:             "Watch 3 videos",
		TriggerActionType: string(models.ActionVideoWatched),
		TargetCount:       3,
		RewardPoints:      50,
		MissionKind:       models.MissionDaily,
	})
	h.addMission(&models.MissionDefinition{
		Title:             "Use a coupon",
		TriggerActionType: string(models.ActionCouponUsed),
		TargetCount:       1,
		RewardPoints:      20,
	})
	h.addMission(&models.MissionDefinition{
		Title:             "Premium only",
		TriggerActionType: string(models.ActionReferralPremium),
		TargetCount:       1,
		RewardPoints:      100,
		PremiumOnly:       true,
	})

	ctx := context.Background()
	h.tracker.TrackAction(ctx, &models.TrackRequest{UserID: "user-1", ActionType: "video_watched"})

	views, err := h.tracker.GetActiveMissionsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, views, 2, "ineligible missions are filtered out of the view")

	byID := make(map[string]*models.MissionView, len(views))
	for _, view := range views {
		byID[view.Mission.ID] = view
	}
	require.Contains(t, byID, tracked.ID)
	assert.Equal(t, 1, byID[tracked.ID].Progress)
	assert.False(t, byID[tracked.ID].Completed)
}

func TestGetActiveMissionsForUserUnknownUser(t *testing.T) {
	h := newEngineHarness()

	_, err := h.tracker.GetActiveMissionsForUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

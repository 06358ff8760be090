package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionhub/pkg/models"
)

// memoryCache is an in-process CatalogCache for tests
type memoryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	hits    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	c.hits++
	return true
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
		c.deletes++
	}
	return nil
}

func validInput() *models.MissionInput {
	from := time.Now().Add(-time.Hour)
	return &models.MissionInput{
		ActiveFrom:        &from,
		Title:             "Watch 3 videos",
		Description:       "Watch any three videos today",
		RewardPoints:      50,
		TriggerActionType: "video_watched",
		TargetCount:       3,
		MissionKind:       models.MissionDaily,
	}
}

func TestCreateMissionValidation(t *testing.T) {
	svc := NewCatalogService(newFakeMissionRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*models.MissionInput)
		wantErr error
	}{
		{"zero target", func(in *models.MissionInput) { in.TargetCount = 0 }, models.ErrInvalidTargetCount},
		{"negative target", func(in *models.MissionInput) { in.TargetCount = -3 }, models.ErrInvalidTargetCount},
		{"negative reward", func(in *models.MissionInput) { in.RewardPoints = -1 }, models.ErrInvalidRewardPoints},
		{"bad kind", func(in *models.MissionInput) { in.MissionKind = "hourly" }, models.ErrInvalidMissionKind},
		{"out-of-vocabulary trigger", func(in *models.MissionInput) { in.TriggerActionType = "custom_partner_event" }, models.ErrInvalidTrigger},
		{"empty trigger", func(in *models.MissionInput) { in.TriggerActionType = "" }, models.ErrInvalidTrigger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			_, err := svc.CreateMission(ctx, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("inverted window", func(t *testing.T) {
		input := validInput()
		from := time.Now()
		until := from.Add(-time.Hour)
		input.ActiveFrom = &from
		input.ActiveUntil = &until
		_, err := svc.CreateMission(ctx, input)
		assert.ErrorIs(t, err, models.ErrInvalidActiveWindow)
	})

	t.Run("short title", func(t *testing.T) {
		input := validInput()
		input.Title = "x"
		_, err := svc.CreateMission(ctx, input)
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.StatusCode)
	})

	t.Run("zero reward is allowed", func(t *testing.T) {
		input := validInput()
		input.RewardPoints = 0
		mission, err := svc.CreateMission(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 0, mission.RewardPoints)
	})
}

func TestCreateMissionDefaults(t *testing.T) {
	svc := NewCatalogService(newFakeMissionRepo(), nil)

	mission, err := svc.CreateMission(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, mission.ID)
	assert.True(t, mission.IsActive)
	assert.Equal(t, models.LevelBronze, mission.MinLevel)
	assert.Equal(t, string(models.ActionVideoWatched), mission.TriggerActionType)
}

func TestMissionTriggerNeverStoredAsUnknownFallback(t *testing.T) {
	repo := newFakeMissionRepo()
	svc := NewCatalogService(repo, nil)
	ctx := context.Background()

	// legacy aliases canonicalize on write
	input := validInput()
	input.TriggerActionType = "like_video"
	mission, err := svc.CreateMission(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, string(models.ActionVideoLiked), mission.TriggerActionType)

	// an unrecognized trigger is rejected outright, on update too; a
	// stored "unknown" trigger would match every unrecognized action
	badInput := validInput()
	badInput.TriggerActionType = "custom_partner_event"
	_, err = svc.UpdateMission(ctx, mission.ID, badInput)
	assert.ErrorIs(t, err, models.ErrInvalidTrigger)

	stored, err := svc.GetMission(ctx, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ActionVideoLiked), stored.TriggerActionType, "rejected update must not persist")

	matched, err := svc.FindActive(ctx, models.ActionUnknown, time.Now())
	require.NoError(t, err)
	assert.Empty(t, matched, "no mission matches unrecognized actions")
}

func TestUpdateMissionRejectsUnknownID(t *testing.T) {
	svc := NewCatalogService(newFakeMissionRepo(), nil)

	_, err := svc.UpdateMission(context.Background(), "missing", validInput())
	assert.ErrorIs(t, err, models.ErrMissionNotFound)
}

func TestFindActiveMatchesTriggerAndWindow(t *testing.T) {
	repo := newFakeMissionRepo()
	svc := NewCatalogService(repo, nil)
	ctx := context.Background()
	now := time.Now()

	watch, err := svc.CreateMission(ctx, validInput())
	require.NoError(t, err)

	shareInput := validInput()
	shareInput.Title = "Share a video"
	shareInput.TriggerActionType = "video_shared"
	_, err = svc.CreateMission(ctx, shareInput)
	require.NoError(t, err)

	lapsedInput := validInput()
	lapsedInput.Title = "Old watch mission"
	from := now.Add(-48 * time.Hour)
	until := now.Add(-24 * time.Hour)
	lapsedInput.ActiveFrom = &from
	lapsedInput.ActiveUntil = &until
	_, err = svc.CreateMission(ctx, lapsedInput)
	require.NoError(t, err)

	matched, err := svc.FindActive(ctx, models.ActionVideoWatched, now)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, watch.ID, matched[0].ID)
}

func TestListActiveUsesCacheAndInvalidatesOnMutation(t *testing.T) {
	repo := newFakeMissionRepo()
	cache := newMemoryCache()
	svc := NewCatalogService(repo, cache)
	ctx := context.Background()
	now := time.Now()

	mission, err := svc.CreateMission(ctx, validInput())
	require.NoError(t, err)

	// first read fills the cache, second is served from it
	_, err = svc.ListActive(ctx, now)
	require.NoError(t, err)
	active, err := svc.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, cache.hits)

	// a mutation drops the snapshot so the next read sees fresh state
	require.NoError(t, svc.DeleteMission(ctx, mission.ID))
	active, err = svc.ListActive(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListActiveCachedSnapshotRefiltered(t *testing.T) {
	repo := newFakeMissionRepo()
	cache := newMemoryCache()
	svc := NewCatalogService(repo, cache)
	ctx := context.Background()
	now := time.Now()

	input := validInput()
	until := now.Add(time.Minute)
	input.ActiveUntil = &until
	_, err := svc.CreateMission(ctx, input)
	require.NoError(t, err)

	active, err := svc.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)

	// the cached entry crossed its active_until; the window filter
	// still applies on the cached read path
	active, err = svc.ListActive(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, active)
}

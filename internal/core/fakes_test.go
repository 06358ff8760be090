package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"missionhub/internal/repository"
	"missionhub/pkg/models"
	"missionhub/pkg/utils"
)

// In-memory repository fakes. The progress fake mirrors the store
// contract the engine relies on: the whole advance (guards, increment,
// completion flip, credit) runs under one lock, so interleaved calls
// observe it as a single atomic operation.

type fakeActionRepo struct {
	mu     sync.Mutex
	events []models.ActionEvent
	fail   bool
}

func (r *fakeActionRepo) Create(ctx context.Context, event *models.ActionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("store unavailable")
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeActionRepo) GetByID(ctx context.Context, id string) (*models.ActionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			event := r.events[i]
			return &event, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeActionRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ActionEvent, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.ActionEvent
	for _, event := range r.events {
		if event.UserID == userID {
			matched = append(matched, event)
		}
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeActionRepo) CountByUserAndType(ctx context.Context, userID, actionType string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.UserID == userID && event.ActionType == actionType {
			count++
		}
	}
	return count, nil
}

func (r *fakeActionRepo) loggedTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.ActionType)
	}
	return types
}

type fakeMissionRepo struct {
	mu       sync.Mutex
	missions map[string]*models.MissionDefinition
}

func newFakeMissionRepo() *fakeMissionRepo {
	return &fakeMissionRepo{missions: make(map[string]*models.MissionDefinition)}
}

func (r *fakeMissionRepo) Create(ctx context.Context, mission *models.MissionDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mission.CreatedAt = time.Now()
	mission.UpdatedAt = mission.CreatedAt
	copy := *mission
	r.missions[mission.ID] = &copy
	return nil
}

func (r *fakeMissionRepo) GetByID(ctx context.Context, id string) (*models.MissionDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mission, ok := r.missions[id]
	if !ok {
		return nil, models.ErrMissionNotFound
	}
	copy := *mission
	return &copy, nil
}

func (r *fakeMissionRepo) Update(ctx context.Context, mission *models.MissionDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[mission.ID]; !ok {
		return models.ErrMissionNotFound
	}
	mission.UpdatedAt = time.Now()
	copy := *mission
	r.missions[mission.ID] = &copy
	return nil
}

func (r *fakeMissionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[id]; !ok {
		return models.ErrMissionNotFound
	}
	delete(r.missions, id)
	return nil
}

func (r *fakeMissionRepo) List(ctx context.Context, limit, offset int) ([]*models.MissionDefinition, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.MissionDefinition
	for _, mission := range r.missions {
		copy := *mission
		all = append(all, &copy)
	}
	return all, len(all), nil
}

func (r *fakeMissionRepo) ListActive(ctx context.Context, at time.Time) ([]*models.MissionDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*models.MissionDefinition
	for _, mission := range r.missions {
		if !mission.IsActive || mission.ActiveFrom.After(at) {
			continue
		}
		if mission.ActiveUntil != nil && mission.ActiveUntil.Before(at) {
			continue
		}
		copy := *mission
		active = append(active, &copy)
	}
	return active, nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	ledgers map[string]*models.UserPointsLedger
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{ledgers: make(map[string]*models.UserPointsLedger)}
}

func (r *fakeLedgerRepo) Get(ctx context.Context, userID string) (*models.UserPointsLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *r.ensure(userID)
	return &copy, nil
}

func (r *fakeLedgerRepo) AdjustPoints(ctx context.Context, userID string, delta int) (*models.UserPointsLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adjustLocked(userID, delta)
}

func (r *fakeLedgerRepo) TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*models.LeaderboardEntry
	for _, ledger := range r.ledgers {
		entries = append(entries, &models.LeaderboardEntry{
			UserID:      ledger.UserID,
			Username:    ledger.UserID,
			TotalPoints: ledger.TotalPoints,
			Level:       ledger.CurrentLevel,
		})
	}
	return entries, nil
}

func (r *fakeLedgerRepo) ensure(userID string) *models.UserPointsLedger {
	ledger, ok := r.ledgers[userID]
	if !ok {
		ledger = &models.UserPointsLedger{
			UserID:       userID,
			CurrentLevel: models.LevelBronze,
			UpdatedAt:    time.Now(),
		}
		r.ledgers[userID] = ledger
	}
	return ledger
}

func (r *fakeLedgerRepo) adjustLocked(userID string, delta int) (*models.UserPointsLedger, error) {
	ledger := r.ensure(userID)
	if ledger.TotalPoints+delta < 0 {
		return nil, models.ErrInsufficientPoints
	}
	ledger.TotalPoints += delta
	ledger.CurrentLevel, ledger.LevelProgress = models.LevelForPoints(ledger.TotalPoints)
	ledger.UpdatedAt = time.Now()
	copy := *ledger
	return &copy, nil
}

// setPoints seeds a balance directly, for eligibility setups
func (r *fakeLedgerRepo) setPoints(userID string, points int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ledger := r.ensure(userID)
	ledger.TotalPoints = points
	ledger.CurrentLevel, ledger.LevelProgress = models.LevelForPoints(points)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copy := *user
	return &copy, nil
}

func (r *fakeUserRepo) add(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

type progressKey struct {
	userID    string
	missionID string
}

type fakeProgressRepo struct {
	mu          sync.Mutex
	rows        map[progressKey]*models.UserMissionProgress
	completions map[progressKey]int
	ledger      *fakeLedgerRepo
	missionKind map[string]string
}

func newFakeProgressRepo(ledger *fakeLedgerRepo) *fakeProgressRepo {
	return &fakeProgressRepo{
		rows:        make(map[progressKey]*models.UserMissionProgress),
		completions: make(map[progressKey]int),
		ledger:      ledger,
		missionKind: make(map[string]string),
	}
}

func (r *fakeProgressRepo) Get(ctx context.Context, userID, missionID string) (*models.UserMissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[progressKey{userID, missionID}]
	if !ok {
		return nil, models.ErrProgressNotFound
	}
	copy := *row
	return &copy, nil
}

func (r *fakeProgressRepo) ListByUser(ctx context.Context, userID string) ([]*models.UserMissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.UserMissionProgress
	for key, row := range r.rows {
		if key.userID == userID {
			copy := *row
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (r *fakeProgressRepo) Advance(ctx context.Context, mission *models.MissionDefinition, userID string, increment int, expiresAt *time.Time, now time.Time) (*repository.AdvanceOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.missionKind[mission.ID] = mission.MissionKind

	key := progressKey{userID, mission.ID}
	row, ok := r.rows[key]
	if !ok {
		row = &models.UserMissionProgress{
			ID:        utils.NewID(),
			UserID:    userID,
			MissionID: mission.ID,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.rows[key] = row
	}

	if row.IsCompleted || row.Expired(now) {
		return &repository.AdvanceOutcome{}, nil
	}

	row.CurrentProgress += increment
	if row.CurrentProgress > mission.TargetCount {
		row.CurrentProgress = mission.TargetCount
	}
	row.UpdatedAt = now

	outcome := &repository.AdvanceOutcome{}
	if row.CurrentProgress >= mission.TargetCount {
		row.IsCompleted = true
		completedAt := now
		row.CompletedAt = &completedAt
		r.completions[key]++

		ledger, err := r.ledger.AdjustPoints(ctx, userID, mission.RewardPoints)
		if err != nil {
			return nil, err
		}
		outcome.CompletedNow = true
		outcome.Ledger = ledger
	}

	copy := *row
	outcome.Progress = &copy
	return outcome, nil
}

func (r *fakeProgressRepo) CountCompletions(ctx context.Context, userID, missionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions[progressKey{userID, missionID}], nil
}

func (r *fakeProgressRepo) DeleteExpiredForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key, row := range r.rows {
		if key.userID == userID && !row.IsCompleted && row.Expired(now) {
			delete(r.rows, key)
			count++
		}
	}
	return count, nil
}

func (r *fakeProgressRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key, row := range r.rows {
		if !row.IsCompleted && row.Expired(now) {
			delete(r.rows, key)
			count++
		}
	}
	return count, nil
}

func (r *fakeProgressRepo) ResetCompletedByKind(ctx context.Context, missionKind string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key, row := range r.rows {
		if row.IsCompleted && r.missionKind[key.missionID] == missionKind {
			delete(r.rows, key)
			count++
		}
	}
	return count, nil
}

// collectingNotifier records completion events for assertions
type collectingNotifier struct {
	mu     sync.Mutex
	events []*models.MissionCompletedEvent
}

func (n *collectingNotifier) MissionCompleted(event *models.MissionCompletedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *collectingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// engineHarness wires a tracker over the fakes
type engineHarness struct {
	actions  *fakeActionRepo
	missions *fakeMissionRepo
	progress *fakeProgressRepo
	ledger   *fakeLedgerRepo
	users    *fakeUserRepo
	notifier *collectingNotifier
	catalog  CatalogService
	tracker  TrackerService
}

func newEngineHarness() *engineHarness {
	h := &engineHarness{
		actions:  &fakeActionRepo{},
		missions: newFakeMissionRepo(),
		ledger:   newFakeLedgerRepo(),
		users:    newFakeUserRepo(),
		notifier: &collectingNotifier{},
	}
	h.progress = newFakeProgressRepo(h.ledger)
	h.catalog = NewCatalogService(h.missions, nil)
	h.tracker = NewTrackerService(h.actions, h.progress, h.ledger, h.users, h.catalog, h.notifier)
	return h
}

func (h *engineHarness) addUser(id, plan string) {
	h.users.add(&models.User{ID: id, Username: id, Plan: plan, CreatedAt: time.Now()})
}

func (h *engineHarness) addMission(mission *models.MissionDefinition) *models.MissionDefinition {
	if mission.ID == "" {
		mission.ID = utils.NewID()
	}
	if mission.MinLevel == "" {
		mission.MinLevel = models.LevelBronze
	}
	if mission.MissionKind == "" {
		mission.MissionKind = models.MissionAchievement
	}
	if mission.ActiveFrom.IsZero() {
		mission.ActiveFrom = time.Now().Add(-time.Hour)
	}
	mission.IsActive = true
	h.missions.Create(context.Background(), mission)
	return mission
}

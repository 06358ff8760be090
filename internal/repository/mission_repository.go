package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"missionhub/pkg/models"
)

const missionColumns = `id, title, description, reward_points, trigger_action_type,
	target_count, mission_kind, icon, color, active_from, active_until,
	min_level, min_points, premium_only, usage_limit, is_active, created_at, updated_at`

// MissionRepository handles mission catalog persistence
type MissionRepository interface {
	Create(ctx context.Context, mission *models.MissionDefinition) error
	GetByID(ctx context.Context, id string) (*models.MissionDefinition, error)
	Update(ctx context.Context, mission *models.MissionDefinition) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*models.MissionDefinition, int, error)
	ListActive(ctx context.Context, at time.Time) ([]*models.MissionDefinition, error)
}

type missionRepository struct {
	pool *pgxpool.Pool
}

// NewMissionRepository creates a new PostgreSQL mission catalog repository
func NewMissionRepository(pool *pgxpool.Pool) MissionRepository {
	return &missionRepository{pool: pool}
}

// Create inserts a new mission definition
func (r *missionRepository) Create(ctx context.Context, mission *models.MissionDefinition) error {
	query := `
		INSERT INTO missions (id, title, description, reward_points, trigger_action_type,
			target_count, mission_kind, icon, color, active_from, active_until,
			min_level, min_points, premium_only, usage_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		mission.ID,
		mission.Title,
		mission.Description,
		mission.RewardPoints,
		mission.TriggerActionType,
		mission.TargetCount,
		mission.MissionKind,
		mission.Icon,
		mission.Color,
		mission.ActiveFrom,
		mission.ActiveUntil,
		mission.MinLevel,
		mission.MinPoints,
		mission.PremiumOnly,
		mission.UsageLimit,
		mission.IsActive,
	).Scan(&mission.CreatedAt, &mission.UpdatedAt)

	if err != nil {
		return r.mapDBError(err, "create_mission")
	}
	return nil
}

// GetByID retrieves a mission definition by ID
func (r *missionRepository) GetByID(ctx context.Context, id string) (*models.MissionDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM missions WHERE id = $1", missionColumns)

	mission, err := r.scanMission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("get_mission_by_id: %w", models.ErrMissionNotFound)
		}
		return nil, r.mapDBError(err, "get_mission_by_id")
	}
	return mission, nil
}

// Update rewrites a mission definition in place
func (r *missionRepository) Update(ctx context.Context, mission *models.MissionDefinition) error {
	query := `
		UPDATE missions
		SET title = $2, description = $3, reward_points = $4, trigger_action_type = $5,
			target_count = $6, mission_kind = $7, icon = $8, color = $9,
			active_from = $10, active_until = $11, min_level = $12, min_points = $13,
			premium_only = $14, usage_limit = $15, is_active = $16,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		mission.ID,
		mission.Title,
		mission.Description,
		mission.RewardPoints,
		mission.TriggerActionType,
		mission.TargetCount,
		mission.MissionKind,
		mission.Icon,
		mission.Color,
		mission.ActiveFrom,
		mission.ActiveUntil,
		mission.MinLevel,
		mission.MinPoints,
		mission.PremiumOnly,
		mission.UsageLimit,
		mission.IsActive,
	).Scan(&mission.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("update_mission: %w", models.ErrMissionNotFound)
		}
		return r.mapDBError(err, "update_mission")
	}
	return nil
}

// Delete removes a mission. The progress rows of the mission go with it
// (ON DELETE CASCADE), so no orphaned progress survives.
func (r *missionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM missions WHERE id = $1", id)
	if err != nil {
		return r.mapDBError(err, "delete_mission")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete_mission: %w", models.ErrMissionNotFound)
	}
	return nil
}

// List retrieves all mission definitions for the admin surface
func (r *missionRepository) List(ctx context.Context, limit, offset int) ([]*models.MissionDefinition, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM missions").Scan(&total); err != nil {
		return nil, 0, r.mapDBError(err, "count_missions")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM missions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, missionColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, r.mapDBError(err, "list_missions")
	}
	defer rows.Close()

	missions, err := r.scanMissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return missions, total, nil
}

// ListActive retrieves all definitions whose active window covers the
// given instant. Trigger filtering happens in the catalog service so the
// result can back the single-key cache.
func (r *missionRepository) ListActive(ctx context.Context, at time.Time) ([]*models.MissionDefinition, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM missions
		WHERE is_active
		  AND active_from <= $1
		  AND (active_until IS NULL OR active_until >= $1)
		ORDER BY created_at
	`, missionColumns)

	rows, err := r.pool.Query(ctx, query, at)
	if err != nil {
		return nil, r.mapDBError(err, "list_active_missions")
	}
	defer rows.Close()

	return r.scanMissions(rows)
}

func (r *missionRepository) scanMission(row pgx.Row) (*models.MissionDefinition, error) {
	mission := &models.MissionDefinition{}
	err := row.Scan(
		&mission.ID,
		&mission.Title,
		&mission.Description,
		&mission.RewardPoints,
		&mission.TriggerActionType,
		&mission.TargetCount,
		&mission.MissionKind,
		&mission.Icon,
		&mission.Color,
		&mission.ActiveFrom,
		&mission.ActiveUntil,
		&mission.MinLevel,
		&mission.MinPoints,
		&mission.PremiumOnly,
		&mission.UsageLimit,
		&mission.IsActive,
		&mission.CreatedAt,
		&mission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return mission, nil
}

func (r *missionRepository) scanMissions(rows pgx.Rows) ([]*models.MissionDefinition, error) {
	var missions []*models.MissionDefinition
	for rows.Next() {
		mission, err := r.scanMission(rows)
		if err != nil {
			return nil, r.mapDBError(err, "scan_mission")
		}
		missions = append(missions, mission)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "iterate_missions")
	}
	return missions, nil
}

// mapDBError maps database errors to application errors
func (r *missionRepository) mapDBError(err error, operation string) error {
	if err == pgx.ErrNoRows {
		return fmt.Errorf("%s: %w", operation, models.ErrMissionNotFound)
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23514": // check_violation
			return fmt.Errorf("mission violates schema constraint: %w", models.ErrInvalidInput)
		case "23505": // unique_violation
			return fmt.Errorf("duplicate mission id: %w", err)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}

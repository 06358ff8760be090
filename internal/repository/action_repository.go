package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"missionhub/pkg/models"
)

// ActionRepository handles the append-only action log
type ActionRepository interface {
	Create(ctx context.Context, event *models.ActionEvent) error
	GetByID(ctx context.Context, id string) (*models.ActionEvent, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ActionEvent, int, error)
	CountByUserAndType(ctx context.Context, userID, actionType string) (int, error)
}

type actionRepository struct {
	pool *pgxpool.Pool
}

// NewActionRepository creates a new PostgreSQL action log repository
func NewActionRepository(pool *pgxpool.Pool) ActionRepository {
	return &actionRepository{pool: pool}
}

// Create appends a new action event. Events are never updated or deleted
// outside data-retention sweeps.
func (r *actionRepository) Create(ctx context.Context, event *models.ActionEvent) error {
	query := `
		INSERT INTO actions (id, user_id, action_type, resource_id, resource_type, occurred_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, CURRENT_TIMESTAMP))
		RETURNING occurred_at
	`

	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.ActionType,
		event.ResourceID,
		event.ResourceType,
		event.OccurredAt,
	).Scan(&event.OccurredAt)

	if err != nil {
		return r.mapDBError(err, "create_action")
	}
	return nil
}

// GetByID retrieves a single action event
func (r *actionRepository) GetByID(ctx context.Context, id string) (*models.ActionEvent, error) {
	query := `
		SELECT id, user_id, action_type, resource_id, resource_type, occurred_at
		FROM actions
		WHERE id = $1
	`
	event := &models.ActionEvent{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.UserID,
		&event.ActionType,
		&event.ResourceID,
		&event.ResourceType,
		&event.OccurredAt,
	)
	if err != nil {
		return nil, r.mapDBError(err, "get_action_by_id")
	}
	return event, nil
}

// ListByUser retrieves a user's recent actions, newest first
func (r *actionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ActionEvent, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM actions WHERE user_id = $1", userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, r.mapDBError(err, "count_user_actions")
	}

	query := `
		SELECT id, user_id, action_type, resource_id, resource_type, occurred_at
		FROM actions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, r.mapDBError(err, "list_user_actions")
	}
	defer rows.Close()

	var events []models.ActionEvent
	for rows.Next() {
		var event models.ActionEvent
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.ActionType,
			&event.ResourceID,
			&event.ResourceType,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, 0, r.mapDBError(err, "scan_user_action")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.mapDBError(err, "iterate_user_actions")
	}

	return events, total, nil
}

// CountByUserAndType counts a user's logged actions of one raw type
func (r *actionRepository) CountByUserAndType(ctx context.Context, userID, actionType string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM actions WHERE user_id = $1 AND action_type = $2",
		userID, actionType,
	).Scan(&count)
	if err != nil {
		return 0, r.mapDBError(err, "count_user_actions_by_type")
	}
	return count, nil
}

// mapDBError maps database errors to application errors
func (r *actionRepository) mapDBError(err error, operation string) error {
	if err == pgx.ErrNoRows {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("required field missing in action: %w", err)
		case "23505": // unique_violation
			return fmt.Errorf("duplicate action id: %w", err)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"missionhub/pkg/models"
)

// UserRepository reads the minimal account state the engine needs.
// Account lifecycle (registration, profile, sessions) belongs to the
// platform's user service; this side only consumes it.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, plan, is_admin, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.Plan,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("get_user_by_id: %w", models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("database error during get_user_by_id: %w", err)
	}
	return user, nil
}

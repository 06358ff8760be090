package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"missionhub/pkg/models"
	"missionhub/pkg/utils"
)

// AdvanceOutcome reports what a single progress advance did
type AdvanceOutcome struct {
	// Progress is the row after the advance, nil when the advance was a
	// no-op (instance already completed, or stale past its expiry).
	Progress *models.UserMissionProgress
	// CompletedNow is true when this advance crossed the target.
	CompletedNow bool
	// Ledger is the credited ledger state, set only when CompletedNow.
	Ledger *models.UserPointsLedger
}

// ProgressRepository handles per-(user, mission) progress instances.
// Advance is the engine's critical section: the check-then-set of the
// completion flag happens as one conditional UPDATE, and the point credit
// for a completion commits in the same transaction.
type ProgressRepository interface {
	Get(ctx context.Context, userID, missionID string) (*models.UserMissionProgress, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserMissionProgress, error)
	Advance(ctx context.Context, mission *models.MissionDefinition, userID string, increment int, expiresAt *time.Time, now time.Time) (*AdvanceOutcome, error)
	CountCompletions(ctx context.Context, userID, missionID string) (int, error)
	DeleteExpiredForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ResetCompletedByKind(ctx context.Context, missionKind string) (int64, error)
}

type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new PostgreSQL progress repository
func NewProgressRepository(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepository{pool: pool}
}

// Get retrieves one progress instance
func (r *progressRepository) Get(ctx context.Context, userID, missionID string) (*models.UserMissionProgress, error) {
	query := `
		SELECT id, user_id, mission_id, current_progress, is_completed,
			completed_at, expires_at, created_at, updated_at
		FROM user_missions
		WHERE user_id = $1 AND mission_id = $2
	`
	progress, err := scanProgress(r.pool.QueryRow(ctx, query, userID, missionID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("get_progress: %w", models.ErrProgressNotFound)
	}
	if err != nil {
		return nil, r.mapDBError(err, "get_progress")
	}
	return progress, nil
}

// ListByUser retrieves all of a user's progress instances
func (r *progressRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserMissionProgress, error) {
	query := `
		SELECT id, user_id, mission_id, current_progress, is_completed,
			completed_at, expires_at, created_at, updated_at
		FROM user_missions
		WHERE user_id = $1
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapDBError(err, "list_progress")
	}
	defer rows.Close()

	var result []*models.UserMissionProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, r.mapDBError(err, "scan_progress")
		}
		result = append(result, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapDBError(err, "iterate_progress")
	}
	return result, nil
}

// Advance lazily creates the instance, applies the increment clamped at
// the target, and on completion flips the flag, records the completion
// and credits the reward - all in one transaction.
//
// The UPDATE carries the guards from the state machine: it refuses rows
// that are already completed (at-most-once completion) and rows past
// their expiry (stale instances advance nowhere; the sweeper removes
// them). Zero rows updated means the advance was a no-op.
func (r *progressRepository) Advance(ctx context.Context, mission *models.MissionDefinition, userID string, increment int, expiresAt *time.Time, now time.Time) (*AdvanceOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, r.mapDBError(err, "begin_advance")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO user_missions (id, user_id, mission_id, current_progress, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5, $5)
		ON CONFLICT (user_id, mission_id) DO NOTHING
	`, utils.NewID(), userID, mission.ID, expiresAt, now)
	if err != nil {
		return nil, r.mapDBError(err, "ensure_progress")
	}

	row := tx.QueryRow(ctx, `
		UPDATE user_missions
		SET current_progress = LEAST(current_progress + $3, $4),
			is_completed = LEAST(current_progress + $3, $4) >= $4,
			completed_at = CASE WHEN LEAST(current_progress + $3, $4) >= $4 THEN $5 ELSE completed_at END,
			updated_at = $5
		WHERE user_id = $1 AND mission_id = $2
		  AND NOT is_completed
		  AND (expires_at IS NULL OR expires_at > $5)
		RETURNING id, user_id, mission_id, current_progress, is_completed,
			completed_at, expires_at, created_at, updated_at
	`, userID, mission.ID, increment, mission.TargetCount, now)

	progress, err := scanProgress(row)
	if err == pgx.ErrNoRows {
		// Already completed or stale; nothing to advance.
		return &AdvanceOutcome{}, tx.Commit(ctx)
	}
	if err != nil {
		return nil, r.mapDBError(err, "advance_progress")
	}

	outcome := &AdvanceOutcome{Progress: progress}

	// The guard above excluded completed rows, so a returned row with the
	// flag set crossed the target in this statement.
	if progress.IsCompleted {
		outcome.CompletedNow = true

		_, err = tx.Exec(ctx, `
			INSERT INTO mission_completions (id, user_id, mission_id, completed_at)
			VALUES ($1, $2, $3, $4)
		`, utils.NewID(), userID, mission.ID, now)
		if err != nil {
			return nil, r.mapDBError(err, "record_completion")
		}

		ledger, err := applyPointsDelta(ctx, tx, userID, mission.RewardPoints, now)
		if err != nil {
			return nil, err
		}
		outcome.Ledger = ledger
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, r.mapDBError(err, "commit_advance")
	}
	return outcome, nil
}

// CountCompletions counts lifetime completions of one mission by one user.
// Counted from the completion history, not live progress rows: periodic
// resets delete completed rows, and the usage limit is a lifetime cap.
func (r *progressRepository) CountCompletions(ctx context.Context, userID, missionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM mission_completions WHERE user_id = $1 AND mission_id = $2",
		userID, missionID,
	).Scan(&count)
	if err != nil {
		return 0, r.mapDBError(err, "count_completions")
	}
	return count, nil
}

// DeleteExpiredForUser purges one user's stale instances, run
// opportunistically before eligibility and progress computation.
func (r *progressRepository) DeleteExpiredForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_missions
		WHERE user_id = $1 AND NOT is_completed AND expires_at IS NOT NULL AND expires_at <= $2
	`, userID, now)
	if err != nil {
		return 0, r.mapDBError(err, "purge_expired_for_user")
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired purges every stale uncompleted instance
func (r *progressRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_missions
		WHERE NOT is_completed AND expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, r.mapDBError(err, "purge_expired")
	}
	return tag.RowsAffected(), nil
}

// ResetCompletedByKind deletes completed instances of every mission of
// the given kind so the missions become available again.
func (r *progressRepository) ResetCompletedByKind(ctx context.Context, missionKind string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_missions p
		USING missions m
		WHERE p.mission_id = m.id AND m.mission_kind = $1 AND p.is_completed
	`, missionKind)
	if err != nil {
		return 0, r.mapDBError(err, "reset_periodic")
	}
	return tag.RowsAffected(), nil
}

func scanProgress(row pgx.Row) (*models.UserMissionProgress, error) {
	progress := &models.UserMissionProgress{}
	err := row.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.MissionID,
		&progress.CurrentProgress,
		&progress.IsCompleted,
		&progress.CompletedAt,
		&progress.ExpiresAt,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// mapDBError maps database errors to application errors
func (r *progressRepository) mapDBError(err error, operation string) error {
	if err == pgx.ErrNoRows {
		return fmt.Errorf("%s: %w", operation, models.ErrProgressNotFound)
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", operation, models.ErrMissionNotFound)
		case "23505": // unique_violation
			return fmt.Errorf("concurrent progress creation during %s: %w", operation, err)
		}
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}

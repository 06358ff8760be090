package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"missionhub/pkg/models"
)

// LedgerRepository handles the per-user points and level ledger
type LedgerRepository interface {
	Get(ctx context.Context, userID string) (*models.UserPointsLedger, error)
	// AdjustPoints applies delta atomically and recomputes the level.
	// A negative delta that would take the balance below zero fails with
	// ErrInsufficientPoints; the balance never goes negative.
	AdjustPoints(ctx context.Context, userID string, delta int) (*models.UserPointsLedger, error)
	TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

type ledgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL points ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) LedgerRepository {
	return &ledgerRepository{pool: pool}
}

// Get retrieves a user's ledger row, lazily creating a zero-points row
// for users the registration flow has not seeded yet.
func (r *ledgerRepository) Get(ctx context.Context, userID string) (*models.UserPointsLedger, error) {
	ledger := &models.UserPointsLedger{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, total_points, current_level, level_progress, updated_at
		FROM user_points
		WHERE user_id = $1
	`, userID).Scan(
		&ledger.UserID,
		&ledger.TotalPoints,
		&ledger.CurrentLevel,
		&ledger.LevelProgress,
		&ledger.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return r.AdjustPoints(ctx, userID, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("database error during get_ledger: %w", err)
	}
	return ledger, nil
}

// AdjustPoints applies the delta inside a transaction
func (r *ledgerRepository) AdjustPoints(ctx context.Context, userID string, delta int) (*models.UserPointsLedger, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error during adjust_points: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	ledger, err := applyPointsDelta(ctx, tx, userID, delta, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error during adjust_points commit: %w", err)
	}
	return ledger, nil
}

// TopByPoints returns the points leaderboard, highest first
func (r *ledgerRepository) TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT p.user_id, COALESCE(u.username, p.user_id), p.total_points, p.current_level
		FROM user_points p
		LEFT JOIN users u ON u.id = p.user_id
		ORDER BY p.total_points DESC, p.user_id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("database error during leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	rank := 0
	for rows.Next() {
		entry := &models.LeaderboardEntry{}
		err := rows.Scan(&entry.UserID, &entry.Username, &entry.TotalPoints, &entry.Level)
		if err != nil {
			return nil, fmt.Errorf("database error during leaderboard scan: %w", err)
		}
		rank++
		entry.Rank = rank
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error during leaderboard iterate: %w", err)
	}
	return entries, nil
}

// applyPointsDelta is the single write path for the ledger. The increment
// is expressed in SQL against the stored balance, not read-modify-write in
// the application, and the row lock taken by the first UPDATE covers the
// level recompute until commit. Shared with the progress repository so a
// completion credit lands in the same transaction as the completion flip.
func applyPointsDelta(ctx context.Context, tx pgx.Tx, userID string, delta int, now time.Time) (*models.UserPointsLedger, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_points (user_id, total_points, current_level, level_progress, updated_at)
		VALUES ($1, 0, 'bronze', 0, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("database error during ensure_ledger: %w", err)
	}

	var total int
	err = tx.QueryRow(ctx, `
		UPDATE user_points
		SET total_points = total_points + $2, updated_at = $3
		WHERE user_id = $1 AND total_points + $2 >= 0
		RETURNING total_points
	`, userID, delta, now).Scan(&total)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("adjust_points for %s: %w", userID, models.ErrInsufficientPoints)
	}
	if err != nil {
		return nil, fmt.Errorf("database error during increment_points: %w", err)
	}

	level, progress := models.LevelForPoints(total)
	_, err = tx.Exec(ctx, `
		UPDATE user_points
		SET current_level = $2, level_progress = $3
		WHERE user_id = $1
	`, userID, level, progress)
	if err != nil {
		return nil, fmt.Errorf("database error during recompute_level: %w", err)
	}

	return &models.UserPointsLedger{
		UserID:        userID,
		TotalPoints:   total,
		CurrentLevel:  level,
		LevelProgress: progress,
		UpdatedAt:     now,
	}, nil
}

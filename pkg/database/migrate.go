package database

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. Statements are ordered so
// foreign keys resolve; IF NOT EXISTS keeps repeat runs harmless.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		plan       TEXT NOT NULL DEFAULT 'free' CHECK (plan IN ('free', 'premium')),
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS actions (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		action_type   TEXT NOT NULL,
		resource_id   TEXT,
		resource_type TEXT,
		occurred_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_user_occurred
		ON actions (user_id, occurred_at DESC)`,

	`CREATE TABLE IF NOT EXISTS missions (
		id                  TEXT PRIMARY KEY,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		reward_points       INTEGER NOT NULL CHECK (reward_points >= 0),
		trigger_action_type TEXT NOT NULL,
		target_count        INTEGER NOT NULL CHECK (target_count >= 1),
		mission_kind        TEXT NOT NULL CHECK (mission_kind IN ('daily', 'weekly', 'monthly', 'achievement', 'permanent')),
		icon                TEXT NOT NULL DEFAULT '',
		color               TEXT NOT NULL DEFAULT '',
		active_from         TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		active_until        TIMESTAMPTZ,
		min_level           TEXT NOT NULL DEFAULT 'bronze' CHECK (min_level IN ('bronze', 'silver', 'gold', 'diamond')),
		min_points          INTEGER NOT NULL DEFAULT 0,
		premium_only        BOOLEAN NOT NULL DEFAULT FALSE,
		usage_limit         INTEGER NOT NULL DEFAULT 0,
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_missions_trigger
		ON missions (trigger_action_type) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS user_missions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		mission_id       TEXT NOT NULL REFERENCES missions (id) ON DELETE CASCADE,
		current_progress INTEGER NOT NULL DEFAULT 0,
		is_completed     BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at     TIMESTAMPTZ,
		expires_at       TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, mission_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_missions_expiry
		ON user_missions (expires_at) WHERE NOT is_completed`,

	`CREATE TABLE IF NOT EXISTS user_points (
		user_id        TEXT PRIMARY KEY,
		total_points   INTEGER NOT NULL DEFAULT 0 CHECK (total_points >= 0),
		current_level  TEXT NOT NULL DEFAULT 'bronze',
		level_progress INTEGER NOT NULL DEFAULT 0,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_points_total
		ON user_points (total_points DESC)`,

	`CREATE TABLE IF NOT EXISTS mission_completions (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		mission_id   TEXT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mission_completions_pair
		ON mission_completions (user_id, mission_id)`,
}

// Migrate applies the schema over the database/sql connection.
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

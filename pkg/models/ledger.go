// Package models - Points and Level Ledger Types
// One ledger row per user; level is a pure function of total points
package models

import (
	"time"
)

// Level thresholds (canonical table): bronze < 100 <= silver < 500 <= gold < 1500 <= diamond
const (
	SilverThreshold  = 100
	GoldThreshold    = 500
	DiamondThreshold = 1500
)

// UserPointsLedger accumulates a user's points and derived level
type UserPointsLedger struct {
	UserID        string    `json:"user_id" db:"user_id"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	CurrentLevel  string    `json:"current_level" db:"current_level"`
	LevelProgress int       `json:"level_progress" db:"level_progress"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// LevelForPoints derives the level tier and progress within it from a
// total points balance. Deterministic; recomputed on every point change.
func LevelForPoints(totalPoints int) (level string, levelProgress int) {
	switch {
	case totalPoints >= DiamondThreshold:
		return LevelDiamond, totalPoints - DiamondThreshold
	case totalPoints >= GoldThreshold:
		return LevelGold, totalPoints - GoldThreshold
	case totalPoints >= SilverThreshold:
		return LevelSilver, totalPoints - SilverThreshold
	default:
		return LevelBronze, totalPoints
	}
}

// NextLevelAt returns the points threshold for the next tier, or 0 when
// the user is already at the top tier.
func NextLevelAt(totalPoints int) int {
	switch {
	case totalPoints >= DiamondThreshold:
		return 0
	case totalPoints >= GoldThreshold:
		return DiamondThreshold
	case totalPoints >= SilverThreshold:
		return GoldThreshold
	default:
		return SilverThreshold
	}
}

// LedgerView is the profile-facing points summary
type LedgerView struct {
	UserID        string `json:"user_id"`
	TotalPoints   int    `json:"total_points"`
	CurrentLevel  string `json:"current_level"`
	LevelProgress int    `json:"level_progress"`
	NextLevelAt   int    `json:"next_level_at,omitempty"`
}

// LeaderboardEntry is one row of the points leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
	Level       string `json:"level"`
}

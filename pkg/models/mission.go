// Package models - Mission Catalog Types
// Mission definitions with rewards, triggers, eligibility gates and active windows
package models

import (
	"time"
)

// Mission kinds
const (
	MissionDaily       = "daily"
	MissionWeekly      = "weekly"
	MissionMonthly     = "monthly"
	MissionAchievement = "achievement"
	MissionPermanent   = "permanent"
)

// Level tiers, ordered bronze < silver < gold < diamond
const (
	LevelBronze  = "bronze"
	LevelSilver  = "silver"
	LevelGold    = "gold"
	LevelDiamond = "diamond"
)

// levelOrder gives each tier its position on the ordered scale.
var levelOrder = map[string]int{
	LevelBronze:  0,
	LevelSilver:  1,
	LevelGold:    2,
	LevelDiamond: 3,
}

// LevelIndex returns the position of a tier on the ordered scale.
// Unrecognized tiers rank lowest so they never block participation.
func LevelIndex(level string) int {
	if idx, ok := levelOrder[level]; ok {
		return idx
	}
	return 0
}

// ValidMissionKind reports whether kind is one of the supported mission kinds.
func ValidMissionKind(kind string) bool {
	switch kind {
	case MissionDaily, MissionWeekly, MissionMonthly, MissionAchievement, MissionPermanent:
		return true
	}
	return false
}

// MissionDefinition is a configured, reward-bearing rule
type MissionDefinition struct {
	ID                string     `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Description       string     `json:"description,omitempty" db:"description"`
	RewardPoints      int        `json:"reward_points" db:"reward_points"`
	TriggerActionType string     `json:"trigger_action_type" db:"trigger_action_type"` // canonical name
	TargetCount       int        `json:"target_count" db:"target_count"`
	MissionKind       string     `json:"mission_kind" db:"mission_kind"` // daily, weekly, monthly, achievement, permanent
	Icon              string     `json:"icon,omitempty" db:"icon"`       // presentation only
	Color             string     `json:"color,omitempty" db:"color"`     // presentation only
	ActiveFrom        time.Time  `json:"active_from" db:"active_from"`
	ActiveUntil       *time.Time `json:"active_until,omitempty" db:"active_until"`
	MinLevel          string     `json:"min_level" db:"min_level"` // bronze default: always passes
	MinPoints         int        `json:"min_points" db:"min_points"`
	PremiumOnly       bool       `json:"premium_only" db:"premium_only"`
	UsageLimit        int        `json:"usage_limit" db:"usage_limit"` // <= 0 means unlimited
	IsActive          bool       `json:"is_active" db:"is_active"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// MissionInput is the admin create/update payload
type MissionInput struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	RewardPoints      int        `json:"reward_points"`
	TriggerActionType string     `json:"trigger_action_type"`
	TargetCount       int        `json:"target_count"`
	MissionKind       string     `json:"mission_kind"`
	Icon              string     `json:"icon"`
	Color             string     `json:"color"`
	ActiveFrom        *time.Time `json:"active_from,omitempty"`
	ActiveUntil       *time.Time `json:"active_until,omitempty"`
	MinLevel          string     `json:"min_level"`
	MinPoints         int        `json:"min_points"`
	PremiumOnly       bool       `json:"premium_only"`
	UsageLimit        int        `json:"usage_limit"`
	IsActive          *bool      `json:"is_active,omitempty"`
}

// MissionView combines a definition with the viewing user's progress for display
type MissionView struct {
	Mission     *MissionDefinition `json:"mission"`
	Progress    int                `json:"progress"`
	Completed   bool               `json:"completed"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty"`
}

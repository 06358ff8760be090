package models

import (
	"time"
)

// UserMissionProgress is the per-user, per-mission state machine instance.
// Keyed by (user_id, mission_id), unique per pair. Created lazily on the
// first matching action; deleted when it expires or when its periodic
// boundary passes after completion.
type UserMissionProgress struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	MissionID       string     `json:"mission_id" db:"mission_id"`
	CurrentProgress int        `json:"current_progress" db:"current_progress"`
	IsCompleted     bool       `json:"is_completed" db:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the instance is past its per-user expiration.
// Instances without an expiration (achievement, permanent) never expire.
func (p *UserMissionProgress) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

// MissionCompletedEvent is published when a user completes a mission.
// Consumed by the notification hub; the engine itself only emits it.
type MissionCompletedEvent struct {
	UserID       string    `json:"user_id"`
	MissionID    string    `json:"mission_id"`
	MissionTitle string    `json:"mission_title"`
	RewardPoints int       `json:"reward_points"`
	TotalPoints  int       `json:"total_points"`
	Level        string    `json:"level"`
	LeveledUp    bool      `json:"leveled_up"`
	CompletedAt  time.Time `json:"completed_at"`
}

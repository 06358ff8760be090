// Package models - Action Tracking Types
// Canonical action vocabulary and the append-only action event record
package models

import (
	"time"
)

// ActionType is the canonical name of a trackable user action.
type ActionType string

// Canonical action types - ENFORCES the trigger vocabulary used for rule matching
const (
	ActionVideoWatched      ActionType = "video_watched"
	ActionVideoLiked        ActionType = "video_liked"
	ActionVideoCommented    ActionType = "video_commented"
	ActionVideoShared       ActionType = "video_shared"
	ActionProductDownloaded ActionType = "product_downloaded"
	ActionProductShared     ActionType = "product_shared"
	ActionProductCommented  ActionType = "product_commented"
	ActionCouponUsed        ActionType = "coupon_used"
	ActionReferralGeneral   ActionType = "referral_general"
	ActionReferralFree      ActionType = "referral_free"
	ActionReferralPremium   ActionType = "referral_premium"
	ActionLoginStreak       ActionType = "login_streak"
	ActionProfileUpdated    ActionType = "profile_updated"
	ActionMissionCompleted  ActionType = "mission_completed"
	ActionRewardRedeemed    ActionType = "reward_redeemed"
	ActionRaffleEntered     ActionType = "raffle_entered"

	// ActionUnknown is the explicit fallback for names outside the vocabulary.
	ActionUnknown ActionType = "unknown"
)

// legacyAliases maps deprecated action names to their canonical replacements.
// The raw name is still persisted in the action log for audit purposes.
var legacyAliases = map[string]ActionType{
	"like_video":       ActionVideoLiked,
	"watch_video":      ActionVideoWatched,
	"comment_video":    ActionVideoCommented,
	"share_video":      ActionVideoShared,
	"download_product": ActionProductDownloaded,
	"share_product":    ActionProductShared,
	"use_coupon":       ActionCouponUsed,
}

// ParseActionType normalizes a raw action name to its canonical type.
// Legacy aliases are translated; anything outside the vocabulary parses
// to ActionUnknown so callers can decide how to treat it.
func ParseActionType(raw string) ActionType {
	if canonical, ok := legacyAliases[raw]; ok {
		return canonical
	}
	t := ActionType(raw)
	if t.Known() {
		return t
	}
	return ActionUnknown
}

// Known reports whether the type belongs to the canonical vocabulary.
func (t ActionType) Known() bool {
	switch t {
	case ActionVideoWatched, ActionVideoLiked, ActionVideoCommented, ActionVideoShared,
		ActionProductDownloaded, ActionProductShared, ActionProductCommented,
		ActionCouponUsed, ActionReferralGeneral, ActionReferralFree, ActionReferralPremium,
		ActionLoginStreak, ActionProfileUpdated, ActionMissionCompleted,
		ActionRewardRedeemed, ActionRaffleEntered:
		return true
	}
	return false
}

func (t ActionType) String() string {
	return string(t)
}

// ActionEvent is an immutable record of one user action - append-only
type ActionEvent struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	ActionType   string    `json:"action_type" db:"action_type"` // raw name as received, for audit
	ResourceID   *string   `json:"resource_id,omitempty" db:"resource_id"`
	ResourceType *string   `json:"resource_type,omitempty" db:"resource_type"`
	OccurredAt   time.Time `json:"occurred_at" db:"occurred_at"`
}

// TrackRequest is the inbound trigger payload for action tracking
type TrackRequest struct {
	UserID       string  `json:"user_id" validate:"required"`
	ActionType   string  `json:"action_type" validate:"required"`
	ResourceID   *string `json:"resource_id,omitempty"`
	ResourceType *string `json:"resource_type,omitempty"`
}

// ActionFeedResponse represents a paginated slice of a user's action log
type ActionFeedResponse struct {
	Data    []ActionEvent `json:"data"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"has_more"`
}

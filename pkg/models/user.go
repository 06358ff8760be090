package models

import (
	"time"
)

// Subscription plans
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// User is the minimal account record the engine needs for eligibility
// (subscription plan) and display (username). Registration, sessions and
// profile management live in the platform's user service.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Plan      string    `json:"plan" db:"plan"` // free, premium
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Premium reports whether the user has an active premium subscription.
func (u *User) Premium() bool {
	return u.Plan == PlanPremium
}

// Package core - Mission Engine Business Logic
// Protocol-agnostic gamification services: action tracking, mission
// catalog, eligibility, progress, points ledger and maintenance sweeps.
package core

import (
	"missionhub/pkg/models"
)

// Eligible decides whether a user may participate in a mission. Pure:
// all state it needs comes in as arguments. All gates must pass; a
// failed gate just means the mission ignores the user's actions.
//
// completions is the user's lifetime completion count for this mission,
// consulted only when the mission carries a usage limit.
func Eligible(user *models.User, ledger *models.UserPointsLedger, mission *models.MissionDefinition, completions int) bool {
	if !levelGate(ledger, mission) {
		return false
	}
	if !pointsGate(ledger, mission) {
		return false
	}
	if !planGate(user, mission) {
		return false
	}
	return usageGate(mission, completions)
}

// levelGate passes when the user's tier is at or above the mission's
// minimum on the bronze < silver < gold < diamond scale. The bronze
// default always passes.
func levelGate(ledger *models.UserPointsLedger, mission *models.MissionDefinition) bool {
	return models.LevelIndex(ledger.CurrentLevel) >= models.LevelIndex(mission.MinLevel)
}

// pointsGate passes when the user's balance meets the mission's floor.
func pointsGate(ledger *models.UserPointsLedger, mission *models.MissionDefinition) bool {
	return ledger.TotalPoints >= mission.MinPoints
}

// planGate passes unless the mission is premium-only and the user is not.
func planGate(user *models.User, mission *models.MissionDefinition) bool {
	if !mission.PremiumOnly {
		return true
	}
	return user.Premium()
}

// usageGate caps lifetime completions when the limit is positive.
// A limit of zero or less means unlimited.
func usageGate(mission *models.MissionDefinition, completions int) bool {
	if mission.UsageLimit <= 0 {
		return true
	}
	return completions < mission.UsageLimit
}

package utils

import (
	"regexp"
	"strings"

	"missionhub/pkg/models"
)

var actionNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

// ValidateActionName checks the raw action name shape before any lookup.
// Canonicalization happens later; this only rejects garbage input.
func ValidateActionName(name string) error {
	if !actionNameRegex.MatchString(name) {
		return models.ErrInvalidInput
	}
	return nil
}

// ValidateMissionTitle validates a mission title for admin create/update
func ValidateMissionTitle(title string) error {
	if len(strings.TrimSpace(title)) < 2 {
		return models.ErrInvalidInput
	}
	if len(title) > 255 {
		return models.ErrInvalidInput
	}
	return nil
}

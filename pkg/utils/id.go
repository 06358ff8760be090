package utils

import (
	"github.com/google/uuid"
)

// NewID returns a random UUID string for entity identifiers.
func NewID() string {
	return uuid.New().String()
}

package core

import (
	"missionhub/pkg/models"
)

// Notifier receives mission completion events. The websocket hub is the
// production implementation; it is injected rather than reached through
// any global so the engine stays testable.
type Notifier interface {
	MissionCompleted(event *models.MissionCompletedEvent)
}

// NopNotifier discards events, for the sweeper binary and tests
type NopNotifier struct{}

func (NopNotifier) MissionCompleted(*models.MissionCompletedEvent) {}

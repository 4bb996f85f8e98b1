package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel every progression event is published on.
const DashboardChannel = "dashboard:events"

// Event types
const (
	EventTypeHabitUpdate     = "habit_update"
	EventTypeGoalUpdate      = "goal_update"
	EventTypeLevelUp         = "level_up"
	EventTypeStreakMilestone = "streak_milestone"

	DashboardEventCacheInvalidate = "cache_invalidate"
)

// DashboardEvent is the payload subscribers (web dashboard, notification workers) receive.
type DashboardEvent struct {
	EventType string      `json:"event_type"`
	UserID    uuid.UUID   `json:"user_id"`
	EntityID  uuid.UUID   `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}

// Publisher fans events out. Publishing is best-effort: callers log failures and carry on.
type Publisher interface {
	PublishDashboardEvent(ctx context.Context, event *DashboardEvent) error
}

// Publish sends the event when a publisher is configured and returns the publisher's error.
func Publish(ctx context.Context, p Publisher, eventType string, userID, entityID uuid.UUID, details interface{}) error {
	if p == nil {
		return nil
	}
	return p.PublishDashboardEvent(ctx, &DashboardEvent{
		EventType: eventType,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}

// Package comms carries change events from the planner to live listeners.
package comms

import (
	"context"
	"time"
)

// Action names what happened to an entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event announces a committed mutation of one of a user's entities.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Entity    string    `json:"entity"` // task, plan, block
	EntityID  string    `json:"entityId"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives events for one user.
type Handler func(ctx context.Context, ev *Event) error

// Bus fans events out to per-user subscribers.
type Bus interface {
	// Publish delivers ev to every subscriber of ev.UserID.
	Publish(ctx context.Context, ev *Event) error

	// Subscribe registers a handler for events of userID.
	// Returns an unsubscribe function.
	Subscribe(userID string, handler Handler) (unsubscribe func())

	// History returns the most recent events of userID, oldest first.
	History(userID string, limit int) ([]*Event, error)
}

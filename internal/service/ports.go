package service

import (
	"context"
	"time"

	"github.com/Saschakew/ShoppingLists/internal/dto"
)

// EventPublisher delivers an event to every current member of a list's room.
// Publish returns once the event is queued for every member; delivery failures are not reported.
type EventPublisher interface {
	Publish(listID uint, event dto.Envelope)
}

// RoomEvictor removes a user's live connections from a list's room so they
// stop receiving its events.
type RoomEvictor interface {
	LeaveUser(listID, userID uint) int
}

// ActivityRecorder records that a list was mutated at a given time.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, listID uint, at time.Time) error
}

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

type noopActivity struct{}

func (noopActivity) RecordActivity(context.Context, uint, time.Time) error { return nil }

// Package events carries the notifications the game engine emits while it
// mutates state. The presentation layer turns them into toasts and sounds;
// they are never persisted.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of an engine event.
type EventType string

const (
	EventTypeGameStarted  EventType = "GAME_STARTED"
	EventTypeGamePaused   EventType = "GAME_PAUSED"
	EventTypeGameResumed  EventType = "GAME_RESUMED"
	EventTypeFoodEaten    EventType = "FOOD_EATEN"
	EventTypeSpeedChanged EventType = "SPEED_CHANGED"
	EventTypeNewHighScore EventType = "NEW_HIGH_SCORE"
	EventTypeGameOver     EventType = "GAME_OVER"
	EventTypeGameWon      EventType = "GAME_WON"
	EventTypeGameReset    EventType = "GAME_RESET"
	EventTypeGridResized  EventType = "GRID_RESIZED"
)

// Cause explains why a game ended.
type Cause string

const (
	CauseWall      Cause = "wall"
	CauseSelf      Cause = "self"
	CauseBoardFull Cause = "board_full"
)

// Event is a single engine notification.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	Score      int       `json:"score"`
	IntervalMs int       `json:"interval_ms,omitempty"`
	GridSize   int       `json:"grid_size,omitempty"`
	Cause      Cause     `json:"cause,omitempty"`
}

// New stamps an event of the given type.
func New(t EventType, score int) Event {
	return Event{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      t,
		Score:     score,
	}
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}

// Outbox buffers events between drains. It is owned by a single goroutine.
type Outbox struct {
	pending []Event
}

// Append queues an event.
func (o *Outbox) Append(e Event) {
	o.pending = append(o.pending, e)
}

// Len returns the number of queued events.
func (o *Outbox) Len() int {
	return len(o.pending)
}

// Drain returns the queued events in order and empties the outbox.
func (o *Outbox) Drain() []Event {
	if len(o.pending) == 0 {
		return nil
	}
	out := o.pending
	o.pending = nil
	return out
}

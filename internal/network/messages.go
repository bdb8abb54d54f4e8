package network

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/GridSnake/internal/controls"
	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
)

// Server to client message types.
const (
	MessageHello     = "hello"
	MessageState     = "state"
	MessageHighScore = "high_score"
	MessageError     = "error"
)

// Client to server message types.
const (
	ActionDirection = "direction"
	ActionKey       = "key"
	ActionSwipe     = "swipe"
	ActionPause     = "pause"
	ActionStart     = "start"
	ActionReset     = "reset"
	ActionResize    = "resize"
)

var (
	// ErrUnknownMessage is returned for message types the server does not speak.
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrNoIntent marks input that is valid but means nothing, such as a tap
	// or an unmapped key.
	ErrNoIntent = errors.New("input carries no intent")
)

// ClientMessage is an incoming command from the browser.
type ClientMessage struct {
	Type      string  `json:"type"`
	Direction string  `json:"direction,omitempty"` // direction
	Key       string  `json:"key,omitempty"`       // key: KeyboardEvent.key
	DX        float64 `json:"dx,omitempty"`        // swipe, pixels
	DY        float64 `json:"dy,omitempty"`        // swipe, pixels
	Width     int     `json:"width,omitempty"`     // resize: viewport width in pixels
}

// ServerMessage is an outgoing message. Only the fields of its Type are set.
type ServerMessage struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	State     *engine.GameState `json:"state,omitempty"`
	Events    []events.Event    `json:"events,omitempty"`
	HighScore int               `json:"high_score,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Intent translates the message into an engine intent.
func (m ClientMessage) Intent() (engine.Intent, error) {
	switch m.Type {
	case ActionDirection:
		d, err := grid.ParseDirection(m.Direction)
		if err != nil {
			return engine.Intent{}, err
		}
		return engine.DirectionIntent(d), nil
	case ActionKey:
		in, ok := controls.KeyIntent(m.Key)
		if !ok {
			return engine.Intent{}, ErrNoIntent
		}
		return in, nil
	case ActionSwipe:
		d, ok := controls.ClassifySwipe(m.DX, m.DY, controls.DefaultSwipeThreshold)
		if !ok {
			return engine.Intent{}, ErrNoIntent
		}
		return engine.DirectionIntent(d), nil
	case ActionPause:
		return engine.Intent{Kind: engine.IntentPause}, nil
	case ActionStart:
		return engine.Intent{Kind: engine.IntentStart}, nil
	case ActionReset:
		return engine.Intent{Kind: engine.IntentReset}, nil
	case ActionResize:
		if m.Width <= 0 {
			return engine.Intent{}, fmt.Errorf("resize: width must be positive, got %d", m.Width)
		}
		return engine.Intent{Kind: engine.IntentResize, GridSize: controls.GridSizeForViewport(m.Width)}, nil
	default:
		return engine.Intent{}, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
}

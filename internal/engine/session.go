package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/events"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
)

// IntentKind identifies a user request.
type IntentKind string

const (
	IntentDirection IntentKind = "direction"
	IntentPause     IntentKind = "pause"
	IntentStart     IntentKind = "start"
	IntentReset     IntentKind = "reset"
	IntentResize    IntentKind = "resize"
)

// Intent is a user request forwarded by the presentation layer.
type Intent struct {
	Kind      IntentKind
	Direction grid.Direction // IntentDirection
	GridSize  int            // IntentResize
}

// DirectionIntent builds a direction change request.
func DirectionIntent(d grid.Direction) Intent {
	return Intent{Kind: IntentDirection, Direction: d}
}

// Publisher receives the state after every change together with the events
// the change produced.
type Publisher interface {
	Publish(state GameState, evs []events.Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(GameState, []events.Event)

// Publish calls f.
func (f PublisherFunc) Publish(state GameState, evs []events.Event) {
	f(state, evs)
}

// ScoreBoard is the shared best score across sessions.
type ScoreBoard interface {
	ScoreRecorder
	Best() int
}

// ErrSessionClosed is returned when talking to a session that has stopped.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig wires a session.
type SessionConfig struct {
	ID        string
	Rules     Rules
	Scheduler Scheduler
	Publisher Publisher
	// Board is optional; without it high scores live only in memory.
	Board   ScoreBoard
	Logger  *logger.Logger
	Metrics *metrics.Collector
	// Rand is optional; it seeds food placement.
	Rand *rand.Rand
	// Game is optional; it replaces the freshly built game, e.g. with a
	// loaded position.
	Game *Game
}

// Session is the single execution context of one game: user intents, ticks
// and state queries are all serialized onto the goroutine running Run.
type Session struct {
	id      string
	game    *Game
	sched   Scheduler
	pub     Publisher
	board   ScoreBoard
	log     *logger.Logger
	metrics *metrics.Collector

	intents chan Intent
	queries chan chan GameState
	done    chan struct{}

	armed       time.Duration
	pendingGrid int
}

// NewSession builds a session. Call Run to start it.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Scheduler == nil {
		return nil, fmt.Errorf("session %s: scheduler is required", cfg.ID)
	}
	if cfg.Game == nil {
		if err := cfg.Rules.Validate(); err != nil {
			return nil, fmt.Errorf("session %s: %w", cfg.ID, err)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Get()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = PublisherFunc(func(GameState, []events.Event) {})
	}

	game := cfg.Game
	if game == nil {
		opts := []Option{}
		if cfg.Rand != nil {
			opts = append(opts, WithRand(cfg.Rand))
		}
		if cfg.Board != nil {
			opts = append(opts, WithRecorder(cfg.Board), WithHighScore(cfg.Board.Best()))
		}
		game = NewGame(cfg.Rules, opts...)
	}

	return &Session{
		id:      cfg.ID,
		game:    game,
		sched:   cfg.Scheduler,
		pub:     cfg.Publisher,
		board:   cfg.Board,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		intents: make(chan Intent),
		queries: make(chan chan GameState),
		done:    make(chan struct{}),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run drives the game until ctx is cancelled. On return the scheduler is
// stopped and no further mutation or publication happens.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.sched.Stop()

	s.metrics.RecordSession(1)
	defer s.metrics.RecordSession(-1)

	s.log.Event("SESSION_START", s.id, fmt.Sprintf("grid %d, border %s", s.game.GridSize(), s.game.Rules().Border))
	s.rearm()
	s.publish()

	for {
		select {
		case <-ctx.Done():
			s.log.Event("SESSION_STOP", s.id, "context done")
			return nil
		case in := <-s.intents:
			if s.apply(in) {
				s.rearm()
				s.publish()
			}
		case reply := <-s.queries:
			reply <- s.game.State()
		case <-s.sched.C():
			s.syncHighScore()
			start := time.Now()
			changed := s.game.Tick()
			s.metrics.RecordTick(time.Since(start))
			if changed {
				s.rearm()
				s.publish()
			}
		}
	}
}

// Submit hands an intent to the session loop.
func (s *Session) Submit(ctx context.Context, in Intent) error {
	select {
	case s.intents <- in:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State asks the session loop for a snapshot. Because the query is served by
// the loop, it observes every intent and tick received before it.
func (s *Session) State(ctx context.Context) (GameState, error) {
	reply := make(chan GameState, 1)
	select {
	case s.queries <- reply:
	case <-s.done:
		return GameState{}, ErrSessionClosed
	case <-ctx.Done():
		return GameState{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return GameState{}, ctx.Err()
	}
}

func (s *Session) apply(in Intent) bool {
	switch in.Kind {
	case IntentDirection:
		return s.game.SetDirection(in.Direction)
	case IntentPause:
		return s.game.PauseToggle()
	case IntentStart:
		return s.game.Start()
	case IntentReset:
		s.reset()
		return true
	case IntentResize:
		return s.resize(in.GridSize)
	default:
		s.log.Warnf("session %s: unknown intent %q", s.id, in.Kind)
		return false
	}
}

func (s *Session) reset() {
	s.syncHighScore()
	size := s.game.GridSize()
	if s.pendingGrid > 0 {
		size = s.pendingGrid
		s.pendingGrid = 0
	}
	s.game.Reset(size)
}

// syncHighScore lifts the game's best to the shared one, which other
// sessions may have raised meanwhile.
func (s *Session) syncHighScore() {
	if s.board != nil {
		s.game.ObserveHighScore(s.board.Best())
	}
}

// resize takes effect immediately on an idle board and otherwise at the next
// reset, so a running game never changes under the player.
func (s *Session) resize(size int) bool {
	if size <= 0 {
		return false
	}
	size = s.game.Rules().clampGridSize(size)
	if size == s.game.GridSize() {
		s.pendingGrid = 0
		return false
	}
	if s.game.Phase() != PhaseNotStarted {
		s.pendingGrid = size
		return false
	}
	s.pendingGrid = size
	s.reset()
	s.game.outbox.Append(events.Event{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeGridResized,
		GridSize:  size,
	})
	return true
}

func (s *Session) rearm() {
	if iv := s.game.Interval(); iv != s.armed {
		s.sched.Reset(iv)
		s.armed = iv
	}
}

func (s *Session) publish() {
	evs := s.game.Drain()
	for _, ev := range evs {
		switch ev.Type {
		case events.EventTypeFoodEaten:
			s.metrics.RecordFood()
		case events.EventTypeGameStarted:
			s.metrics.RecordGameStarted()
		case events.EventTypeGameOver:
			s.metrics.RecordGameOver(false)
			s.log.Event(string(ev.Type), s.id, fmt.Sprintf("score %d, cause %s", ev.Score, ev.Cause))
		case events.EventTypeGameWon:
			s.metrics.RecordGameOver(true)
			s.log.Event(string(ev.Type), s.id, fmt.Sprintf("score %d", ev.Score))
		case events.EventTypeNewHighScore:
			s.log.Event(string(ev.Type), s.id, fmt.Sprintf("score %d", ev.Score))
		}
	}
	s.pub.Publish(s.game.State(), evs)
}

package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/events"
)

// ScoreRecorder persists a new best score.
// The engine calls it synchronously from Tick, so implementations must not
// block on slow storage.
type ScoreRecorder interface {
	RecordHighScore(score int)
}

// Phase is the position of a game in its lifecycle.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhasePaused     Phase = "paused"
	PhaseOver       Phase = "over"
	PhaseWon        Phase = "won"
)

// GameState is a self-contained snapshot of a game.
type GameState struct {
	Snake           []grid.Cell       `json:"snake"`
	Food            grid.Cell         `json:"food"`
	Direction       grid.Direction    `json:"direction"`
	Score           int               `json:"score"`
	HighScore       int               `json:"high_score"`
	SpeedIntervalMs int               `json:"speed_interval_ms"`
	GridSize        int               `json:"grid_size"`
	Border          grid.BorderPolicy `json:"border"`
	Started         bool              `json:"started"`
	Paused          bool              `json:"paused"`
	Over            bool              `json:"over"`
	Won             bool              `json:"won"`
	Phase           Phase             `json:"phase"`
	Tick            uint64            `json:"tick"`
}

// Head returns the first snake cell.
func (s GameState) Head() grid.Cell {
	return s.Snake[0]
}

// Game is the snake state machine. It owns its state and is not safe for
// concurrent use: a single goroutine (see Session) must drive it.
type Game struct {
	rules    Rules
	rng      *rand.Rand
	recorder ScoreRecorder
	outbox   events.Outbox

	snake     []grid.Cell
	food      grid.Cell
	direction grid.Direction
	// heading is the direction of the last executed move.
	heading   grid.Direction
	score     int
	highScore int
	interval  time.Duration
	gridSize  int
	started   bool
	paused    bool
	over      bool
	won       bool
	ticks     uint64
}

// Option customizes a Game.
type Option func(*Game)

// WithRand makes food placement use r.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithSeed makes food placement deterministic.
func WithSeed(seed int64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithRecorder registers the sink for new best scores.
func WithRecorder(rec ScoreRecorder) Option {
	return func(g *Game) { g.recorder = rec }
}

// WithHighScore seeds the best score loaded from storage.
func WithHighScore(score int) Option {
	return func(g *Game) {
		if score > 0 {
			g.highScore = score
		}
	}
}

// NewGame creates a game in the not-started phase.
func NewGame(rules Rules, opts ...Option) *Game {
	g := &Game{rules: rules}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.reset(rules.GridSize)
	return g
}

// Rules returns the tunables the game was built with.
func (g *Game) Rules() Rules {
	return g.rules
}

// Phase derives the lifecycle phase from the flags.
func (g *Game) Phase() Phase {
	switch {
	case g.won:
		return PhaseWon
	case g.over:
		return PhaseOver
	case !g.started:
		return PhaseNotStarted
	case g.paused:
		return PhasePaused
	default:
		return PhaseRunning
	}
}

// Interval returns the current time between ticks.
func (g *Game) Interval() time.Duration {
	return g.interval
}

// GridSize returns the side of the current play area.
func (g *Game) GridSize() int {
	return g.gridSize
}

// SetDirection requests a new heading. It reports whether the request was
// accepted. Reversals and any input after the game ended are ignored.
// An accepted request starts a game that has not started yet.
func (g *Game) SetDirection(d grid.Direction) bool {
	if g.over || !d.Valid() {
		return false
	}
	if d == g.direction.Opposite() || d == g.heading.Opposite() {
		return false
	}
	g.direction = d
	if !g.started {
		g.started = true
		g.outbox.Append(events.New(events.EventTypeGameStarted, g.score))
	}
	return true
}

// Start starts a fresh game or resumes a paused one.
func (g *Game) Start() bool {
	if g.over {
		return false
	}
	if !g.started {
		g.started = true
		g.outbox.Append(events.New(events.EventTypeGameStarted, g.score))
		return true
	}
	if g.paused {
		g.paused = false
		g.outbox.Append(events.New(events.EventTypeGameResumed, g.score))
		return true
	}
	return false
}

// PauseToggle flips the paused flag of a running game.
func (g *Game) PauseToggle() bool {
	if g.over || !g.started {
		return false
	}
	g.paused = !g.paused
	if g.paused {
		g.outbox.Append(events.New(events.EventTypeGamePaused, g.score))
	} else {
		g.outbox.Append(events.New(events.EventTypeGameResumed, g.score))
	}
	return true
}

// Tick advances the snake by one cell. It reports whether anything changed;
// ticks before the start, while paused or after the end are no-ops.
func (g *Game) Tick() bool {
	if !g.started || g.paused || g.over {
		return false
	}
	g.ticks++
	g.heading = g.direction

	next, ok := g.rules.Border.Apply(g.snake[0].Step(g.direction), g.gridSize)
	if !ok {
		g.end(events.CauseWall)
		return true
	}
	// The tail has not moved yet, so it still blocks the head.
	if grid.Contains(g.snake, next) {
		g.end(events.CauseSelf)
		return true
	}

	g.snake = append(g.snake, grid.Cell{})
	copy(g.snake[1:], g.snake)
	g.snake[0] = next

	if next != g.food {
		g.snake = g.snake[:len(g.snake)-1]
		return true
	}
	g.eat()
	return true
}

func (g *Game) eat() {
	g.score++
	g.outbox.Append(events.New(events.EventTypeFoodEaten, g.score))

	if g.score > g.highScore {
		g.highScore = g.score
		if g.recorder != nil {
			g.recorder.RecordHighScore(g.score)
		}
		g.outbox.Append(events.New(events.EventTypeNewHighScore, g.score))
	}

	if next := g.rules.nextInterval(g.interval); next != g.interval {
		g.interval = next
		ev := events.New(events.EventTypeSpeedChanged, g.score)
		ev.IntervalMs = int(next / time.Millisecond)
		g.outbox.Append(ev)
	}

	if !g.placeFood() {
		g.won = true
		g.end(events.CauseBoardFull)
	}
}

func (g *Game) end(cause events.Cause) {
	g.over = true
	t := events.EventTypeGameOver
	if g.won {
		t = events.EventTypeGameWon
	}
	ev := events.New(t, g.score)
	ev.Cause = cause
	g.outbox.Append(ev)
}

func (g *Game) placeFood() bool {
	cell, ok := spawnFood(g.rng, g.gridSize, g.snake)
	if ok {
		g.food = cell
	}
	return ok
}

// Reset starts over on a gridSize x gridSize board. A non-positive size
// keeps the configured default. The high score survives.
func (g *Game) Reset(gridSize int) {
	g.reset(gridSize)
	ev := events.New(events.EventTypeGameReset, 0)
	ev.GridSize = g.gridSize
	ev.IntervalMs = int(g.interval / time.Millisecond)
	g.outbox.Append(ev)
}

func (g *Game) reset(gridSize int) {
	g.gridSize = g.rules.clampGridSize(gridSize)
	g.snake = []grid.Cell{grid.Center(g.gridSize)}
	g.direction = grid.Right
	g.heading = grid.Right
	g.score = 0
	g.interval = g.rules.InitialInterval
	g.started = false
	g.paused = false
	g.over = false
	g.won = false
	g.ticks = 0
	g.placeFood()
}

// ObserveHighScore raises the high score to score if it is higher, e.g. when
// another game beat it. It never lowers the value.
func (g *Game) ObserveHighScore(score int) {
	if score > g.highScore {
		g.highScore = score
	}
}

// Drain returns the events emitted since the last call.
func (g *Game) Drain() []events.Event {
	return g.outbox.Drain()
}

// State returns a copy of the current state.
func (g *Game) State() GameState {
	snake := make([]grid.Cell, len(g.snake))
	copy(snake, g.snake)
	return GameState{
		Snake:           snake,
		Food:            g.food,
		Direction:       g.direction,
		Score:           g.score,
		HighScore:       g.highScore,
		SpeedIntervalMs: int(g.interval / time.Millisecond),
		GridSize:        g.gridSize,
		Border:          g.rules.Border,
		Started:         g.started,
		Paused:          g.paused,
		Over:            g.over,
		Won:             g.won,
		Phase:           g.Phase(),
		Tick:            g.ticks,
	}
}

// ErrInvalidState is returned by Load for snapshots that break an invariant.
var ErrInvalidState = errors.New("invalid game state")

// Load replaces the game with a snapshot, e.g. a hand-built position.
// The snapshot must satisfy every invariant a running game keeps.
func (g *Game) Load(s GameState) error {
	if s.GridSize < MinGridSize {
		return fmt.Errorf("%w: grid size %d", ErrInvalidState, s.GridSize)
	}
	if len(s.Snake) == 0 {
		return fmt.Errorf("%w: empty snake", ErrInvalidState)
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidState, s.Direction)
	}
	seen := make(map[grid.Cell]struct{}, len(s.Snake))
	for _, c := range s.Snake {
		if !c.InBounds(s.GridSize) {
			return fmt.Errorf("%w: snake cell %v outside grid", ErrInvalidState, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: snake overlaps itself at %v", ErrInvalidState, c)
		}
		seen[c] = struct{}{}
	}
	if !s.Over {
		if !s.Food.InBounds(s.GridSize) {
			return fmt.Errorf("%w: food %v outside grid", ErrInvalidState, s.Food)
		}
		if _, on := seen[s.Food]; on {
			return fmt.Errorf("%w: food %v on snake", ErrInvalidState, s.Food)
		}
	}
	if s.Won && !s.Over {
		return fmt.Errorf("%w: won but not over", ErrInvalidState)
	}
	if s.Score < 0 || s.HighScore < 0 {
		return fmt.Errorf("%w: negative score", ErrInvalidState)
	}

	g.gridSize = s.GridSize
	g.snake = append([]grid.Cell(nil), s.Snake...)
	g.food = s.Food
	g.direction = s.Direction
	g.heading = s.Direction
	g.score = s.Score
	g.ObserveHighScore(s.HighScore)
	g.interval = g.rules.InitialInterval
	if s.SpeedIntervalMs > 0 {
		g.interval = time.Duration(s.SpeedIntervalMs) * time.Millisecond
	}
	g.started = s.Started
	g.paused = s.Paused
	g.over = s.Over
	g.won = s.Won
	g.ticks = s.Tick
	return nil
}

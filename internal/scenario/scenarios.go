package scenario

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
)

// Result captures the outcome of one scenario.
type Result struct {
	ScenarioName string
	Expected     string
	Actual       string
	Passed       bool
	Reason       string
}

// Scenario is a scripted game with a verdict.
type Scenario struct {
	Name     string
	Expected string
	Setup    Setup
	Play     func(ctx context.Context, h *Harness) (actual string, err error)
}

// Run plays s on a fresh harness.
func (s Scenario) Run(ctx context.Context, log *logger.Logger) Result {
	res := Result{ScenarioName: s.Name, Expected: s.Expected}

	h, err := NewHarness(ctx, s.Setup, log)
	if err != nil {
		res.Reason = fmt.Sprintf("setup: %v", err)
		return res
	}
	defer h.Close()

	actual, err := s.Play(ctx, h)
	res.Actual = actual
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	res.Passed = true
	return res
}

// RunAll plays every scenario in order.
func RunAll(ctx context.Context, scenarios []Scenario, log *logger.Logger) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, s.Run(ctx, log))
	}
	return results
}

func cell(x, y int) grid.Cell {
	return grid.Cell{X: x, Y: y}
}

func rules(size int, border grid.BorderPolicy) engine.Rules {
	r := engine.DefaultRules()
	r.GridSize = size
	r.Border = border
	return r
}

func describe(st engine.GameState) string {
	return fmt.Sprintf("phase=%s head=%v len=%d score=%d best=%d interval=%dms",
		st.Phase, st.Head(), len(st.Snake), st.Score, st.HighScore, st.SpeedIntervalMs)
}

// All returns the built-in scenarios.
func All() []Scenario {
	return []Scenario{
		foodPickup(),
		wallDeath(),
		selfCollision(),
		reversalIgnored(),
		overIsTerminal(),
		speedUp(),
		boardFullWins(),
		highScorePersists(),
	}
}

func foodPickup() Scenario {
	return Scenario{
		Name:     "Food pickup",
		Expected: "head (3,2) then (4,2) eating: score 1, length 2, food off the snake; wraps to (0,2)",
		Setup: Setup{
			Rules: rules(5, grid.Wrap),
			Start: &engine.GameState{
				Snake:     []grid.Cell{cell(2, 2)},
				Food:      cell(4, 2),
				Direction: grid.Right,
				GridSize:  5,
				Started:   true,
			},
			Seed: 1,
		},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.Head() != cell(3, 2) || st.Score != 0 {
				return describe(st), fmt.Errorf("first tick should reach (3,2) without eating")
			}

			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err = h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.Head() != cell(4, 2) || st.Score != 1 || len(st.Snake) != 2 {
				return describe(st), fmt.Errorf("second tick should eat at (4,2)")
			}
			if grid.Contains(st.Snake, st.Food) {
				return describe(st), fmt.Errorf("new food %v placed on the snake", st.Food)
			}
			if !h.Saw(events.EventTypeFoodEaten) {
				return describe(st), fmt.Errorf("no FOOD_EATEN event")
			}

			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err = h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.Over || st.Head() != cell(0, 2) {
				return describe(st), fmt.Errorf("third tick should wrap to (0,2)")
			}
			return describe(st), nil
		},
	}
}

func wallDeath() Scenario {
	start := engine.GameState{
		Snake:     []grid.Cell{cell(0, 2)},
		Food:      cell(4, 4),
		Direction: grid.Left,
		GridSize:  5,
		Started:   true,
	}
	return Scenario{
		Name:     "Wall death",
		Expected: "bounded grid, head (0,2) moving LEFT: over, snake unchanged",
		Setup:    Setup{Rules: rules(5, grid.Bounded), Start: &start, Seed: 1},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if !st.Over || st.Won {
				return describe(st), fmt.Errorf("expected a lost game")
			}
			if !reflect.DeepEqual(st.Snake, start.Snake) {
				return describe(st), fmt.Errorf("snake moved to %v", st.Snake)
			}
			if !h.Saw(events.EventTypeGameOver) {
				return describe(st), fmt.Errorf("no GAME_OVER event")
			}
			return describe(st), nil
		},
	}
}

func selfCollision() Scenario {
	start := engine.GameState{
		Snake:     []grid.Cell{cell(2, 2), cell(2, 3), cell(2, 4)},
		Food:      cell(0, 0),
		Direction: grid.Down,
		GridSize:  5,
		Started:   true,
	}
	return Scenario{
		Name:     "Self collision",
		Expected: "snake (2,2),(2,3),(2,4) moving into (2,3): over, snake unchanged",
		Setup:    Setup{Rules: rules(5, grid.Bounded), Start: &start, Seed: 1},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if !st.Over {
				return describe(st), fmt.Errorf("expected game over")
			}
			if !reflect.DeepEqual(st.Snake, start.Snake) {
				return describe(st), fmt.Errorf("snake moved to %v", st.Snake)
			}
			return describe(st), nil
		},
	}
}

func reversalIgnored() Scenario {
	return Scenario{
		Name:     "Reversal ignored",
		Expected: "moving RIGHT, LEFT requested: direction stays RIGHT",
		Setup:    Setup{Rules: engine.DefaultRules(), Seed: 3},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Submit(ctx, engine.DirectionIntent(grid.Right)); err != nil {
				return "", err
			}
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			if err := h.Submit(ctx, engine.DirectionIntent(grid.Left)); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.Direction != grid.Right {
				return describe(st), fmt.Errorf("direction changed to %s", st.Direction)
			}
			// Two quick turns inside one tick must not reverse either.
			if err := h.Submit(ctx, engine.DirectionIntent(grid.Up)); err != nil {
				return "", err
			}
			if err := h.Submit(ctx, engine.DirectionIntent(grid.Left)); err != nil {
				return "", err
			}
			st, err = h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.Direction != grid.Up {
				return describe(st), fmt.Errorf("expected UP after UP then LEFT, got %s", st.Direction)
			}
			return describe(st) + " dir=" + string(st.Direction), nil
		},
	}
}

func overIsTerminal() Scenario {
	start := engine.GameState{
		Snake:     []grid.Cell{cell(0, 2)},
		Food:      cell(4, 4),
		Direction: grid.Left,
		GridSize:  5,
		Started:   true,
	}
	return Scenario{
		Name:     "Over is terminal",
		Expected: "after game over, ticks and turns change nothing until reset",
		Setup:    Setup{Rules: rules(5, grid.Bounded), Start: &start, Seed: 1},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			over, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if !over.Over {
				return describe(over), fmt.Errorf("expected game over")
			}
			for _, d := range []grid.Direction{grid.Up, grid.Down, grid.Right} {
				if err := h.Submit(ctx, engine.DirectionIntent(d)); err != nil {
					return "", err
				}
			}
			if err := h.Submit(ctx, engine.Intent{Kind: engine.IntentPause}); err != nil {
				return "", err
			}
			if err := h.Tick(ctx, 3); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if !reflect.DeepEqual(st.Snake, over.Snake) || st.Food != over.Food || st.Score != over.Score || st.Paused {
				return describe(st), fmt.Errorf("state changed after game over")
			}

			if err := h.Submit(ctx, engine.Intent{Kind: engine.IntentReset}); err != nil {
				return "", err
			}
			st, err = h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.Phase != engine.PhaseNotStarted || st.Head() != cell(2, 2) {
				return describe(st), fmt.Errorf("reset should restore a fresh game")
			}
			return describe(st), nil
		},
	}
}

func speedUp() Scenario {
	return Scenario{
		Name:     "Speed up",
		Expected: "eating food re-arms the scheduler 5ms faster; reset restores 150ms",
		Setup: Setup{
			Rules: rules(10, grid.Bounded),
			Start: &engine.GameState{
				Snake:     []grid.Cell{cell(5, 5)},
				Food:      cell(6, 5),
				Direction: grid.Right,
				GridSize:  10,
				Started:   true,
			},
			Seed: 1,
		},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			want := engine.DefaultInitialInterval - engine.DefaultIntervalStep
			if h.Sched.Interval() != want || st.SpeedIntervalMs != int(want/time.Millisecond) {
				return describe(st), fmt.Errorf("scheduler armed at %s, want %s", h.Sched.Interval(), want)
			}
			if err := h.Submit(ctx, engine.Intent{Kind: engine.IntentReset}); err != nil {
				return "", err
			}
			st, err = h.State(ctx)
			if err != nil {
				return "", err
			}
			if h.Sched.Interval() != engine.DefaultInitialInterval {
				return describe(st), fmt.Errorf("reset left the scheduler at %s", h.Sched.Interval())
			}
			return describe(st), nil
		},
	}
}

func boardFullWins() Scenario {
	return Scenario{
		Name:     "Board full wins",
		Expected: "2x2 grid, last free cell eaten: over and won",
		Setup: Setup{
			Rules: rules(2, grid.Bounded),
			Start: &engine.GameState{
				Snake:     []grid.Cell{cell(1, 1), cell(1, 0), cell(0, 0)},
				Food:      cell(0, 1),
				Direction: grid.Left,
				GridSize:  2,
				Started:   true,
			},
			Seed: 1,
		},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if !st.Over || !st.Won || st.Phase != engine.PhaseWon {
				return describe(st), fmt.Errorf("expected a won game")
			}
			if len(st.Snake) != 4 {
				return describe(st), fmt.Errorf("expected the snake to fill the board")
			}
			if !h.Saw(events.EventTypeGameWon) {
				return describe(st), fmt.Errorf("no GAME_WON event")
			}
			return describe(st), nil
		},
	}
}

func highScorePersists() Scenario {
	return Scenario{
		Name:     "High score persists",
		Expected: "stored best 3, score 4 reached: store holds 4, reset keeps 4",
		Setup: Setup{
			Rules: rules(10, grid.Bounded),
			Start: &engine.GameState{
				Snake:     []grid.Cell{cell(5, 5)},
				Food:      cell(6, 5),
				Direction: grid.Right,
				GridSize:  10,
				Score:     3,
				Started:   true,
			},
			StoredHighScore: 3,
			Seed:            1,
		},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			if err := h.Tick(ctx, 1); err != nil {
				return "", err
			}
			if err := h.Submit(ctx, engine.Intent{Kind: engine.IntentReset}); err != nil {
				return "", err
			}
			st, err := h.State(ctx)
			if err != nil {
				return "", err
			}
			if st.HighScore != 4 || h.Keeper.Best() != 4 {
				return describe(st), fmt.Errorf("expected best 4, game has %d and keeper %d", st.HighScore, h.Keeper.Best())
			}
			if !h.Saw(events.EventTypeNewHighScore) {
				return describe(st), fmt.Errorf("no NEW_HIGH_SCORE event")
			}

			h.Keeper.Close()
			stored, err := h.Repo.LoadHighScore(ctx)
			if err != nil {
				return describe(st), err
			}
			if stored != 4 {
				return describe(st), fmt.Errorf("store holds %d", stored)
			}
			return fmt.Sprintf("%s stored=%d", describe(st), stored), nil
		},
	}
}

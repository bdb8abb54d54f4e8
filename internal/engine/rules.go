package engine

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
)

// Default tuning of the classic browser game.
const (
	DefaultGridSize        = 20
	DefaultInitialInterval = 150 * time.Millisecond
	DefaultMinInterval     = 80 * time.Millisecond
	DefaultIntervalStep    = 5 * time.Millisecond

	// MinGridSize keeps at least one free cell for food next to a fresh snake.
	MinGridSize = 2
)

// Rules holds the tunables of a game. The zero value is not usable; start
// from DefaultRules.
type Rules struct {
	GridSize        int
	InitialInterval time.Duration
	MinInterval     time.Duration
	IntervalStep    time.Duration
	Border          grid.BorderPolicy
}

// DefaultRules returns the bounded 20x20 game at 150ms per tick.
func DefaultRules() Rules {
	return Rules{
		GridSize:        DefaultGridSize,
		InitialInterval: DefaultInitialInterval,
		MinInterval:     DefaultMinInterval,
		IntervalStep:    DefaultIntervalStep,
		Border:          grid.Bounded,
	}
}

// Validate reports the first inconsistent tunable.
func (r Rules) Validate() error {
	if r.GridSize < MinGridSize {
		return fmt.Errorf("grid size %d below minimum %d", r.GridSize, MinGridSize)
	}
	if r.MinInterval <= 0 {
		return fmt.Errorf("min interval must be positive, got %s", r.MinInterval)
	}
	if r.InitialInterval < r.MinInterval {
		return fmt.Errorf("initial interval %s faster than min interval %s", r.InitialInterval, r.MinInterval)
	}
	if r.IntervalStep < 0 {
		return fmt.Errorf("interval step must not be negative, got %s", r.IntervalStep)
	}
	if r.Border != grid.Bounded && r.Border != grid.Wrap {
		return fmt.Errorf("unknown border policy %q", r.Border)
	}
	return nil
}

// nextInterval speeds the game up by one step, never below the floor.
func (r Rules) nextInterval(current time.Duration) time.Duration {
	next := current - r.IntervalStep
	if next < r.MinInterval {
		next = r.MinInterval
	}
	return next
}

func (r Rules) clampGridSize(size int) int {
	if size <= 0 {
		size = r.GridSize
	}
	if size < MinGridSize {
		size = MinGridSize
	}
	return size
}

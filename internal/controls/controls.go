// Package controls turns raw player input (key names, touch swipes, viewport
// sizes) into engine intents. It holds no state.
package controls

import (
	"math"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
)

const (
	// DefaultSwipeThreshold is the minimum dominant-axis travel, in pixels,
	// for a touch sequence to count as a swipe.
	DefaultSwipeThreshold = 50.0

	// MaxBoardWidth caps the width the board may use, in pixels.
	MaxBoardWidth = 500
	// CellPixels is the nominal on-screen size of one cell.
	CellPixels = 25
)

var keyIntents = map[string]engine.Intent{
	"ArrowUp":    engine.DirectionIntent(grid.Up),
	"ArrowDown":  engine.DirectionIntent(grid.Down),
	"ArrowLeft":  engine.DirectionIntent(grid.Left),
	"ArrowRight": engine.DirectionIntent(grid.Right),
	" ":          {Kind: engine.IntentPause},
	"Spacebar":   {Kind: engine.IntentPause},
	"Enter":      {Kind: engine.IntentStart},
}

// KeyIntent maps a browser KeyboardEvent.key value to an intent.
// Unknown keys report false.
func KeyIntent(key string) (engine.Intent, bool) {
	in, ok := keyIntents[key]
	return in, ok
}

// ClassifySwipe returns the direction of a touch sequence that moved dx, dy
// pixels (screen coordinates, positive dy is down). Travel along the dominant
// axis must exceed threshold; anything shorter is a tap or jitter.
// A non-positive threshold means DefaultSwipeThreshold.
func ClassifySwipe(dx, dy, threshold float64) (grid.Direction, bool) {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax >= ay {
		if ax <= threshold {
			return "", false
		}
		if dx > 0 {
			return grid.Right, true
		}
		return grid.Left, true
	}
	if ay <= threshold {
		return "", false
	}
	if dy > 0 {
		return grid.Down, true
	}
	return grid.Up, true
}

// GridSizeForViewport derives the board side from the viewport width:
// one cell per CellPixels of the width, capped at MaxBoardWidth.
func GridSizeForViewport(width int) int {
	if width > MaxBoardWidth {
		width = MaxBoardWidth
	}
	size := width / CellPixels
	if size < engine.MinGridSize {
		size = engine.MinGridSize
	}
	return size
}

package grid

import (
	"fmt"
	"strings"
)

// BorderPolicy decides what happens when the snake leaves the grid.
type BorderPolicy string

const (
	// Bounded ends the game as soon as the head leaves the grid.
	Bounded BorderPolicy = "bounded"
	// Wrap re-enters the grid from the opposite edge.
	Wrap BorderPolicy = "wrap"
)

// ParseBorderPolicy parses "bounded" or "wrap". The empty string means Bounded.
func ParseBorderPolicy(s string) (BorderPolicy, error) {
	switch p := BorderPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Bounded, nil
	case Bounded, Wrap:
		return p, nil
	default:
		return "", fmt.Errorf("unknown border policy %q", s)
	}
}

// Apply maps a candidate head onto the grid. ok is false when the cell is
// outside the grid and the policy does not allow re-entry.
func (p BorderPolicy) Apply(c Cell, size int) (Cell, bool) {
	if p == Wrap {
		return Cell{X: mod(c.X, size), Y: mod(c.Y, size)}, true
	}
	return c, c.InBounds(size)
}

func mod(v, n int) int {
	return ((v % n) + n) % n
}

// Package grid defines the value types of the play area: cells, directions and
// border policies.
// This package is PURE and must NOT import any infrastructure packages.
package grid

import "fmt"

// Cell is an integer coordinate on the square play area.
// X grows to the right, Y grows downwards (screen coordinates).
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the cell as "(x,y)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Step returns the neighbouring cell one step in direction d.
// The result may lie outside the grid; see BorderPolicy.Apply.
func (c Cell) Step(d Direction) Cell {
	dx, dy := d.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// InBounds reports whether the cell lies inside a size x size grid.
func (c Cell) InBounds(size int) bool {
	return c.X >= 0 && c.X < size && c.Y >= 0 && c.Y < size
}

// Center returns the middle cell of a size x size grid.
func Center(size int) Cell {
	return Cell{X: size / 2, Y: size / 2}
}

// Contains reports whether cells holds c.
func Contains(cells []Cell, c Cell) bool {
	for _, other := range cells {
		if other == c {
			return true
		}
	}
	return false
}

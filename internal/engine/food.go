package engine

import (
	"math/rand"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
)

// maxFoodAttempts bounds rejection sampling before falling back to
// enumerating the free cells.
const maxFoodAttempts = 64

// spawnFood picks a uniformly random cell that is not occupied.
// ok is false when the snake fills the whole grid.
func spawnFood(rng *rand.Rand, size int, occupied []grid.Cell) (grid.Cell, bool) {
	taken := make(map[grid.Cell]struct{}, len(occupied))
	for _, c := range occupied {
		taken[c] = struct{}{}
	}
	total := size * size
	if len(taken) >= total {
		return grid.Cell{}, false
	}

	for attempt := 0; attempt < maxFoodAttempts; attempt++ {
		c := grid.Cell{X: rng.Intn(size), Y: rng.Intn(size)}
		if _, hit := taken[c]; !hit {
			return c, true
		}
	}

	free := make([]grid.Cell, 0, total-len(taken))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := grid.Cell{X: x, Y: y}
			if _, hit := taken[c]; !hit {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return grid.Cell{}, false
	}
	return free[rng.Intn(len(free))], true
}

// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the engine pure:
// the only durable value is the best score ever reached.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// HighScoreKey is the fixed key the best score is stored under.
const HighScoreKey = "snakeHighScore"

// ErrNegativeScore is returned when saving a score below zero.
var ErrNegativeScore = errors.New("high score must not be negative")

// HighScoreRepository defines the interface for high score persistence.
// Implementations must be safe for concurrent use.
type HighScoreRepository interface {
	// LoadHighScore returns the stored best, or 0 when nothing was saved yet.
	LoadHighScore(ctx context.Context) (int, error)

	// SaveHighScore stores score unless a higher value is already stored.
	SaveHighScore(ctx context.Context, score int) error
}

// MemoryHighScoreRepository keeps the best score in process memory. It backs
// tests and serves as the fallback when no database is available.
type MemoryHighScoreRepository struct {
	mu    sync.Mutex
	score int
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryHighScoreRepository creates a repository holding initial.
func NewMemoryHighScoreRepository(initial int) *MemoryHighScoreRepository {
	return &MemoryHighScoreRepository{score: initial}
}

func (r *MemoryHighScoreRepository) LoadHighScore(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return r.score, nil
}

func (r *MemoryHighScoreRepository) SaveHighScore(ctx context.Context, score int) error {
	if score < 0 {
		return fmt.Errorf("save %d: %w", score, ErrNegativeScore)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if score > r.score {
		r.score = score
	}
	return nil
}

// SetErr makes every following call fail with err (nil clears it).
func (r *MemoryHighScoreRepository) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}

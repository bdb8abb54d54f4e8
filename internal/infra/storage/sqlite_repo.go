package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteHighScoreRepository implements HighScoreRepository for SQLite.
type SQLiteHighScoreRepository struct {
	db  *sql.DB
	key string
}

func NewSQLiteHighScoreRepository(db *sql.DB) *SQLiteHighScoreRepository {
	return &SQLiteHighScoreRepository{db: db, key: HighScoreKey}
}

func (r *SQLiteHighScoreRepository) LoadHighScore(ctx context.Context) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, r.key).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load high score: %w", err)
	}
	if score < 0 {
		return 0, fmt.Errorf("stored high score %d: %w", score, ErrNegativeScore)
	}
	return score, nil
}

// SaveHighScore upserts the score, keeping the larger of the stored and the
// new value so a stale writer can never lower it.
func (r *SQLiteHighScoreRepository) SaveHighScore(ctx context.Context, score int) error {
	if score < 0 {
		return fmt.Errorf("save %d: %w", score, ErrNegativeScore)
	}
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = MAX(kv.value, excluded.value),
			updated_at = excluded.updated_at
		WHERE excluded.value > kv.value
	`
	if _, err := r.db.ExecContext(ctx, query, r.key, score, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save high score: %w", err)
	}
	return nil
}

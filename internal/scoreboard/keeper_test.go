package scoreboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MRamiBalles/GridSnake/internal/infra/storage"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
)

func TestLoadReadsStoredBest(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(14)
	k := NewKeeper(repo, nil, metrics.New())
	defer k.Close()

	if err := k.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if k.Best() != 14 {
		t.Errorf("Expected 14, got %d", k.Best())
	}
}

func TestLoadFailureDegradesToZero(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(14)
	repo.SetErr(errors.New("storage unavailable"))
	m := metrics.New()
	k := NewKeeper(repo, nil, m)
	defer k.Close()

	if err := k.Load(context.Background()); err == nil {
		t.Error("Expected the load error to be reported")
	}
	if k.Best() != 0 {
		t.Errorf("Expected 0 after a failed load, got %d", k.Best())
	}
	if m.HighScoreReadErrors != 1 {
		t.Errorf("Expected one read error, got %d", m.HighScoreReadErrors)
	}

	// The simulation keeps going: records still work in memory.
	k.RecordHighScore(3)
	if k.Best() != 3 {
		t.Errorf("Expected 3, got %d", k.Best())
	}
}

func TestLoadHappensOnce(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(5)
	k := NewKeeper(repo, nil, metrics.New())
	defer k.Close()

	k.Load(context.Background())
	repo.SaveHighScore(context.Background(), 50)
	k.Load(context.Background())
	if k.Best() != 5 {
		t.Errorf("Expected the second Load to be a no-op, got %d", k.Best())
	}
}

func TestRecordIsMonotonicAndPersisted(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(0)
	m := metrics.New()
	k := NewKeeper(repo, nil, m)

	var mu sync.Mutex
	var notified []int
	k.Subscribe(func(score int) {
		mu.Lock()
		notified = append(notified, score)
		mu.Unlock()
	})

	for _, s := range []int{2, 5, 3, 5, 7} {
		k.RecordHighScore(s)
	}
	k.Close()

	if k.Best() != 7 {
		t.Errorf("Expected best 7, got %d", k.Best())
	}
	if got, _ := repo.LoadHighScore(context.Background()); got != 7 {
		t.Errorf("Expected 7 persisted, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 3 || notified[2] != 7 {
		t.Errorf("Expected notifications for 2, 5 and 7, got %v", notified)
	}
	if m.HighScoreWrites == 0 {
		t.Error("Expected at least one write attempt")
	}
}

func TestWriteFailureIsBestEffort(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(0)
	repo.SetErr(errors.New("disk full"))
	m := metrics.New()
	k := NewKeeper(repo, nil, m)

	k.RecordHighScore(4)
	k.Close()

	if k.Best() != 4 {
		t.Errorf("Expected the in-memory best to be 4, got %d", k.Best())
	}
	if m.HighScoreWriteErrors != 1 {
		t.Errorf("Expected one write error, got %d", m.HighScoreWriteErrors)
	}
}

func TestRecordAfterCloseStaysInMemory(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(0)
	k := NewKeeper(repo, nil, metrics.New())
	k.Close()
	k.Close()

	k.RecordHighScore(9)
	if k.Best() != 9 {
		t.Errorf("Expected 9, got %d", k.Best())
	}
	if got, _ := repo.LoadHighScore(context.Background()); got != 0 {
		t.Errorf("Expected nothing persisted after Close, got %d", got)
	}
}

func TestConcurrentRecords(t *testing.T) {
	repo := storage.NewMemoryHighScoreRepository(0)
	k := NewKeeper(repo, nil, metrics.New())

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			k.RecordHighScore(s)
		}(i)
	}
	wg.Wait()
	k.Close()

	if k.Best() != 50 {
		t.Errorf("Expected 50, got %d", k.Best())
	}
	if got, _ := repo.LoadHighScore(context.Background()); got != 50 {
		t.Errorf("Expected 50 persisted, got %d", got)
	}
}

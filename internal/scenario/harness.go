// Package scenario runs scripted games headless: a real Session driven by a
// manual scheduler, with a Keeper over an in-memory store. cmd/test-runner
// prints the results.
package scenario

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
	"github.com/MRamiBalles/GridSnake/internal/infra/storage"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
	"github.com/MRamiBalles/GridSnake/internal/scoreboard"
)

const stepTimeout = 2 * time.Second

// Setup describes the starting position of a scenario.
type Setup struct {
	Rules engine.Rules
	// Start is loaded into the game when set; otherwise the game starts fresh.
	Start *engine.GameState
	// StoredHighScore seeds the in-memory repository.
	StoredHighScore int
	Seed            int64
}

// Harness is one running session plus the collaborators a scenario inspects.
type Harness struct {
	Session *engine.Session
	Sched   *engine.ManualScheduler
	Keeper  *scoreboard.Keeper
	Repo    *storage.MemoryHighScoreRepository
	Metrics *metrics.Collector

	mu     sync.Mutex
	events []events.Event
	cancel context.CancelFunc
}

// NewHarness builds and starts a session for setup.
func NewHarness(ctx context.Context, setup Setup, log *logger.Logger) (*Harness, error) {
	if log == nil {
		log = logger.Discard()
	}
	h := &Harness{
		Sched:   engine.NewManualScheduler(),
		Repo:    storage.NewMemoryHighScoreRepository(setup.StoredHighScore),
		Metrics: metrics.New(),
	}
	h.Keeper = scoreboard.NewKeeper(h.Repo, log, h.Metrics)
	if err := h.Keeper.Load(ctx); err != nil {
		h.Keeper.Close()
		return nil, err
	}

	game := engine.NewGame(setup.Rules,
		engine.WithSeed(setup.Seed),
		engine.WithRecorder(h.Keeper),
		engine.WithHighScore(h.Keeper.Best()),
	)
	if setup.Start != nil {
		if err := game.Load(*setup.Start); err != nil {
			h.Keeper.Close()
			return nil, err
		}
		game.Drain()
	}

	session, err := engine.NewSession(engine.SessionConfig{
		ID:        "scenario",
		Rules:     setup.Rules,
		Scheduler: h.Sched,
		Publisher: engine.PublisherFunc(h.collect),
		Board:     h.Keeper,
		Logger:    log,
		Metrics:   h.Metrics,
		Game:      game,
	})
	if err != nil {
		h.Keeper.Close()
		return nil, err
	}
	h.Session = session

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	go session.Run(runCtx)

	// The loop arms the scheduler before it serves the first query.
	if _, err := h.State(ctx); err != nil {
		h.Close()
		return nil, fmt.Errorf("session did not start: %w", err)
	}
	return h, nil
}

func (h *Harness) collect(_ engine.GameState, evs []events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evs...)
}

// Tick advances the game n scheduler beats and waits until the last one has
// been applied.
func (h *Harness) Tick(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		fireCtx, cancel := context.WithTimeout(ctx, stepTimeout)
		ok := h.Sched.Fire(fireCtx)
		cancel()
		if !ok {
			return fmt.Errorf("tick %d was not delivered", i+1)
		}
	}
	_, err := h.State(ctx)
	return err
}

// Submit hands an intent to the session.
func (h *Harness) Submit(ctx context.Context, in engine.Intent) error {
	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	return h.Session.Submit(ctx, in)
}

// State returns the current snapshot. Everything submitted before has been
// applied by the time it returns.
func (h *Harness) State(ctx context.Context) (engine.GameState, error) {
	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	return h.Session.State(ctx)
}

// Saw reports whether the session published an event of type t.
func (h *Harness) Saw(t events.EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range h.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// Close stops the session and flushes the keeper.
func (h *Harness) Close() {
	h.cancel()
	<-h.Session.Done()
	h.Keeper.Close()
}

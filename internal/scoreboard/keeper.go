// Package scoreboard keeps the best score shared by every game on the server.
package scoreboard

import (
	"context"
	"sync"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/infra/storage"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
)

const defaultWriteTimeout = 2 * time.Second

// Keeper holds the best score in memory and writes new bests to the
// repository in the background. The in-memory value only ever grows;
// storage failures are logged and counted, never returned to the game.
type Keeper struct {
	repo    storage.HighScoreRepository
	log     *logger.Logger
	metrics *metrics.Collector
	timeout time.Duration

	mu     sync.Mutex
	best   int
	loaded bool
	closed bool
	subs   []func(int)

	// pending holds at most the latest unsaved best.
	pending chan int
	wg      sync.WaitGroup
}

// NewKeeper starts a keeper writing to repo. log and m may be nil.
func NewKeeper(repo storage.HighScoreRepository, log *logger.Logger, m *metrics.Collector) *Keeper {
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.Get()
	}
	k := &Keeper{
		repo:    repo,
		log:     log,
		metrics: m,
		timeout: defaultWriteTimeout,
		pending: make(chan int, 1),
	}
	k.wg.Add(1)
	go k.writer()
	return k
}

// Load reads the stored best once. On failure the keeper starts from 0 and
// the error is returned for the caller to report; later calls are no-ops.
func (k *Keeper) Load(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.loaded {
		return nil
	}
	k.loaded = true

	score, err := k.repo.LoadHighScore(ctx)
	if err != nil {
		k.metrics.RecordHighScoreReadError()
		k.log.Warnf("high score unavailable, starting from 0: %v", err)
		return err
	}
	if score > k.best {
		k.best = score
	}
	k.log.Infof("high score loaded: %d", k.best)
	return nil
}

// Best returns the highest score seen so far.
func (k *Keeper) Best() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.best
}

// Subscribe registers fn to be called with every new best. fn runs on the
// goroutine that set the record and must not block.
func (k *Keeper) Subscribe(fn func(int)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.subs = append(k.subs, fn)
}

// RecordHighScore raises the best to score if it is higher and queues the
// write. It never blocks on storage.
func (k *Keeper) RecordHighScore(score int) {
	k.mu.Lock()
	if score <= k.best {
		k.mu.Unlock()
		return
	}
	k.best = score
	if !k.closed {
		k.enqueue(score)
	}
	subs := append([]func(int){}, k.subs...)
	k.mu.Unlock()

	for _, fn := range subs {
		fn(score)
	}
}

// enqueue replaces any unsaved value with score. Callers hold k.mu, so
// values enter the queue in increasing order.
func (k *Keeper) enqueue(score int) {
	for {
		select {
		case k.pending <- score:
			return
		default:
		}
		select {
		case <-k.pending:
		default:
		}
	}
}

func (k *Keeper) writer() {
	defer k.wg.Done()
	for score := range k.pending {
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		err := k.repo.SaveHighScore(ctx, score)
		cancel()
		k.metrics.RecordHighScoreWrite(err)
		if err != nil {
			k.log.Warnf("high score %d not saved: %v", score, err)
		}
	}
}

// Close flushes the queued write and stops the writer. Records made after
// Close stay in memory only.
func (k *Keeper) Close() {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return
	}
	k.closed = true
	close(k.pending)
	k.mu.Unlock()
	k.wg.Wait()
}

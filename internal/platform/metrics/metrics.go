// Package metrics provides observability for the snake server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers runtime metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Game metrics
	FoodEaten      int64
	GamesStarted   int64
	GamesOver      int64
	GamesWon       int64
	SessionsActive int64

	// High score storage
	HighScoreWrites      int64
	HighScoreWriteErrors int64
	HighScoreReadErrors  int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New creates an empty collector. Tests use it to avoid the global one.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	for {
		cur := atomic.LoadInt64(&c.TickLatencyMax)
		if int64(latency) <= cur || atomic.CompareAndSwapInt64(&c.TickLatencyMax, cur, int64(latency)) {
			break
		}
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordFood counts eaten food.
func (c *Collector) RecordFood() {
	atomic.AddInt64(&c.FoodEaten, 1)
}

// RecordGameStarted counts games leaving the not-started phase.
func (c *Collector) RecordGameStarted() {
	atomic.AddInt64(&c.GamesStarted, 1)
}

// RecordGameOver counts finished games; won ones are counted twice.
func (c *Collector) RecordGameOver(won bool) {
	atomic.AddInt64(&c.GamesOver, 1)
	if won {
		atomic.AddInt64(&c.GamesWon, 1)
	}
}

// RecordSession records session lifecycle changes.
func (c *Collector) RecordSession(delta int64) {
	atomic.AddInt64(&c.SessionsActive, delta)
}

// RecordHighScoreWrite records a high score persistence attempt.
func (c *Collector) RecordHighScoreWrite(err error) {
	atomic.AddInt64(&c.HighScoreWrites, 1)
	if err != nil {
		atomic.AddInt64(&c.HighScoreWriteErrors, 1)
	}
}

// RecordHighScoreReadError records a failed high score load.
func (c *Collector) RecordHighScoreReadError() {
	atomic.AddInt64(&c.HighScoreReadErrors, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	lastTick := c.LastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)

	var tickAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick.Format(time.RFC3339),
		},

		"game": map[string]interface{}{
			"food_eaten":      atomic.LoadInt64(&c.FoodEaten),
			"games_started":   atomic.LoadInt64(&c.GamesStarted),
			"games_over":      atomic.LoadInt64(&c.GamesOver),
			"games_won":       atomic.LoadInt64(&c.GamesWon),
			"sessions_active": atomic.LoadInt64(&c.SessionsActive),
		},

		"high_score": map[string]interface{}{
			"writes":       atomic.LoadInt64(&c.HighScoreWrites),
			"write_errors": atomic.LoadInt64(&c.HighScoreWriteErrors),
			"read_errors":  atomic.LoadInt64(&c.HighScoreReadErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s counter\n", name)
			fmt.Fprintf(w, "%s %d\n\n", name, v)
		}
		gauge := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s gauge\n", name)
			fmt.Fprintf(w, "%s %d\n\n", name, v)
		}

		counter("snake_tick_count", "Total tick cycles", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP snake_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE snake_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "snake_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("snake_food_eaten", "Total food eaten", atomic.LoadInt64(&c.FoodEaten))
		counter("snake_games_started", "Games started", atomic.LoadInt64(&c.GamesStarted))
		counter("snake_games_over", "Games finished", atomic.LoadInt64(&c.GamesOver))
		counter("snake_games_won", "Games finished with a full board", atomic.LoadInt64(&c.GamesWon))
		gauge("snake_sessions_active", "Running sessions", atomic.LoadInt64(&c.SessionsActive))

		counter("snake_highscore_writes", "High score persistence attempts", atomic.LoadInt64(&c.HighScoreWrites))
		counter("snake_highscore_write_errors", "Failed high score writes", atomic.LoadInt64(&c.HighScoreWriteErrors))

		gauge("snake_ws_connections", "Active WebSocket connections", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP snake_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE snake_ws_messages_total counter\n")
		fmt.Fprintf(w, "snake_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "snake_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		counter("snake_ws_errors", "WebSocket errors", atomic.LoadInt64(&c.WSErrors))
	}
}

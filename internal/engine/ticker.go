package engine

import (
	"context"
	"sync"
	"time"
)

// Scheduler is the heartbeat of a session. It delivers ticks at a fixed rate
// that can be re-armed whenever the game speeds up.
type Scheduler interface {
	// Reset (re)arms the scheduler at the given rate.
	Reset(interval time.Duration)
	// C delivers ticks. It is nil until the first Reset.
	C() <-chan time.Time
	// Stop releases the scheduler. No ticks are delivered afterwards.
	Stop()
}

// ClockScheduler ticks on the wall clock.
type ClockScheduler struct {
	mu      sync.Mutex
	ticker  *time.Ticker
	stopped bool
}

// NewClockScheduler creates an unarmed wall-clock scheduler.
func NewClockScheduler() *ClockScheduler {
	return &ClockScheduler{}
}

// Reset arms the underlying ticker or changes its period.
func (s *ClockScheduler) Reset(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || interval <= 0 {
		return
	}
	if s.ticker == nil {
		s.ticker = time.NewTicker(interval)
		return
	}
	s.ticker.Reset(interval)
}

// C returns the tick channel.
func (s *ClockScheduler) C() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil || s.stopped {
		return nil
	}
	return s.ticker.C
}

// Stop halts the ticker.
func (s *ClockScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.ticker != nil {
		s.ticker.Stop()
	}
}

// ManualScheduler only ticks when told to. Time is virtual: every Fire
// advances the clock by the armed interval. Tests and the scenario runner use
// it to drive a session deterministically.
type ManualScheduler struct {
	mu       sync.Mutex
	ch       chan time.Time
	done     chan struct{}
	interval time.Duration
	now      time.Time
	resets   int
	fired    int
	stopped  bool
}

// NewManualScheduler creates an unarmed manual scheduler at the Unix epoch.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		ch:   make(chan time.Time),
		done: make(chan struct{}),
		now:  time.Unix(0, 0),
	}
}

// Reset records the new rate.
func (m *ManualScheduler) Reset(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.interval = interval
	m.resets++
}

// C returns the tick channel.
func (m *ManualScheduler) C() <-chan time.Time {
	return m.ch
}

// Stop marks the scheduler stopped and unblocks a pending Fire.
func (m *ManualScheduler) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.done)
}

// Fire delivers one tick and blocks until it is received. It reports false
// when the scheduler is stopped, not armed, or ctx ends first.
func (m *ManualScheduler) Fire(ctx context.Context) bool {
	m.mu.Lock()
	if m.stopped || m.interval <= 0 {
		m.mu.Unlock()
		return false
	}
	at := m.now.Add(m.interval)
	m.mu.Unlock()

	select {
	case m.ch <- at:
		m.mu.Lock()
		m.now = at
		m.fired++
		m.mu.Unlock()
		return true
	case <-m.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Interval returns the armed rate.
func (m *ManualScheduler) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Now returns the virtual clock.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Resets counts how often the scheduler was (re)armed.
func (m *ManualScheduler) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Fired counts delivered ticks.
func (m *ManualScheduler) Fired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}

// Stopped reports whether Stop was called.
func (m *ManualScheduler) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

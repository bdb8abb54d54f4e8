// Package engine contains the snake state machine and the loop that drives it.
//
// Game is a plain owned value: every transition (SetDirection, Tick,
// PauseToggle, Start, Reset) mutates it in place and queues events. Session
// runs one Game on a single goroutine and takes its heartbeat from an
// injected Scheduler, so tests can advance time by hand.
package engine

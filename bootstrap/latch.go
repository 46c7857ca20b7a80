package bootstrap

import (
	"context"
	"fmt"
	"sync"
)

// State describes where a Latch is in its lifecycle.
type State int32

const (
	// StateNotRun means the guarded function has not started yet.
	StateNotRun State = iota

	// StateRunning means the guarded function is executing on some goroutine.
	StateRunning

	// StateComplete means the guarded function finished successfully.
	StateComplete

	// StateFailed means the guarded function returned an error. The failure is
	// sticky: the latch never re-runs.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotRun:
		return "not-run"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Latch is a process-wide one-time execution guard with an inspectable state
// machine: not-run -> running -> complete (or failed).
//
// Unlike sync.Once, a Latch exposes its state and the outcome of the guarded
// run, and callers that lose the race block until the winning run finishes and
// then observe its result. There is no reset: a latch consumed by a failed run
// stays failed.
type Latch struct {
	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// NewLatch returns a Latch in the not-run state.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Do runs fn exactly once across all callers of this latch.
//
// The first caller transitions the latch to running and executes fn. Every
// other caller blocks until that run finishes (or ctx is done) and returns the
// stored outcome. Once the latch is complete or failed, Do returns the stored
// outcome immediately without running anything.
//
// If fn panics, the panic is recorded as the latch's sticky failure so waiters
// are released, and then re-raised on the panicking goroutine.
func (l *Latch) Do(ctx context.Context, fn func(context.Context) error) error {
	l.mu.Lock()
	switch l.state {
	case StateComplete, StateFailed:
		err := l.err
		l.mu.Unlock()
		return err
	case StateRunning:
		l.mu.Unlock()
		select {
		case <-l.done:
			return l.Err()
		case <-ctx.Done():
			return fmt.Errorf("waiting for initialization: %w", ctx.Err())
		}
	}

	l.state = StateRunning
	l.mu.Unlock()

	var err error
	defer func() {
		// A panic in fn must not leave the latch running forever with
		// waiters parked on done. Record it as the sticky outcome, release
		// the waiters, then let the panic continue.
		if r := recover(); r != nil {
			l.settle(fmt.Errorf("initialization panicked: %v", r))
			panic(r)
		}
		l.settle(err)
	}()

	err = fn(ctx)
	return err
}

// settle records the one-time outcome and releases all waiters.
func (l *Latch) settle(err error) {
	l.mu.Lock()
	l.err = err
	if err != nil {
		l.state = StateFailed
	} else {
		l.state = StateComplete
	}
	l.mu.Unlock()
	close(l.done)
}

// State returns the latch's current state.
func (l *Latch) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the outcome of the one-time run, or nil if the run has not
// finished (or finished successfully).
func (l *Latch) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Wait blocks until the one-time run has finished, then returns its outcome.
// It does not trigger the run; if nothing ever calls Do, Wait blocks until ctx
// is done.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.Err()
	case <-ctx.Done():
		return fmt.Errorf("waiting for initialization: %w", ctx.Err())
	}
}

package engine

import "sync"

// State is the engine's initialization state. The only legal transitions
// are uninitialized -> initializing -> ready or failed; there is no
// teardown or reinitialization path.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// gate tracks the readiness state machine. Completion (ready or failed) is
// observable through Done so any caller can wait for it.
type gate struct {
	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

func newGate() *gate {
	return &gate{done: make(chan struct{})}
}

// begin moves uninitialized -> initializing. It reports false when
// initialization has already been started by someone else.
func (g *gate) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateUninitialized {
		return false
	}
	g.state = StateInitializing
	return true
}

func (g *gate) succeed() {
	g.mu.Lock()
	g.state = StateReady
	g.mu.Unlock()
	close(g.done)
}

func (g *gate) fail(err error) {
	g.mu.Lock()
	g.state = StateFailed
	g.err = err
	g.mu.Unlock()
	close(g.done)
}

func (g *gate) current() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// check returns nil when the engine is ready, the initialization error when
// setup failed, and ErrNotReady otherwise.
func (g *gate) check() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateReady:
		return nil
	case StateFailed:
		return g.err
	default:
		return ErrNotReady
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"sync"
)

// InitFunc is a single startup routine. It runs at most once, before any
// caller is allowed past Run.
type InitFunc func(context.Context) error

// Registrar collects named startup routines and runs them under a one-time
// latch. It is the explicit-call replacement for a pre-main initializer list:
// registrations are made while the program is wiring itself up, then consumed
// exactly once by the first caller that needs the runtime live.
//
// Relative ordering between unrelated initializers is not part of the
// contract; callers may only rely on "all initializers have finished" after a
// successful Run. (The implementation happens to run them in registration
// order.)
type Registrar struct {
	mu     sync.Mutex
	sealed bool
	names  map[string]struct{}
	inits  []namedInit
	latch  *Latch
}

type namedInit struct {
	name string
	fn   InitFunc
}

// NewRegistrar returns an empty Registrar.
func NewRegistrar() *Registrar {
	return &Registrar{
		names: make(map[string]struct{}),
		latch: NewLatch(),
	}
}

// Register adds a named startup routine. It fails if the name is empty or
// duplicated, or if the registrar has already been consumed by Run: a
// registration that arrives after startup can never satisfy the
// "runs before first use" guarantee, so it is rejected outright.
func (r *Registrar) Register(name string, fn InitFunc) error {
	if name == "" {
		return fmt.Errorf("initializer name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("initializer %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("cannot register initializer %q: bootstrap already ran", name)
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("duplicate initializer name: %q", name)
	}
	r.names[name] = struct{}{}
	r.inits = append(r.inits, namedInit{name: name, fn: fn})
	return nil
}

// MustRegister is Register that panics on error. Intended for wiring code
// where a registration failure is a programming bug.
func (r *Registrar) MustRegister(name string, fn InitFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Run executes all registered initializers exactly once. Concurrent and
// subsequent callers block until the first run finishes and observe its
// outcome; a failed run is sticky. The registrar is sealed from the moment the
// run starts.
func (r *Registrar) Run(ctx context.Context) error {
	return r.latch.Do(ctx, func(ctx context.Context) error {
		r.mu.Lock()
		r.sealed = true
		inits := r.inits
		r.mu.Unlock()

		for _, in := range inits {
			if err := in.fn(ctx); err != nil {
				return fmt.Errorf("initializer %q failed: %w", in.name, err)
			}
		}
		return nil
	})
}

// State reports the state of the underlying latch.
func (r *Registrar) State() State {
	return r.latch.State()
}

// Names returns the registered initializer names in registration order.
func (r *Registrar) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.inits))
	for i, in := range r.inits {
		names[i] = in.name
	}
	return names
}

package fitness

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknown is returned for a function name nobody registered.
var ErrUnknown = errors.New("fitness: unknown function")

// Registry maps function names to implementations.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Function)}
}

// Default returns a registry holding every built-in benchmark.
func Default() *Registry {
	r := NewRegistry()
	for _, f := range Builtins() {
		r.Register(f)
	}
	return r
}

// Register adds a function. Panics on duplicate name to surface misconfiguration early.
func (r *Registry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[f.Name()]; exists {
		panic(fmt.Sprintf("fitness registry: duplicate function %q", f.Name()))
	}
	r.funcs[f.Name()] = f
}

// Get returns the function registered under name.
func (r *Registry) Get(name string) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return f, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Check reports whether name is registered and defined for n variables.
func (r *Registry) Check(name string, n int) error {
	f, err := r.Get(name)
	if err != nil {
		return err
	}
	return f.Validate(n)
}

package strategy

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Strategy reacts to a qualifying announcement for a symbol.
type Strategy interface {
	// Name returns the registry key the strategy was built under.
	Name() string

	// OnAnnouncement runs the strategy's entry logic for a symbol.
	OnAnnouncement(ctx context.Context, symbol, headline string) error
}

// Factory builds a strategy instance.
type Factory func() Strategy

// Registry maps strategy names to factories. It is populated at startup;
// lookups of unknown names fail with an explicit error rather than any kind
// of dynamic resolution.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a name. Re-registering a name is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Get builds a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
	return factory(), nil
}

// Names lists the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

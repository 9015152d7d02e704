package movement

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownStrategy is returned when a strategy name is not registered.
var ErrUnknownStrategy = errors.New("unknown movement strategy")

// Built-in strategy names.
const (
	NameDirect    = "direct"
	NameStraight  = "straight"
	NameObstacles = "obstacles"
)

// Factory builds a fresh strategy instance. Stateful strategies must not be
// shared between engines, hence factories rather than instances.
type Factory func() Strategy

// Registry maps names to strategy factories. It is how alternative movement
// logic is plugged into an engine without touching engine code.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(NameDirect, func() Strategy { return NewDirectPursuit() })
	_ = r.Register(NameStraight, func() Strategy { return NewStraightPursuit() })
	_ = r.Register(NameObstacles, func() Strategy { return NewObstacleAvoidance() })
	return r
}

// Register adds a factory; names are unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register strategy %q: name and factory are required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("register strategy %q: already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New instantiates the named strategy.
func (r *Registry) New(name string) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return f(), nil
}

// Names lists the registered names in sorted order.
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

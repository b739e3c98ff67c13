package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/stepflow/pkg/ports"
)

// Registry maps rule names used in task definitions to rule implementations.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]ports.ConditionalRule
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]ports.ConditionalRule),
	}
}

// Register adds a rule to the registry.
// If a rule with the same name exists, it is overwritten.
func (r *Registry) Register(name string, rule ports.ConditionalRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rule
}

// Get looks up a rule by name.
func (r *Registry) Get(name string) (ports.ConditionalRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Resolve returns the named rules in the order given.
// Returns an error naming the first rule that is not registered.
func (r *Registry) Resolve(names []string) ([]ports.ConditionalRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.ConditionalRule, 0, len(names))
	for _, name := range names {
		rule, ok := r.rules[name]
		if !ok {
			return nil, fmt.Errorf("rule not found: %s", name)
		}
		out = append(out, rule)
	}
	return out, nil
}

// Names lists the registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

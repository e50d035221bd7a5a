package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a Model for a concrete model identifier, e.g. "gpt-4o".
type Factory func(name string) (Model, error)

// Registry maps model identifier prefixes to provider factories. The agent
// assembly engine consults it to turn an LlmAgent's `model:` field into a live
// Model. Longest matching prefix wins, so "gpt-4o-mini" can be routed
// differently from "gpt-".
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Factory
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Register associates an identifier prefix with a factory. Registering the
// same prefix twice replaces the earlier factory.
func (r *Registry) Register(prefix string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[prefix] = factory
}

// Resolve constructs a Model for the given identifier using the factory of
// the longest matching registered prefix.
func (r *Registry) Resolve(name string) (Model, error) {
	if name == "" {
		return nil, fmt.Errorf("model identifier is empty")
	}

	r.mu.RLock()
	prefixes := make([]string, 0, len(r.entries))
	for p := range r.entries {
		prefixes = append(prefixes, p)
	}
	r.mu.RUnlock()

	// Longest prefix first for specificity.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			r.mu.RLock()
			factory := r.entries[p]
			r.mu.RUnlock()
			return factory(name)
		}
	}

	return nil, fmt.Errorf("no model provider registered for identifier %q", name)
}

// Prefixes returns the registered prefixes, sorted, for diagnostics.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefixes := make([]string, 0, len(r.entries))
	for p := range r.entries {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

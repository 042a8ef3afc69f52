package ratelimit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/koyomi/koyomi/internal/core/domain"
)

// Registry maps each external API name to its one limiter instance.
// It is built once at startup and injected into every client, so quota
// tracking for an API has a single source of truth across the process.
// No client may construct its own ad hoc limiter for a registered name.
type Registry struct {
	mu       sync.RWMutex
	limiters map[domain.APIName]*Limiter
}

// NewRegistry creates a registry seeded with domain.DefaultQuotas.
// Entries in overrides replace or extend the defaults, letting a config
// file tighten a quota without touching client code.
func NewRegistry(overrides map[domain.APIName]domain.Quota) *Registry {
	r := &Registry{limiters: make(map[domain.APIName]*Limiter)}
	for name, quota := range domain.DefaultQuotas {
		r.limiters[name] = NewLimiter(name, quota)
	}
	for name, quota := range overrides {
		r.limiters[name] = NewLimiter(name, quota)
	}
	return r
}

// Get returns the limiter registered for the API name.
func (r *Registry) Get(name domain.APIName) (*Limiter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.limiters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAPI, name)
	}
	return limiter, nil
}

// Register adds a limiter for an API not covered by the defaults.
// Registering a name twice is rejected: a duplicate limiter would split
// quota tracking and under-protect the remote API.
func (r *Registry) Register(name domain.APIName, quota domain.Quota) (*Limiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.limiters[name]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateLimiter, name)
	}
	limiter := NewLimiter(name, quota)
	r.limiters[name] = limiter
	return limiter, nil
}

// Names returns the registered API names in sorted order.
func (r *Registry) Names() []domain.APIName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]domain.APIName, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

package providers

import (
	"fmt"
	"sort"
	"sync"

	"veridion/internal/verification/ports"
)

// Registry maintains the configured social identity providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ports.IdentityProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ports.IdentityProvider)}
}

// Register adds a provider; ids must be unique.
func (r *Registry) Register(p ports.IdentityProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := p.ID()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Get retrieves a provider by id. Unknown ids wrap ErrProviderNotFound.
func (r *Registry) Get(id string) (ports.IdentityProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, nil
}

// IDs lists registered provider ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

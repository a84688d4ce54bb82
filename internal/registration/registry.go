package registration

import (
	"maps"
	"slices"
	"sync"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
)

// Registry holds the services served by one process, keyed by service id.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*Service
}

// NewRegistry creates a registry holding services.
func NewRegistry(services ...*Service) *Registry {
	r := &Registry{services: make(map[string]*Service, len(services))}
	for _, s := range services {
		r.Register(s)
	}

	return r
}

// Register adds s, replacing any service with the same id.
func (r *Registry) Register(s *Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.services[s.ID()] = s
}

// Get returns the service with the given id. An unknown id is an invalid
// request wrapping ErrUnknownService.
func (r *Registry) Get(id string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.services[id]
	if !ok {
		return nil, errors.InvalidRequest(errors.ErrUnknownService, component, "Get",
			"service %q is not registered", id)
	}

	return s, nil
}

// IDs returns the registered service ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.services))
}

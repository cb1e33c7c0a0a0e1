package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
)

// ErrAlreadyPublished is returned when a different definition is published
// under a descriptor that is already taken.
var ErrAlreadyPublished = errors.New("definition already published")

// Registry holds fully built definitions and resolves them by descriptor.
// A definition becomes visible only once Publish returns, and a descriptor
// can be bound once. Registry is safe for concurrent use and implements
// theme.Resolver.
type Registry struct {
	mu          sync.RWMutex
	definitions map[theme.Descriptor]*theme.Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[theme.Descriptor]*theme.Definition)}
}

// Publish makes def resolvable. Publishing a definition equal to the one
// already bound is a no-op.
func (r *Registry) Publish(def *theme.Definition) error {
	if def == nil {
		return fmt.Errorf("cannot publish nil definition")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor := def.Descriptor()
	if existing, ok := r.definitions[descriptor]; ok {
		if existing.Equal(def) {
			return nil
		}
		return fmt.Errorf("%w: %s (first declared at %s, redeclared at %s)",
			ErrAlreadyPublished, descriptor, existing.Location(), def.Location())
	}

	r.definitions[descriptor] = def
	return nil
}

// Resolve returns the definition bound to d.
func (r *Registry) Resolve(d theme.Descriptor) (*theme.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[d]
	if !ok {
		return nil, theme.NewNotFoundError(d, nil)
	}
	return def, nil
}

// Len returns the number of published definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.definitions)
}

// List returns all published definitions sorted by descriptor.
func (r *Registry) List() []*theme.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*theme.Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Descriptor().String() < result[j].Descriptor().String()
	})
	return result
}

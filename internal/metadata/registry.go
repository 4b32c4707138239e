package metadata

import (
	"sort"
	"sync"
)

// Registry holds the entity descriptors. It is filled once at startup and
// only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
	}
}

// GetEntity returns the entity with the given name, or nil.
func (r *Registry) GetEntity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// AllEntities returns all registered entities sorted by name.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entities := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return entities
}

// Load replaces all entities in the registry. Each descriptor is validated
// and its action guards compiled; the first invalid descriptor aborts the
// load and leaves the registry unchanged.
func (r *Registry) Load(entities []*Entity) error {
	next := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		if err := Validate(e); err != nil {
			return err
		}
		for name, a := range e.Actions {
			if err := a.CompileGuard(); err != nil {
				return &DescriptorError{Entity: e.Name, Reason: "action " + name + ": " + err.Error()}
			}
			e.Actions[name] = a
		}
		next[e.Name] = e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = next
	return nil
}

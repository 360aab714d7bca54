package schema

import (
	"fmt"
	"sort"
)

// Registry holds every registered entity, keyed by table name. It replaces
// implicit module scanning: hosts register entities explicitly and hand the
// registry to the resolver and the migrator.
type Registry struct {
	entities map[string]*Entity
}

func NewRegistry() *Registry {
	return &Registry{entities: map[string]*Entity{}}
}

// Register adds an entity to the registry. Re-registering the same entity
// under the same table name is a no-op. Registering a different entity
// under an already-occupied table name is registry corruption and fails.
func (r *Registry) Register(e *Entity) error {
	if e.TableName == "" {
		return fmt.Errorf("register entity: empty table name")
	}
	if existing, ok := r.entities[e.TableName]; ok {
		if existing == e {
			return nil
		}
		return fmt.Errorf("register entity: table %q already registered", e.TableName)
	}
	r.entities[e.TableName] = e
	return nil
}

// Get returns the entity registered under the given table name.
func (r *Registry) Get(table string) (*Entity, bool) {
	e, ok := r.entities[table]
	return e, ok
}

// Entities returns all registered entities sorted by table name, so that
// resolver and migrator passes are deterministic.
func (r *Registry) Entities() []*Entity {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Entity, 0, len(names))
	for _, name := range names {
		out = append(out, r.entities[name])
	}
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

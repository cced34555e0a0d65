package registry

import (
	"sort"
	"sync"

	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/errors"
)

// Tagged is a package that knows its own wire-level type tag. The tag is
// what the registry keys on, so it must be stable across versions of the
// program that exchange documents.
type Tagged interface {
	cargo.Package
	TypeTag() string
}

// Factory produces a fresh, defaulted instance of one concrete type.
type Factory func() Tagged

// Registry maps type tags to factories. The zero value is ready to use.
// Registration typically happens from init functions; lookups run
// concurrently with imports, so the map is guarded.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Register binds a factory to its tag. Rebinding an existing tag is
// rejected so two packages cannot silently fight over one name.
func (r *Registry) Register(tag string, f Factory) error {
	if tag == "" || f == nil {
		return errors.New(errors.PhaseRegistry, errors.KindBadValue).
			Detail("registration needs a tag and a factory").
			Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, dup := r.factories[tag]; dup {
		return errors.New(errors.PhaseRegistry, errors.KindBadValue).
			Value(tag).
			Detail("tag %q is already registered", tag).
			Build()
	}
	r.factories[tag] = f
	return nil
}

// New instantiates the concrete type registered under tag.
func (r *Registry) New(tag string) (Tagged, error) {
	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownType(nil, errors.Position{}, tag)
	}
	t := f()
	t.Default()
	return t, nil
}

// Tags lists every registered tag in lexical order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Default is the process-wide registry used when a Handler names none.
var Default = &Registry{}

// Register binds a factory in the default registry.
func Register(tag string, f Factory) error {
	return Default.Register(tag, f)
}

// New instantiates from the default registry.
func New(tag string) (Tagged, error) {
	return Default.New(tag)
}

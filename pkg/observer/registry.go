package observer

import (
	"fmt"
	"sort"
)

// Registry maps observer names to factories. It is built once and is
// read-only afterwards, so lookups need no locking.
type Registry struct {
	factories map[Name]Factory
	names     []Name
}

// RegistryBuilder collects registrations before a Registry is sealed.
// The first failing Register is remembered and returned by Build.
type RegistryBuilder struct {
	factories map[Name]Factory
	err       error
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{factories: make(map[Name]Factory)}
}

// Register adds factory under name. It fails with DuplicateNameError when
// name is taken, InvalidNameError when name breaks the attribute rules and
// ErrNilFactory when factory is nil.
func (b *RegistryBuilder) Register(name Name, factory Factory) error {
	err := b.register(name, factory)
	if err != nil && b.err == nil {
		b.err = err
	}
	return err
}

func (b *RegistryBuilder) register(name Name, factory Factory) error {
	if !ValidName(string(name)) {
		return &InvalidNameError{Name: string(name)}
	}
	if factory == nil {
		return fmt.Errorf("%w: %q", ErrNilFactory, name)
	}
	if _, exists := b.factories[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	b.factories[name] = factory
	return nil
}

// Build seals the registrations. It returns the first registration error,
// if any; a failed builder never yields a Registry.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{
		factories: make(map[Name]Factory, len(b.factories)),
		names:     make([]Name, 0, len(b.factories)),
	}
	for name, f := range b.factories {
		r.factories[name] = f
		r.names = append(r.names, name)
	}
	sort.Slice(r.names, func(i, j int) bool { return r.names[i] < r.names[j] })
	return r, nil
}

// NewRegistry builds a registry from a views map. Names are validated in
// sorted order so the reported error is deterministic.
//
// A Go map cannot hold the same key twice; use NewRegistryBuilder or
// RegistryFrom when registrations come from several sources.
func NewRegistry(views map[Name]Factory) (*Registry, error) {
	names := make([]Name, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	b := NewRegistryBuilder()
	for _, name := range names {
		if err := b.Register(name, views[name]); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// View is a single named registration.
type View struct {
	Name    Name
	Factory Factory
}

// RegistryFrom builds a registry from an ordered list of views, failing
// with DuplicateNameError on the first repeated name.
func RegistryFrom(views ...View) (*Registry, error) {
	b := NewRegistryBuilder()
	for _, v := range views {
		if err := b.Register(v.Name, v.Factory); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Lookup returns the factory registered under name, or UnknownObserverError.
func (r *Registry) Lookup(name Name) (Factory, error) {
	if r != nil {
		if f, ok := r.factories[name]; ok {
			return f, nil
		}
	}
	return nil, &UnknownObserverError{Name: name}
}

// Has reports whether name is registered.
func (r *Registry) Has(name Name) bool {
	if r == nil {
		return false
	}
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []Name {
	if r == nil {
		return nil
	}
	out := make([]Name, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered observers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

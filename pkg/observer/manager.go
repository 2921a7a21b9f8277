package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Binding is a snapshot of one active (element, name) binding.
type Binding struct {
	Element  Element
	Name     Name
	Key      string
	Payload  Payload
	Instance Instance
}

type bindingKey struct {
	el   Element
	name Name
}

type binding struct {
	key     bindingKey
	attr    string
	payload Payload
	inst    Instance
	cancel  context.CancelFunc
	seq     uint64
}

// Manager owns the binding table: at most one Instance per (element, name).
//
// The table is guarded by a mutex that is never held while a factory or a
// teardown runs, so behaviors may call back into the Manager.
type Manager struct {
	registry *Registry
	opts     options

	mu       sync.Mutex
	ctx      context.Context
	table    map[bindingKey]*binding
	names    map[Element][]Name
	building map[bindingKey]struct{}
	seq      uint64
}

// NewManager returns an empty Manager over reg.
func NewManager(reg *Registry, opts ...Option) *Manager {
	return newManager(reg, buildOptions(opts))
}

func newManager(reg *Registry, o options) *Manager {
	return &Manager{
		registry: reg,
		opts:     o,
		ctx:      context.Background(),
		table:    make(map[bindingKey]*binding),
		names:    make(map[Element][]Name),
		building: make(map[bindingKey]struct{}),
	}
}

// setContext sets the parent of binding contexts created from now on.
func (m *Manager) setContext(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
}

// Bind creates the instance for (el, name) unless one exists, in which case
// the existing instance is returned and the factory is not called.
//
// A factory error or panic yields FactoryConstructionError and leaves the
// pair unbound so a later scan can retry.
func (m *Manager) Bind(el Element, name Name, payload Payload) (Instance, error) {
	inst, _, err := m.bind(el, name, payload)
	return inst, err
}

func (m *Manager) bind(el Element, name Name, payload Payload) (Instance, bool, error) {
	key := bindingKey{el: el, name: name}

	m.mu.Lock()
	if b, ok := m.table[key]; ok {
		m.mu.Unlock()
		return b.inst, false, nil
	}
	if _, ok := m.building[key]; ok {
		// The factory for this pair is running and bound its own element again.
		m.mu.Unlock()
		return nil, false, nil
	}
	parent := m.ctx
	m.building[key] = struct{}{}
	m.mu.Unlock()

	done := func() {
		m.mu.Lock()
		delete(m.building, key)
		m.mu.Unlock()
	}

	attr := AttributeKeyFor(m.opts.prefix, name)
	factory, err := m.registry.Lookup(name)
	if err != nil {
		done()
		return nil, false, &UnknownObserverError{Name: name, Key: attr}
	}

	logger := m.opts.logger.With("observer", string(name), "element", describe(el))
	ctx, cancel := context.WithCancel(parent)

	inst, err := construct(ctx, factory, FactoryInput{
		Element: el,
		Name:    name,
		Payload: payload,
		Config: Config{
			Prefix: m.opts.prefix,
			Key:    attr,
			Logger: logger,
		},
	})
	if err != nil {
		done()
		cancel()
		ferr := &FactoryConstructionError{Name: name, Element: describe(el), Err: err}
		logger.Error("observer construction failed", "error", err)
		m.opts.hooks.OnError(el, name, ferr)
		return nil, false, ferr
	}

	m.mu.Lock()
	delete(m.building, key)
	m.seq++
	m.table[key] = &binding{
		key:     key,
		attr:    attr,
		payload: payload,
		inst:    inst,
		cancel:  cancel,
		seq:     m.seq,
	}
	m.names[el] = append(m.names[el], name)
	m.mu.Unlock()

	logger.Debug("observer bound")
	m.opts.hooks.OnBind(el, name)
	return inst, true, nil
}

func construct(ctx context.Context, f Factory, in FactoryInput) (inst Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f(ctx, in)
}

// Unbind tears down the instance for (el, name). It is a no-op when the pair
// is not bound. The entry is removed even when teardown fails.
func (m *Manager) Unbind(el Element, name Name) error {
	b := m.take(bindingKey{el: el, name: name})
	if b == nil {
		return nil
	}
	return m.teardown(b)
}

// take removes and returns the binding for key, or nil.
func (m *Manager) take(key bindingKey) *binding {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.table[key]
	if !ok {
		return nil
	}
	delete(m.table, key)

	names := m.names[key.el]
	for i, n := range names {
		if n == key.name {
			names = append(names[:i], names[i+1:]...)
			break
		}
	}
	if len(names) == 0 {
		delete(m.names, key.el)
	} else {
		m.names[key.el] = names
	}
	return b
}

func (m *Manager) teardown(b *binding) error {
	b.cancel()

	el, name := b.key.el, b.key.name
	var err error
	if d, ok := b.inst.(Destroyer); ok {
		err = destroy(d)
	}
	if err != nil {
		terr := &TeardownError{Name: name, Element: describe(el), Err: err}
		m.opts.logger.Warn("observer teardown failed",
			"observer", string(name),
			"element", describe(el),
			"error", err,
		)
		m.opts.hooks.OnError(el, name, terr)
		m.opts.hooks.OnUnbind(el, name)
		return terr
	}

	m.opts.logger.Debug("observer unbound", "observer", string(name), "element", describe(el))
	m.opts.hooks.OnUnbind(el, name)
	return nil
}

func destroy(d Destroyer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Destroy()
}

// UnbindAll tears down every observer bound to el, most recent first.
// Teardown failures are joined into the returned error.
func (m *Manager) UnbindAll(el Element) error {
	_, err := m.unbindAll(el)
	return err
}

func (m *Manager) unbindAll(el Element) (int, error) {
	m.mu.Lock()
	names := append([]Name(nil), m.names[el]...)
	m.mu.Unlock()

	var (
		n    int
		errs []error
	)
	for i := len(names) - 1; i >= 0; i-- {
		b := m.take(bindingKey{el: el, name: names[i]})
		if b == nil {
			continue
		}
		n++
		if err := m.teardown(b); err != nil {
			errs = append(errs, err)
		}
	}
	return n, errors.Join(errs...)
}

// Update hands a new payload to the instance for (el, name). Instances that
// implement Updater are updated in place; others, and Updaters that fail,
// are rebuilt. An unbound pair is bound.
func (m *Manager) Update(el Element, name Name, payload Payload) (Instance, error) {
	inst, _, err := m.update(el, name, payload)
	return inst, err
}

// update reports whether the pair's payload changed, either in place or by
// a rebuild.
func (m *Manager) update(el Element, name Name, payload Payload) (Instance, bool, error) {
	key := bindingKey{el: el, name: name}

	m.mu.Lock()
	b, ok := m.table[key]
	var current Payload
	if ok {
		current = b.payload
	}
	m.mu.Unlock()
	if !ok {
		return m.bind(el, name, payload)
	}
	if current == payload {
		return b.inst, false, nil
	}

	if u, ok := b.inst.(Updater); ok {
		err := applyUpdate(u, payload)
		if err == nil {
			m.mu.Lock()
			b.payload = payload
			m.mu.Unlock()
			m.opts.hooks.OnUpdate(el, name)
			return b.inst, true, nil
		}
		m.opts.logger.Warn("observer update failed, rebuilding",
			"observer", string(name),
			"element", describe(el),
			"error", err,
		)
	}

	// Teardown errors are reported through hooks by the teardown itself.
	_ = m.Unbind(el, name)
	inst, _, err := m.bind(el, name, payload)
	return inst, err == nil, err
}

func applyUpdate(u Updater, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return u.Update(p)
}

// Clear tears down every binding, most recent first, and empties the table.
func (m *Manager) Clear() error {
	m.mu.Lock()
	all := make([]*binding, 0, len(m.table))
	for _, b := range m.table {
		all = append(all, b)
	}
	m.table = make(map[bindingKey]*binding)
	m.names = make(map[Element][]Name)
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].seq > all[j].seq })

	var errs []error
	for _, b := range all {
		if err := m.teardown(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Has reports whether (el, name) is bound.
func (m *Manager) Has(el Element, name Name) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.table[bindingKey{el: el, name: name}]
	return ok
}

// Instance returns the instance bound to (el, name).
func (m *Manager) Instance(el Element, name Name) (Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.table[bindingKey{el: el, name: name}]
	if !ok {
		return nil, false
	}
	return b.inst, true
}

// Names returns the observers bound to el in bind order.
func (m *Manager) Names(el Element) []Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Name(nil), m.names[el]...)
}

// Len returns the number of active bindings.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

// Bindings returns a snapshot of the table in bind order.
func (m *Manager) Bindings() []Binding {
	m.mu.Lock()
	all := make([]*binding, 0, len(m.table))
	for _, b := range m.table {
		all = append(all, b)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	out := make([]Binding, len(all))
	for i, b := range all {
		out[i] = Binding{
			Element:  b.key.el,
			Name:     b.key.name,
			Key:      b.attr,
			Payload:  b.payload,
			Instance: b.inst,
		}
	}
	return out
}

// Logger returns the manager's logger.
func (m *Manager) Logger() *slog.Logger {
	return m.opts.logger
}

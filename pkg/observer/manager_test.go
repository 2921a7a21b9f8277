package observer

import (
	"context"
	"errors"
	"testing"
)

func newTestManager(t *testing.T, r *recorder, opts ...Option) (*Manager, *recordingHooks) {
	t.Helper()
	hooks := &recordingHooks{}
	reg := mustRegistry(t, map[Name]Factory{
		"gallery":  r.factory,
		"tooltip":  r.factory,
		"sortable": r.factory,
	})
	opts = append([]Option{WithPrefix("es"), WithHooks(hooks)}, opts...)
	return NewManager(reg, opts...), hooks
}

func TestManager_BindIsIdempotent(t *testing.T) {
	r := &recorder{}
	m, hooks := newTestManager(t, r)
	el := newElement("a")

	first, err := m.Bind(el, "gallery", "3")
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	second, err := m.Bind(el, "gallery", "3")
	if err != nil {
		t.Fatalf("second Bind() error: %v", err)
	}

	if r.callCount() != 1 {
		t.Errorf("factory called %d times, want 1", r.callCount())
	}
	if first != second {
		t.Error("second Bind should return the existing instance")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if hooks.binds != 1 {
		t.Errorf("OnBind called %d times, want 1", hooks.binds)
	}
}

func TestManager_FactoryInput(t *testing.T) {
	r := &recorder{}
	var got FactoryInput
	r.onBuild = func(in FactoryInput) { got = in }
	m, _ := newTestManager(t, r)
	el := newElement("a")

	if _, err := m.Bind(el, "gallery", `{"index":3}`); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}

	if got.Element != el || got.Name != "gallery" || got.Payload != `{"index":3}` {
		t.Errorf("unexpected factory input: %+v", got)
	}
	if got.Config.Prefix != "es" || got.Config.Key != "data-es-gallery" {
		t.Errorf("unexpected config: %+v", got.Config)
	}
	if got.Config.Logger == nil {
		t.Error("factory should receive a logger")
	}
}

func TestManager_IdentityNotValue(t *testing.T) {
	r := &recorder{}
	m, _ := newTestManager(t, r)
	a := newElement("same", "data-es-gallery", "1")
	b := newElement("same", "data-es-gallery", "1")

	m.Bind(a, "gallery", "1")
	m.Bind(b, "gallery", "1")

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2 distinct bindings", m.Len())
	}
}

func TestManager_UnbindTearsDownOnce(t *testing.T) {
	r := &recorder{}
	m, hooks := newTestManager(t, r)
	el := newElement("a")

	m.Bind(el, "gallery", "")
	b := r.last()

	if err := m.Unbind(el, "gallery"); err != nil {
		t.Fatalf("Unbind() error: %v", err)
	}
	if err := m.Unbind(el, "gallery"); err != nil {
		t.Fatalf("second Unbind() error: %v", err)
	}

	if b.destroyed != 1 {
		t.Errorf("Destroy called %d times, want 1", b.destroyed)
	}
	if m.Has(el, "gallery") {
		t.Error("binding should be gone")
	}
	if hooks.unbinds != 1 {
		t.Errorf("OnUnbind called %d times, want 1", hooks.unbinds)
	}
	if b.ctx.Err() == nil {
		t.Error("binding context should be cancelled on unbind")
	}
}

func TestManager_UnbindMissingIsNoop(t *testing.T) {
	m, hooks := newTestManager(t, &recorder{})
	if err := m.Unbind(newElement("a"), "gallery"); err != nil {
		t.Errorf("Unbind() error: %v", err)
	}
	if hooks.unbinds != 0 {
		t.Error("no hook should fire for a missing binding")
	}
}

func TestManager_UnbindAll(t *testing.T) {
	r := &recorder{}
	m, _ := newTestManager(t, r)
	el := newElement("a")
	other := newElement("b")

	m.Bind(el, "gallery", "")
	m.Bind(el, "tooltip", "")
	m.Bind(el, "sortable", "")
	m.Bind(other, "gallery", "")

	if err := m.UnbindAll(el); err != nil {
		t.Fatalf("UnbindAll() error: %v", err)
	}

	if names := m.Names(el); len(names) != 0 {
		t.Errorf("Names(el) = %v, want none", names)
	}
	for _, n := range []Name{"gallery", "tooltip", "sortable"} {
		if m.Has(el, n) {
			t.Errorf("binding %q should be gone", n)
		}
	}
	if !m.Has(other, "gallery") {
		t.Error("other element's binding must survive")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManager_UnbindAllReverseOrder(t *testing.T) {
	var order []Name
	r := &recorder{}
	m, _ := newTestManager(t, r)
	el := newElement("a")

	for _, n := range []Name{"gallery", "tooltip", "sortable"} {
		m.Bind(el, n, "")
	}
	m.opts.hooks = &orderHooks{order: &order}

	m.UnbindAll(el)

	want := []Name{"sortable", "tooltip", "gallery"}
	if len(order) != len(want) {
		t.Fatalf("unbind order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unbind order = %v, want %v", order, want)
		}
	}
}

type orderHooks struct {
	NopHooks
	order *[]Name
}

func (h *orderHooks) OnUnbind(_ Element, name Name) { *h.order = append(*h.order, name) }

func TestManager_FactoryError(t *testing.T) {
	r := &recorder{err: errors.New("no images")}
	m, hooks := newTestManager(t, r)
	el := newElement("a")

	inst, err := m.Bind(el, "gallery", "")
	if inst != nil {
		t.Error("failed bind should return no instance")
	}
	if !errors.Is(err, ErrFactoryConstruction) {
		t.Fatalf("Bind() error = %v, want ErrFactoryConstruction", err)
	}
	if m.Has(el, "gallery") {
		t.Error("failed bind must leave the pair unbound")
	}
	if len(hooks.errs) != 1 {
		t.Errorf("OnError called %d times, want 1", len(hooks.errs))
	}

	// A later scan retries.
	r.err = nil
	if _, err := m.Bind(el, "gallery", ""); err != nil {
		t.Fatalf("retry Bind() error: %v", err)
	}
	if r.callCount() != 2 {
		t.Errorf("factory called %d times, want 2", r.callCount())
	}
}

func TestManager_FactoryPanic(t *testing.T) {
	r := &recorder{panicMsg: "nil map"}
	m, _ := newTestManager(t, r)

	_, err := m.Bind(newElement("a"), "gallery", "")
	var ferr *FactoryConstructionError
	if !errors.As(err, &ferr) {
		t.Fatalf("Bind() error = %v, want FactoryConstructionError", err)
	}
	if ferr.Name != "gallery" || ferr.Element != "#a" {
		t.Errorf("unexpected error fields: %+v", ferr)
	}
}

func TestManager_BindUnknown(t *testing.T) {
	m, _ := newTestManager(t, &recorder{})
	_, err := m.Bind(newElement("a"), "carousel", "")
	var unknown *UnknownObserverError
	if !errors.As(err, &unknown) || unknown.Key != "data-es-carousel" {
		t.Errorf("Bind(unknown) error = %v", err)
	}
}

func TestManager_TeardownErrorStillRemoves(t *testing.T) {
	r := &recorder{failOn: "destroy"}
	m, hooks := newTestManager(t, r)
	el := newElement("a")

	m.Bind(el, "gallery", "")
	err := m.Unbind(el, "gallery")
	if !errors.Is(err, ErrTeardown) {
		t.Fatalf("Unbind() error = %v, want ErrTeardown", err)
	}
	if m.Len() != 0 {
		t.Error("entry must be removed even when teardown fails")
	}
	if hooks.unbinds != 1 || len(hooks.errs) != 1 {
		t.Errorf("hooks: unbinds=%d errs=%d, want 1 and 1", hooks.unbinds, len(hooks.errs))
	}
}

type panickyInstance struct{}

func (panickyInstance) Destroy() error { panic("gone") }

func TestManager_TeardownPanic(t *testing.T) {
	reg := mustRegistry(t, map[Name]Factory{
		"gallery": func(_ context.Context, _ FactoryInput) (Instance, error) {
			return panickyInstance{}, nil
		},
	})
	m := NewManager(reg)
	el := newElement("a")
	m.Bind(el, "gallery", "")

	if err := m.Unbind(el, "gallery"); !errors.Is(err, ErrTeardown) {
		t.Fatalf("Unbind() error = %v, want ErrTeardown", err)
	}
	if m.Len() != 0 {
		t.Error("entry must be removed after a teardown panic")
	}
}

func TestManager_InstanceWithoutTeardown(t *testing.T) {
	reg := mustRegistry(t, map[Name]Factory{
		"marker": func(context.Context, FactoryInput) (Instance, error) { return "plain", nil },
	})
	m := NewManager(reg)
	el := newElement("a")
	m.Bind(el, "marker", "")

	if inst, ok := m.Instance(el, "marker"); !ok || inst != "plain" {
		t.Errorf("Instance() = %v, %v", inst, ok)
	}
	if err := m.Unbind(el, "marker"); err != nil {
		t.Errorf("Unbind() error: %v", err)
	}
}

func TestManager_UpdateInPlace(t *testing.T) {
	r := &recorder{updating: true}
	m, hooks := newTestManager(t, r)
	el := newElement("a")

	m.Bind(el, "gallery", "1")
	if _, err := m.Update(el, "gallery", "2"); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	b := r.last()
	if r.callCount() != 1 {
		t.Errorf("factory called %d times, want 1", r.callCount())
	}
	if len(b.updates) != 1 || b.updates[0] != "2" {
		t.Errorf("updates = %v, want [2]", b.updates)
	}
	if hooks.updates != 1 {
		t.Errorf("OnUpdate called %d times, want 1", hooks.updates)
	}
	if got := m.Bindings()[0].Payload; got != "2" {
		t.Errorf("stored payload = %q, want 2", got)
	}

	// Same payload is a no-op.
	m.Update(el, "gallery", "2")
	if len(b.updates) != 1 {
		t.Error("unchanged payload should not call Update")
	}
}

func TestManager_UpdateRebuildsNonUpdater(t *testing.T) {
	r := &recorder{}
	m, _ := newTestManager(t, r)
	el := newElement("a")

	m.Bind(el, "gallery", "1")
	old := r.last()
	if _, err := m.Update(el, "gallery", "2"); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if old.destroyed != 1 {
		t.Error("old instance should be torn down")
	}
	if r.callCount() != 2 || r.last().payload != "2" {
		t.Errorf("expected a rebuild with payload 2, calls=%d", r.callCount())
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManager_UpdateFailureRebuilds(t *testing.T) {
	r := &recorder{updating: true, failOn: "update"}
	m, _ := newTestManager(t, r)
	el := newElement("a")

	m.Bind(el, "gallery", "1")
	m.Update(el, "gallery", "2")

	if r.callCount() != 2 {
		t.Errorf("factory called %d times, want a rebuild", r.callCount())
	}
}

func TestManager_ClearAndBindings(t *testing.T) {
	r := &recorder{}
	m, _ := newTestManager(t, r)
	els := elements(3)
	for _, el := range els {
		m.Bind(el, "gallery", "")
	}

	bindings := m.Bindings()
	if len(bindings) != 3 {
		t.Fatalf("Bindings() len = %d, want 3", len(bindings))
	}
	for i, b := range bindings {
		if b.Element != els[i] || b.Key != "data-es-gallery" {
			t.Errorf("binding %d = %+v, want bind order", i, b)
		}
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() after Clear = %d", m.Len())
	}
	for _, b := range r.instances {
		if b.destroyed != 1 {
			t.Error("every instance should be torn down once")
		}
	}
}

func TestManager_ReentrantBindFromFactory(t *testing.T) {
	r := &recorder{}
	m, _ := newTestManager(t, r)
	el := newElement("a")
	sibling := newElement("b")

	r.onBuild = func(in FactoryInput) {
		if in.Element == el {
			m.Bind(el, "gallery", "")
			m.Bind(sibling, "tooltip", "")
		}
	}

	if _, err := m.Bind(el, "gallery", ""); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if !m.Has(el, "gallery") || !m.Has(sibling, "tooltip") {
		t.Error("both bindings should exist")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

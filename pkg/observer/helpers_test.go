package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// testElement is a minimal Element for tests. Identity is the pointer.
type testElement struct {
	id       string
	keys     []string
	values   map[string]string
	detached bool
}

func newElement(id string, attrs ...string) *testElement {
	e := &testElement{id: id, values: make(map[string]string)}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.set(attrs[i], attrs[i+1])
	}
	return e
}

func (e *testElement) set(key, value string) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

func (e *testElement) unset(key string) {
	delete(e.values, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

func (e *testElement) Attr(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

func (e *testElement) AttrKeys() []string { return append([]string(nil), e.keys...) }

func (e *testElement) IsConnected() bool { return !e.detached }

func (e *testElement) String() string { return "#" + e.id }

// behavior records its lifecycle.
type behavior struct {
	name      Name
	el        Element
	payload   Payload
	ctx       context.Context
	destroyed int
	updates   []Payload
	failOn    string
}

func (b *behavior) Destroy() error {
	b.destroyed++
	if b.failOn == "destroy" {
		return errors.New("destroy failed")
	}
	return nil
}

// updatingBehavior also accepts payload updates in place.
type updatingBehavior struct {
	*behavior
}

func (u updatingBehavior) Update(p Payload) error {
	if u.failOn == "update" {
		return errors.New("update failed")
	}
	u.updates = append(u.updates, p)
	u.payload = p
	return nil
}

// recorder builds behaviors and remembers every construction.
type recorder struct {
	mu        sync.Mutex
	calls     int
	instances []*behavior
	err       error
	panicMsg  string
	updating  bool
	failOn    string
	onBuild   func(in FactoryInput)
}

func (r *recorder) factory(ctx context.Context, in FactoryInput) (Instance, error) {
	r.mu.Lock()
	r.calls++
	err, panicMsg, onBuild := r.err, r.panicMsg, r.onBuild
	r.mu.Unlock()

	if onBuild != nil {
		onBuild(in)
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return nil, err
	}
	b := &behavior{name: in.Name, el: in.Element, payload: in.Payload, ctx: ctx, failOn: r.failOn}

	r.mu.Lock()
	r.instances = append(r.instances, b)
	r.mu.Unlock()

	if r.updating {
		return updatingBehavior{b}, nil
	}
	return b, nil
}

func (r *recorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *recorder) last() *behavior {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.instances) == 0 {
		return nil
	}
	return r.instances[len(r.instances)-1]
}

// recordingHooks counts hook callbacks.
type recordingHooks struct {
	NopHooks
	mu      sync.Mutex
	binds   int
	unbinds int
	updates int
	errs    []error
	scans   []ScanStats
}

func (h *recordingHooks) OnBind(Element, Name) {
	h.mu.Lock()
	h.binds++
	h.mu.Unlock()
}

func (h *recordingHooks) OnUnbind(Element, Name) {
	h.mu.Lock()
	h.unbinds++
	h.mu.Unlock()
}

func (h *recordingHooks) OnUpdate(Element, Name) {
	h.mu.Lock()
	h.updates++
	h.mu.Unlock()
}

func (h *recordingHooks) OnError(_ Element, _ Name, err error) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *recordingHooks) OnScan(s ScanStats) {
	h.mu.Lock()
	h.scans = append(h.scans, s)
	h.mu.Unlock()
}

func mustRegistry(t *testing.T, views map[Name]Factory) *Registry {
	t.Helper()
	reg, err := NewRegistry(views)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return reg
}

func mustDispatcher(t *testing.T, reg *Registry, engine Engine, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(reg, engine, opts...)
	if err != nil {
		t.Fatalf("NewDispatcher() error: %v", err)
	}
	return d
}

// fakeEngine records Start/Stop and exposes the sink to the test.
type fakeEngine struct {
	root     Element
	sink     Sink
	initial  []Element
	started  int
	stopped  int
	startErr error
	stopErr  error
}

func (f *fakeEngine) Start(root Element, sink Sink) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.root = root
	f.sink = sink
	f.started++
	if len(f.initial) > 0 {
		sink.OnElementsAdded(f.initial)
	}
	return nil
}

func (f *fakeEngine) Stop() error {
	f.stopped++
	return f.stopErr
}

func elements(n int, attrs ...string) []Element {
	out := make([]Element, n)
	for i := range out {
		out[i] = newElement(fmt.Sprintf("e%d", i), attrs...)
	}
	return out
}

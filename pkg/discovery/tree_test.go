package discovery

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

type recordingSink struct {
	batches []observer.Batch
}

func (s *recordingSink) OnElementsAdded(els []observer.Element) {
	s.batches = append(s.batches, observer.Batch{Added: els})
}

func (s *recordingSink) OnElementsRemoved(els []observer.Element) {
	s.batches = append(s.batches, observer.Batch{Removed: els})
}

func (s *recordingSink) OnBatch(b observer.Batch) {
	s.batches = append(s.batches, b)
}

type counter struct {
	live int
}

func (c *counter) factory(context.Context, observer.FactoryInput) (observer.Instance, error) {
	c.live++
	return observer.DestroyFunc(func() error {
		c.live--
		return nil
	}), nil
}

func newDispatcher(t *testing.T, engine observer.Engine, c *counter) *observer.Dispatcher {
	t.Helper()
	reg, err := observer.NewRegistry(map[observer.Name]observer.Factory{"gallery": c.factory})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	d, err := observer.NewDispatcher(reg, engine,
		observer.WithPrefix("es"),
		observer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}

func TestTreeReportsInitialSubtree(t *testing.T) {
	doc := dom.NewDocument(dom.Body(dom.Div(dom.Span())))
	sink := &recordingSink{}

	tree := NewTree()
	if err := tree.Start(doc.Root(), sink); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(sink.batches) != 1 || len(sink.batches[0].Added) != 3 {
		t.Fatalf("batches = %+v", sink.batches)
	}
	if err := tree.Start(doc.Root(), sink); err == nil {
		t.Error("second Start should fail")
	}
}

func TestTreeStartErrors(t *testing.T) {
	tests := []struct {
		name string
		root observer.Element
	}{
		{"foreign element", fakeElement{}},
		{"detached element", dom.Div()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewTree().Start(tt.root, &recordingSink{}); err == nil {
				t.Error("Start() should fail")
			}
		})
	}
}

type fakeElement struct{}

func (fakeElement) Attr(string) (string, bool) { return "", false }
func (fakeElement) AttrKeys() []string         { return nil }

func TestTreeMutationsBecomeBatches(t *testing.T) {
	list := dom.Ul()
	doc := dom.NewDocument(dom.Body(list))
	sink := &recordingSink{}
	tree := NewTree()
	if err := tree.Start(doc.Root(), sink); err != nil {
		t.Fatal(err)
	}
	sink.batches = nil

	item := dom.Li(dom.Span())
	list.AppendChild(item)
	item.SetAttribute("data-es-gallery", "1")
	item.SetAttribute("data-es-gallery", "2")
	if err := tree.Flush(); err != nil {
		t.Fatal(err)
	}

	if len(sink.batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(sink.batches))
	}
	b := sink.batches[0]
	if len(b.Added) != 2 {
		t.Errorf("Added = %d, want item and span", len(b.Added))
	}
	if len(b.Changed) != 1 || b.Changed[0].Key != "data-es-gallery" {
		t.Errorf("Changed = %+v, want one deduplicated change", b.Changed)
	}

	if err := tree.Stop(); err != nil {
		t.Fatal(err)
	}
	item.Remove()
	doc.Flush()
	if len(sink.batches) != 1 {
		t.Error("batch delivered after Stop")
	}
	if err := tree.Flush(); err != nil {
		t.Errorf("Flush after Stop should still reach the document: %v", err)
	}
}

func TestTreeFlushBeforeStart(t *testing.T) {
	if err := NewTree().Flush(); err != ErrNotStarted {
		t.Errorf("Flush() = %v, want ErrNotStarted", err)
	}
}

func TestBatchFromRecordsIgnoresOutsideChanges(t *testing.T) {
	inside, outside := dom.Div(), dom.Div()
	dom.NewDocument(dom.Body(inside, outside))

	b := BatchFromRecords(inside, []dom.Record{
		{Type: dom.RecordAttributes, Target: outside, AttributeName: "data-es-x"},
		{Type: dom.RecordAttributes, Target: inside, AttributeName: "data-es-x"},
	})
	if len(b.Changed) != 1 || b.Changed[0].Element != observer.Element(inside) {
		t.Errorf("Changed = %+v", b.Changed)
	}
}

func TestTreeDrivesDispatcher(t *testing.T) {
	list := dom.Ul(dom.Li(dom.Data("es-gallery", "")))
	doc := dom.NewDocument(dom.Body(list))
	c := &counter{}
	tree := NewTree()
	d := newDispatcher(t, tree, c)

	if err := d.Start(context.Background(), doc.Root()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if c.live != 1 {
		t.Fatalf("live = %d after start, want 1", c.live)
	}

	// Added then removed inside one flush is never bound.
	ghost := dom.Li(dom.Data("es-gallery", ""))
	list.AppendChild(ghost)
	ghost.Remove()
	doc.Flush()
	if c.live != 1 {
		t.Errorf("live = %d after ghost, want 1", c.live)
	}

	// Removing a subtree tears down its bindings.
	list.Remove()
	doc.Flush()
	if c.live != 0 {
		t.Errorf("live = %d after removal, want 0", c.live)
	}

	// Adding the attribute later binds.
	doc.Root().SetAttribute("data-es-gallery", "{}")
	doc.Flush()
	if c.live != 1 {
		t.Errorf("live = %d after attribute set, want 1", c.live)
	}
	doc.Root().RemoveAttribute("data-es-gallery")
	doc.Flush()
	if c.live != 0 {
		t.Errorf("live = %d after attribute removal, want 0", c.live)
	}

	if err := d.Dispose(); err != nil {
		t.Fatal(err)
	}
}

func TestTreeRemovalTearsDownDescendantsDetachedLater(t *testing.T) {
	child := dom.Div(dom.Data("es-gallery", ""))
	wrap := dom.Div(child)
	doc := dom.NewDocument(dom.Body(wrap))
	c := &counter{}
	d := newDispatcher(t, NewTree(), c)

	if err := d.Start(context.Background(), doc.Root()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if c.live != 1 {
		t.Fatalf("live = %d after start, want 1", c.live)
	}

	// child leaves the already detached wrap; no record is written for it.
	wrap.Remove()
	child.Remove()
	doc.Flush()

	if c.live != 0 {
		t.Errorf("live = %d, want 0", c.live)
	}
	if n := len(d.Bindings()); n != 0 {
		t.Errorf("bindings = %d, want 0", n)
	}
}

func TestTreeIgnoresAdditionsMovedOutOfRoot(t *testing.T) {
	inner, outer := dom.Section(), dom.Div()
	doc := dom.NewDocument(dom.Body(inner, outer))
	c := &counter{}
	d := newDispatcher(t, NewTree(), c)

	if err := d.Start(context.Background(), inner); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	el := dom.Div(dom.Data("es-gallery", ""))
	inner.AppendChild(el)
	outer.AppendChild(el)
	doc.Flush()
	if c.live != 0 {
		t.Fatalf("live = %d after move out of root, want 0", c.live)
	}

	el.Remove()
	doc.Flush()
	if c.live != 0 {
		t.Errorf("live = %d after removal, want 0", c.live)
	}

	inner.AppendChild(dom.Div(dom.Data("es-gallery", "")))
	doc.Flush()
	if c.live != 1 {
		t.Errorf("live = %d after addition inside root, want 1", c.live)
	}
}

func TestBatchFromRecordsFiltersAdditions(t *testing.T) {
	inside, outside := dom.Div(), dom.Div()
	dom.NewDocument(dom.Body(inside, outside))

	b := BatchFromRecords(inside, []dom.Record{
		{Type: dom.RecordChildList, Target: outside, Added: []*dom.Element{outside}},
		{Type: dom.RecordChildList, Target: inside, Added: []*dom.Element{inside}},
	})
	if len(b.Added) != 1 || b.Added[0] != observer.Element(inside) {
		t.Errorf("Added = %+v", b.Added)
	}
}

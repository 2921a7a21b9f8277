package discovery

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// ErrNotStarted is returned when an engine is used before Start.
var ErrNotStarted = errors.New("discovery: engine not started")

// Tree is an engine over an in-memory document. Mutations become visible to
// the sink when the document is flushed, either through Document.Flush or
// Tree.Flush.
type Tree struct {
	mu   sync.Mutex
	root *dom.Element
	doc  *dom.Document
	obs  *dom.MutationObserver
	sink observer.Sink
}

var _ observer.Engine = (*Tree)(nil)

// NewTree returns an engine that watches the root passed to Start.
func NewTree() *Tree {
	return &Tree{}
}

// Start reports root's subtree as added and begins observing mutations.
// root must be a *dom.Element that belongs to a document.
func (t *Tree) Start(root observer.Element, sink observer.Sink) error {
	el, ok := root.(*dom.Element)
	if !ok {
		return fmt.Errorf("discovery: tree engine needs a *dom.Element root, got %T", root)
	}
	doc := el.Document()
	if doc == nil {
		return fmt.Errorf("discovery: root %s does not belong to a document", el)
	}

	t.mu.Lock()
	if t.obs != nil {
		t.mu.Unlock()
		return fmt.Errorf("discovery: tree engine already started")
	}
	t.root, t.doc, t.sink = el, doc, sink
	t.obs = doc.Observe(el, t.onRecords)
	t.mu.Unlock()

	if initial := el.Subtree(); len(initial) > 0 {
		sink.OnElementsAdded(toElements(initial))
	}
	return nil
}

// Flush delivers pending mutations of the watched document.
func (t *Tree) Flush() error {
	t.mu.Lock()
	doc := t.doc
	t.mu.Unlock()
	if doc == nil {
		return ErrNotStarted
	}
	doc.Flush()
	return nil
}

// Stop disconnects the mutation observer. Pending records are dropped.
func (t *Tree) Stop() error {
	t.mu.Lock()
	obs := t.obs
	t.obs, t.sink = nil, nil
	t.mu.Unlock()
	if obs != nil {
		obs.Disconnect()
	}
	return nil
}

func (t *Tree) onRecords(records []dom.Record) {
	t.mu.Lock()
	sink, root := t.sink, t.root
	t.mu.Unlock()
	if sink == nil {
		return
	}
	if b := BatchFromRecords(root, records); !b.Empty() {
		sink.OnBatch(b)
	}
}

// BatchFromRecords folds mutation records into one batch. Removed nodes
// expand to their subtrees as captured at removal time, added nodes to
// their current subtrees. Duplicates are dropped, and additions and
// attribute records on elements outside root are ignored.
func BatchFromRecords(root *dom.Element, records []dom.Record) observer.Batch {
	var (
		b       observer.Batch
		added   = make(map[*dom.Element]bool)
		removed = make(map[*dom.Element]bool)
		changed = make(map[changeKey]bool)
	)
	inRoot := func(e *dom.Element) bool {
		return root == nil || root.Contains(e)
	}

	for _, r := range records {
		switch r.Type {
		case dom.RecordChildList:
			for _, e := range detachedNodes(r) {
				if !removed[e] {
					removed[e] = true
					b.Removed = append(b.Removed, e)
				}
			}
			for _, n := range r.Added {
				for _, e := range n.Subtree() {
					if !added[e] && inRoot(e) {
						added[e] = true
						b.Added = append(b.Added, e)
					}
				}
			}
		case dom.RecordAttributes:
			if !inRoot(r.Target) {
				continue
			}
			k := changeKey{el: r.Target, key: r.AttributeName}
			if !changed[k] {
				changed[k] = true
				b.Changed = append(b.Changed, observer.AttributeChange{Element: r.Target, Key: r.AttributeName})
			}
		}
	}
	return b
}

// detachedNodes returns the removal snapshot of r, falling back to the
// current subtrees for records built without one.
func detachedNodes(r dom.Record) []*dom.Element {
	if r.Detached != nil {
		return r.Detached
	}
	var out []*dom.Element
	for _, n := range r.Removed {
		out = append(out, n.Subtree()...)
	}
	return out
}

type changeKey struct {
	el  *dom.Element
	key string
}

func toElements(els []*dom.Element) []observer.Element {
	out := make([]observer.Element, len(els))
	for i, e := range els {
		out[i] = e
	}
	return out
}

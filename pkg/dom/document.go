package dom

import (
	"sync"
)

// RecordType distinguishes mutation records.
type RecordType uint8

const (
	RecordChildList RecordType = iota
	RecordAttributes
)

// String returns the string representation of the RecordType.
func (t RecordType) String() string {
	switch t {
	case RecordChildList:
		return "childList"
	case RecordAttributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Record describes one mutation.
type Record struct {
	Type   RecordType
	Target *Element

	// Set for RecordChildList. Detached holds the removed nodes and their
	// descendants as they were at removal time.
	Added    []*Element
	Removed  []*Element
	Detached []*Element

	// Set for RecordAttributes. OldValue is empty when the attribute was new.
	AttributeName string
	OldValue      string
}

// MutationCallback receives the records queued since the last flush.
type MutationCallback func(records []Record)

// Document owns a root element and the mutation observers watching it.
//
// The tree itself is not safe for concurrent use; callers serialize access
// the way a browser's single main thread does. The record queue and the
// observer list have their own lock.
type Document struct {
	root *Element
	ids  *IDGenerator

	mu        sync.Mutex
	observers []*MutationObserver
	byID      map[string]*Element
}

// NewDocument creates a document with root as its root element. A nil root
// creates an empty <html> element.
func NewDocument(root *Element) *Document {
	if root == nil {
		root = NewElement("html")
	}
	d := &Document{
		ids:  NewIDGenerator(),
		byID: make(map[string]*Element),
	}
	if root.parent != nil {
		root.parent.RemoveChild(root)
	}
	d.root = root
	d.adopt(root)
	return d
}

// Root returns the document's root element.
func (d *Document) Root() *Element {
	return d.root
}

// ElementByNodeID returns the element the document assigned id to. Removed
// elements remain addressable so they can be reinserted.
func (d *Document) ElementByNodeID(id string) (*Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.byID[id]
	return e, ok
}

// Forget drops the node ID index entries for e's subtree.
func (d *Document) Forget(e *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.Walk(func(n *Element) bool {
		if n.doc == d && n.id != "" {
			delete(d.byID, n.id)
		}
		return true
	})
}

// adopt assigns the subtree of e to the document.
func (d *Document) adopt(e *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.Walk(func(n *Element) bool {
		if n.doc != d {
			n.doc = d
			n.id = d.ids.Next()
		}
		d.byID[n.id] = n
		return true
	})
}

// CreateElement creates a detached element owned by the document.
func (d *Document) CreateElement(tag string, attrs ...Attribute) *Element {
	e := NewElement(tag, attrs...)
	d.adopt(e)
	return e
}

// CreateElementWithID creates a detached element with a caller-chosen node
// ID, used when mirroring a remote tree whose IDs are assigned elsewhere.
// It returns false when the ID is already taken.
func (d *Document) CreateElementWithID(id, tag string, attrs ...Attribute) (*Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.byID[id]; taken {
		return nil, false
	}
	e := NewElement(tag, attrs...)
	e.doc = d
	e.id = id
	d.byID[id] = e
	return e, true
}

// Observe registers fn for mutations on target's subtree.
func (d *Document) Observe(target *Element, fn MutationCallback) *MutationObserver {
	o := &MutationObserver{doc: d, target: target, fn: fn}
	d.mu.Lock()
	d.observers = append(d.observers, o)
	d.mu.Unlock()
	return o
}

func (d *Document) record(r Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.observers {
		if o.target.Contains(r.Target) {
			o.pending = append(o.pending, r)
		}
	}
}

// Flush delivers pending records to every observer. Mutations made by a
// callback are recorded and delivered by the same Flush, until the queues
// are empty.
func (d *Document) Flush() {
	for {
		d.mu.Lock()
		var (
			next    *MutationObserver
			records []Record
		)
		for _, o := range d.observers {
			if len(o.pending) > 0 {
				next, records = o, o.pending
				o.pending = nil
				break
			}
		}
		d.mu.Unlock()

		if next == nil {
			return
		}
		next.fn(records)
	}
}

// MutationObserver is a registration created by Document.Observe.
type MutationObserver struct {
	doc     *Document
	target  *Element
	fn      MutationCallback
	pending []Record
}

// TakeRecords returns and clears the observer's pending records without
// invoking its callback.
func (o *MutationObserver) TakeRecords() []Record {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	r := o.pending
	o.pending = nil
	return r
}

// Disconnect stops delivery and discards pending records. It is idempotent.
func (o *MutationObserver) Disconnect() {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	o.pending = nil
	for i, other := range o.doc.observers {
		if other == o {
			o.doc.observers = append(o.doc.observers[:i], o.doc.observers[i+1:]...)
			return
		}
	}
}

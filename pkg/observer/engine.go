package observer

import "fmt"

// Element is the view of a DOM element the core needs. Implementations must
// be pointer types: identity, not attribute equality, distinguishes bindings.
type Element interface {
	// Attr returns the value of the attribute key.
	Attr(key string) (string, bool)

	// AttrKeys returns the element's attribute keys in document order.
	AttrKeys() []string
}

// Connector is optionally implemented by elements that know whether they are
// still attached to the observed document. Detached elements are never bound.
type Connector interface {
	IsConnected() bool
}

// AttributeChange reports that the attribute Key of Element was set,
// changed or removed.
type AttributeChange struct {
	Element Element
	Key     string
}

// Batch is one drained set of mutations. Removals are applied before
// attribute changes, and changes before additions.
type Batch struct {
	Removed []Element
	Changed []AttributeChange
	Added   []Element
}

// Empty reports whether the batch carries no mutations.
func (b Batch) Empty() bool {
	return len(b.Removed) == 0 && len(b.Changed) == 0 && len(b.Added) == 0
}

// Sink receives discovery callbacks. Engines report every affected element,
// descendants included; the dispatcher does not walk subtrees itself.
type Sink interface {
	OnElementsAdded(elements []Element)
	OnElementsRemoved(elements []Element)
	OnBatch(b Batch)
}

// Engine discovers elements under a root and reports their arrival and
// departure to a Sink. Start must report the existing subtree of root as
// added. After Stop the engine must not call the sink again.
type Engine interface {
	Start(root Element, sink Sink) error
	Stop() error
}

// describe returns a short label for an element in logs and errors.
func describe(el Element) string {
	if s, ok := el.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T(%p)", el, el)
}

func isConnected(el Element) bool {
	if c, ok := el.(Connector); ok {
		return c.IsConnected()
	}
	return true
}

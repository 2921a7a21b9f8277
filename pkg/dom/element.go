package dom

import (
	"strings"
)

// Attribute is a single attribute in document order.
type Attribute struct {
	Key   string
	Value string
}

// Element is a node in the tree. Identity is the pointer: two elements with
// the same tag and attributes are distinct.
type Element struct {
	tag      string
	attrs    []Attribute
	parent   *Element
	children []*Element
	doc      *Document
	id       string
}

// NewElement creates a detached element. Attribute keys are lowercased like
// an HTML parser would.
func NewElement(tag string, attrs ...Attribute) *Element {
	e := &Element{tag: strings.ToLower(tag)}
	for _, a := range attrs {
		e.setAttr(strings.ToLower(a.Key), a.Value)
	}
	return e
}

// Tag returns the lowercase tag name.
func (e *Element) Tag() string {
	return e.tag
}

// ID returns the element's document-assigned identifier ("n1", "n2", ...).
// Detached elements that never joined a document have no ID.
func (e *Element) ID() string {
	return e.id
}

// String returns a short CSS-like label: tag, id attribute and node ID.
func (e *Element) String() string {
	var b strings.Builder
	b.WriteString(e.tag)
	if id, ok := e.Attr("id"); ok && id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	if e.id != "" {
		b.WriteString("[")
		b.WriteString(e.id)
		b.WriteString("]")
	}
	return b.String()
}

// Attr returns the value of the attribute key.
func (e *Element) Attr(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// AttrKeys returns attribute keys in document order.
func (e *Element) AttrKeys() []string {
	keys := make([]string, len(e.attrs))
	for i, a := range e.attrs {
		keys[i] = a.Key
	}
	return keys
}

// Attributes returns a copy of the attributes in document order.
func (e *Element) Attributes() []Attribute {
	return append([]Attribute(nil), e.attrs...)
}

func (e *Element) setAttr(key, value string) (old string, existed bool) {
	for i, a := range e.attrs {
		if a.Key == key {
			e.attrs[i].Value = value
			return a.Value, true
		}
	}
	e.attrs = append(e.attrs, Attribute{Key: key, Value: value})
	return "", false
}

// SetAttribute sets key to value, recording an attribute mutation when the
// element is connected and the value changes.
func (e *Element) SetAttribute(key, value string) {
	key = strings.ToLower(key)
	old, existed := e.setAttr(key, value)
	if existed && old == value {
		return
	}
	if d := e.connectedDoc(); d != nil {
		d.record(Record{Type: RecordAttributes, Target: e, AttributeName: key, OldValue: old})
	}
}

// RemoveAttribute deletes key. Removing a missing attribute does nothing.
func (e *Element) RemoveAttribute(key string) {
	key = strings.ToLower(key)
	for i, a := range e.attrs {
		if a.Key != key {
			continue
		}
		e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
		if d := e.connectedDoc(); d != nil {
			d.record(Record{Type: RecordAttributes, Target: e, AttributeName: key, OldValue: a.Value})
		}
		return
	}
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// Document returns the document the element belongs to, or nil. An element
// keeps its document after removal; use IsConnected for membership.
func (e *Element) Document() *Document {
	return e.doc
}

// IsConnected reports whether the element is attached to its document's root.
func (e *Element) IsConnected() bool {
	if e.doc == nil || e.doc.root == nil {
		return false
	}
	for n := e; n != nil; n = n.parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

func (e *Element) connectedDoc() *Document {
	if e.IsConnected() {
		return e.doc
	}
	return nil
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// AppendChild appends child, detaching it from its current parent first.
func (e *Element) AppendChild(child *Element) *Element {
	return e.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref. A nil ref, or one that is not a
// child of e, appends.
func (e *Element) InsertBefore(child, ref *Element) *Element {
	if child == nil || child == e || child.Contains(e) {
		return child
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}

	idx := len(e.children)
	for i, c := range e.children {
		if c == ref {
			idx = i
			break
		}
	}
	e.children = append(e.children, nil)
	copy(e.children[idx+1:], e.children[idx:])
	e.children[idx] = child
	child.parent = e

	if e.doc != nil {
		e.doc.adopt(child)
	}
	if d := e.connectedDoc(); d != nil {
		d.record(Record{Type: RecordChildList, Target: e, Added: []*Element{child}})
	}
	return child
}

// RemoveChild detaches child from e. It returns false when child is not a
// child of e.
func (e *Element) RemoveChild(child *Element) bool {
	for i, c := range e.children {
		if c != child {
			continue
		}
		connected := e.connectedDoc()
		e.children = append(e.children[:i], e.children[i+1:]...)
		child.parent = nil
		if connected != nil {
			connected.record(Record{
				Type:     RecordChildList,
				Target:   e,
				Removed:  []*Element{child},
				Detached: child.Subtree(),
			})
		}
		return true
	}
	return false
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
}

// Walk visits e and its descendants in document order. Returning false from
// fn skips the element's children.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

// Subtree returns e and all descendants in document order.
func (e *Element) Subtree() []*Element {
	var out []*Element
	e.Walk(func(n *Element) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Find returns the first element in the subtree (e included) matching fn.
func (e *Element) Find(fn func(*Element) bool) *Element {
	var found *Element
	e.Walk(func(n *Element) bool {
		if found != nil {
			return false
		}
		if fn(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every element in the subtree matching fn.
func (e *Element) FindAll(fn func(*Element) bool) []*Element {
	var out []*Element
	e.Walk(func(n *Element) bool {
		if fn(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// GetElementByID finds a descendant by its id attribute.
func (e *Element) GetElementByID(id string) *Element {
	return e.Find(func(n *Element) bool {
		v, ok := n.Attr("id")
		return ok && v == id
	})
}

// HasAttrPrefix reports whether any attribute key starts with prefix.
func (e *Element) HasAttrPrefix(prefix string) bool {
	prefix = strings.ToLower(prefix)
	for _, a := range e.attrs {
		if strings.HasPrefix(a.Key, prefix) {
			return true
		}
	}
	return false
}

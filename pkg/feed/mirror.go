package feed

import (
	"fmt"
	"sort"

	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/discovery"
	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// Mirror is an observer.Engine over a document built from client batches.
type Mirror struct {
	doc  *dom.Document
	tree *discovery.Tree
}

var _ observer.Engine = (*Mirror)(nil)

// NewMirror returns an empty mirror whose root is a <body> element.
func NewMirror() *Mirror {
	return &Mirror{doc: dom.NewDocument(dom.Body()), tree: discovery.NewTree()}
}

// Root returns the mirror root element.
func (m *Mirror) Root() *dom.Element {
	return m.doc.Root()
}

// Document returns the mirror document.
func (m *Mirror) Document() *dom.Document {
	return m.doc
}

// Start implements observer.Engine.
func (m *Mirror) Start(root observer.Element, sink observer.Sink) error {
	return m.tree.Start(root, sink)
}

// Stop implements observer.Engine.
func (m *Mirror) Stop() error {
	return m.tree.Stop()
}

// Lookup returns the element with node ID id. The empty ID names the root.
func (m *Mirror) Lookup(id string) (*dom.Element, bool) {
	if id == "" {
		return m.doc.Root(), true
	}
	return m.doc.ElementByNodeID(id)
}

// Apply mutates the mirror with msg and flushes the resulting records to the
// sink. Removals are applied first, then additions in order, then attribute
// changes. Removing an unknown node is a no-op so agents may report a
// subtree and its descendants together. A node that cannot be applied is
// skipped and reported; the rest of the message still applies.
func (m *Mirror) Apply(msg ClientMessage) []ErrorInfo {
	var errs []ErrorInfo
	reject := func(id, format string, args ...any) {
		e := derrors.New("D140").WithDetail(fmt.Sprintf(format, args...)).WithSubject(id)
		errs = append(errs, ErrorInfo{ID: id, Code: e.Code, Message: e.Detail})
	}

	for _, id := range msg.Removed {
		el, ok := m.doc.ElementByNodeID(id)
		if !ok {
			continue
		}
		if el == m.doc.Root() {
			reject(id, "cannot remove the root")
			continue
		}
		el.Remove()
		m.doc.Forget(el)
	}

	for _, spec := range msg.Added {
		if spec.ID == "" || spec.Tag == "" {
			reject(spec.ID, "node needs an id and a tag")
			continue
		}
		parent, ok := m.Lookup(spec.Parent)
		if !ok {
			reject(spec.ID, "unknown parent %q", spec.Parent)
			continue
		}
		el, ok := m.doc.CreateElementWithID(spec.ID, spec.Tag, attributes(spec.Attrs)...)
		if !ok {
			reject(spec.ID, "duplicate node %q", spec.ID)
			continue
		}
		var ref *dom.Element
		if spec.Before != "" {
			ref, _ = m.doc.ElementByNodeID(spec.Before)
		}
		parent.InsertBefore(el, ref)
	}

	for _, c := range msg.Changed {
		el, ok := m.doc.ElementByNodeID(c.ID)
		if !ok {
			reject(c.ID, "unknown node %q", c.ID)
			continue
		}
		if c.Removed {
			el.RemoveAttribute(c.Key)
		} else {
			el.SetAttribute(c.Key, c.Value)
		}
	}

	// Flush only fails before Start; the records then wait for it.
	_ = m.tree.Flush()
	return errs
}

// attributes orders a JSON attribute map by key.
func attributes(attrs map[string]string) []dom.Attribute {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]dom.Attribute, len(keys))
	for i, k := range keys {
		out[i] = dom.Attr(k, attrs[k])
	}
	return out
}

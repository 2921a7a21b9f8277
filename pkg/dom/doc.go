// Package dom provides a small in-memory element tree with mutation records.
//
// It models just enough of the DOM for view observers: elements with ordered
// attributes, parent/child links, document membership and a mutation
// observer that queues records until the document is flushed. Markup from
// any backend can be parsed into a Document with Parse.
//
// # Building Trees
//
// Elements are created using variadic factory functions:
//
//	doc := dom.NewDocument(dom.El("body", nil,
//	    dom.Div(dom.Class("photos"), dom.Data("es-gallery", `{"index":3}`)),
//	))
//
// # Mutation Records
//
// Every structural or attribute change on a connected element is recorded.
// Records are delivered to observers when Flush is called, mirroring the
// batching of a browser MutationObserver:
//
//	obs := doc.Observe(doc.Root(), func(records []dom.Record) { ... })
//	doc.Root().AppendChild(dom.Div())
//	doc.Flush()
package dom

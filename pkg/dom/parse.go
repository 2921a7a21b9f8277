package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parse reads an HTML document and returns it as a Document rooted at the
// <html> element. Text, comment and doctype nodes are dropped; only elements
// and their attributes are kept.
func Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var root *Element
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			root = convert(c)
			break
		}
	}
	return NewDocument(root), nil
}

// ParseString parses markup held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFragment parses markup as the children of a <body> element and
// returns the top-level elements, detached.
func ParseFragment(r io.Reader) ([]*Element, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body"}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	var out []*Element
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, convert(n))
		}
	}
	return out, nil
}

func convert(n *html.Node) *Element {
	e := &Element{tag: strings.ToLower(n.Data)}
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		e.setAttr(strings.ToLower(key), a.Val)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		child := convert(c)
		child.parent = e
		e.children = append(e.children, child)
	}
	return e
}

// Render writes the element tree as HTML. Only elements and attributes are
// written.
func Render(w io.Writer, e *Element) error {
	return html.Render(w, toNode(e))
}

func toNode(e *Element) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: e.tag}
	for _, a := range e.attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Value})
	}
	if IsVoidElement(e.tag) {
		return n
	}
	for _, c := range e.children {
		n.AppendChild(toNode(c))
	}
	return n
}

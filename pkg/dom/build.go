package dom

import "strings"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// El creates an element with the given tag.
// Arguments can be: nil, Attribute, []Attribute, *Element, []*Element.
// Children passed to a void element are ignored.
func El(tag string, args ...any) *Element {
	e := NewElement(tag)
	void := IsVoidElement(e.tag)

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue
		case Attribute:
			if v.Key != "" {
				e.setAttr(strings.ToLower(v.Key), v.Value)
			}
		case []Attribute:
			for _, a := range v {
				if a.Key != "" {
					e.setAttr(strings.ToLower(a.Key), a.Value)
				}
			}
		case *Element:
			if v != nil && !void {
				e.AppendChild(v)
			}
		case []*Element:
			if void {
				continue
			}
			for _, c := range v {
				if c != nil {
					e.AppendChild(c)
				}
			}
		}
	}
	return e
}

// Attr creates an attribute.
func Attr(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attribute { return Attr("id", id) }

// Class sets the class attribute from space-joined classes.
func Class(classes ...string) Attribute { return Attr("class", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
func Data(key, value string) Attribute { return Attr("data-"+key, value) }

// Title sets the title attribute.
func Title(title string) Attribute { return Attr("title", title) }

// Src sets the src attribute.
func Src(url string) Attribute { return Attr("src", url) }

func HTML(args ...any) *Element    { return El("html", args...) }
func Body(args ...any) *Element    { return El("body", args...) }
func Div(args ...any) *Element     { return El("div", args...) }
func Span(args ...any) *Element    { return El("span", args...) }
func Section(args ...any) *Element { return El("section", args...) }
func Ul(args ...any) *Element      { return El("ul", args...) }
func Li(args ...any) *Element      { return El("li", args...) }
func Button(args ...any) *Element  { return El("button", args...) }
func A(args ...any) *Element       { return El("a", args...) }
func Img(args ...any) *Element     { return El("img", args...) }

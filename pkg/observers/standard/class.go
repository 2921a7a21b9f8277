package standard

import (
	"strings"

	"github.com/vango-dev/defo/pkg/dom"
)

func addClass(e *dom.Element, class string) {
	if class == "" {
		return
	}
	current, _ := e.Attr("class")
	fields := strings.Fields(current)
	for _, f := range fields {
		if f == class {
			return
		}
	}
	e.SetAttribute("class", strings.Join(append(fields, class), " "))
}

func removeClass(e *dom.Element, class string) {
	current, ok := e.Attr("class")
	if !ok || class == "" {
		return
	}
	fields := strings.Fields(current)
	kept := fields[:0]
	for _, f := range fields {
		if f != class {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(fields) {
		return
	}
	if len(kept) == 0 {
		e.RemoveAttribute("class")
		return
	}
	e.SetAttribute("class", strings.Join(kept, " "))
}

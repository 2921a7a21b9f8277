package standard

import (
	"encoding/json"
	"strings"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// Observer names.
const (
	NameGallery   observer.Name = "gallery"
	NameTooltip   observer.Name = "tooltip"
	NameDropdown  observer.Name = "dropdown"
	NameSortable  observer.Name = "sortable"
	NameDraggable observer.Name = "draggable"
)

// Views returns every standard observer keyed by name.
func Views() map[observer.Name]observer.Factory {
	return map[observer.Name]observer.Factory{
		NameGallery:   NewGallery,
		NameTooltip:   NewTooltip,
		NameDropdown:  NewDropdown,
		NameSortable:  NewSortable,
		NameDraggable: NewDraggable,
	}
}

// attr renders config as a data-{prefix}-{name} attribute.
func attr(prefix string, name observer.Name, config any) dom.Attribute {
	b, err := json.Marshal(config)
	if err != nil {
		b = []byte("{}")
	}
	return dom.Attr(observer.AttributeKeyFor(prefix, name), string(b))
}

// decode fills v from a JSON payload. An empty payload keeps v's defaults.
func decode(p observer.Payload, v any) error {
	if strings.TrimSpace(p.String()) == "" {
		return nil
	}
	return p.JSON(v)
}

// domElement returns el as a *dom.Element when it is one.
func domElement(el observer.Element) (*dom.Element, bool) {
	e, ok := el.(*dom.Element)
	return e, ok && e != nil
}

package standard

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// DraggableConfig configures the Draggable observer.
type DraggableConfig struct {
	Axis   string `json:"axis,omitempty"` // "x", "y", or "both"
	Handle string `json:"handle,omitempty"`
	Revert bool   `json:"revert,omitempty"`
}

// Draggable creates a Draggable observer attribute.
func Draggable(prefix string, config DraggableConfig) dom.Attribute {
	return attr(prefix, NameDraggable, config)
}

// DraggableInstance tracks an offset constrained to an axis.
type DraggableInstance struct {
	mu       sync.Mutex
	el       observer.Element
	config   DraggableConfig
	x, y     int
	dragging bool
	startX   int
	startY   int
}

// NewDraggable is the Draggable factory.
func NewDraggable(_ context.Context, in observer.FactoryInput) (observer.Instance, error) {
	d := &DraggableInstance{el: in.Element}
	if err := d.Update(in.Payload); err != nil {
		return nil, err
	}
	if e, ok := domElement(in.Element); ok {
		e.SetAttribute("draggable", "true")
	}
	return d, nil
}

// Update implements observer.Updater.
func (d *DraggableInstance) Update(p observer.Payload) error {
	var config DraggableConfig
	if err := decode(p, &config); err != nil {
		return err
	}
	switch config.Axis {
	case "":
		config.Axis = "both"
	case "x", "y", "both":
	default:
		return fmt.Errorf("draggable: invalid axis %q", config.Axis)
	}
	d.mu.Lock()
	d.config = config
	d.mu.Unlock()
	return nil
}

// Start begins a drag.
func (d *DraggableInstance) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dragging = true
	d.startX, d.startY = d.x, d.y
}

// Move shifts the offset by (dx, dy), dropping movement on a locked axis.
// It does nothing outside a drag.
func (d *DraggableInstance) Move(dx, dy int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dragging {
		return
	}
	switch d.config.Axis {
	case "x":
		dy = 0
	case "y":
		dx = 0
	}
	d.x += dx
	d.y += dy
	d.reflect()
}

// End finishes a drag, snapping back when Revert is set.
func (d *DraggableInstance) End() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dragging {
		return
	}
	d.dragging = false
	if d.config.Revert {
		d.x, d.y = d.startX, d.startY
		d.reflect()
	}
}

// Offset returns the current offset.
func (d *DraggableInstance) Offset() (x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.x, d.y
}

func (d *DraggableInstance) reflect() {
	if e, ok := domElement(d.el); ok {
		e.SetAttribute("data-offset", strconv.Itoa(d.x)+","+strconv.Itoa(d.y))
	}
}

// Destroy implements observer.Destroyer.
func (d *DraggableInstance) Destroy() error {
	if e, ok := domElement(d.el); ok {
		e.RemoveAttribute("draggable")
		e.RemoveAttribute("data-offset")
	}
	return nil
}

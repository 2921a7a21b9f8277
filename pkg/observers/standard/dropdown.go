package standard

import (
	"context"
	"strconv"
	"sync"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// DropdownConfig configures the Dropdown observer.
type DropdownConfig struct {
	Open          bool `json:"open,omitempty"`
	CloseOnEscape bool `json:"closeOnEscape,omitempty"`
	CloseOnClick  bool `json:"closeOnClick,omitempty"`
}

// Dropdown creates a Dropdown observer attribute.
func Dropdown(prefix string, config DropdownConfig) dom.Attribute {
	return attr(prefix, NameDropdown, config)
}

// DropdownInstance tracks open state and reflects it as aria-expanded.
type DropdownInstance struct {
	mu     sync.Mutex
	el     observer.Element
	config DropdownConfig
	open   bool
}

// NewDropdown is the Dropdown factory.
func NewDropdown(_ context.Context, in observer.FactoryInput) (observer.Instance, error) {
	d := &DropdownInstance{el: in.Element}
	if err := d.Update(in.Payload); err != nil {
		return nil, err
	}
	return d, nil
}

// Update implements observer.Updater.
func (d *DropdownInstance) Update(p observer.Payload) error {
	var config DropdownConfig
	if err := decode(p, &config); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = config
	d.set(config.Open)
	return nil
}

// IsOpen reports whether the dropdown is open.
func (d *DropdownInstance) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Toggle flips the open state and returns the new state.
func (d *DropdownInstance) Toggle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.set(!d.open)
	return d.open
}

// Escape closes the dropdown when CloseOnEscape is set.
func (d *DropdownInstance) Escape() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.config.CloseOnEscape {
		d.set(false)
	}
}

// ClickOutside closes the dropdown when CloseOnClick is set.
func (d *DropdownInstance) ClickOutside() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.config.CloseOnClick {
		d.set(false)
	}
}

func (d *DropdownInstance) set(open bool) {
	d.open = open
	if e, ok := domElement(d.el); ok {
		e.SetAttribute("aria-expanded", strconv.FormatBool(open))
	}
}

// Destroy implements observer.Destroyer.
func (d *DropdownInstance) Destroy() error {
	if e, ok := domElement(d.el); ok {
		e.RemoveAttribute("aria-expanded")
	}
	return nil
}

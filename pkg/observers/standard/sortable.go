package standard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// SortableConfig configures the Sortable observer.
type SortableConfig struct {
	Group      string `json:"group,omitempty"`
	Animation  int    `json:"animation,omitempty"`
	GhostClass string `json:"ghostClass,omitempty"`
	Handle     string `json:"handle,omitempty"`
	Disabled   bool   `json:"disabled,omitempty"`
}

// ErrSortDisabled is returned by Move when sorting is disabled.
var ErrSortDisabled = errors.New("sortable: disabled")

// Sortable creates a Sortable observer attribute.
func Sortable(prefix string, config SortableConfig) dom.Attribute {
	return attr(prefix, NameSortable, config)
}

// SortableInstance reorders the children of its element.
type SortableInstance struct {
	mu     sync.Mutex
	el     observer.Element
	config SortableConfig
}

// NewSortable is the Sortable factory. It is a no-op on elements other than
// *dom.Element.
func NewSortable(_ context.Context, in observer.FactoryInput) (observer.Instance, error) {
	s := &SortableInstance{el: in.Element}
	if err := s.Update(in.Payload); err != nil {
		return nil, err
	}
	return s, nil
}

// Update implements observer.Updater.
func (s *SortableInstance) Update(p observer.Payload) error {
	var config SortableConfig
	if err := decode(p, &config); err != nil {
		return err
	}
	if config.Animation < 0 {
		return fmt.Errorf("sortable: negative animation %d", config.Animation)
	}
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	return nil
}

// Config returns the current configuration.
func (s *SortableInstance) Config() SortableConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Move moves the child at from to position to.
func (s *SortableInstance) Move(from, to int) error {
	s.mu.Lock()
	disabled := s.config.Disabled
	s.mu.Unlock()
	if disabled {
		return ErrSortDisabled
	}

	e, ok := domElement(s.el)
	if !ok {
		return nil
	}
	children := e.Children()
	if from < 0 || from >= len(children) || to < 0 || to >= len(children) {
		return fmt.Errorf("sortable: move %d to %d out of range [0,%d)", from, to, len(children))
	}
	if from == to {
		return nil
	}

	moved := children[from]
	var ref *dom.Element
	if to > from {
		if to+1 < len(children) {
			ref = children[to+1]
		}
	} else {
		ref = children[to]
	}
	e.InsertBefore(moved, ref)
	return nil
}

package standard

import (
	"context"
	"sync"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// GalleryConfig configures the Gallery observer.
type GalleryConfig struct {
	Index int  `json:"index,omitempty"`
	Loop  bool `json:"loop,omitempty"`
	// ActiveClass marks the current item (default: "is-active").
	ActiveClass string `json:"activeClass,omitempty"`
}

// Gallery creates a Gallery observer attribute.
func Gallery(prefix string, config GalleryConfig) dom.Attribute {
	return attr(prefix, NameGallery, config)
}

// GalleryInstance steps through the child elements of its element.
type GalleryInstance struct {
	mu     sync.Mutex
	el     observer.Element
	config GalleryConfig
	index  int
}

// NewGallery is the Gallery factory.
func NewGallery(_ context.Context, in observer.FactoryInput) (observer.Instance, error) {
	g := &GalleryInstance{el: in.Element}
	if err := g.Update(in.Payload); err != nil {
		return nil, err
	}
	return g, nil
}

// Update implements observer.Updater.
func (g *GalleryInstance) Update(p observer.Payload) error {
	config := GalleryConfig{ActiveClass: "is-active"}
	if err := decode(p, &config); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config = config
	g.show(config.Index)
	return nil
}

// Len returns the number of items.
func (g *GalleryInstance) Len() int {
	if e, ok := domElement(g.el); ok {
		return len(e.Children())
	}
	return 0
}

// Index returns the current item index.
func (g *GalleryInstance) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Next advances to the next item and returns its index.
func (g *GalleryInstance) Next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.show(g.index + 1)
	return g.index
}

// Prev moves to the previous item and returns its index.
func (g *GalleryInstance) Prev() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.show(g.index - 1)
	return g.index
}

// show clamps or wraps i and marks the item. Called with g.mu held.
func (g *GalleryInstance) show(i int) {
	n := g.Len()
	switch {
	case n == 0:
		g.index = 0
		return
	case g.config.Loop:
		i = ((i % n) + n) % n
	case i < 0:
		i = 0
	case i >= n:
		i = n - 1
	}
	g.index = i

	e, _ := domElement(g.el)
	for j, c := range e.Children() {
		if j == i {
			c.SetAttribute("aria-current", "true")
			addClass(c, g.config.ActiveClass)
		} else {
			c.RemoveAttribute("aria-current")
			removeClass(c, g.config.ActiveClass)
		}
	}
}

// Destroy implements observer.Destroyer.
func (g *GalleryInstance) Destroy() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := domElement(g.el)
	if !ok {
		return nil
	}
	for _, c := range e.Children() {
		c.RemoveAttribute("aria-current")
		removeClass(c, g.config.ActiveClass)
	}
	return nil
}

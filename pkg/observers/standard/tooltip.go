package standard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
)

// TooltipConfig configures the Tooltip observer.
type TooltipConfig struct {
	Content   string `json:"content"`
	Placement string `json:"placement,omitempty"` // top, bottom, left, right
	Delay     int    `json:"delay,omitempty"`     // ms
	Trigger   string `json:"trigger,omitempty"`   // hover, click, focus
}

var placements = map[string]bool{"": true, "top": true, "bottom": true, "left": true, "right": true}

// Tooltip creates a Tooltip observer attribute.
func Tooltip(prefix string, config TooltipConfig) dom.Attribute {
	return attr(prefix, NameTooltip, config)
}

// TooltipInstance mirrors its content into the element's title attribute and
// restores the original title on teardown.
type TooltipInstance struct {
	mu       sync.Mutex
	el       observer.Element
	config   TooltipConfig
	oldTitle string
	hadTitle bool
}

// NewTooltip is the Tooltip factory. A payload that is not a JSON object is
// used as the content verbatim.
func NewTooltip(_ context.Context, in observer.FactoryInput) (observer.Instance, error) {
	t := &TooltipInstance{el: in.Element}
	if e, ok := domElement(in.Element); ok {
		t.oldTitle, t.hadTitle = e.Attr("title")
	}
	if err := t.Update(in.Payload); err != nil {
		return nil, err
	}
	return t, nil
}

func parseTooltip(p observer.Payload) (TooltipConfig, error) {
	var config TooltipConfig
	s := strings.TrimSpace(p.String())
	if !strings.HasPrefix(s, "{") {
		config.Content = p.String()
		return config, nil
	}
	if err := decode(p, &config); err != nil {
		return config, err
	}
	if !placements[config.Placement] {
		return config, fmt.Errorf("tooltip: invalid placement %q", config.Placement)
	}
	return config, nil
}

// Update implements observer.Updater.
func (t *TooltipInstance) Update(p observer.Payload) error {
	config, err := parseTooltip(p)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config = config
	if e, ok := domElement(t.el); ok {
		e.SetAttribute("title", config.Content)
	}
	return nil
}

// Config returns the current configuration.
func (t *TooltipInstance) Config() TooltipConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// Destroy implements observer.Destroyer.
func (t *TooltipInstance) Destroy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := domElement(t.el)
	if !ok {
		return nil
	}
	if t.hadTitle {
		e.SetAttribute("title", t.oldTitle)
	} else {
		e.RemoveAttribute("title")
	}
	return nil
}

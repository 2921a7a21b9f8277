package dom

import (
	"fmt"
	"sync"
)

// IDGenerator generates node IDs that are unique within a document.
type IDGenerator struct {
	mu      sync.Mutex
	counter uint32
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next ID.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("n%d", g.counter)
}

// Reset resets the counter.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = 0
}

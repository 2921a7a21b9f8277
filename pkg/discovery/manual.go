package discovery

import (
	"fmt"
	"sync"

	"github.com/vango-dev/defo/pkg/observer"
)

// Manual is an engine driven by explicit calls. Elements handed to
// NewManual are reported when the engine starts.
type Manual struct {
	mu      sync.Mutex
	initial []observer.Element
	sink    observer.Sink
	stopped bool
}

var _ observer.Engine = (*Manual)(nil)

// NewManual returns an engine that reports initial on Start.
func NewManual(initial ...observer.Element) *Manual {
	return &Manual{initial: initial}
}

// Start records the sink and reports the initial elements. The root is not
// inspected.
func (m *Manual) Start(_ observer.Element, sink observer.Sink) error {
	m.mu.Lock()
	if m.sink != nil {
		m.mu.Unlock()
		return fmt.Errorf("discovery: manual engine already started")
	}
	m.sink = sink
	m.stopped = false
	initial := m.initial
	m.mu.Unlock()

	if len(initial) > 0 {
		sink.OnElementsAdded(initial)
	}
	return nil
}

// Stop detaches the sink. Later pushes return ErrNotStarted.
func (m *Manual) Stop() error {
	m.mu.Lock()
	m.sink = nil
	m.stopped = true
	m.mu.Unlock()
	return nil
}

// Add reports elements as added.
func (m *Manual) Add(elements ...observer.Element) error {
	return m.Push(observer.Batch{Added: elements})
}

// Remove reports elements as removed.
func (m *Manual) Remove(elements ...observer.Element) error {
	return m.Push(observer.Batch{Removed: elements})
}

// Change reports that key changed on el.
func (m *Manual) Change(el observer.Element, key string) error {
	return m.Push(observer.Batch{Changed: []observer.AttributeChange{{Element: el, Key: key}}})
}

// Push delivers b to the sink.
func (m *Manual) Push(b observer.Batch) error {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink == nil {
		return ErrNotStarted
	}
	sink.OnBatch(b)
	return nil
}

// Stopped reports whether Stop has been called since the last Start.
func (m *Manual) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is the dispatcher lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateDisposed
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Dispatcher reacts to discovery callbacks by binding and unbinding view
// observers. It implements Sink.
//
// At most one scan pass runs at a time. A batch that arrives during a pass,
// whether from a behavior on the dispatch goroutine or from another goroutine,
// is queued and drained by the running pass before it returns to idle.
type Dispatcher struct {
	conv   *Convention
	mgr    *Manager
	engine Engine
	opts   options

	mu            sync.Mutex
	state         State
	started       bool
	queue         []Batch
	disposeQueued bool
	ctx           context.Context
	stopAfter     func() bool
	done          chan struct{}
}

var _ Sink = (*Dispatcher)(nil)

// NewDispatcher validates the prefix and returns an idle dispatcher. The
// engine may be nil when batches are delivered by hand through the Sink
// methods.
func NewDispatcher(reg *Registry, engine Engine, opts ...Option) (*Dispatcher, error) {
	o := buildOptions(opts)
	conv, err := NewConvention(o.prefix, reg)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		conv:   conv,
		mgr:    newManager(reg, o),
		engine: engine,
		opts:   o,
		ctx:    context.Background(),
		done:   make(chan struct{}),
	}, nil
}

// Start begins observing root. The engine reports root's existing subtree,
// which triggers the first scan pass. Cancelling ctx disposes the dispatcher.
func (d *Dispatcher) Start(ctx context.Context, root Element) error {
	d.mu.Lock()
	if d.state == StateDisposed || d.disposeQueued {
		d.mu.Unlock()
		return ErrDisposed
	}
	if d.started {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already started")
	}
	d.started = true
	d.ctx = ctx
	d.mgr.setContext(ctx)
	d.stopAfter = context.AfterFunc(ctx, func() { _ = d.Dispose() })
	d.mu.Unlock()

	d.opts.logger.Debug("dispatcher starting", "prefix", d.conv.Prefix(), "observers", d.mgr.registry.Len())

	if d.engine == nil {
		return nil
	}
	if err := d.engine.Start(root, d); err != nil {
		d.rollbackStart()
		return fmt.Errorf("start discovery engine: %w", err)
	}
	return nil
}

// rollbackStart returns a dispatcher whose engine failed to start to its
// unstarted state so Start can be retried.
func (d *Dispatcher) rollbackStart() {
	d.mu.Lock()
	stopAfter := d.stopAfter
	d.started = false
	d.stopAfter = nil
	d.ctx = context.Background()
	d.mu.Unlock()

	if stopAfter != nil {
		stopAfter()
	}
	d.mgr.setContext(context.Background())
}

// OnElementsAdded implements Sink.
func (d *Dispatcher) OnElementsAdded(elements []Element) {
	d.OnBatch(Batch{Added: elements})
}

// OnElementsRemoved implements Sink.
func (d *Dispatcher) OnElementsRemoved(elements []Element) {
	d.OnBatch(Batch{Removed: elements})
}

// OnBatch implements Sink. It never returns per-element errors; those are
// logged and reported to hooks.
func (d *Dispatcher) OnBatch(b Batch) {
	if b.Empty() {
		return
	}

	d.mu.Lock()
	if d.state == StateDisposed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, b)
	if d.state == StateScanning {
		d.mu.Unlock()
		return
	}
	d.state = StateScanning
	d.mu.Unlock()

	d.drain()
}

// drain runs scan passes until the queue is empty, then returns to idle or
// performs a disposal requested mid-pass.
func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if d.disposeQueued {
			d.state = StateDisposed
			d.mu.Unlock()
			_ = d.dispose()
			return
		}
		if len(d.queue) == 0 {
			d.state = StateIdle
			d.mu.Unlock()
			return
		}
		b := d.queue[0]
		d.queue[0] = Batch{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.scan(b)
	}
}

// scan applies one batch: removals, then attribute changes, then additions.
func (d *Dispatcher) scan(b Batch) {
	_, span := d.opts.tracer.Start(d.ctx, "defo.scan",
		trace.WithAttributes(
			attribute.String("defo.prefix", d.conv.Prefix()),
			attribute.Int("defo.batch.removed", len(b.Removed)),
			attribute.Int("defo.batch.changed", len(b.Changed)),
			attribute.Int("defo.batch.added", len(b.Added)),
		),
	)
	defer span.End()

	start := time.Now()
	var stats ScanStats

	for _, el := range b.Removed {
		n, err := d.mgr.unbindAll(el)
		stats.Unbound += n
		stats.Failed += countErrors(err)
	}

	for _, c := range b.Changed {
		d.applyChange(c, &stats)
	}

	for _, el := range b.Added {
		if !isConnected(el) {
			stats.Skipped++
			continue
		}
		for _, key := range el.AttrKeys() {
			name, ok := d.resolve(el, key, &stats)
			if !ok {
				continue
			}
			value, _ := el.Attr(key)
			_, created, err := d.mgr.bind(el, name, Payload(value))
			switch {
			case err != nil:
				stats.Failed++
			case created:
				stats.Bound++
			}
		}
	}

	stats.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("defo.bound", stats.Bound),
		attribute.Int("defo.unbound", stats.Unbound),
		attribute.Int("defo.updated", stats.Updated),
		attribute.Int("defo.unknown", stats.Unknown),
		attribute.Int("defo.failed", stats.Failed),
	)
	if stats.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d observer failures", stats.Failed))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	d.opts.logger.Debug("scan complete",
		"bound", stats.Bound,
		"unbound", stats.Unbound,
		"updated", stats.Updated,
		"unknown", stats.Unknown,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)
	d.opts.hooks.OnScan(stats)
}

func (d *Dispatcher) applyChange(c AttributeChange, stats *ScanStats) {
	el := c.Element
	value, present := el.Attr(c.Key)
	if !present {
		name, ok := ParseObserverName(d.conv.Prefix(), c.Key)
		if !ok {
			return
		}
		if d.mgr.Has(el, name) {
			stats.Unbound++
		}
		if err := d.mgr.Unbind(el, name); err != nil {
			stats.Failed++
		}
		return
	}

	name, ok := d.resolve(el, c.Key, stats)
	if !ok {
		return
	}
	if !isConnected(el) {
		stats.Skipped++
		return
	}
	if !d.mgr.Has(el, name) {
		_, created, err := d.mgr.bind(el, name, Payload(value))
		switch {
		case err != nil:
			stats.Failed++
		case created:
			stats.Bound++
		}
		return
	}
	_, changed, err := d.mgr.update(el, name, Payload(value))
	switch {
	case err != nil:
		stats.Failed++
	case changed:
		stats.Updated++
	}
}

// resolve maps key to a registered name. Keys under the prefix without a
// registered observer are logged and reported, never fatal.
func (d *Dispatcher) resolve(el Element, key string, stats *ScanStats) (Name, bool) {
	name, ok := d.conv.Resolve(key)
	if ok {
		return name, true
	}
	if name == "" {
		return "", false
	}
	stats.Unknown++
	err := &UnknownObserverError{Name: name, Key: key}
	d.opts.logger.Warn("ignoring unknown observer attribute",
		"attribute", key,
		"element", describe(el),
	)
	d.opts.hooks.OnError(el, name, err)
	return "", false
}

// Dispose stops the engine and tears down every binding. It is terminal and
// idempotent. Called during a scan pass, disposal happens once the pass
// ends; Done reports completion.
//
// Only the engine's Stop error is returned; teardown failures are logged.
func (d *Dispatcher) Dispose() error {
	d.mu.Lock()
	switch {
	case d.state == StateDisposed || d.disposeQueued:
		d.mu.Unlock()
		return nil
	case d.state == StateScanning:
		d.disposeQueued = true
		d.mu.Unlock()
		return nil
	}
	d.disposeQueued = true
	d.state = StateDisposed
	d.mu.Unlock()

	return d.dispose()
}

// dispose runs once, after the caller moved the state to StateDisposed.
func (d *Dispatcher) dispose() error {
	d.mu.Lock()
	d.queue = nil
	stopAfter := d.stopAfter
	started := d.started
	d.mu.Unlock()

	if stopAfter != nil {
		stopAfter()
	}

	var stopErr error
	if d.engine != nil && started {
		if err := d.engine.Stop(); err != nil {
			stopErr = fmt.Errorf("stop discovery engine: %w", err)
			d.opts.logger.Warn("discovery engine stop failed", "error", err)
		}
	}

	n := d.mgr.Len()
	_ = d.mgr.Clear()
	d.opts.logger.Debug("dispatcher disposed", "released", n)

	close(d.done)
	return stopErr
}

// Done is closed once the dispatcher has been disposed.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Bindings returns a snapshot of active bindings in bind order.
func (d *Dispatcher) Bindings() []Binding {
	return d.mgr.Bindings()
}

// Manager returns the lifecycle manager that owns the binding table.
func (d *Dispatcher) Manager() *Manager {
	return d.mgr
}

// Convention returns the attribute resolver.
func (d *Dispatcher) Convention() *Convention {
	return d.conv
}

func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

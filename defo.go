// Package defo binds view observers to elements through a declarative
// attribute convention.
//
// An element opts into a behavior by carrying an attribute named
// data-{prefix}-{name}; the attribute value is handed to the behavior as its
// payload:
//
//	<div data-es-gallery='{"index":2}'>...</div>
//
// Usage:
//
//	doc, _ := dom.ParseString(markup)
//	d, err := defo.Start(ctx, doc.Root(), defo.Options{
//	    Prefix: "es",
//	    Views:  standard.Views(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Dispose()
//
// Start reports the existing subtree, so matching elements are bound before
// it returns. Later mutations are picked up when the document is flushed.
package defo

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/defo/pkg/discovery"
	"github.com/vango-dev/defo/pkg/observer"
)

// Options configures an instance.
type Options struct {
	// Prefix is the attribute prefix (default: "defo").
	Prefix string

	// Views maps observer names to factories.
	Views map[observer.Name]observer.Factory

	// Engine discovers elements. Default: a discovery.Tree, which needs a
	// *dom.Element root.
	Engine observer.Engine

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Hooks receive lifecycle notifications.
	Hooks []observer.Hooks

	// Tracer traces scan passes. If nil, the global tracer provider is used.
	Tracer trace.Tracer
}

// Defo is a configured dispatcher with its engine.
type Defo struct {
	engine observer.Engine
	disp   *observer.Dispatcher
	reg    *observer.Registry
}

// New validates opts and returns an instance that has not started.
// Registry errors such as an invalid name are returned here.
func New(opts Options) (*Defo, error) {
	reg, err := observer.NewRegistry(opts.Views)
	if err != nil {
		return nil, err
	}

	engine := opts.Engine
	if engine == nil {
		engine = discovery.NewTree()
	}

	var dopts []observer.Option
	if opts.Prefix != "" {
		dopts = append(dopts, observer.WithPrefix(opts.Prefix))
	}
	if opts.Logger != nil {
		dopts = append(dopts, observer.WithLogger(opts.Logger))
	}
	if len(opts.Hooks) > 0 {
		dopts = append(dopts, observer.WithHooks(opts.Hooks...))
	}
	if opts.Tracer != nil {
		dopts = append(dopts, observer.WithTracer(opts.Tracer))
	}

	disp, err := observer.NewDispatcher(reg, engine, dopts...)
	if err != nil {
		return nil, err
	}
	return &Defo{engine: engine, disp: disp, reg: reg}, nil
}

// Start creates an instance and starts observing root.
func Start(ctx context.Context, root observer.Element, opts Options) (*Defo, error) {
	d, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := d.Start(ctx, root); err != nil {
		_ = d.Dispose()
		return nil, err
	}
	return d, nil
}

// Start begins observing root. Cancelling ctx disposes the instance.
func (d *Defo) Start(ctx context.Context, root observer.Element) error {
	return d.disp.Start(ctx, root)
}

// Flush delivers pending mutations when the engine is a discovery.Tree.
func (d *Defo) Flush() error {
	if t, ok := d.engine.(*discovery.Tree); ok {
		return t.Flush()
	}
	return nil
}

// Dispose stops the engine and tears down every binding.
func (d *Defo) Dispose() error {
	return d.disp.Dispose()
}

// Bindings returns the active bindings in bind order.
func (d *Defo) Bindings() []observer.Binding {
	return d.disp.Bindings()
}

// Dispatcher returns the underlying dispatcher.
func (d *Defo) Dispatcher() *observer.Dispatcher {
	return d.disp
}

// Registry returns the observer registry.
func (d *Defo) Registry() *observer.Registry {
	return d.reg
}

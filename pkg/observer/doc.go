// Package observer binds view observers to elements through a declarative
// attribute convention.
//
// Markup opts into a behavior by carrying an attribute of the form
//
//	data-{prefix}-{name}="<payload>"
//
// A Registry maps each name to a Factory. A Dispatcher receives element
// additions and removals from a discovery Engine, resolves attribute keys
// through a Convention and asks a Manager to create or destroy exactly one
// Instance per (element, name) pair.
//
// # Wiring
//
//	reg, err := observer.NewRegistry(map[observer.Name]observer.Factory{
//	    "gallery": NewGallery,
//	})
//	if err != nil {
//	    return err // startup fatal: duplicate or invalid names
//	}
//	d, err := observer.NewDispatcher(reg, engine, observer.WithPrefix("es"))
//	if err != nil {
//	    return err
//	}
//	if err := d.Start(ctx, doc.Root()); err != nil {
//	    return err
//	}
//	defer d.Dispose()
//
// # Errors
//
// Registry construction errors (DuplicateNameError, InvalidNameError) are
// fatal and returned to the caller. Per-element failures (UnknownObserverError,
// FactoryConstructionError, TeardownError) are logged and reported to Hooks;
// they never escape the Dispatcher.
//
// # Concurrency
//
// A Registry is immutable after construction and may be shared by any number
// of Dispatchers. A Dispatcher runs one scan pass at a time; batches delivered
// while a pass is running, from any goroutine, are queued and drained by
// that pass.
package observer

// Package standard provides a small set of view observers.
//
// Each observer has a Config type decoded from the attribute payload, a
// factory registered under a fixed name, and an attribute helper that
// renders the config for markup:
//
//	dom.Div(standard.Tooltip("es", standard.TooltipConfig{Content: "Hi"}))
//	// <div data-es-tooltip='{"content":"Hi"}'>
//
// Register them all with Views:
//
//	reg, _ := observer.NewRegistry(standard.Views())
//
// Observers that see a *dom.Element reflect their state into its
// attributes (title, aria-expanded, child order). Other element types are
// tracked without side effects.
package standard

// Package feed mirrors a browser document over a WebSocket and binds view
// observers against the mirror.
//
// A browser agent walks its document, assigns every element an ID and sends
// batches describing additions, removals and attribute changes. Each
// connection gets its own mirror document and dispatcher sharing one
// registry. After every batch the server replies with the bindings that
// exist on the mirror, so the agent can start its client-side behaviors.
//
// # Protocol
//
// Client to server:
//
//	{"type":"batch",
//	 "added":[{"id":"a1","parent":"","tag":"div","attrs":{"data-es-gallery":"{}"}}],
//	 "removed":["a7"],
//	 "changed":[{"id":"a3","key":"data-es-tooltip","value":"Hi"}]}
//
// Server to client:
//
//	{"type":"bindings","bindings":[{"id":"a1","name":"gallery"}],"errors":[]}
//
// An empty parent ID attaches a node to the mirror root.
//
// # Routes
//
//	GET /healthz   liveness
//	GET /metrics   Prometheus exposition (when a gatherer is configured)
//	GET /feed      WebSocket upgrade
//	GET /sessions  open sessions and their binding counts
package feed

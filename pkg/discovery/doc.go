// Package discovery provides observer.Engine implementations.
//
// Tree watches a pkg/dom Document through its mutation observer and turns
// mutation records into batches. Manual lets callers push synthetic events,
// for tests or for hosts that already track their own element lifecycle.
package discovery

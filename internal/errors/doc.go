// Package errors provides structured, actionable error messages for defo.
//
// Every error carries a stable code (e.g. "D001") that maps to a short
// message, a longer explanation and a documentation URL. Errors can be
// enriched with the subject they concern and a suggestion on how to fix
// them, then rendered for a terminal with Format.
//
// # Error Categories
//
//   - registry: observer registration problems (startup fatal)
//   - binding: per-element factory and teardown failures
//   - config: defo.json loading and validation
//   - source: loading markup from files, URLs and buckets
//   - feed: WebSocket mirror protocol errors
//
// # Usage
//
//	err := errors.New("D001").
//	    WithSubject("gallery").
//	    WithSuggestion("Register each view observer under a single name")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR D001: Duplicate observer name
//	//
//	//   gallery
//	//
//	//   Two factories were registered under the same observer name.
//	//
//	//   Hint: Register each view observer under a single name
//	//
//	//   Learn more: https://defo.vango.dev/docs/errors/D001
package errors

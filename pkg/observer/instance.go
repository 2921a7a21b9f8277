package observer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// Payload is the raw value of an observer attribute. Its format belongs to
// the observer; the core never interprets it.
type Payload string

// String returns the payload as-is.
func (p Payload) String() string {
	return string(p)
}

// Empty reports whether the attribute carried no value.
func (p Payload) Empty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// JSON decodes the payload into v. An empty payload leaves v untouched.
func (p Payload) JSON(v any) error {
	if p.Empty() {
		return nil
	}
	return json.Unmarshal([]byte(p), v)
}

// Config is the per-binding configuration handed to a factory.
type Config struct {
	// Prefix is the dispatcher's attribute prefix.
	Prefix string

	// Key is the full attribute key that matched (data-{prefix}-{name}).
	Key string

	// Logger is scoped to the binding (observer and element attrs).
	Logger *slog.Logger
}

// FactoryInput is everything a factory receives for one binding.
type FactoryInput struct {
	Element Element
	Name    Name
	Payload Payload
	Config  Config
}

// Factory constructs the behavior for one element. The context is cancelled
// when the binding is torn down, so work started in the background can stop.
// A factory must not block on that work.
type Factory func(ctx context.Context, in FactoryInput) (Instance, error)

// Instance is an active behavior. It may implement Destroyer and Updater.
type Instance any

// Destroyer is implemented by instances that need teardown. Destroy must not
// assume the element is still attached to a document.
type Destroyer interface {
	Destroy() error
}

// Updater is implemented by instances that accept a new payload in place
// when their attribute value changes. Instances that don't implement it are
// rebuilt instead.
type Updater interface {
	Update(p Payload) error
}

// DestroyFunc adapts a plain function to Destroyer.
type DestroyFunc func() error

// Destroy calls f.
func (f DestroyFunc) Destroy() error {
	return f()
}

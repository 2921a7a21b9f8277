package observer

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "defo"

// tracerName is the instrumentation scope of scan spans.
const tracerName = "github.com/vango-dev/defo/pkg/observer"

type options struct {
	prefix string
	logger *slog.Logger
	hooks  Hooks
	tracer trace.Tracer
}

// Option configures a Manager or Dispatcher.
type Option func(*options)

// WithPrefix sets the attribute prefix (default: "defo").
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks adds lifecycle hooks. Repeated calls accumulate.
func WithHooks(hooks ...Hooks) Option {
	return func(o *options) {
		o.hooks = JoinHooks(append([]Hooks{o.hooks}, hooks...)...)
	}
}

// WithTracer sets the tracer for scan spans. By default the tracer comes
// from the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

func buildOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.hooks == nil {
		o.hooks = NopHooks{}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}

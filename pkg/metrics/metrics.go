package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/defo/pkg/observer"
)

// Config configures a Recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "defo").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for scan duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "defo",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder holds the Prometheus collectors. Create one per registry.
type Recorder struct {
	bindsTotal     *prometheus.CounterVec
	unbindsTotal   *prometheus.CounterVec
	updatesTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	activeBindings prometheus.Gauge
	scansTotal     prometheus.Counter
	scanDuration   prometheus.Histogram
	activeSessions prometheus.Gauge
	batchesTotal   prometheus.Counter
	wsErrors       *prometheus.CounterVec
}

var _ observer.Hooks = (*Recorder)(nil)

// New registers the collectors and returns a Recorder. Registering twice
// with the same registry panics, as promauto does.
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Recorder{
		bindsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "binds_total",
			Help:        "Total number of observer instances created",
			ConstLabels: config.ConstLabels,
		}, []string{"observer"}),

		unbindsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "unbinds_total",
			Help:        "Total number of observer instances torn down",
			ConstLabels: config.ConstLabels,
		}, []string{"observer"}),

		updatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of in-place payload updates",
			ConstLabels: config.ConstLabels,
		}, []string{"observer"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of per-element observer errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"observer", "type"}),

		activeBindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_bindings",
			Help:        "Number of live observer instances",
			ConstLabels: config.ConstLabels,
		}),

		scansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scans_total",
			Help:        "Total number of scan passes",
			ConstLabels: config.ConstLabels,
		}),

		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scan_duration_seconds",
			Help:        "Scan pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of open feed WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "feed_batches_total",
			Help:        "Total number of batches received over the feed",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// OnBind implements observer.Hooks.
func (r *Recorder) OnBind(_ observer.Element, name observer.Name) {
	r.bindsTotal.WithLabelValues(string(name)).Inc()
	r.activeBindings.Inc()
}

// OnUnbind implements observer.Hooks.
func (r *Recorder) OnUnbind(_ observer.Element, name observer.Name) {
	r.unbindsTotal.WithLabelValues(string(name)).Inc()
	r.activeBindings.Dec()
}

// OnUpdate implements observer.Hooks.
func (r *Recorder) OnUpdate(_ observer.Element, name observer.Name) {
	r.updatesTotal.WithLabelValues(string(name)).Inc()
}

// unknownLabel replaces unregistered names, which come from markup.
const unknownLabel = "unknown"

// OnError implements observer.Hooks.
func (r *Recorder) OnError(_ observer.Element, name observer.Name, err error) {
	kind := categorizeError(err)
	label := string(name)
	if kind == unknownLabel {
		label = unknownLabel
	}
	r.errorsTotal.WithLabelValues(label, kind).Inc()
}

// OnScan implements observer.Hooks.
func (r *Recorder) OnScan(stats observer.ScanStats) {
	r.scansTotal.Inc()
	r.scanDuration.Observe(stats.Duration.Seconds())
}

// SessionOpened records a new feed session.
func (r *Recorder) SessionOpened() {
	r.activeSessions.Inc()
}

// SessionClosed records a closed feed session.
func (r *Recorder) SessionClosed() {
	r.activeSessions.Dec()
}

// BatchReceived records one batch decoded from the feed.
func (r *Recorder) BatchReceived() {
	r.batchesTotal.Inc()
}

// WebSocketError records a WebSocket error.
func (r *Recorder) WebSocketError(errorType string) {
	r.wsErrors.WithLabelValues(errorType).Inc()
}

// categorizeError maps an error to a low-cardinality label.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, observer.ErrUnknownObserver):
		return "unknown"
	case errors.Is(err, observer.ErrFactoryConstruction):
		return "construction"
	case errors.Is(err, observer.ErrTeardown):
		return "teardown"
	default:
		return "internal"
	}
}

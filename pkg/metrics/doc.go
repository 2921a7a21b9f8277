// Package metrics exports view observer activity to Prometheus.
//
// A Recorder implements observer.Hooks, so it plugs into a dispatcher with
// observer.WithHooks. The feed server also reports its WebSocket sessions
// through the same Recorder.
//
//	rec := metrics.New(metrics.WithNamespace("myapp"))
//	d, _ := observer.NewDispatcher(reg, engine, observer.WithHooks(rec))
//	http.Handle("/metrics", promhttp.Handler())
package metrics

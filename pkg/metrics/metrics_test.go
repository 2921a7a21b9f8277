package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/defo/pkg/observer"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	return New(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
}

func TestRecorderBindings(t *testing.T) {
	r := newTestRecorder(t)

	r.OnBind(nil, "gallery")
	r.OnBind(nil, "gallery")
	r.OnBind(nil, "tooltip")
	r.OnUnbind(nil, "gallery")
	r.OnUpdate(nil, "tooltip")

	if got := testutil.ToFloat64(r.bindsTotal.WithLabelValues("gallery")); got != 2 {
		t.Errorf("binds_total{gallery} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.unbindsTotal.WithLabelValues("gallery")); got != 1 {
		t.Errorf("unbinds_total{gallery} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.updatesTotal.WithLabelValues("tooltip")); got != 1 {
		t.Errorf("updates_total{tooltip} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.activeBindings); got != 2 {
		t.Errorf("active_bindings = %v, want 2", got)
	}
}

func TestRecorderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		observer string
		want     string
	}{
		{"unknown", &observer.UnknownObserverError{Name: "x"}, "unknown", "unknown"},
		{"construction", &observer.FactoryConstructionError{Name: "x", Err: errors.New("boom")}, "x", "construction"},
		{"teardown", &observer.TeardownError{Name: "x", Err: errors.New("boom")}, "x", "teardown"},
		{"other", errors.New("boom"), "x", "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRecorder(t)
			r.OnError(nil, "x", tt.err)
			if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues(tt.observer, tt.want)); got != 1 {
				t.Errorf("errors_total{%s,%s} = %v, want 1", tt.observer, tt.want, got)
			}
		})
	}
}

func TestRecorderUnknownNamesShareOneSeries(t *testing.T) {
	r := newTestRecorder(t)
	for i := 0; i < 500; i++ {
		name := observer.Name(fmt.Sprintf("made-up-%d", i))
		r.OnError(nil, name, &observer.UnknownObserverError{Name: name})
	}

	if n := testutil.CollectAndCount(r.errorsTotal); n != 1 {
		t.Errorf("errors_total series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("unknown", "unknown")); got != 500 {
		t.Errorf("errors_total{unknown,unknown} = %v, want 500", got)
	}
}

func TestRecorderScansAndSessions(t *testing.T) {
	r := newTestRecorder(t)

	r.OnScan(observer.ScanStats{Bound: 1, Duration: 5 * time.Millisecond})
	r.OnScan(observer.ScanStats{})
	if got := testutil.ToFloat64(r.scansTotal); got != 2 {
		t.Errorf("scans_total = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(r.scanDuration); n != 1 {
		t.Errorf("scan_duration_seconds series = %d, want 1", n)
	}

	r.SessionOpened()
	r.SessionOpened()
	r.SessionClosed()
	r.BatchReceived()
	r.WebSocketError("read")
	if got := testutil.ToFloat64(r.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.batchesTotal); got != 1 {
		t.Errorf("feed_batches_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total{read} = %v, want 1", got)
	}
}

func TestRecorderRegistersUnderNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(WithRegistry(reg), WithNamespace("app"), WithSubsystem("views"))
	r.OnBind(nil, "gallery")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_views_binds_total" {
			found = true
		}
	}
	if !found {
		t.Error("app_views_binds_total not registered")
	}
}

package defo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/defo/pkg/discovery"
	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
	"github.com/vango-dev/defo/pkg/observers/standard"
)

const markup = `<html><body>
  <ul data-es-gallery='{"index":1}'><li></li><li></li></ul>
  <span id="tip" data-es-tooltip="Hello"></span>
  <div data-es-unknown></div>
</body></html>`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartBindsExistingMarkup(t *testing.T) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Start(context.Background(), doc.Root(), Options{
		Prefix: "es",
		Views:  standard.Views(),
		Logger: quiet(),
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	b := d.Bindings()
	if len(b) != 2 || b[0].Name != standard.NameGallery || b[1].Name != standard.NameTooltip {
		t.Fatalf("Bindings() = %+v", b)
	}

	tip := doc.Root().GetElementByID("tip")
	if v, _ := tip.Attr("title"); v != "Hello" {
		t.Errorf("title = %q, want Hello", v)
	}

	// Later mutations bind on flush.
	added := doc.Root().AppendChild(dom.Div(standard.Dropdown("es", standard.DropdownConfig{})))
	if err := d.Flush(); err != nil {
		t.Fatal(err)
	}
	if !d.Dispatcher().Manager().Has(added, standard.NameDropdown) {
		t.Error("dropdown not bound after flush")
	}

	if err := d.Dispose(); err != nil {
		t.Fatal(err)
	}
	if len(d.Bindings()) != 0 {
		t.Error("bindings left after Dispose")
	}
	if _, ok := tip.Attr("title"); ok {
		t.Error("tooltip not torn down")
	}
}

func TestDefaultPrefix(t *testing.T) {
	doc := dom.NewDocument(dom.Body(dom.Span(standard.Tooltip(observer.DefaultPrefix, standard.TooltipConfig{Content: "x"}))))
	d, err := Start(context.Background(), doc.Root(), Options{Views: standard.Views(), Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Dispose()
	if len(d.Bindings()) != 1 {
		t.Errorf("Bindings() = %+v", d.Bindings())
	}
}

func TestNewErrors(t *testing.T) {
	noop := func(context.Context, observer.FactoryInput) (observer.Instance, error) { return nil, nil }
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"invalid name", Options{Views: map[observer.Name]observer.Factory{"Photo": noop}}, observer.ErrInvalidName},
		{"nil factory", Options{Views: map[observer.Name]observer.Factory{"photo": nil}}, observer.ErrNilFactory},
		{"invalid prefix", Options{Prefix: "E S", Views: standard.Views()}, observer.ErrInvalidPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestManualEngine(t *testing.T) {
	el := dom.Div(standard.Tooltip("es", standard.TooltipConfig{Content: "x"}))
	dom.NewDocument(dom.Body(el))
	engine := discovery.NewManual(el)

	d, err := Start(context.Background(), nil, Options{Prefix: "es", Views: standard.Views(), Engine: engine, Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Flush(); err != nil {
		t.Errorf("Flush() on a non-tree engine = %v, want nil", err)
	}
	if len(d.Bindings()) != 1 {
		t.Errorf("Bindings() = %+v", d.Bindings())
	}
	if err := d.Dispose(); err != nil {
		t.Fatal(err)
	}
	if !engine.Stopped() {
		t.Error("engine not stopped")
	}
}

func TestRegistryAccessor(t *testing.T) {
	d, err := New(Options{Views: standard.Views()})
	if err != nil {
		t.Fatal(err)
	}
	if d.Registry().Len() != 5 {
		t.Errorf("Registry().Len() = %d, want 5", d.Registry().Len())
	}
}

func TestStartFailure(t *testing.T) {
	// A detached root makes the default tree engine fail.
	d, err := Start(context.Background(), dom.Div(), Options{Views: standard.Views(), Logger: quiet()})
	if err == nil {
		t.Fatal("Start() on a detached root should fail")
	}
	if d != nil {
		t.Errorf("Start() returned an instance with error %v", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/defo"
	"github.com/vango-dev/defo/internal/config"
	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/dom"
	"github.com/vango-dev/defo/pkg/observer"
	"github.com/vango-dev/defo/pkg/source"
)

func scanCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON  bool
		strict  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan <file|url|s3://bucket/key>",
		Short: "Bind observers against markup and report the result",
		Long: `Load markup, bind every registered observer whose attribute
appears in it, and print the resulting bindings.

Unknown observer attributes and construction failures are reported
as warnings; --strict turns them into a failing exit status.

Examples:
  defo scan index.html
  defo scan --prefix=es https://example.com/
  defo scan s3://site/index.html --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runScan(ctx, cfg, args[0], asJSON, strict)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print bindings as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any element could not be bound")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for loading the markup")

	return cmd
}

// scanReport is the --json output.
type scanReport struct {
	Source   string        `json:"source"`
	Prefix   string        `json:"prefix"`
	Bindings []scanBinding `json:"bindings"`
	Problems []scanProblem `json:"problems"`
}

type scanBinding struct {
	Element string `json:"element"`
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

type scanProblem struct {
	Element string `json:"element"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// problemCollector records per-element failures during the scan.
type problemCollector struct {
	observer.NopHooks

	mu       sync.Mutex
	problems []scanProblem
}

func (c *problemCollector) OnError(el observer.Element, name observer.Name, err error) {
	p := scanProblem{Name: string(name), Message: err.Error(), Code: observer.Describe(err).Code}
	if e, ok := el.(*dom.Element); ok {
		p.Element = e.String()
	}
	c.mu.Lock()
	c.problems = append(c.problems, p)
	c.mu.Unlock()
}

func runScan(ctx context.Context, cfg *config.Config, ref string, asJSON, strict bool) error {
	loader, err := newLoader(ctx, cfg, ref)
	if err != nil {
		return err
	}
	doc, err := loader.Load(ctx, ref)
	if err != nil {
		return err
	}

	v, err := views(cfg)
	if err != nil {
		return err
	}
	collector := &problemCollector{}
	d, err := defo.Start(ctx, doc.Root(), defo.Options{
		Prefix: cfg.Prefix,
		Views:  v,
		Logger: newLogger(cfg, os.Stderr),
		Hooks:  []observer.Hooks{collector},
	})
	if err != nil {
		return err
	}
	report := scanReport{Source: ref, Prefix: cfg.Prefix, Bindings: []scanBinding{}, Problems: []scanProblem{}}
	for _, b := range d.Bindings() {
		report.Bindings = append(report.Bindings, scanBinding{
			Element: fmt.Sprint(b.Element),
			Name:    string(b.Name),
			Payload: b.Payload.String(),
		})
	}
	if err := d.Dispose(); err != nil {
		return err
	}
	report.Problems = append(report.Problems, collector.problems...)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if strict && len(report.Problems) > 0 {
		return derrors.Newf(derrors.CategoryCLI, "%d element(s) could not be bound", len(report.Problems))
	}
	return nil
}

func printReport(r scanReport) {
	fmt.Println()
	info("Source: %s", r.Source)
	info("Prefix: %s", r.Prefix)
	fmt.Println()

	if len(r.Bindings) == 0 {
		warn("No observers bound")
	} else {
		success("%d observer(s) bound", len(r.Bindings))
		width := 0
		for _, b := range r.Bindings {
			if len(b.Element) > width {
				width = len(b.Element)
			}
		}
		for _, b := range r.Bindings {
			info("%-*s  %-10s %s", width, b.Element, b.Name, truncate(b.Payload, 48))
		}
	}

	for _, p := range r.Problems {
		warn("%s %s on %s: %s", p.Code, p.Name, p.Element, p.Message)
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

// newLoader configures a source loader, creating an S3 client only for
// s3:// references.
func newLoader(ctx context.Context, cfg *config.Config, ref string) (*source.Loader, error) {
	r, err := source.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if r.Kind != source.KindS3 {
		return source.NewLoader(), nil
	}
	client, err := source.NewS3Client(ctx, source.S3Options{
		Region:   cfg.S3.Region,
		Endpoint: cfg.S3.Endpoint,
	})
	if err != nil {
		return nil, derrors.New("D121").WithSubject(ref).Wrap(err)
	}
	return source.NewLoader(source.WithS3(client)), nil
}

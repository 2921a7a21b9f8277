package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/defo/internal/config"
	"github.com/vango-dev/defo/pkg/feed"
	"github.com/vango-dev/defo/pkg/metrics"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket feed server",
		Long: `Start the feed server. Browser agents connect to /feed, mirror
their documents and receive the bindings the server computed.

Routes:
  GET /healthz   liveness
  GET /metrics   Prometheus metrics
  GET /feed      WebSocket feed
  GET /sessions  open sessions

Examples:
  defo serve
  defo serve --addr=127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from defo.json)")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	reg, err := registry(cfg)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(
		metrics.WithRegistry(promReg),
		metrics.WithNamespace(cfg.Metrics.Namespace),
	)

	logger := newLogger(cfg, os.Stderr)
	server, err := feed.NewServer(feed.Config{
		Registry:       reg,
		Prefix:         cfg.Prefix,
		Logger:         logger,
		Metrics:        recorder,
		Gatherer:       promReg,
		AllowedOrigins: cfg.Serve.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Feed listening on ws://%s/feed", displayAddr(cfg.Serve.Addr))
	info("Prefix:    %s", cfg.Prefix)
	info("Observers: %d", reg.Len())
	fmt.Println()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Println("\n\n  Shutting down...")
	}()

	return server.ListenAndServe(ctx, cfg.Serve.Addr)
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/defo/internal/config"
	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/observer"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗┌─┐┌─┐┌─┐
   ║║├┤ ├┤ │ │
  ═╩╝└─┘└  └─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefix     string
	logLevel   string
	logFormat  string
	noColor    bool
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "defo",
		Short: "Declarative view observers for server-rendered markup",
		Long: `defo binds behaviors to elements that carry a data-{prefix}-{name}
attribute, so markup rendered by any backend can opt into behavior
without inline script.

  • Scan markup from a file, URL or S3 object
  • Serve a WebSocket feed that mirrors browser documents
  • Validate defo.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				derrors.DisableColors()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to defo.json (default: search from the working directory)")
	pf.StringVar(&flags.prefix, "prefix", "", "Attribute prefix (overrides defo.json and "+config.EnvPrefix+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		scanCmd(&flags),
		serveCmd(&flags),
		checkCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printErr(err)
		os.Exit(1)
	}
}

// loadConfig resolves defo.json, then applies the environment and flags.
// A missing file is not an error unless --config names one.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if derrors.Code(err) == "D101" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	if flags.prefix != "" {
		cfg.Prefix = flags.prefix
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the config.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Println(statusLine("\033[32m", "✓", fmt.Sprintf(format, args...)))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Println(statusLine("\033[33m", "⚠", fmt.Sprintf(format, args...)))
}

// statusLine prefixes msg with mark, colored unless colors are disabled.
func statusLine(color, mark, msg string) string {
	if derrors.ColorsEnabled() {
		mark = color + mark + "\033[0m"
	}
	return mark + " " + msg
}

// printErr prints err in its structured form when it has one.
func printErr(err error) {
	if derrors.Code(err) == "" {
		if de := observer.Describe(err); de.Code != "" {
			err = de
		}
	}
	derrors.Fprint(os.Stderr, err)
}

package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/observer"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "defo.json"

	// DefaultAddr is the default feed server address.
	DefaultAddr = ":7070"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "defo"

	// EnvPrefix overrides the configured prefix.
	EnvPrefix = "DEFO_PREFIX"
)

// Config represents the complete defo.json configuration.
type Config struct {
	// Prefix is the attribute prefix: data-{prefix}-{name}.
	Prefix string `json:"prefix,omitempty"`

	// Views selects which built-in observers are registered. Empty means all.
	Views []string `json:"views,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Serve contains feed server configuration.
	Serve ServeConfig `json:"serve,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// S3 configures the client used for s3:// sources.
	S3 S3Config `json:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// ServeConfig contains feed server settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// AllowedOrigins lists origins allowed to open a feed.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// S3Config contains S3 client settings.
type S3Config struct {
	// Region overrides the AWS region.
	Region string `json:"region,omitempty"`

	// Endpoint points at an S3-compatible service.
	Endpoint string `json:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Prefix: observer.DefaultPrefix,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Serve: ServeConfig{
			Addr: DefaultAddr,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for defo.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("D101").
				WithDetail("No defo.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'defo check --init' to write a default configuration")
		}
		return nil, errors.New("D100").WithSubject(path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("D100").
			WithSubject(path).
			WithDetail("Failed to parse defo.json: " + err.Error()).
			WithSuggestion("Check that defo.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("D100").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("D100").WithSubject(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = observer.DefaultPrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// ApplyEnv overrides fields from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvPrefix)); v != "" {
		c.Prefix = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !observer.ValidName(c.Prefix) {
		return errors.New("D102").
			WithSubject("prefix").
			WithDetail("Prefix " + quote(c.Prefix) + " must be lower kebab-case, like \"es\" or \"my-app\"")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("D102").
			WithSubject("log.level").
			WithDetail("Log level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("D102").
			WithSubject("log.format").
			WithDetail("Log format must be text or json")
	}
	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		return errors.New("D102").
			WithSubject("serve.addr").
			WithDetail("Address must be host:port, like \":7070\"").
			Wrap(err)
	}
	seen := make(map[string]bool, len(c.Views))
	for _, v := range c.Views {
		if seen[v] {
			return errors.New("D102").
				WithSubject("views").
				WithDetail("View " + quote(v) + " is listed twice")
		}
		seen[v] = true
	}
	return nil
}

// SelectViews filters available down to the configured views. An empty
// views list selects everything. Unknown names fail with D103.
func (c *Config) SelectViews(available map[observer.Name]observer.Factory) (map[observer.Name]observer.Factory, error) {
	if len(c.Views) == 0 {
		return available, nil
	}
	out := make(map[observer.Name]observer.Factory, len(c.Views))
	for _, v := range c.Views {
		f, ok := available[observer.Name(v)]
		if !ok {
			return nil, errors.New("D103").
				WithSubject(v).
				WithSuggestion("Remove it from views or register an observer with that name")
		}
		out[observer.Name(v)] = f
	}
	return out, nil
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing defo.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("D101").
				WithDetail("No defo.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'defo check --init' to write a default configuration")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

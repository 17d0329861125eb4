package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/thinout/pkg/thinout"
)

// Config is the root configuration structure for thinout.
// It contains the retention targets, the run journal, the HTTP server used
// in serve mode, and telemetry settings.
type Config struct {
	// Targets lists the directories to thin and the policy for each.
	Targets []TargetConfig `yaml:"targets"`

	// Journal contains configuration for the run history store.
	Journal JournalConfig `yaml:"journal"`

	// Server contains configuration for the HTTP server started by
	// "thinout serve".
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TargetConfig describes one set of files thinned with one policy.
type TargetConfig struct {
	// Name identifies the target in logs, metrics, and the journal.
	Name string `yaml:"name"`

	// Dir is the directory holding the items.
	Dir string `yaml:"dir"`

	// Pattern is a glob matched against file names (not paths).
	// Default: "*"
	Pattern string `yaml:"pattern"`

	// Recursive descends into subdirectories of Dir.
	Recursive bool `yaml:"recursive"`

	// Policy is the retention policy, nearest-to-anchor entry first.
	// Either a list of {span, capacity} mappings or a "span:capacity,..."
	// string.
	Policy Policy `yaml:"policy"`

	// Anchor pins the end date of the newest bucket (YYYY-MM-DD).
	// Empty means tomorrow at run time.
	Anchor string `yaml:"anchor"`

	// Scoring is the victim selection convention: "product" or "ratio".
	// Default: "product"
	Scoring string `yaml:"scoring"`

	// Schedule is a cron expression for "thinout serve".
	// Empty means the target only runs on demand.
	Schedule string `yaml:"schedule"`

	// DryRun reports removals without deleting files.
	DryRun bool `yaml:"dry_run"`

	// Weights configures how valuable individual items are.
	Weights WeightsConfig `yaml:"weights"`
}

// AnchorDate parses Anchor. The zero time is returned when Anchor is empty.
func (t *TargetConfig) AnchorDate() (time.Time, error) {
	if t.Anchor == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(time.DateOnly, t.Anchor)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor %q: %w", t.Anchor, err)
	}
	return d, nil
}

// WeightsConfig contains item weighting configuration.
type WeightsConfig struct {
	// Size makes larger files cheaper to remove.
	Size bool `yaml:"size"`

	// Patterns lists globs whose matching file names get PatternFactor as
	// weight, e.g. monthly full backups worth keeping longer.
	Patterns []string `yaml:"patterns"`

	// PatternFactor is the weight of files matching Patterns.
	// Default: 10
	PatternFactor float64 `yaml:"pattern_factor"`
}

// Policy is a thinout.Policy that can be written in YAML either as a list of
// {span, capacity} mappings or as a "span:capacity,..." string.
type Policy thinout.Policy

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := thinout.ParsePolicy(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*p = Policy(parsed)
		return nil
	case yaml.SequenceNode:
		var entries []thinout.Entry
		if err := node.Decode(&entries); err != nil {
			return err
		}
		*p = Policy(entries)
		return nil
	default:
		return fmt.Errorf("line %d: policy must be a list or a string", node.Line)
	}
}

// ThinoutPolicy returns the target policy as a thinout.Policy.
func (t *TargetConfig) ThinoutPolicy() thinout.Policy {
	return thinout.Policy(t.Policy)
}

// JournalConfig contains configuration for the run journal.
type JournalConfig struct {
	// Enabled controls whether runs are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the SQLite driver: "sqlite3" (cgo) or "sqlite" (pure Go).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/thinout.db"
	Path string `yaml:"path"`

	// KeepDays is how long runs are kept in the journal. 0 keeps them forever.
	// Default: 365
	KeepDays int `yaml:"keep_days"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ServerConfig contains configuration for the serve mode HTTP server.
type ServerConfig struct {
	// ListenAddress is the address for /metrics, /health and /runs.
	// Default: "127.0.0.1:9400"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "thinout"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name. Empty by default.
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for run duration (seconds).
	// Default: [0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter selects where spans go: "otlp" or "stdout".
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "thinout"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Target returns the target with the given name.
func (c *Config) Target(name string) (*TargetConfig, bool) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], true
		}
	}
	return nil, false
}

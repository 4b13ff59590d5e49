// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the gitmetrics collection engine and its CLI.
//
// Grounded on the teacher's pkg/observability package: the same
// TracingHandler/Providers/Config shape, trimmed to the exporters this
// module actually wires (Prometheus for metrics; tracing runs unexported by
// default, see init.go) per DESIGN.md's dropped-OTLP-exporter decision.
package observability

import "log/slog"

// AppMode identifies how the binary was launched. The engine only ever runs
// as a CLI command, but the type is kept (rather than a bare bool) so an
// embedder driving the evaluator as a library can still tag its own mode.
type AppMode string

const (
	// ModeCLI is the gitmetrics command-line execution mode.
	ModeCLI AppMode = "cli"

	// ModeLibrary is direct in-process use of the evaluator/graph packages.
	ModeLibrary AppMode = "library"
)

const (
	defaultServiceName        = "gitmetrics"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration, mapstructure-tagged so
// pkg/config can embed it directly under an "observability" key.
type Config struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
	Mode           AppMode

	// TracingEnabled turns on the tracer's always-on sampler. Spans are
	// always created (so trace_id/span_id populate the logger regardless),
	// but without an exporter configured they are never flushed anywhere;
	// TracingEnabled only affects the sampling decision recorded on spans.
	TracingEnabled bool `mapstructure:"tracing_enabled"`

	// SampleRatio is the trace sampling ratio used when TracingEnabled is
	// true but not forced to always-sample.
	SampleRatio float64 `mapstructure:"sample_ratio"`

	LogLevel slog.Level `mapstructure:"-"`
	LogJSON  bool       `mapstructure:"log_json"`

	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_seconds"`
}

// DefaultConfig returns a Config with sensible defaults for zero-config
// startup, matching the teacher's DefaultConfig.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

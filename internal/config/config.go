package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

const (
	defaultIterations       = 1000
	defaultWarmupWorkers    = 10
	defaultWarmupIterations = 100
	defaultTimeout          = 30 * time.Second
	defaultGetPath          = "/"
	defaultPostPath         = "/"
)

type Config struct {
	Target           string            `mapstructure:"target"`
	GroupSize        int               `mapstructure:"group_size"`
	Groups           int               `mapstructure:"groups"`
	Delay            time.Duration     `mapstructure:"delay"`
	Iterations       int               `mapstructure:"iterations"`
	WarmupWorkers    int               `mapstructure:"warmup_workers"`
	WarmupIterations int               `mapstructure:"warmup_iterations"`
	GetPath          string            `mapstructure:"get_path"`
	PostPath         string            `mapstructure:"post_path"`
	Headers          map[string]string `mapstructure:"headers"`
	Body             string            `mapstructure:"body"`
	BodyFile         string            `mapstructure:"body_file"`
	Timeout          time.Duration     `mapstructure:"timeout"`
	Rate             int               `mapstructure:"rate"`
	ExpectJSON       string            `mapstructure:"expect_json"`
	LogErrors        bool              `mapstructure:"log_errors"`
	Progress         bool              `mapstructure:"progress"`
	Dashboard        bool              `mapstructure:"dashboard"`
	Output           OutputFormat      `mapstructure:"output"`
	HTMLOutput       string            `mapstructure:"html_output"`
	Thresholds       []string          `mapstructure:"thresholds"`
	MetricsAddr      string            `mapstructure:"metrics_addr"`
	Tracing          TracingConfig     `mapstructure:"tracing"`
	ConfigFile       string            `mapstructure:"-"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector host:port
	Protocol    string  `mapstructure:"protocol"`     // "grpc" (default) or "http"
	Insecure    bool    `mapstructure:"insecure"`     // plaintext exporter connection
	ServiceName string  `mapstructure:"service_name"` // defaults to OTEL_SERVICE_NAME or waveload
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0 - 1.0
	Propagate   bool    `mapstructure:"propagate"`    // inject W3C traceparent headers
}

// Enabled reports whether spans should be created at all.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || t.Propagate
}

func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// TotalWorkers is the number of timed callers across all waves.
func (c Config) TotalWorkers() int {
	return c.GroupSize * c.Groups
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Target) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	}

	if c.TotalWorkers() > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d timed workers). Ensure you have authorization to test the target system.\n", c.TotalWorkers())
	}
	if c.Rate > 1000 {
		fmt.Fprintf(os.Stderr, "WARNING: High rate limit configured (%d calls/s). Ensure you have authorization to test the target system.\n", c.Rate)
	}

	if c.GroupSize < 1 {
		issues = append(issues, "group size must be >= 1")
	}
	if c.Groups < 1 {
		issues = append(issues, "groups must be >= 1")
	}
	if c.Delay < 0 {
		issues = append(issues, "delay must be >= 0")
	}
	if c.Iterations < 1 {
		issues = append(issues, "iterations must be >= 1")
	}
	if c.WarmupWorkers < 0 {
		issues = append(issues, "warmup workers must be >= 0")
	}
	if c.WarmupWorkers > 0 && c.WarmupIterations < 1 {
		issues = append(issues, "warmup iterations must be >= 1 when warm-up is enabled")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and bodyFile are mutually exclusive")
	}

	switch c.Output {
	case "", OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be one of text, json, yaml (got %q)", c.Output))
	}
	if c.Progress && c.Output != "" && c.Output != OutputText {
		issues = append(issues, "progress and structured output are mutually exclusive")
	}
	if c.Dashboard && c.Output != "" && c.Output != OutputText {
		issues = append(issues, "dashboard and structured output are mutually exclusive")
	}
	if c.Dashboard && c.Progress {
		issues = append(issues, "dashboard and progress are mutually exclusive")
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http (got %q)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample_rate must be between 0.0 and 1.0 (got %g)", t.SampleRate))
	}
	return issues
}

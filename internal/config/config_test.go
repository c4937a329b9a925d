package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/waveload/internal/config"
)

func TestLoadNoArgsRequestsHelp(t *testing.T) {
	loader := config.NewLoader()

	_, err := loader.Load([]string{})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load() error = %v, want ErrHelpRequested", err)
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{"--target", "localhost:8080"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Target != "localhost:8080" {
		t.Errorf("Target = %q, want localhost:8080", cfg.Target)
	}
	if cfg.GroupSize != 1 || cfg.Groups != 1 {
		t.Errorf("GroupSize/Groups = %d/%d, want 1/1", cfg.GroupSize, cfg.Groups)
	}
	if cfg.Delay != 0 {
		t.Errorf("Delay = %s, want 0", cfg.Delay)
	}
	if cfg.Iterations != 1000 {
		t.Errorf("Iterations = %d, want 1000", cfg.Iterations)
	}
	if cfg.WarmupWorkers != 10 || cfg.WarmupIterations != 100 {
		t.Errorf("warm-up = %d x %d, want 10 x 100", cfg.WarmupWorkers, cfg.WarmupIterations)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.GetPath != "/" || cfg.PostPath != "/" {
		t.Errorf("paths = %q/%q, want / and /", cfg.GetPath, cfg.PostPath)
	}
	if cfg.Output != config.OutputText {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
	if cfg.Rate != 0 {
		t.Errorf("Rate = %d, want 0", cfg.Rate)
	}
	if len(cfg.Headers) != 0 {
		t.Errorf("Headers len = %d, want 0", len(cfg.Headers))
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %g, want 1", cfg.Tracing.SampleRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadPositionalArgs(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{"25", "4", "2", "localhost:9000"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GroupSize != 25 {
		t.Errorf("GroupSize = %d, want 25", cfg.GroupSize)
	}
	if cfg.Groups != 4 {
		t.Errorf("Groups = %d, want 4", cfg.Groups)
	}
	if cfg.Delay != 2*time.Second {
		t.Errorf("Delay = %s, want 2s", cfg.Delay)
	}
	if cfg.Target != "localhost:9000" {
		t.Errorf("Target = %q, want localhost:9000", cfg.Target)
	}
	if cfg.TotalWorkers() != 100 {
		t.Errorf("TotalWorkers() = %d, want 100", cfg.TotalWorkers())
	}
}

func TestLoadPositionalArgsWithFlags(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{"--iterations", "50", "--rate", "200", "2", "3", "1500ms", "http://svc"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Iterations != 50 || cfg.Rate != 200 {
		t.Errorf("Iterations/Rate = %d/%d, want 50/200", cfg.Iterations, cfg.Rate)
	}
	if cfg.Delay != 1500*time.Millisecond {
		t.Errorf("Delay = %s, want 1.5s", cfg.Delay)
	}
}

func TestLoadPositionalArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"too few", []string{"1", "2", "localhost"}, "expected 4 positional arguments"},
		{"bad size", []string{"x", "2", "1", "localhost"}, "group size"},
		{"bad groups", []string{"1", "y", "1", "localhost"}, "groups"},
		{"bad delay", []string{"1", "2", "soon", "localhost"}, "delay"},
		{"conflicting flag", []string{"--groups", "3", "1", "2", "1", "localhost"}, "--groups cannot be combined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.NewLoader().Load(tt.args)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"target": "https://api.example.com",
		"group_size": 20,
		"groups": 5,
		"delay": 1.5,
		"iterations": 200,
		"warmup_workers": 0,
		"get_path": "/items",
		"post_path": "/items/new",
		"headers": {"content-type": "application/json"},
		"body": "{\"foo\":\"bar\"}",
		"timeout": "45s",
		"rate": 100,
		"expect_json": "ok",
		"log_errors": true,
		"output": "json",
		"thresholds": ["get_latency:p99 < 250", "failures:rate < 0.01"],
		"metrics_addr": ":9100",
		"tracing": {"endpoint": "collector:4317", "insecure": true, "sample_rate": 0.25}
	}`), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Target != "https://api.example.com" {
		t.Errorf("Target = %q", cfg.Target)
	}
	if cfg.GroupSize != 20 || cfg.Groups != 5 {
		t.Errorf("GroupSize/Groups = %d/%d, want 20/5", cfg.GroupSize, cfg.Groups)
	}
	if cfg.Delay != 1500*time.Millisecond {
		t.Errorf("Delay = %s, want 1.5s", cfg.Delay)
	}
	if cfg.Iterations != 200 {
		t.Errorf("Iterations = %d, want 200", cfg.Iterations)
	}
	if cfg.WarmupWorkers != 0 {
		t.Errorf("WarmupWorkers = %d, want 0", cfg.WarmupWorkers)
	}
	if cfg.GetPath != "/items" || cfg.PostPath != "/items/new" {
		t.Errorf("paths = %q/%q", cfg.GetPath, cfg.PostPath)
	}
	if cfg.Headers["Content-Type"] != "application/json" {
		t.Errorf("Headers[Content-Type] = %q", cfg.Headers["Content-Type"])
	}
	if cfg.Body != `{"foo":"bar"}` {
		t.Errorf("Body = %q", cfg.Body)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", cfg.Timeout)
	}
	if cfg.Rate != 100 {
		t.Errorf("Rate = %d, want 100", cfg.Rate)
	}
	if cfg.ExpectJSON != "ok" {
		t.Errorf("ExpectJSON = %q, want ok", cfg.ExpectJSON)
	}
	if !cfg.LogErrors {
		t.Errorf("LogErrors = false, want true")
	}
	if cfg.Output != config.OutputJSON {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if len(cfg.Thresholds) != 2 {
		t.Errorf("Thresholds = %v, want 2 entries", cfg.Thresholds)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.Tracing.Endpoint != "collector:4317" || !cfg.Tracing.Insecure || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing.Protocol = %q, want grpc default", cfg.Tracing.Protocol)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`
target: localhost:8080
group_size: 3
groups: 2
delay: 250ms
body_file: payload.json
progress: true
headers:
  X-Run: nightly
`), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--groups", "7"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GroupSize != 3 {
		t.Errorf("GroupSize = %d, want 3", cfg.GroupSize)
	}
	if cfg.Groups != 7 {
		t.Errorf("Groups = %d, want flag override 7", cfg.Groups)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("Delay = %s, want 250ms", cfg.Delay)
	}
	if cfg.BodyFile != "payload.json" {
		t.Errorf("BodyFile = %q", cfg.BodyFile)
	}
	if !cfg.Progress {
		t.Errorf("Progress = false, want true")
	}
	if cfg.Headers["X-Run"] != "nightly" {
		t.Errorf("Headers[X-Run] = %q, want nightly", cfg.Headers["X-Run"])
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("Load() expected error for missing config file")
	}
}

func TestFlagBodyOverridesConfigBodyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("target: localhost\nbody_file: payload.json\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--body", "inline"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Body != "inline" {
		t.Errorf("Body = %q, want inline", cfg.Body)
	}
	if cfg.BodyFile != "" {
		t.Errorf("BodyFile = %q, want empty", cfg.BodyFile)
	}
}

func TestFlagBodyFileOverridesConfigBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("target: localhost\nbody: inline\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--body-file", "payload.json"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BodyFile != "payload.json" {
		t.Errorf("BodyFile = %q, want payload.json", cfg.BodyFile)
	}
	if cfg.Body != "" {
		t.Errorf("Body = %q, want empty", cfg.Body)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	cfg := config.Config{
		GroupSize:        0,
		Groups:           -1,
		Delay:            -time.Second,
		Iterations:       0,
		WarmupWorkers:    2,
		WarmupIterations: 0,
		Timeout:          -time.Second,
		Rate:             -5,
		Body:             "a",
		BodyFile:         "b",
		Output:           "xml",
		Tracing:          config.TracingConfig{Protocol: "udp", SampleRate: 2},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error type = %T, want ValidationError", err)
	}

	want := []string{
		"target is required",
		"group size must be >= 1",
		"groups must be >= 1",
		"delay must be >= 0",
		"iterations must be >= 1",
		"warmup iterations must be >= 1",
		"timeout must be >= 0",
		"rate must be >= 0",
		"mutually exclusive",
		"output must be one of",
		"tracing protocol",
		"sample_rate",
	}
	msg := err.Error()
	for _, fragment := range want {
		if !strings.Contains(msg, fragment) {
			t.Errorf("Validate() error missing %q: %s", fragment, msg)
		}
	}
	if len(verr.Issues()) != len(want) {
		t.Errorf("Issues() len = %d, want %d: %v", len(verr.Issues()), len(want), verr.Issues())
	}
}

func TestConfigValidationProgressWithStructuredOutput(t *testing.T) {
	cfg := config.Config{
		Target:     "localhost",
		GroupSize:  1,
		Groups:     1,
		Iterations: 1,
		Progress:   true,
		Output:     config.OutputYAML,
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "progress and structured output") {
		t.Fatalf("Validate() error = %v, want progress conflict", err)
	}
}

func TestConfigValidationDashboardConflicts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "structured output",
			mutate: func(c *config.Config) { c.Output = config.OutputJSON },
			want:   "dashboard and structured output",
		},
		{
			name:   "progress",
			mutate: func(c *config.Config) { c.Progress = true },
			want:   "dashboard and progress",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{
				Target:     "localhost",
				GroupSize:  1,
				Groups:     1,
				Iterations: 1,
				Dashboard:  true,
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.want)
			}
		})
	}

	ok := config.Config{Target: "localhost", GroupSize: 1, Groups: 1, Iterations: 1, Dashboard: true, Output: config.OutputText}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil for dashboard with text output", err)
	}
}

func TestTracingEnabled(t *testing.T) {
	if (config.TracingConfig{}).Enabled() {
		t.Error("empty tracing config should be disabled")
	}
	if !(config.TracingConfig{Endpoint: "collector:4317"}).Enabled() {
		t.Error("endpoint should enable tracing")
	}
	if !(config.TracingConfig{Propagate: true}).Enabled() {
		t.Error("propagation should enable tracing")
	}
}

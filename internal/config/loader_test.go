package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{"2", 2 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"0", 0},
		{10, 10 * time.Second}, // int treated as seconds
		{1.25, 1250 * time.Millisecond},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDurationInvalid(t *testing.T) {
	for _, input := range []interface{}{"later", true, []int{1}} {
		if _, err := asDuration(input); err == nil {
			t.Errorf("asDuration(%v) expected error", input)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := defaultConfig()
	settings := map[string]interface{}{
		"target":            "http://example.com",
		"thread_group_size": 10,
		"groups":            "3",
		"delay":             "2",
		"timeout":           "5s",
		"dashboard":         "true",
		"headers": map[string]interface{}{
			"x-api-key": "secret",
		},
		"tracing": map[interface{}]interface{}{
			"Protocol":  "HTTP",
			"propagate": true,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.Target != "http://example.com" {
		t.Errorf("Target = %q, want http://example.com", cfg.Target)
	}
	if cfg.GroupSize != 10 {
		t.Errorf("GroupSize = %d, want 10", cfg.GroupSize)
	}
	if cfg.Groups != 3 {
		t.Errorf("Groups = %d, want 3", cfg.Groups)
	}
	if cfg.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", cfg.Delay)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Headers["X-Api-Key"] != "secret" {
		t.Errorf("Headers[X-Api-Key] = %q, want secret", cfg.Headers["X-Api-Key"])
	}
	if cfg.Tracing.Protocol != "http" || !cfg.Tracing.Propagate {
		t.Errorf("Tracing = %+v, want http with propagation", cfg.Tracing)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %g, want default 1", cfg.Tracing.SampleRate)
	}
	if !cfg.Dashboard {
		t.Errorf("Dashboard = false, want true")
	}
	if cfg.Iterations != defaultIterations {
		t.Errorf("Iterations = %d, want untouched default", cfg.Iterations)
	}
}

func TestApplyConfigSettingsErrors(t *testing.T) {
	tests := []map[string]interface{}{
		{"groups": "many"},
		{"delay": "eventually"},
		{"progress": "maybe"},
		{"headers": []string{"a"}},
		{"tracing": "on"},
	}
	for _, settings := range tests {
		if err := applyConfigSettings(defaultConfig(), settings); err == nil {
			t.Errorf("applyConfigSettings(%v) expected error", settings)
		}
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := defaultConfig()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--group-size=5",
		"-n", "4",
		"--delay=750ms",
		"--header=X-Test=123",
		"--threshold=get_latency:p99 < 100",
		"--tracing-endpoint=localhost:4318",
		"--tracing-protocol=HTTP",
		"--dashboard",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.GroupSize != 5 {
		t.Errorf("GroupSize = %d, want 5", cfg.GroupSize)
	}
	if cfg.Groups != 4 {
		t.Errorf("Groups = %d, want 4", cfg.Groups)
	}
	if cfg.Delay != 750*time.Millisecond {
		t.Errorf("Delay = %s, want 750ms", cfg.Delay)
	}
	if cfg.Headers["X-Test"] != "123" {
		t.Errorf("Headers[X-Test] = %q, want 123", cfg.Headers["X-Test"])
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "get_latency:p99 < 100" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.Protocol != "http" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if !cfg.Dashboard {
		t.Errorf("Dashboard = false, want true from flag")
	}
	if cfg.Iterations != defaultIterations {
		t.Errorf("Iterations = %d, want unchanged default", cfg.Iterations)
	}
}

func TestApplyFlagOverridesRejectsBadHeader(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)
	if err := fs.Parse([]string{"--header=novalue"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := applyFlagOverrides(defaultConfig(), fs); err == nil {
		t.Fatal("applyFlagOverrides() expected error for malformed header")
	}
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader()
	args := []string{
		"--target=http://example.com",
		"--group-size=2",
		"--warmup-workers=0",
	}

	cfg, err := loader.Load(args)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Target != "http://example.com" {
		t.Errorf("Target = %q, want http://example.com", cfg.Target)
	}
	if cfg.GroupSize != 2 {
		t.Errorf("GroupSize = %d, want 2", cfg.GroupSize)
	}
	if cfg.WarmupWorkers != 0 {
		t.Errorf("WarmupWorkers = %d, want 0", cfg.WarmupWorkers)
	}
}

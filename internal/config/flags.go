package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const usageLine = "waveload [flags] [GROUP_SIZE GROUPS DELAY TARGET]"

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           usageLine,
		Short:         "Staggered-wave HTTP load generator",
		Args:          cobra.MaximumNArgs(4),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.String("target", "", "Target address (host:port or URL)")
	flags.String("get-path", defaultGetPath, "Path requested by GET calls")
	flags.String("post-path", defaultPostPath, "Path requested by POST calls")
	flags.StringSlice("header", nil, "Additional request header in key=value form")
	flags.String("body", "", "Inline POST body payload")
	flags.String("body-file", "", "Path to file containing the POST body")
	flags.String("expect-json", "", "gjson path that must be truthy in every response body")

	// Wave flags
	flags.IntP("group-size", "g", 1, "Callers per timed wave")
	flags.IntP("groups", "n", 1, "Number of timed waves")
	flags.String("delay", "0", "Delay between wave launches (seconds or duration, e.g. 2 or 1500ms)")
	flags.Int("iterations", defaultIterations, "GET+POST pairs per timed caller")
	flags.Int("warmup-workers", defaultWarmupWorkers, "Callers in the warm-up wave (0 disables warm-up)")
	flags.Int("warmup-iterations", defaultWarmupIterations, "GET+POST pairs per warm-up caller")
	flags.Duration("timeout", defaultTimeout, "Per-call timeout")
	flags.IntP("rate", "r", 0, "Calls per second across all callers (0 means unlimited)")

	// Output flags
	flags.StringP("output", "o", string(OutputText), "Report format: text, json or yaml")
	flags.Bool("progress", false, "Print a live progress line while the run is active")
	flags.Bool("dashboard", false, "Show a live terminal dashboard while the run is active (q stops the run)")
	flags.Bool("log-errors", false, "Log each failed call to stderr")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.StringSlice("threshold", nil, "Report thresholds (repeatable, e.g. 'get_latency:p99 < 200')")
	flags.String("metrics-addr", "", "Serve live Prometheus metrics on this address (e.g. :9090)")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for call spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Use a plaintext connection to the collector")
	flags.String("tracing-service-name", "", "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of calls to trace (0.0 - 1.0)")
	flags.Bool("tracing-propagate", false, "Inject W3C trace context headers into calls")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if err := overrideString(fs, "target", func(v string) { cfg.Target = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideString(fs, "get-path", func(v string) { cfg.GetPath = v }); err != nil {
		return err
	}
	if err := overrideString(fs, "post-path", func(v string) { cfg.PostPath = v }); err != nil {
		return err
	}
	if err := overrideString(fs, "body", func(v string) { cfg.Body, cfg.BodyFile = v, "" }); err != nil {
		return err
	}
	if err := overrideString(fs, "body-file", func(v string) { cfg.BodyFile, cfg.Body = v, "" }); err != nil {
		return err
	}
	if err := overrideString(fs, "expect-json", func(v string) { cfg.ExpectJSON = strings.TrimSpace(v) }); err != nil {
		return err
	}

	if err := overrideInt(fs, "group-size", func(v int) { cfg.GroupSize = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "groups", func(v int) { cfg.Groups = v }); err != nil {
		return err
	}
	if fs.Changed("delay") {
		val, err := fs.GetString("delay")
		if err != nil {
			return err
		}
		d, err := asDuration(val)
		if err != nil {
			return fmt.Errorf("delay: %w", err)
		}
		cfg.Delay = d
	}
	if err := overrideInt(fs, "iterations", func(v int) { cfg.Iterations = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "warmup-workers", func(v int) { cfg.WarmupWorkers = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "warmup-iterations", func(v int) { cfg.WarmupIterations = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "rate", func(v int) { cfg.Rate = v }); err != nil {
		return err
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}

	if err := overrideString(fs, "output", func(v string) { cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(v))) }); err != nil {
		return err
	}
	if err := overrideBool(fs, "progress", func(v bool) { cfg.Progress = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "dashboard", func(v bool) { cfg.Dashboard = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "log-errors", func(v bool) { cfg.LogErrors = v }); err != nil {
		return err
	}
	if err := overrideString(fs, "html-output", func(v string) { cfg.HTMLOutput = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideString(fs, "metrics-addr", func(v string) { cfg.MetricsAddr = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	vals, err := fs.GetStringSlice("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("header must be in key=value format: %s", entry)
			}
			key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
			if key == "" {
				return fmt.Errorf("header key cannot be empty")
			}
			cfg.Headers[key] = strings.TrimSpace(parts[1])
		}
	}

	return applyTracingFlags(&cfg.Tracing, fs)
}

func applyTracingFlags(t *TracingConfig, fs *pflag.FlagSet) error {
	if err := overrideString(fs, "tracing-endpoint", func(v string) { t.Endpoint = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideString(fs, "tracing-protocol", func(v string) { t.Protocol = strings.ToLower(strings.TrimSpace(v)) }); err != nil {
		return err
	}
	if err := overrideString(fs, "tracing-service-name", func(v string) { t.ServiceName = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideBool(fs, "tracing-insecure", func(v bool) { t.Insecure = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "tracing-propagate", func(v bool) { t.Propagate = v }); err != nil {
		return err
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		t.SampleRate = val
	}
	return nil
}

// applyPositionalArgs accepts the short form GROUP_SIZE GROUPS DELAY TARGET.
// Positional values may not be combined with their equivalent flags.
func applyPositionalArgs(cfg *Config, fs *pflag.FlagSet) error {
	args := fs.Args()
	if len(args) == 0 {
		return nil
	}
	if len(args) != 4 {
		return fmt.Errorf("expected 4 positional arguments (GROUP_SIZE GROUPS DELAY TARGET), got %d", len(args))
	}
	for _, name := range []string{"group-size", "groups", "delay", "target"} {
		if fs.Changed(name) {
			return fmt.Errorf("--%s cannot be combined with positional arguments", name)
		}
	}

	size, err := asInt(args[0])
	if err != nil {
		return fmt.Errorf("group size %q: %w", args[0], err)
	}
	groups, err := asInt(args[1])
	if err != nil {
		return fmt.Errorf("groups %q: %w", args[1], err)
	}
	delay, err := asDuration(args[2])
	if err != nil {
		return fmt.Errorf("delay: %w", err)
	}

	cfg.GroupSize = size
	cfg.Groups = groups
	cfg.Delay = delay
	cfg.Target = strings.TrimSpace(args[3])
	return nil
}

func overrideString(fs *pflag.FlagSet, name string, set func(string)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetString(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}

func overrideInt(fs *pflag.FlagSet, name string, set func(int)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetInt(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}

func overrideBool(fs *pflag.FlagSet, name string, set func(bool)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetBool(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}

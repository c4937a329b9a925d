package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Precedence, lowest first: defaults, config file, flags, positional arguments.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := defaultConfig()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if err := applyPositionalArgs(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Target = strings.TrimSpace(cfg.Target)
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Output == "" {
		cfg.Output = OutputText
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		GroupSize:        1,
		Groups:           1,
		Iterations:       defaultIterations,
		WarmupWorkers:    defaultWarmupWorkers,
		WarmupIterations: defaultWarmupIterations,
		GetPath:          defaultGetPath,
		PostPath:         defaultPostPath,
		Headers:          map[string]string{},
		Timeout:          defaultTimeout,
		Output:           OutputText,
		Tracing:          TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if err := settingString(settings, func(v string) { cfg.Target = strings.TrimSpace(v) }, "target"); err != nil {
		return err
	}
	if err := settingInt(settings, func(v int) { cfg.GroupSize = v }, "groupsize", "group_size", "group-size", "thread_group_size"); err != nil {
		return err
	}
	if err := settingInt(settings, func(v int) { cfg.Groups = v }, "groups", "num_groups", "thread_groups"); err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "delay"); ok {
		d, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("delay: %w", err)
		}
		cfg.Delay = d
	}
	if err := settingInt(settings, func(v int) { cfg.Iterations = v }, "iterations"); err != nil {
		return err
	}
	if err := settingInt(settings, func(v int) { cfg.WarmupWorkers = v }, "warmupworkers", "warmup_workers", "warmup-workers"); err != nil {
		return err
	}
	if err := settingInt(settings, func(v int) { cfg.WarmupIterations = v }, "warmupiterations", "warmup_iterations", "warmup-iterations"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.GetPath = v }, "getpath", "get_path", "get-path"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.PostPath = v }, "postpath", "post_path", "post-path"); err != nil {
		return err
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if err := settingString(settings, func(v string) { cfg.Body = v }, "body"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.BodyFile = v }, "bodyfile", "body_file", "body-file"); err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}
	if err := settingInt(settings, func(v int) { cfg.Rate = v }, "rate"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.ExpectJSON = strings.TrimSpace(v) }, "expectjson", "expect_json", "expect-json"); err != nil {
		return err
	}
	if err := settingBool(settings, func(v bool) { cfg.LogErrors = v }, "logerrors", "log_errors", "log-errors"); err != nil {
		return err
	}
	if err := settingBool(settings, func(v bool) { cfg.Progress = v }, "progress"); err != nil {
		return err
	}
	if err := settingBool(settings, func(v bool) { cfg.Dashboard = v }, "dashboard"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(v))) }, "output"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.HTMLOutput = strings.TrimSpace(v) }, "htmloutput", "html_output", "html-output"); err != nil {
		return err
	}
	if err := settingString(settings, func(v string) { cfg.MetricsAddr = strings.TrimSpace(v) }, "metricsaddr", "metrics_addr", "metrics-addr"); err != nil {
		return err
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return base, err
	}
	t := base
	if err := settingString(settings, func(v string) { t.Endpoint = strings.TrimSpace(v) }, "endpoint"); err != nil {
		return base, err
	}
	if err := settingString(settings, func(v string) { t.Protocol = strings.ToLower(strings.TrimSpace(v)) }, "protocol"); err != nil {
		return base, err
	}
	if err := settingString(settings, func(v string) { t.ServiceName = strings.TrimSpace(v) }, "servicename", "service_name", "service-name"); err != nil {
		return base, err
	}
	if err := settingBool(settings, func(v bool) { t.Insecure = v }, "insecure"); err != nil {
		return base, err
	}
	if err := settingBool(settings, func(v bool) { t.Propagate = v }, "propagate"); err != nil {
		return base, err
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		rate, err := asFloat64(raw)
		if err != nil {
			return base, fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = rate
	}
	return t, nil
}

func settingString(settings map[string]interface{}, set func(string), keys ...string) error {
	raw, ok := lookupSetting(settings, keys...)
	if !ok {
		return nil
	}
	val, err := asString(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", keys[0], err)
	}
	set(val)
	return nil
}

func settingInt(settings map[string]interface{}, set func(int), keys ...string) error {
	raw, ok := lookupSetting(settings, keys...)
	if !ok {
		return nil
	}
	val, err := asInt(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", keys[0], err)
	}
	set(val)
	return nil
}

func settingBool(settings map[string]interface{}, set func(bool), keys ...string) error {
	raw, ok := lookupSetting(settings, keys...)
	if !ok {
		return nil
	}
	val, err := asBool(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", keys[0], err)
	}
	set(val)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/waveload/internal/config"
	"github.com/torosent/waveload/internal/dashboard"
	"github.com/torosent/waveload/internal/httpclient"
	"github.com/torosent/waveload/internal/metrics"
	"github.com/torosent/waveload/internal/output"
	"github.com/torosent/waveload/internal/promexport"
	"github.com/torosent/waveload/internal/runner"
	"github.com/torosent/waveload/internal/threshold"
	"github.com/torosent/waveload/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

type stderrFailureLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	target, err := httpclient.NormalizeTarget(cfg.Target)
	if err != nil {
		return err
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(stderr, "[waveload] tracing shutdown: %v\n", err)
		}
	}()

	issuer, err := httpclient.NewIssuer(cfg, httpclient.NewClient(cfg.Timeout), provider)
	if err != nil {
		return err
	}

	var wrapped runner.Issuer = issuer
	if cfg.LogErrors {
		wrapped = runner.WithLogging(wrapped, &stderrFailureLogger{w: stderr})
	}
	wrapped = runner.WithRateLimit(wrapped, runner.NewLimiter(cfg.Rate))

	opts := runner.DefaultOptions()
	opts.Target = target
	opts.GroupSize = cfg.GroupSize
	opts.Groups = cfg.Groups
	opts.Delay = cfg.Delay
	opts.Iterations = cfg.Iterations
	opts.WarmupWorkers = cfg.WarmupWorkers
	opts.WarmupIterations = cfg.WarmupIterations
	opts.Issuer = wrapped

	if cfg.MetricsAddr != "" {
		exporter := promexport.NewExporter()
		srv, err := exporter.Serve(cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		fmt.Fprintf(stderr, "[waveload] serving metrics on http://%s/metrics\n", srv.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		opts.Observers = append(opts.Observers, exporter)
	}

	var reporter *output.ProgressReporter
	if cfg.Progress {
		progress := &metrics.Progress{}
		opts.Observers = append(opts.Observers, progress)
		reporter = output.NewProgressReporter(progress, opts.Geometry().CallSize(), progressInterval, stdout)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		feed := dashboard.NewFeed()
		opts.Observers = append(opts.Observers, feed)
		dash, err = dashboard.New(feed, dashboard.RunInfo{
			Target:    target,
			Groups:    opts.Groups,
			GroupSize: opts.GroupSize,
			Delay:     opts.Delay,
			Total:     opts.Geometry().CallSize(),
		}, cancelRun)
		if err != nil {
			return err
		}
	}

	r := runner.New(opts)

	if reporter != nil {
		reporter.Start()
	}
	if dash != nil {
		dash.Start()
	}
	result, err := r.Run(runCtx)
	if reporter != nil {
		reporter.Stop()
	}
	if dash != nil {
		dash.Stop()
	}
	if err != nil {
		return err
	}

	report := metrics.NewReport(result.Geometry, result.Timing, result.Stats)
	report.RunID = ulid.Make().String()
	report.Target = target

	results := threshold.NewEvaluator(thresholds).Evaluate(report)

	switch cfg.Output {
	case config.OutputJSON:
		if err := output.PrintJSONReport(stdout, report, results); err != nil {
			return err
		}
	case config.OutputYAML:
		if err := output.PrintYAMLReport(stdout, report, results); err != nil {
			return err
		}
	default:
		output.PrintReport(stdout, report)
		output.PrintThresholdResults(stdout, results)
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, report, results); err != nil {
			return err
		}
		if cfg.Output == config.OutputText || cfg.Output == "" {
			fmt.Fprintf(stdout, "\nHTML report written to %s\n", cfg.HTMLOutput)
		}
	}

	if !threshold.AllPassed(results) {
		failed := 0
		for _, res := range results {
			if !res.Pass {
				failed++
			}
		}
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

func writeHTMLReport(path string, report metrics.Report, results []threshold.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("html report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, report, results); err != nil {
		f.Close()
		return fmt.Errorf("html report: %w", err)
	}
	return f.Close()
}

func (l *stderrFailureLogger) LogFailure(kind metrics.Kind, err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[waveload] %s call failed: %v\n", kind, err)
}

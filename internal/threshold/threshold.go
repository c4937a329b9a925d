// Package threshold evaluates pass/fail assertions against a run report.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/waveload/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "get_latency", "failures"
	Aggregate string  // e.g., "p50", "p99", "mean", "max", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a report.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks every threshold against report.
func (e *Evaluator) Evaluate(report metrics.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, report))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, report metrics.Report) Result {
	actual, err := extractMetricValue(t, report)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	// A latency aggregate of a kind with no successful calls never passes.
	if math.IsNaN(actual) {
		return Result{
			Threshold: t,
			Actual:    actual,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: no data", t.Raw),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string in format "metric:aggregate operator value".
// Examples:
//   - "get_latency:p99 < 250"
//   - "failures:rate < 0.01"
//   - "throughput:rate > 100"
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'get_latency:p99 < 250')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	aggregates, ok := supported[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: get_latency, post_latency, failures, calls, successes, throughput)", metric)
	}
	if !contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}
	if !contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

var latencyAggregates = []string{"min", "mean", "avg", "p50", "median", "p99", "max"}

var supported = map[string][]string{
	"get_latency":  latencyAggregates,
	"post_latency": latencyAggregates,
	"failures":     {"count", "rate"},
	"calls":        {"count"},
	"successes":    {"count"},
	"throughput":   {"rate"},
}

var operators = []string{"<", "<=", ">", ">=", "=="}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, report metrics.Report) (float64, error) {
	if name, ok := strings.CutSuffix(t.Metric, "_latency"); ok {
		kind, ok := metrics.ParseKind(name)
		if !ok {
			return 0, fmt.Errorf("unsupported threshold metric %q", t.Metric)
		}
		return extractLatency(t.Aggregate, report.Summary(kind))
	}

	switch t.Metric {
	case "failures":
		switch t.Aggregate {
		case "count":
			return float64(report.Failures), nil
		case "rate":
			if report.Calls == 0 {
				return 0, nil
			}
			return float64(report.Failures) / float64(report.Calls), nil
		}
	case "calls":
		return float64(report.Calls), nil
	case "successes":
		return float64(report.Successes), nil
	case "throughput":
		return report.Throughput, nil
	}
	return 0, fmt.Errorf("unsupported threshold %s:%s", t.Metric, t.Aggregate)
}

func extractLatency(aggregate string, s metrics.LatencySummary) (float64, error) {
	switch aggregate {
	case "min":
		return s.Min, nil
	case "mean", "avg":
		return s.Mean, nil
	case "p50", "median":
		return s.Median, nil
	case "p99":
		return s.P99, nil
	case "max":
		return s.Max, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for %s latency", aggregate, s.Kind)
	}
}

// compareValues compares actual vs expected using the given operator.
func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}

package output

import (
	"encoding/json"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/torosent/waveload/internal/metrics"
	"github.com/torosent/waveload/internal/threshold"
)

// Document is the structured form of a report. Figures that have no data
// are nil, so they encode as null.
type Document struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	Target     string            `json:"target" yaml:"target"`
	Groups     int               `json:"groups" yaml:"groups"`
	GroupSize  int               `json:"group_size" yaml:"group_size"`
	Iterations int               `json:"iterations" yaml:"iterations"`
	Calls      int64             `json:"calls" yaml:"calls"`
	Successes  int64             `json:"successes" yaml:"successes"`
	Failures   int64             `json:"failures" yaml:"failures"`
	WallTime   float64           `json:"wall_time_seconds" yaml:"wall_time_seconds"`
	Throughput *float64          `json:"throughput" yaml:"throughput"`
	Get        LatencyDocument   `json:"get" yaml:"get"`
	Post       LatencyDocument   `json:"post" yaml:"post"`
	Errors     []FailureDocument `json:"errors,omitempty" yaml:"errors,omitempty"`
	Thresholds *ThresholdSummary `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// LatencyDocument holds per-kind accounting and latency in milliseconds.
type LatencyDocument struct {
	Calls     int64    `json:"calls" yaml:"calls"`
	Successes int64    `json:"successes" yaml:"successes"`
	Failures  int64    `json:"failures" yaml:"failures"`
	MinMs     *float64 `json:"min_ms" yaml:"min_ms"`
	MeanMs    *float64 `json:"mean_ms" yaml:"mean_ms"`
	MedianMs  *float64 `json:"median_ms" yaml:"median_ms"`
	P99Ms     *float64 `json:"p99_ms" yaml:"p99_ms"`
	MaxMs     *float64 `json:"max_ms" yaml:"max_ms"`
}

type FailureDocument struct {
	Kind  string `json:"kind" yaml:"kind"`
	Code  string `json:"code" yaml:"code"`
	Count int    `json:"count" yaml:"count"`
}

// ThresholdSummary provides aggregated threshold results.
type ThresholdSummary struct {
	Total   int                   `json:"total" yaml:"total"`
	Passed  int                   `json:"passed" yaml:"passed"`
	Failed  int                   `json:"failed" yaml:"failed"`
	Results []ThresholdResultJSON `json:"results" yaml:"results"`
}

// ThresholdResultJSON is a serializable threshold result.
type ThresholdResultJSON struct {
	Threshold string   `json:"threshold" yaml:"threshold"`
	Metric    string   `json:"metric" yaml:"metric"`
	Aggregate string   `json:"aggregate" yaml:"aggregate"`
	Operator  string   `json:"operator" yaml:"operator"`
	Expected  float64  `json:"expected" yaml:"expected"`
	Actual    *float64 `json:"actual" yaml:"actual"`
	Pass      bool     `json:"pass" yaml:"pass"`
}

// NewDocument converts a report and optional threshold results.
func NewDocument(report metrics.Report, results []threshold.Result) Document {
	doc := Document{
		RunID:      report.RunID,
		Target:     report.Target,
		Groups:     report.Groups,
		GroupSize:  report.GroupSize,
		Iterations: report.Iterations,
		Calls:      report.Calls,
		Successes:  report.Successes,
		Failures:   report.Failures,
		WallTime:   report.WallSeconds,
		Throughput: optional(report.Throughput),
		Get:        latencyDocument(report.Get),
		Post:       latencyDocument(report.Post),
		Thresholds: summarizeThresholds(results),
	}
	for _, row := range report.FailureBuckets {
		doc.Errors = append(doc.Errors, FailureDocument{Kind: row.Kind.String(), Code: row.Code, Count: row.Count})
	}
	return doc
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report metrics.Report, results []threshold.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(report, results))
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report metrics.Report, results []threshold.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(report, results)); err != nil {
		return err
	}
	return enc.Close()
}

func latencyDocument(s metrics.LatencySummary) LatencyDocument {
	return LatencyDocument{
		Calls:     s.Calls,
		Successes: s.Successes,
		Failures:  s.Failures,
		MinMs:     optional(s.Min),
		MeanMs:    optional(s.Mean),
		MedianMs:  optional(s.Median),
		P99Ms:     optional(s.P99),
		MaxMs:     optional(s.Max),
	}
}

func summarizeThresholds(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{
		Total:   len(results),
		Results: make([]ThresholdResultJSON, len(results)),
	}
	for i, tr := range results {
		summary.Results[i] = ThresholdResultJSON{
			Threshold: tr.Threshold.Raw,
			Metric:    tr.Threshold.Metric,
			Aggregate: tr.Threshold.Aggregate,
			Operator:  tr.Threshold.Operator,
			Expected:  tr.Threshold.Value,
			Actual:    optional(tr.Actual),
			Pass:      tr.Pass,
		}
		if tr.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

package output

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/torosent/waveload/internal/metrics"
	"github.com/torosent/waveload/internal/threshold"
)

const noData = "no data"

// PrintReport outputs the human-readable run summary. The first five blocks
// keep a fixed order: wave geometry, call accounting, timing, GET latency and
// POST latency.
func PrintReport(w io.Writer, report metrics.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Number Thread Groups: %d\n", report.Groups)
	fmt.Fprintf(w, "Thread Group Size: %d\n", report.GroupSize)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Server Calls: %d\n", report.Calls)
	fmt.Fprintf(w, "Success: %d\n", report.Successes)
	fmt.Fprintf(w, "Failures: %d\n", report.Failures)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Wall Time: %s seconds\n", formatFloat(report.WallSeconds, 3))
	fmt.Fprintf(w, "Throughput: %s calls per second\n", formatFloat(report.Throughput, 2))

	writeLatencyBlock(w, "Get", report.Get)
	writeLatencyBlock(w, "Post", report.Post)

	if len(report.FailureBuckets) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failure Breakdown:")
		for _, row := range report.FailureBuckets {
			fmt.Fprintf(w, "  %s %s: %d\n", row.Kind, row.Code, row.Count)
		}
	}

	if report.RunID != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Run %s against %s\n", report.RunID, report.Target)
	}
}

func writeLatencyBlock(w io.Writer, label string, s metrics.LatencySummary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Min %s Latency: %s\n", label, formatMillis(s.Min))
	fmt.Fprintf(w, "%s Mean: %s\n", label, formatMillis(s.Mean))
	fmt.Fprintf(w, "%s Median: %s\n", label, formatMillis(s.Median))
	fmt.Fprintf(w, "%s 99 Percentile: %s\n", label, formatMillis(s.P99))
	fmt.Fprintf(w, "%s Max Latency: %s\n", label, formatMillis(s.Max))
}

// PrintThresholdResults lists each assertion outcome with a summary line.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Thresholds:")
	for _, r := range results {
		if r.Pass {
			passed++
		}
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	fmt.Fprintf(w, "%d/%d thresholds passed\n", passed, len(results))
}

func formatMillis(ms float64) string {
	if math.IsNaN(ms) {
		return noData
	}
	return formatFloat(ms, 3) + " ms"
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return noData
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

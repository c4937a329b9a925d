package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/waveload/internal/metrics"
	"github.com/torosent/waveload/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Report           metrics.Report
	Kinds            []metrics.LatencySummary
	ThresholdSummary *ThresholdSummary
}

// GenerateHTMLReport generates a standalone HTML report.
func GenerateHTMLReport(w io.Writer, report metrics.Report, thresholdResults []threshold.Result) error {
	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Report:           report,
		Kinds:            []metrics.LatencySummary{report.Get, report.Post},
		ThresholdSummary: summarizeThresholds(thresholdResults),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatMillis": formatMillis,
		"formatFloat": func(f float64) string {
			return formatFloat(f, 2)
		},
		"formatActual": func(f *float64) string {
			if f == nil {
				return noData
			}
			return formatFloat(*f, 2)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Waveload Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value { font-size: 2rem; font-weight: bold; }
        .card .subvalue { font-size: 0.85rem; color: #6c757d; margin-top: 5px; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .section { margin-bottom: 40px; }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 12px; border-bottom: 1px solid #e5e7eb; }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Waveload Report</h1>
            {{if .Report.Target}}<div class="meta">Target: {{.Report.Target}}</div>{{end}}
            <div class="meta">Generated: {{.GeneratedAt}}{{if .Report.RunID}} | Run: {{.Report.RunID}}{{end}}</div>
            <div class="meta">{{.Report.Groups}} waves of {{.Report.GroupSize}} callers, {{.Report.Iterations}} iterations each</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Server Calls</h3>
                    <div class="value">{{.Report.Calls}}</div>
                </div>
                <div class="card success">
                    <h3>Success</h3>
                    <div class="value">{{.Report.Successes}}</div>
                    <div class="subvalue">{{formatPercent .Report.Successes .Report.Calls}}%</div>
                </div>
                <div class="card error">
                    <h3>Failures</h3>
                    <div class="value">{{.Report.Failures}}</div>
                    <div class="subvalue">{{formatPercent .Report.Failures .Report.Calls}}%</div>
                </div>
                <div class="card">
                    <h3>Throughput</h3>
                    <div class="value">{{formatFloat .Report.Throughput}}</div>
                    <div class="subvalue">calls per second over {{formatFloat .Report.WallSeconds}}s</div>
                </div>
            </div>

            <div class="section">
                <h2>Latency</h2>
                <table>
                    <thead>
                        <tr><th>Kind</th><th>Calls</th><th>Success</th><th>Min</th><th>Mean</th><th>Median</th><th>P99</th><th>Max</th></tr>
                    </thead>
                    <tbody>
                        {{range .Kinds}}
                        <tr>
                            <td>{{.Kind}}</td>
                            <td>{{.Calls}}</td>
                            <td>{{.Successes}}</td>
                            <td>{{formatMillis .Min}}</td>
                            <td>{{formatMillis .Mean}}</td>
                            <td>{{formatMillis .Median}}</td>
                            <td>{{formatMillis .P99}}</td>
                            <td>{{formatMillis .Max}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .Report.FailureBuckets}}
            <div class="section">
                <h2>Failure Breakdown</h2>
                <table>
                    <thead><tr><th>Kind</th><th>Code</th><th>Count</th></tr></thead>
                    <tbody>
                        {{range .Report.FailureBuckets}}
                        <tr><td>{{.Kind}}</td><td>{{.Code}}</td><td>{{.Count}}</td></tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} passed)</h2>
                <table>
                    <thead><tr><th>Threshold</th><th>Actual</th><th>Status</th></tr></thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{formatActual .Actual}}</td>
                            <td>{{if .Pass}}<span class="badge badge-success">PASS</span>{{else}}<span class="badge badge-error">FAIL</span>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`

package dashboard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/waveload/internal/metrics"
)

const (
	refreshInterval = 500 * time.Millisecond
	historySize     = 100
	maxFailureRows  = 10
)

// RunInfo describes the run being displayed.
type RunInfo struct {
	Target    string
	Groups    int
	GroupSize int
	Delay     time.Duration
	Total     int64 // timed calls the run will issue
}

// Dashboard renders a live terminal view of a Feed.
type Dashboard struct {
	feed         *Feed
	info         RunInfo
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid        *ui.Grid
	summaryPara *widgets.Paragraph
	callsGauge  *widgets.Gauge
	kindsPara   *widgets.Paragraph
	latency     *widgets.SparklineGroup
	failureList *widgets.List

	prev        Snapshot
	getHistory  []float64
	postHistory []float64
	startTime   time.Time
}

// New takes over the terminal. shutdownFunc runs when the user presses q or
// Ctrl-C; Stop must be called to restore the terminal.
func New(feed *Feed, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		feed:         feed,
		info:         info,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		getHistory:   make([]float64, 0, historySize),
		postHistory:  make([]float64, 0, historySize),
		startTime:    time.Now(),
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Warming up..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.callsGauge = widgets.NewGauge()
	d.callsGauge.Title = "Timed Calls"
	d.callsGauge.BarColor = ui.ColorBlue
	d.callsGauge.BorderStyle.Fg = ui.ColorCyan
	d.callsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.kindsPara = widgets.NewParagraph()
	d.kindsPara.Title = "Per Kind"
	d.kindsPara.Text = "Waiting for data..."
	d.kindsPara.BorderStyle.Fg = ui.ColorCyan

	get := widgets.NewSparkline()
	get.Title = "GET mean (ms)"
	get.LineColor = ui.ColorGreen
	get.Data = []float64{0}
	post := widgets.NewSparkline()
	post.Title = "POST mean (ms)"
	post.LineColor = ui.ColorMagenta
	post.Data = []float64{0}
	d.latency = widgets.NewSparklineGroup(get, post)
	d.latency.Title = "Latency per refresh"
	d.latency.BorderStyle.Fg = ui.ColorCyan

	d.failureList = widgets.NewList()
	d.failureList.Title = "Failures"
	d.failureList.Rows = formatFailureRows(nil)
	d.failureList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.failureList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.callsGauge),
		),
		ui.NewRow(0.38,
			ui.NewCol(0.6, d.latency),
			ui.NewCol(0.4, d.kindsPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.failureList),
		),
	)
}

// Start begins the refresh loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop ends the refresh loop and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.feed.Snapshot()
	elapsed := time.Since(d.startTime)

	d.summaryPara.Text = formatSummary(d.info, snap, elapsed)

	d.callsGauge.Percent = percent(snap.Calls(), d.info.Total)
	d.callsGauge.Label = fmt.Sprintf("%d / %d", snap.Calls(), d.info.Total)

	d.kindsPara.Text = formatKinds(snap)

	if mean, ok := intervalMean(d.prev.Get, snap.Get); ok {
		d.getHistory = appendHistory(d.getHistory, mean)
		d.latency.Sparklines[0].Data = d.getHistory
	}
	if mean, ok := intervalMean(d.prev.Post, snap.Post); ok {
		d.postHistory = appendHistory(d.postHistory, mean)
		d.latency.Sparklines[1].Data = d.postHistory
	}

	d.failureList.Rows = formatFailureRows(snap.Failures)
	d.prev = snap
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// percent clamps done/total into a gauge percentage.
func percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(done * 100 / total)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// intervalMean is the mean latency of the successes added between two
// tallies of the same kind.
func intervalMean(prev, cur KindTally) (float64, bool) {
	n := cur.Successes - prev.Successes
	if n <= 0 {
		return 0, false
	}
	return (cur.SumMs - prev.SumMs) / float64(n), true
}

func appendHistory(history []float64, v float64) []float64 {
	history = append(history, v)
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	return history
}

func formatMs(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2fms", v)
}

func formatSummary(info RunInfo, snap Snapshot, elapsed time.Duration) string {
	phase := "timed"
	if snap.Calls() == 0 {
		phase = "warm-up"
	}
	return fmt.Sprintf(
		"Target: %s\nGroups: %d x %d callers | Delay: %s\nElapsed: %s | Phase: %s | Warm-up calls: %d\nPress q to stop",
		info.Target,
		info.Groups,
		info.GroupSize,
		info.Delay,
		elapsed.Round(time.Second),
		phase,
		snap.Warmup,
	)
}

func formatKinds(snap Snapshot) string {
	lines := make([]string, 0, 2*len(metrics.Kinds))
	for _, kind := range metrics.Kinds {
		t := snap.Get
		if kind == metrics.KindPost {
			t = snap.Post
		}
		lines = append(lines,
			fmt.Sprintf("[%s](fg:cyan,mod:bold) ok %d | failed %d", kind, t.Successes, t.Failures),
			fmt.Sprintf("  min %s | mean %s | max %s", formatMs(minOrNaN(t)), formatMs(t.MeanMs()), formatMs(maxOrNaN(t))),
		)
	}
	return strings.Join(lines, "\n")
}

func minOrNaN(t KindTally) float64 {
	if t.Successes == 0 {
		return math.NaN()
	}
	return t.MinMs
}

func maxOrNaN(t KindTally) float64 {
	if t.Successes == 0 {
		return math.NaN()
	}
	return t.MaxMs
}

func formatFailureRows(rows []metrics.FailureBucket) []string {
	if len(rows) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	n := min(len(rows), maxFailureRows)
	formatted := make([]string, 0, n)
	for _, row := range rows[:n] {
		formatted = append(formatted, fmt.Sprintf("%s %s: %d", row.Kind, row.Code, row.Count))
	}
	return formatted
}

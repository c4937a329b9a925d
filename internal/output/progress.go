package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/waveload/internal/metrics"
)

// ProgressReporter displays real-time progress updates on one line.
type ProgressReporter struct {
	progress *metrics.Progress
	total    int64
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. total is the expected number of timed calls.
func NewProgressReporter(progress *metrics.Progress, total int64, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		progress: progress,
		total:    total,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and terminates the line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprint(p.writer, p.line(), "\n")
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	snap := p.progress.Snapshot()
	if snap.Calls == 0 {
		return fmt.Sprintf("\rWarm-up: %d calls", snap.Warmup)
	}
	line := fmt.Sprintf("\rCalls: %d", snap.Calls)
	if p.total > 0 {
		line += fmt.Sprintf("/%d (%.0f%%)", p.total, float64(snap.Calls)/float64(p.total)*100)
	}
	line += fmt.Sprintf(" | Successes: %d | Failures: %d", snap.Successes, snap.Failures)
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		line += fmt.Sprintf(" | Calls/s: %.1f", float64(snap.Calls)/elapsed)
	}
	return line
}

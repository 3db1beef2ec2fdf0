// Package progress reports the advance of long analysis runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Phases reported through ProgressFunc.
const (
	PhaseStart   = "start"
	PhaseAnalyze = "analyze"
	PhaseSave    = "save"
	PhaseDone    = "done"
	PhaseError   = "error"
)

// Progress is a snapshot of a running batch.
type Progress struct {
	Phase string

	// Done and Total count positions of the current run only; positions
	// recorded by earlier runs are in Recorded.
	Done     int
	Total    int
	Recorded int

	// ID and Depth describe the position that just finished.
	ID    int
	Depth int

	PerPosition time.Duration
	ETA         time.Duration
	StartTime   time.Time
	Error       error
}

// ProgressFunc is called with progress updates.
type ProgressFunc func(Progress)

// Tracker derives per-position averages and an ETA from a running count.
type Tracker struct {
	total int
	done  int
	start time.Time
	now   func() time.Time
}

// NewTracker starts tracking a run of total steps. If now is nil, time.Now
// is used.
func NewTracker(total int, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{total: total, start: now(), now: now}
}

// Step records one finished step.
func (t *Tracker) Step() {
	t.done++
}

// Done returns the finished step count.
func (t *Tracker) Done() int { return t.done }

// Total returns the planned step count.
func (t *Tracker) Total() int { return t.total }

// Remaining returns how many steps are left.
func (t *Tracker) Remaining() int {
	if t.done >= t.total {
		return 0
	}
	return t.total - t.done
}

// Start returns when tracking began.
func (t *Tracker) Start() time.Time { return t.start }

// Elapsed returns the time since tracking began.
func (t *Tracker) Elapsed() time.Duration { return t.now().Sub(t.start) }

// Average returns the mean duration of a finished step, or zero before the
// first step.
func (t *Tracker) Average() time.Duration {
	if t.done == 0 {
		return 0
	}
	return t.Elapsed() / time.Duration(t.done)
}

// ETA returns the estimated time to finish the remaining steps.
func (t *Tracker) ETA() time.Duration {
	return t.Average() * time.Duration(t.Remaining())
}

// Snapshot fills a Progress from the tracker state.
func (t *Tracker) Snapshot(phase string) Progress {
	return Progress{
		Phase:       phase,
		Done:        t.done,
		Total:       t.total,
		PerPosition: t.Average(),
		ETA:         t.ETA(),
		StartTime:   t.start,
	}
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// DefaultProgressFunc prints progress to stdout.
func DefaultProgressFunc(p Progress) {
	Print(os.Stdout, p)
}

// Print writes a single-line progress update to w. Intermediate updates
// start with a carriage return and overwrite each other.
func Print(w io.Writer, p Progress) {
	switch p.Phase {
	case PhaseStart:
		fmt.Fprintf(w, "[Start] %d to analyse, %d already recorded\n", p.Total, p.Recorded)
	case PhaseAnalyze:
		fmt.Fprintf(w, "\r[%d/%d] #%d @ d%d | %.1fs/pos | ETA %s   ",
			p.Done, p.Total, p.ID, p.Depth, p.PerPosition.Seconds(), FormatDuration(p.ETA))
	case PhaseSave:
		fmt.Fprintf(w, "\r[Save] %d positions recorded   ", p.Recorded)
	case PhaseDone:
		elapsed := time.Since(p.StartTime)
		fmt.Fprintf(w, "\n[Done] %d analysed, %d recorded (%s)\n",
			p.Done, p.Recorded, FormatDuration(elapsed))
	case PhaseError:
		fmt.Fprintf(w, "\n[Error] %v\n", p.Error)
	}
}

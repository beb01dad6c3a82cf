package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// BatchUI shows one spinner per batch row plus an overall counter bar.
// Without a terminal it prints one line per row instead.
type BatchUI struct {
	progress   *mpb.Progress
	overall    *mpb.Bar
	out        io.Writer
	isTerminal bool
	total      int
	completed  atomic.Int32
	failed     atomic.Int32
}

// RowBar is the display for one batch row.
type RowBar struct {
	bar   *mpb.Bar
	ui    *BatchUI
	index int
	label string
	state atomic.Value // string
	start time.Time
}

// NewBatchUI creates the display for total rows on stderr.
func NewBatchUI(total int) *BatchUI {
	return NewBatchUITo(os.Stderr, total, IsTerminal(os.Stderr))
}

// NewBatchUITo creates the display on out. With isTerminal false no bars
// are drawn.
func NewBatchUITo(out io.Writer, total int, isTerminal bool) *BatchUI {
	u := &BatchUI{out: out, isTerminal: isTerminal, total: total}

	if !isTerminal {
		u.progress = mpb.New(mpb.WithOutput(io.Discard))
		return u
	}

	if f, ok := out.(*os.File); ok {
		enableANSIOnWindows(f)
	}
	u.progress = mpb.New(
		mpb.WithOutput(out),
		mpb.WithRefreshRate(200*time.Millisecond),
		mpb.WithWidth(60),
	)
	u.overall = u.progress.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.BarPriority(total+1),
		mpb.PrependDecorators(
			decor.Name("batch ", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d/%d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string {
				if n := u.failed.Load(); n > 0 {
					return fmt.Sprintf("%d failed", n)
				}
				return ""
			}),
		),
	)
	return u
}

// AddRow creates the display for row index (1-based).
func (u *BatchUI) AddRow(index int, label string) *RowBar {
	r := &RowBar{ui: u, index: index, label: label, start: time.Now()}
	r.state.Store("queued")

	if u.isTerminal {
		r.bar = u.progress.New(1,
			mpb.SpinnerStyle(),
			mpb.BarPriority(index),
			mpb.PrependDecorators(
				decor.Any(func(decor.Statistics) string {
					return fmt.Sprintf("[%d/%d] %s", r.index, u.total, r.label)
				}, decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.Any(func(decor.Statistics) string {
					return r.state.Load().(string)
				}, decor.WCSyncSpace),
				decor.Name(" "),
				decor.Elapsed(decor.ET_STYLE_GO),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Running [%d/%d]: %s\n", index, u.total, label)
	}
	return r
}

// SetState updates the state shown next to the row.
func (r *RowBar) SetState(state string) {
	r.state.Store(state)
}

// Complete removes the spinner and prints one result line. status is the
// session's terminal state.
func (r *RowBar) Complete(status string, err error) {
	elapsed := time.Since(r.start).Round(100 * time.Millisecond)

	var msg string
	if err == nil {
		msg = fmt.Sprintf("✓ [%d/%d] %s: %s (%s)\n", r.index, r.ui.total, r.label, status, elapsed)
	} else {
		r.ui.failed.Add(1)
		msg = fmt.Sprintf("✗ [%d/%d] %s: %s: %v\n", r.index, r.ui.total, r.label, status, err)
	}

	if r.bar != nil {
		r.bar.SetTotal(1, true)
	}
	if r.ui.overall != nil {
		r.ui.overall.Increment()
	}
	r.ui.completed.Add(1)
	fmt.Fprint(r.ui.Writer(), msg)
}

// Wait blocks until every bar has finished rendering.
func (u *BatchUI) Wait() {
	if u.overall != nil && !u.overall.Completed() {
		u.overall.Abort(false)
	}
	u.progress.Wait()
}

// Writer returns a writer that prints above the bars.
func (u *BatchUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

// Completed returns the number of finished rows.
func (u *BatchUI) Completed() int { return int(u.completed.Load()) }

// Failed returns the number of rows that finished with an error.
func (u *BatchUI) Failed() int { return int(u.failed.Load()) }

// IsTerminal reports whether bars are drawn.
func (u *BatchUI) IsTerminal() bool { return u.isTerminal }

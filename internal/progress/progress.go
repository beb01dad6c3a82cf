// Package progress renders session progress on the terminal: a spinner for
// single runs and a multi-bar display for batches.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/talysviz/talysrun/internal/events"
)

// Reporter receives session progress.
type Reporter interface {
	Stage(state, message string)
	Tick(elapsed time.Duration)
	Finish(summary string)
	Error(err error)
}

// CLIProgress shows an indeterminate spinner with the current stage.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar

	mu    sync.Mutex
	stage string
}

// NewCLIProgress returns a spinner on stderr, or a NoOpProgress when stderr
// is not a terminal.
func NewCLIProgress() Reporter {
	if !IsTerminal(os.Stderr) {
		return NewNoOpProgress()
	}
	return NewCLIProgressTo(os.Stderr)
}

// NewCLIProgressTo returns a spinner writing to out.
func NewCLIProgressTo(out io.Writer) *CLIProgress {
	return &CLIProgress{
		out: out,
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Starting"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetElapsedTime(true),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Stage updates the spinner label.
func (p *CLIProgress) Stage(state, message string) {
	p.mu.Lock()
	p.stage = fmt.Sprintf("[%s] %s", state, message)
	p.mu.Unlock()
	p.bar.Describe(p.stage)
}

// Tick advances the spinner.
func (p *CLIProgress) Tick(elapsed time.Duration) {
	_ = p.bar.Add(1)
}

// Finish clears the spinner and prints summary.
func (p *CLIProgress) Finish(summary string) {
	_ = p.bar.Finish()
	if summary != "" {
		fmt.Fprintln(p.out, summary)
	}
}

// Error clears the spinner and prints err.
func (p *CLIProgress) Error(err error) {
	_ = p.bar.Finish()
	if err != nil {
		fmt.Fprintf(p.out, "Error: %v\n", err)
	}
}

// NoOpProgress discards everything.
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Stage(state, message string) {}
func (p *NoOpProgress) Tick(elapsed time.Duration)  {}
func (p *NoOpProgress) Finish(summary string)       {}
func (p *NoOpProgress) Error(err error)             {}

// Follow forwards events for sessionID (any session when empty) from bus to
// r until a terminal event arrives or the returned stop is called. stop
// waits for the forwarding goroutine to exit.
func Follow(bus *events.Bus, sessionID string, r Reporter) (stop func()) {
	ch := bus.Subscribe(events.KindProgress, events.KindFailed, events.KindCompleted, events.KindCancelled)
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-quit:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if sessionID != "" && ev.Session() != sessionID {
					continue
				}
				if dispatch(ev, r) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
			bus.Unsubscribe(ch)
		})
	}
}

// dispatch reports whether ev ended the session.
func dispatch(ev events.Event, r Reporter) bool {
	switch e := ev.(type) {
	case *events.Progress:
		if e.Elapsed > 0 {
			r.Tick(e.Elapsed)
		} else {
			r.Stage(e.State, e.Message)
		}
	case *events.Failed:
		// The command returns the error; the reporter only closes the bar.
		r.Error(nil)
	default:
		if ev.Kind().Terminal() {
			r.Finish("")
		}
	}
	return ev.Kind().Terminal()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

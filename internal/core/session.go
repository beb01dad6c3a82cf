package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/talysviz/talysrun/internal/archive"
	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/events"
	"github.com/talysviz/talysrun/internal/logging"
	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/runner"
	"github.com/talysviz/talysrun/internal/validation"
	"github.com/talysviz/talysrun/internal/workspace"
)

// Callbacks receive session notifications. All of them are invoked from the
// session goroutine; any may be nil. OnProgress sees every state the session
// enters, the terminal one included. Exactly one of OnComplete, OnError and
// OnCancelled fires per session, after the workspace has been released.
type Callbacks struct {
	OnProgress  func(state State, message string)
	OnComplete  func(result *models.CalculationResult)
	OnError     func(err error)
	OnCancelled func()
}

// Session is one calculation from validation to a terminal state.
type Session struct {
	id     string
	engine *Engine
	params *models.ParameterSet
	cb     Callbacks
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// mu orders Cancel against state transitions
	mu              sync.Mutex
	state           State
	cancelRequested bool
	settled         bool // process outcome decided; Cancel is a no-op

	ws   *workspace.Workspace
	done chan struct{}

	result *models.CalculationResult
	err    error
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session is terminal and its final callback
// has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session is terminal. The error is a
// *validation.ValidationError, a runner error, ErrCancelled or nil.
func (s *Session) Wait() (*models.CalculationResult, error) {
	<-s.done
	return s.result, s.err
}

// Cancel requests cancellation. It returns immediately. It has no effect
// once the session has reached Parsing, and calling it twice is the same
// as calling it once.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelRequested || s.settled || s.state >= StateParsing {
		return
	}
	s.cancelRequested = true
	s.cancel()
	s.logger.Info().Str("state", s.state.String()).Msg("Cancellation requested")
}

// advance moves to next unless cancellation was requested first.
func (s *Session) advance(next State, message string) bool {
	s.mu.Lock()
	if s.cancelRequested {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = next
	s.mu.Unlock()

	s.logger.Debug().Str("from", prev.String()).Str("to", next.String()).Msg("State change")
	bus := s.engine.eventBus
	bus.StateChanged(s.id, prev.String(), next.String())
	bus.Progressed(s.id, next.String(), message, 0)
	if s.cb.OnProgress != nil {
		s.cb.OnProgress(next, message)
	}
	return true
}

// settle closes the cancellation window and reports false if a cancel got
// in before it closed.
func (s *Session) settle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled = true
	return !s.cancelRequested
}

// abort ends a session that failed before Running. A cancel accepted in the
// meantime takes precedence over the failure.
func (s *Session) abort(err error) {
	s.mu.Lock()
	cancelled := s.cancelRequested
	s.mu.Unlock()

	if cancelled {
		s.logger.Debug().Err(err).Msg("Failure after cancellation; reporting cancelled")
		s.finishCancelled()
		return
	}
	s.finishFailed(err)
}

func (s *Session) run() {
	defer close(s.done)
	defer s.cancel()

	e := s.engine

	if !s.advance(StateValidating, "Validating parameters") {
		s.finishCancelled()
		return
	}
	if res := validation.Validate(s.params); !res.Valid {
		s.abort(res.Err())
		return
	}

	if !s.advance(StateComposing, "Composing input file") {
		s.finishCancelled()
		return
	}
	inputText, err := e.opts.Composer.Compose(s.params)
	if err != nil {
		s.abort(err)
		return
	}

	s.ws = workspace.New(e.opts.WorkspaceDir, s.id, s.logger)
	dir, err := s.ws.Acquire()
	if err != nil {
		s.abort(err)
		return
	}
	inputPath := filepath.Join(dir, constants.InputFileName)
	if err := os.WriteFile(inputPath, []byte(inputText), 0600); err != nil {
		s.abort(fmt.Errorf("failed to write %s: %w", constants.InputFileName, err))
		return
	}

	if !s.advance(StateRunning, "Running TALYS") {
		s.finishCancelled()
		return
	}
	outcome := s.execute(dir, inputText)

	// a cancel requested while running wins over whatever the process did
	if !s.settle() || outcome.Kind == runner.Cancelled {
		s.finishCancelled()
		return
	}
	if outcome.Kind != runner.Success {
		s.finishFailed(outcome.Err())
		return
	}
	s.advance(StateParsing, "Parsing output files")

	result := e.parser.Parse(dir)
	result.SessionID = s.id
	result.Elapsed = outcome.Elapsed
	result.Stdout = outcome.Stdout

	if e.opts.ArchiveDir != "" {
		archivePath := filepath.Join(e.opts.ArchiveDir, s.id+".tar.gz")
		if err := archive.CreateTarGz(dir, archivePath, s.id, nil); err != nil {
			s.logger.Warn().Err(err).Str("archive", archivePath).Msg("Failed to archive workspace")
			e.eventBus.Warn(s.id, "Failed to archive workspace", err)
		} else {
			result.ArchivePath = archivePath
		}
	}

	s.finishCompleted(result)
}

// execute runs the executable and publishes elapsed-time progress while it
// is alive.
func (s *Session) execute(dir, inputText string) runner.Outcome {
	e := s.engine
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		ticker := time.NewTicker(constants.ProgressUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.eventBus.Progressed(s.id, StateRunning.String(), "Running TALYS", time.Since(start))
			}
		}
	}()

	outcome := e.runner.Run(s.ctx, runner.Request{
		Executable: e.opts.Executable,
		Dir:        dir,
		Input:      inputText,
		Timeout:    e.opts.Timeout,
		Grace:      e.opts.Grace,
	})
	close(stop)
	wg.Wait()

	s.logger.Info().
		Str("outcome", outcome.Kind.String()).
		Int("exit_code", outcome.ExitCode).
		Dur("elapsed", outcome.Elapsed).
		Msg("TALYS finished")
	return outcome
}

var terminalMessages = map[State]string{
	StateCompleted: "Calculation completed",
	StateFailed:    "Calculation failed",
	StateCancelled: "Calculation cancelled",
}

// terminate releases the workspace and records the final state. It must run
// before the final callback.
func (s *Session) terminate(final State) State {
	if s.ws != nil {
		s.ws.Release()
	}

	s.mu.Lock()
	prev := s.state
	s.state = final
	s.mu.Unlock()

	s.engine.eventBus.StateChanged(s.id, prev.String(), final.String())
	s.engine.release(s)
	if s.cb.OnProgress != nil {
		s.cb.OnProgress(final, terminalMessages[final])
	}
	return prev
}

func (s *Session) finishCompleted(result *models.CalculationResult) {
	s.result = result
	s.terminate(StateCompleted)

	s.logger.Info().
		Int("files", len(result.OutputFiles)).
		Int("datasets", result.DatasetCount()).
		Int("warnings", len(result.Warnings)).
		Msg("Calculation completed")
	s.engine.eventBus.Publish(&events.Completed{
		Header:      events.NewHeader(events.KindCompleted, s.id),
		Elapsed:     result.Elapsed,
		OutputFiles: len(result.OutputFiles),
		Datasets:    result.DatasetCount(),
		Warnings:    len(result.Warnings),
	})
	if s.cb.OnComplete != nil {
		s.cb.OnComplete(result)
	}
}

func (s *Session) finishFailed(err error) {
	s.err = err
	prev := s.terminate(StateFailed)

	s.logger.Error().Err(err).Str("state", prev.String()).Msg("Calculation failed")
	s.engine.eventBus.Publish(&events.Failed{
		Header: events.NewHeader(events.KindFailed, s.id),
		State:  prev.String(),
		Err:    err,
	})
	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}

func (s *Session) finishCancelled() {
	s.err = ErrCancelled
	prev := s.terminate(StateCancelled)

	s.logger.Info().Str("state", prev.String()).Msg("Calculation cancelled")
	s.engine.eventBus.Publish(&events.Cancelled{
		Header: events.NewHeader(events.KindCancelled, s.id),
		State:  prev.String(),
	})
	if s.cb.OnCancelled != nil {
		s.cb.OnCancelled()
	}
}

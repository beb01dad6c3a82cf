// Package core sequences validation, composition, execution and parsing
// into asynchronous calculation sessions.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/events"
	"github.com/talysviz/talysrun/internal/input"
	"github.com/talysviz/talysrun/internal/logging"
	"github.com/talysviz/talysrun/internal/models"
	"github.com/talysviz/talysrun/internal/output"
	"github.com/talysviz/talysrun/internal/runner"
	"github.com/talysviz/talysrun/internal/validation"
)

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Executable string
	Timeout    time.Duration
	Grace      time.Duration

	// WorkspaceDir is the parent of run workspaces (empty = OS temp dir).
	WorkspaceDir string

	// ArchiveDir receives <session-id>.tar.gz of each completed workspace.
	// Empty disables archiving.
	ArchiveDir string

	Composer input.Composer
	Logger   *logging.Logger
	EventBus *events.Bus
}

// OptionsFromConfig maps the config file onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Executable:   cfg.Talys.Executable,
		Timeout:      cfg.Timeout(),
		Grace:        cfg.Grace(),
		WorkspaceDir: cfg.Workspace.BaseDir,
		ArchiveDir:   cfg.Workspace.ArchiveDir,
	}
}

// processRunner is the part of *runner.Runner a session uses.
type processRunner interface {
	Run(ctx context.Context, req runner.Request) runner.Outcome
}

// Engine runs one calculation session at a time.
type Engine struct {
	opts     Options
	logger   *logging.Logger
	eventBus *events.Bus
	runner   processRunner
	parser   *output.Parser

	mu     sync.Mutex
	active *Session
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.Executable == "" {
		opts.Executable = constants.DefaultExecutable
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRunTimeout
	}
	if opts.Grace <= 0 {
		opts.Grace = constants.DefaultGracePeriod
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	bus := opts.EventBus
	if bus == nil {
		bus = events.NewBus(constants.EventBusDefaultBuffer)
	}

	return &Engine{
		opts:     opts,
		logger:   logger,
		eventBus: bus,
		runner:   runner.New(logger),
		parser:   output.NewParser(logger),
	}
}

// EventBus returns the bus sessions publish to.
func (e *Engine) EventBus() *events.Bus {
	return e.eventBus
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Validate checks params without starting anything.
func (e *Engine) Validate(params *models.ParameterSet) validation.Result {
	return validation.Validate(params)
}

// Compose validates and renders params.
func (e *Engine) Compose(params *models.ParameterSet) (string, error) {
	if err := validation.Validate(params).Err(); err != nil {
		return "", err
	}
	return e.opts.Composer.Compose(params)
}

// Start launches a session on its own goroutine and returns immediately.
// params are copied. Returns ErrSessionActive while another session is
// not yet terminal.
func (e *Engine) Start(params *models.ParameterSet, cb Callbacks) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, ErrSessionActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     uuid.NewString(),
		engine: e,
		params: params.Clone(),
		cb:     cb,
		state:  StateIdle,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.logger = e.logger.Child("session", s.id)
	e.active = s

	go s.run()
	return s, nil
}

// Cancel cancels the active session, if any. It does not block.
func (e *Engine) Cancel() {
	e.mu.Lock()
	s := e.active
	e.mu.Unlock()

	if s != nil {
		s.Cancel()
	}
}

// Active returns the running session or nil.
func (e *Engine) Active() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Run starts a session and blocks until it ends. Cancelling ctx cancels
// the session.
func (e *Engine) Run(ctx context.Context, params *models.ParameterSet, cb Callbacks) (*models.CalculationResult, error) {
	s, err := e.Start(params, cb)
	if err != nil {
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-s.Done():
		}
	}()

	return s.Wait()
}

func (e *Engine) release(s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == s {
		e.active = nil
	}
}

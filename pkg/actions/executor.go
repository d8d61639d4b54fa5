package actions

import (
	"context"
	"log/slog"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/jonboulle/clockwork"
)

type Executor struct {
	registry *Registry
	fs       persistence.FileSystem
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewExecutor(registry *Registry, fs persistence.FileSystem, clock clockwork.Clock, logger *slog.Logger) *Executor {
	if registry == nil {
		registry = NewRegistry()
	}

	if fs == nil {
		fs = persistence.OSFileSystem{}
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{registry: registry, fs: fs, clock: clock, logger: logger}
}

func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute performs one already resolved step and returns the outputs it produced.
// Browser failures are returned as *StepExecutionError.
func (e *Executor) Execute(ctx context.Context, page browser.Page, step models.Step, execCtx *models.ExecutionContext) (map[string]string, error) {
	action, err := e.registry.Parse(step)
	if err != nil {
		return nil, err
	}

	run := execCtx.Run

	timeout := step.TimeoutMs()
	if timeout <= 0 {
		timeout = run.TimeoutMs
	}

	if timeout <= 0 {
		timeout = models.DefaultTimeoutMs
	}

	if err := ctx.Err(); err != nil {
		return nil, &StepExecutionError{Index: run.CurrentStepIndex, Action: action.Name(), Err: err}
	}

	logger := e.logger.With("action", action.Name(), "step", run.CurrentStepIndex)
	logger.Debug("Executing step")

	outputs, err := action.Execute(ctx, page, Runtime{
		Run:       run,
		TimeoutMs: float64(timeout),
		FS:        e.fs,
		Clock:     e.clock,
		Logger:    logger,
	})
	if err != nil {
		return nil, &StepExecutionError{Index: run.CurrentStepIndex, Action: action.Name(), Err: err}
	}

	if outputs == nil {
		outputs = map[string]string{}
	}

	return outputs, nil
}

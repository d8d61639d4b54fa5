package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dukex/clawtomations/pkg/actions"
	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/eventbus"
	"github.com/dukex/clawtomations/pkg/events"
	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/otelhelper"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/dukex/clawtomations/pkg/persistence/file"
	"github.com/dukex/clawtomations/pkg/template"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine loads workflows and runs them against a browser driver.
type Engine struct {
	driver    browser.Driver
	loader    *Loader
	fs        persistence.FileSystem
	artifacts persistence.ArtifactWriter
	executor  *actions.Executor
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	clock     clockwork.Clock
	env       models.Environment
	prompter  Prompter
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithEnvironment(env models.Environment) Option {
	return func(e *Engine) {
		e.env = env
	}
}

func WithFileSystem(fs persistence.FileSystem) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

func WithArtifactWriter(artifacts persistence.ArtifactWriter) Option {
	return func(e *Engine) {
		e.artifacts = artifacts
	}
}

func WithExecutor(executor *actions.Executor) Option {
	return func(e *Engine) {
		e.executor = executor
	}
}

// WithPublisher sends run lifecycle events to publisher.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With("module", "workflow_engine")
	}
}

func WithPrompter(prompter Prompter) Option {
	return func(e *Engine) {
		e.prompter = prompter
	}
}

func NewEngine(driver browser.Driver, opts ...Option) *Engine {
	e := &Engine{
		driver: driver,
		fs:     persistence.OSFileSystem{},
		tracer: otelhelper.NewNoopTracer(),
		logger: log.WithModule("workflow_engine"),
		clock:  clockwork.NewRealClock(),
		env:    models.OSEnvironment{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.loader == nil {
		e.loader = NewLoader(e.fs)
	}

	if e.artifacts == nil {
		e.artifacts = file.NewPersistenceWithFS("", e.fs)
	}

	if e.executor == nil {
		e.executor = actions.NewExecutor(actions.NewRegistry(), e.fs, e.clock, e.logger)
	}

	if e.prompter == nil {
		e.prompter = NewStdinPrompter()
	}

	return e
}

type RunOptions struct {
	WorkflowPath string
	// RunID is generated from the start time when empty.
	RunID string
	// OutputDir overrides settings.outputDir. Relative paths resolve against the workflow's directory.
	OutputDir         string
	Headless          *bool
	ContinueOnFailure *bool
	StopOnFailure     bool
	Strict            bool
	Extra             map[string]any
}

type RunResult struct {
	RunID      string
	OutputDir  string
	ReportPath string
	Report     *models.RunReport
}

// RunWorkflow executes every site of the workflow at opts.WorkflowPath and writes the run
// artifacts. Load failures return before any browser is launched. When a failed site stops
// the run, the partial result is returned together with a *RunAbortedError.
func (e *Engine) RunWorkflow(ctx context.Context, opts RunOptions) (*RunResult, error) {
	loaded, err := e.loader.Load(opts.WorkflowPath)
	if err != nil {
		return nil, err
	}

	wf := loaded.Workflow
	settings := wf.Settings
	startedAt := e.clock.Now().UTC()
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID(startedAt)
	}

	logger := e.logger.With("run_id", runID, "workflow", loaded.AbsPath)

	outputRoot := opts.OutputDir
	if outputRoot == "" {
		outputRoot = settings.OutputDirOrDefault()
	}

	runDir := filepath.Join(loaded.ResolvePath(outputRoot), runID)
	if err := e.fs.EnsureDir(runDir); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	headless := settings.IsHeadless()
	if opts.Headless != nil {
		headless = *opts.Headless
	}

	continueOnFailure := settings.ShouldContinueOnFailure(opts.ContinueOnFailure, opts.StopOnFailure)

	if settings.RunTimeoutMs > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(settings.RunTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.WorkflowPathKey, loaded.AbsPath),
	)
	defer span.End()

	logger.Info("Starting workflow run", "sites", len(wf.Sites), "headless", headless, "continue_on_failure", continueOnFailure)

	e.publish(ctx, runID, events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, runID),
		Workflow:  loaded.AbsPath,
		SiteCount: len(wf.Sites),
	})

	proc, err := e.driver.Launch(ctx, browser.LaunchOptions{Headless: headless, SlowMo: float64(settings.SlowMo)})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
		otelhelper.SetError(span, err)
		e.publishCompleted(ctx, runID, models.RunStatusFailed, "", startedAt, err)

		return nil, err
	}

	closeBrowser := sync.OnceFunc(func() {
		if err := proc.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err)
		}
	})
	defer closeBrowser()

	r := &run{
		engine:   e,
		id:       runID,
		loaded:   loaded,
		dir:      runDir,
		settings: settings,
		browser:  proc,
		logger:   logger,
		resolver: template.NewResolver(
			template.WithClock(e.clock),
			template.WithEnvironment(e.env),
			template.WithStrict(opts.Strict || settings.StrictTemplates),
		),
		base: models.NewExecutionContext(models.ContextParams{
			Workflow: wf.Fields(),
			RunID:    runID,
			Clock:    e.clock,
			Env:      e.env,
		}),
		continueOnFailure: continueOnFailure,
	}

	results, abortErr := r.runSites(ctx, wf.Sites, settings.SiteConcurrency())

	closeBrowser()

	status := models.OverallStatus(results)
	if abortErr != nil {
		status = models.RunStatusFailed
	}

	report := &models.RunReport{
		Workflow:   loaded.AbsPath,
		RunID:      runID,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: e.clock.Now().UTC(),
		Settings: models.ReportSettings{
			Headless:          headless,
			ContinueOnFailure: continueOnFailure,
			TimeoutMs:         settings.StepTimeoutMs(),
			Concurrency:       settings.SiteConcurrency(),
		},
		Results: results,
		Extra:   opts.Extra,
	}

	result := &RunResult{RunID: runID, OutputDir: runDir, Report: report}

	reportPath, err := e.artifacts.SaveReport(context.WithoutCancel(ctx), runDir, report)
	if err != nil {
		otelhelper.SetError(span, err)
		e.publishCompleted(ctx, runID, status, "", startedAt, err)

		return result, err
	}

	result.ReportPath = reportPath

	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(status)))
	e.publishCompleted(ctx, runID, status, reportPath, startedAt, abortErr)

	logger.Info("Workflow run finished", "status", status, "report", reportPath)

	if abortErr != nil {
		otelhelper.SetError(span, abortErr)

		return result, abortErr
	}

	return result, nil
}

func (e *Engine) publish(ctx context.Context, runID string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(context.WithoutCancel(ctx), runID, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "run_id", runID, "error", err)
	}
}

func (e *Engine) publishCompleted(ctx context.Context, runID string, status models.RunStatus, reportPath string, startedAt time.Time, err error) {
	event := events.RunCompleted{
		BaseEvent:  events.NewBaseEvent(events.RunCompletedEvent, runID),
		Status:     string(status),
		ReportPath: reportPath,
		Duration:   e.clock.Since(startedAt),
	}

	if err != nil {
		event.Error = err.Error()
	}

	e.publish(ctx, runID, event)
}

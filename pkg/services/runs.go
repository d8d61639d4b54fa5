package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/dukex/clawtomations/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
)

// DefaultWorkflow is run when a request does not name a workflow.
const DefaultWorkflow = "workflows/sample-workflow.yaml"

// RunExecutor runs a workflow. It is satisfied by *workflow.Engine.
type RunExecutor interface {
	RunWorkflow(ctx context.Context, opts workflow.RunOptions) (*workflow.RunResult, error)
}

type RunRequest struct {
	Workflow          string `json:"workflow"                    validate:"max=4096"`
	OutputDir         string `json:"outputDir,omitempty"         validate:"max=4096"`
	Headless          *bool  `json:"headless,omitempty"`
	ContinueOnFailure *bool  `json:"continueOnFailure,omitempty"`
	Strict            bool   `json:"strict,omitempty"`
}

// RunDetails is a run's summary plus its report once one has been written.
type RunDetails struct {
	RunSummary

	Report *models.RunReport `json:"report,omitempty"`
}

type Runs struct {
	executor     RunExecutor
	repository   persistence.RunRepository
	tracker      *Tracker
	validator    *validator.Validate
	workflowsDir string
	outputDir    string
	clock        clockwork.Clock
	logger       *slog.Logger
	wg           sync.WaitGroup
}

// NewRuns creates a run service. Workflow paths in requests resolve against workflowsDir and
// must stay inside it; repository reads past run reports.
func NewRuns(executor RunExecutor, repository persistence.RunRepository, tracker *Tracker, workflowsDir string) *Runs {
	if tracker == nil {
		tracker = NewTracker(nil)
	}

	return &Runs{
		executor:     executor,
		repository:   repository,
		tracker:      tracker,
		validator:    validator.New(validator.WithRequiredStructEnabled()),
		workflowsDir: workflowsDir,
		clock:        clockwork.NewRealClock(),
		logger:       log.WithModule("run_service"),
	}
}

// WithDefaultOutputDir sets the output root used when a request does not name one.
func (r *Runs) WithDefaultOutputDir(dir string) *Runs {
	r.outputDir = dir

	return r
}

// HealthCheck checks the health of the run history storage.
func (r *Runs) HealthCheck(ctx context.Context) (string, bool) {
	if r.repository == nil {
		return "Run history not initialized", false
	}

	if err := r.repository.HealthCheck(ctx); err != nil {
		return "Run history is unavailable: " + err.Error(), false
	}

	return "Run history is healthy", true
}

// Execute runs a workflow and waits for it to finish.
func (r *Runs) Execute(ctx context.Context, req RunRequest) (*workflow.RunResult, error) {
	opts, err := r.runOptions(req)
	if err != nil {
		return nil, err
	}

	opts.RunID = workflow.NewRunID(r.clock.Now())
	r.tracker.Begin(opts.RunID, opts.WorkflowPath)

	result, err := r.executor.RunWorkflow(ctx, opts)
	r.record(opts.RunID, result, err)

	if err != nil {
		return result, fmt.Errorf("failed to run workflow %s: %w", opts.WorkflowPath, err)
	}

	return result, nil
}

// Start runs a workflow in the background and returns its run id immediately.
func (r *Runs) Start(ctx context.Context, req RunRequest) (string, error) {
	opts, err := r.runOptions(req)
	if err != nil {
		return "", err
	}

	opts.RunID = workflow.NewRunID(r.clock.Now())
	r.tracker.Begin(opts.RunID, opts.WorkflowPath)

	logger := r.logger.With("run_id", opts.RunID, "workflow", opts.WorkflowPath)
	runCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		result, err := r.executor.RunWorkflow(runCtx, opts)
		if err != nil {
			logger.Error("Background run failed", "error", err)
		}

		r.record(opts.RunID, result, err)
	}()

	return opts.RunID, nil
}

func (r *Runs) record(runID string, result *workflow.RunResult, err error) {
	if result != nil && result.Report != nil {
		r.tracker.Complete(runID, result.Report, result.ReportPath)
	}

	if err != nil {
		r.tracker.Fail(runID, err)
	}
}

// Wait blocks until every background run has returned.
func (r *Runs) Wait() {
	r.wg.Wait()
}

// Get returns a tracked run, or a persisted one when this process did not run it.
func (r *Runs) Get(ctx context.Context, runID string) (*RunDetails, error) {
	summary, tracked := r.tracker.Get(runID)

	if tracked && summary.Status == models.RunStatusRunning {
		return &RunDetails{RunSummary: summary}, nil
	}

	report, err := r.repository.GetReport(ctx, runID)
	if err != nil {
		if tracked && persistence.IsRunNotFound(err) {
			return &RunDetails{RunSummary: summary}, nil
		}

		return nil, err
	}

	if !tracked {
		summary = SummaryFromReport(report)
	}

	return &RunDetails{RunSummary: summary, Report: report}, nil
}

// List returns every known run, newest first. Tracked runs take precedence over their reports.
func (r *Runs) List(ctx context.Context) ([]RunSummary, error) {
	reports, err := r.repository.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	tracked := r.tracker.List()
	seen := make(map[string]bool, len(tracked))

	runs := make([]RunSummary, 0, len(tracked)+len(reports))
	for _, run := range tracked {
		seen[run.RunID] = true
		runs = append(runs, run)
	}

	for _, report := range reports {
		if !seen[report.RunID] {
			runs = append(runs, SummaryFromReport(report))
		}
	}

	sortNewestFirst(runs)

	return runs, nil
}

func (r *Runs) runOptions(req RunRequest) (workflow.RunOptions, error) {
	if err := r.validator.Struct(req); err != nil {
		return workflow.RunOptions{}, NewValidationError("run", err.Error(), ErrInvalidRequest)
	}

	path, err := r.resolveWorkflow(req.Workflow)
	if err != nil {
		return workflow.RunOptions{}, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = r.outputDir
	}

	return workflow.RunOptions{
		WorkflowPath:      path,
		OutputDir:         outputDir,
		Headless:          req.Headless,
		ContinueOnFailure: req.ContinueOnFailure,
		Strict:            req.Strict,
		Extra:             map[string]any{"trigger": "control-panel"},
	}, nil
}

func (r *Runs) resolveWorkflow(name string) (string, error) {
	if name == "" {
		name = DefaultWorkflow
	}

	root, err := filepath.Abs(r.workflowsDir)
	if err != nil {
		return "", err
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", NewValidationError("run", "workflow "+name+" is outside "+root, ErrWorkflowOutsideDir)
	}

	return path, nil
}

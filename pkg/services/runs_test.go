package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence/file"
	"github.com/dukex/clawtomations/pkg/services"
	"github.com/dukex/clawtomations/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) RunWorkflow(ctx context.Context, opts workflow.RunOptions) (*workflow.RunResult, error) {
	args := m.Called(ctx, opts)

	switch result := args.Get(0).(type) {
	case func(context.Context, workflow.RunOptions) *workflow.RunResult:
		return result(ctx, opts), args.Error(1)
	case *workflow.RunResult:
		return result, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

func reportFor(runID string, status models.RunStatus, startedAt time.Time) *models.RunReport {
	site := models.NewSiteResult(runID, "shop", "")
	site.Status = models.SiteStatusSuccess

	if status == models.RunStatusFailed {
		site.Status = models.SiteStatusFailed
	}

	return &models.RunReport{
		Workflow:   "/workflows/daily.yaml",
		RunID:      runID,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Minute),
		Results:    []*models.SiteResult{site},
	}
}

func setupRuns(t *testing.T) (*services.Runs, *mockExecutor, string, string) {
	t.Helper()

	workflowsDir := t.TempDir()
	outputDir := t.TempDir()
	executor := &mockExecutor{}

	runs := services.NewRuns(executor, file.NewPersistence(outputDir), services.NewTracker(nil), workflowsDir)

	return runs, executor, workflowsDir, outputDir
}

func TestRuns_Execute(t *testing.T) {
	t.Parallel()

	runs, executor, workflowsDir, _ := setupRuns(t)

	executor.On("RunWorkflow", mock.Anything, mock.MatchedBy(func(opts workflow.RunOptions) bool {
		return opts.WorkflowPath == filepath.Join(workflowsDir, "daily.yaml") &&
			opts.RunID != "" &&
			opts.Extra["trigger"] == "control-panel"
	})).Return(func(_ context.Context, opts workflow.RunOptions) *workflow.RunResult {
		return &workflow.RunResult{
			RunID:      opts.RunID,
			ReportPath: "/out/" + opts.RunID + "/run-report.json",
			Report:     reportFor(opts.RunID, models.RunStatusSuccess, time.Now()),
		}
	}, nil)

	result, err := runs.Execute(context.Background(), services.RunRequest{Workflow: "daily.yaml"})
	require.NoError(t, err)

	details, err := runs.Get(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, details.Status)
	assert.Equal(t, result.ReportPath, details.ReportPath)
	assert.Equal(t, 1, details.CompletedSites)
}

func TestRuns_ExecuteDefaultsWorkflow(t *testing.T) {
	t.Parallel()

	runs, executor, workflowsDir, _ := setupRuns(t)

	executor.On("RunWorkflow", mock.Anything, mock.MatchedBy(func(opts workflow.RunOptions) bool {
		return opts.WorkflowPath == filepath.Join(workflowsDir, services.DefaultWorkflow)
	})).Return(nil, workflow.ErrWorkflowLoad)

	_, err := runs.Execute(context.Background(), services.RunRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrWorkflowLoad)

	list, err := runs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RunStatusFailed, list[0].Status)
	assert.NotEmpty(t, list[0].Error)
}

func TestRuns_DefaultOutputDir(t *testing.T) {
	t.Parallel()

	runs, executor, _, outputDir := setupRuns(t)
	runs.WithDefaultOutputDir(outputDir)

	executor.On("RunWorkflow", mock.Anything, mock.MatchedBy(func(opts workflow.RunOptions) bool {
		return opts.OutputDir == outputDir
	})).Return(nil, workflow.ErrWorkflowLoad).Once()
	executor.On("RunWorkflow", mock.Anything, mock.MatchedBy(func(opts workflow.RunOptions) bool {
		return opts.OutputDir == "custom"
	})).Return(nil, workflow.ErrWorkflowLoad).Once()

	_, err := runs.Execute(context.Background(), services.RunRequest{Workflow: "daily.yaml"})
	require.Error(t, err)

	_, err = runs.Execute(context.Background(), services.RunRequest{Workflow: "daily.yaml", OutputDir: "custom"})
	require.Error(t, err)

	executor.AssertExpectations(t)
}

func TestRuns_RejectsWorkflowOutsideDir(t *testing.T) {
	t.Parallel()

	runs, executor, _, _ := setupRuns(t)

	for _, name := range []string{"../secrets.yaml", "/etc/passwd"} {
		_, err := runs.Execute(context.Background(), services.RunRequest{Workflow: name})
		require.Error(t, err, name)
		assert.True(t, services.IsValidationError(err), name)
		assert.ErrorIs(t, err, services.ErrWorkflowOutsideDir)
	}

	executor.AssertNotCalled(t, "RunWorkflow", mock.Anything, mock.Anything)
}

func TestRuns_Start(t *testing.T) {
	t.Parallel()

	runs, executor, _, _ := setupRuns(t)

	release := make(chan struct{})

	executor.On("RunWorkflow", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil, &workflow.RunAbortedError{RunID: "x", Site: "shop", Err: errors.New("boom")})

	runID, err := runs.Start(context.Background(), services.RunRequest{Workflow: "daily.yaml"})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	details, err := runs.Get(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, details.Status)

	close(release)
	runs.Wait()

	details, err = runs.Get(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, details.Status)
	assert.Contains(t, details.Error, "boom")
	assert.NotNil(t, details.FinishedAt)
}

func TestRuns_GetAndListPersistedReports(t *testing.T) {
	t.Parallel()

	runs, _, _, outputDir := setupRuns(t)
	store := file.NewPersistence(outputDir)

	older := reportFor("run-1-aaaaaaaa", models.RunStatusSuccess, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	newer := reportFor("run-2-bbbbbbbb", models.RunStatusFailed, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC))

	for _, report := range []*models.RunReport{older, newer} {
		_, err := store.SaveReport(context.Background(), filepath.Join(outputDir, report.RunID), report)
		require.NoError(t, err)
	}

	list, err := runs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-2-bbbbbbbb", list[0].RunID)
	assert.Equal(t, 1, list[0].FailedSites)
	assert.Equal(t, "run-1-aaaaaaaa", list[1].RunID)

	details, err := runs.Get(context.Background(), "run-1-aaaaaaaa")
	require.NoError(t, err)
	require.NotNil(t, details.Report)
	assert.Equal(t, models.RunStatusSuccess, details.Status)

	_, err = runs.Get(context.Background(), "run-404")
	require.Error(t, err)
	assert.True(t, services.IsRunNotFound(err))

	_, err = runs.Get(context.Background(), "../etc")
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestRuns_HealthCheck(t *testing.T) {
	t.Parallel()

	runs, _, _, _ := setupRuns(t)

	message, healthy := runs.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "Run history is healthy", message)

	missing := services.NewRuns(&mockExecutor{}, file.NewPersistence(filepath.Join(t.TempDir(), "missing")), nil, ".")
	_, healthy = missing.HealthCheck(context.Background())
	assert.False(t, healthy)
}

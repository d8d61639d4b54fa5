package actions

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/mocks"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

func newTestExecutor() *Executor {
	return NewExecutor(
		NewRegistry(),
		persistence.OSFileSystem{},
		clockwork.NewFakeClockAt(fixedNow),
		slog.New(slog.NewTextHandler(os.Stdout, nil)),
	)
}

func newExecContext(siteOutputDir string, timeoutMs int) *models.ExecutionContext {
	return &models.ExecutionContext{
		Run: models.RunState{
			ID:               "run-1",
			SiteOutputDir:    siteOutputDir,
			CurrentStepIndex: 1,
			TimeoutMs:        timeoutMs,
		},
	}
}

func TestExecutor_LocatorActions(t *testing.T) {
	tests := []struct {
		name  string
		step  models.Step
		setup func(page *mocks.MockPage)
	}{
		{
			name: "navigate",
			step: models.Step{"action": "navigate", "url": "https://example.test"},
			setup: func(page *mocks.MockPage) {
				page.On("Goto", "https://example.test", browser.GotoOptions{WaitUntil: "domcontentloaded", Timeout: 30000}).Return(nil)
			},
		},
		{
			name: "open with waitUntil",
			step: models.Step{"type": "open", "url": "https://example.test", "waitUntil": "load"},
			setup: func(page *mocks.MockPage) {
				page.On("Goto", "https://example.test", browser.GotoOptions{WaitUntil: "load", Timeout: 30000}).Return(nil)
			},
		},
		{
			name: "click",
			step: models.Step{"action": "click", "selector": "#go"},
			setup: func(page *mocks.MockPage) {
				page.On("Click", "#go", 30000.0).Return(nil)
			},
		},
		{
			name: "fill",
			step: models.Step{"action": "fill", "selector": "#q", "value": "hello"},
			setup: func(page *mocks.MockPage) {
				page.On("Fill", "#q", "hello", 30000.0).Return(nil)
			},
		},
		{
			name: "fill without value clears",
			step: models.Step{"action": "fill", "selector": "#q"},
			setup: func(page *mocks.MockPage) {
				page.On("Fill", "#q", "", 30000.0).Return(nil)
			},
		},
		{
			name: "press",
			step: models.Step{"action": "press", "selector": "#q", "key": "Enter"},
			setup: func(page *mocks.MockPage) {
				page.On("Press", "#q", "Enter", 30000.0).Return(nil)
			},
		},
		{
			name: "check",
			step: models.Step{"action": "check", "selector": "#terms"},
			setup: func(page *mocks.MockPage) {
				page.On("Check", "#terms", 30000.0).Return(nil)
			},
		},
		{
			name: "uncheck",
			step: models.Step{"action": "uncheck", "selector": "#news"},
			setup: func(page *mocks.MockPage) {
				page.On("Uncheck", "#news", 30000.0).Return(nil)
			},
		},
		{
			name: "select single",
			step: models.Step{"action": "select", "selector": "#country", "value": "PT"},
			setup: func(page *mocks.MockPage) {
				page.On("SelectOption", "#country", []string{"PT"}, 30000.0).Return(nil)
			},
		},
		{
			name: "select many",
			step: models.Step{"action": "select", "selector": "#tags", "value": []any{"a", "b"}},
			setup: func(page *mocks.MockPage) {
				page.On("SelectOption", "#tags", []string{"a", "b"}, 30000.0).Return(nil)
			},
		},
		{
			name: "waitForSelector default state",
			step: models.Step{"action": "waitForSelector", "selector": ".ready"},
			setup: func(page *mocks.MockPage) {
				page.On("WaitForSelector", ".ready", "visible", 30000.0).Return(nil)
			},
		},
		{
			name: "waitForSelector hidden",
			step: models.Step{"action": "waitForSelector", "selector": ".spinner", "state": "hidden"},
			setup: func(page *mocks.MockPage) {
				page.On("WaitForSelector", ".spinner", "hidden", 30000.0).Return(nil)
			},
		},
		{
			name: "upload",
			step: models.Step{"action": "upload", "selector": "input[type=file]", "file": "/tmp/report.pdf"},
			setup: func(page *mocks.MockPage) {
				page.On("SetInputFiles", "input[type=file]", []string{"/tmp/report.pdf"}, 30000.0).Return(nil)
			},
		},
		{
			name: "eval",
			step: models.Step{"action": "eval", "script": "window.scrollTo(0, 0)"},
			setup: func(page *mocks.MockPage) {
				page.On("Evaluate", "window.scrollTo(0, 0)").Return(nil, nil)
			},
		},
		{
			name: "focus",
			step: models.Step{"action": "focus", "selector": "#q"},
			setup: func(page *mocks.MockPage) {
				page.On("Focus", "#q", 30000.0).Return(nil)
			},
		},
		{
			name: "hover",
			step: models.Step{"action": "hover", "selector": "#menu"},
			setup: func(page *mocks.MockPage) {
				page.On("Hover", "#menu", 30000.0).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &mocks.MockPage{}
			tt.setup(page)

			outputs, err := newTestExecutor().Execute(context.Background(), page, tt.step, newExecContext(t.TempDir(), 0))
			require.NoError(t, err)
			assert.Empty(t, outputs)
			page.AssertExpectations(t)
		})
	}
}

func TestExecutor_TimeoutPrecedence(t *testing.T) {
	page := &mocks.MockPage{}
	page.On("Click", "#a", 5000.0).Return(nil)
	page.On("Click", "#b", 1200.0).Return(nil)

	executor := newTestExecutor()
	execCtx := newExecContext(t.TempDir(), 5000)

	_, err := executor.Execute(context.Background(), page, models.Step{"action": "click", "selector": "#a"}, execCtx)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), page, models.Step{"action": "click", "selector": "#b", "timeoutMs": 1200}, execCtx)
	require.NoError(t, err)

	page.AssertExpectations(t)
}

func TestExecutor_Copy(t *testing.T) {
	tests := []struct {
		name     string
		step     models.Step
		setup    func(page *mocks.MockPage)
		expected map[string]string
	}{
		{
			name: "text is trimmed",
			step: models.Step{"action": "copy", "selector": "h1", "key": "title"},
			setup: func(page *mocks.MockPage) {
				page.On("Text", "h1", 30000.0).Return("  Hello World \n", nil)
			},
			expected: map[string]string{"title": "Hello World"},
		},
		{
			name: "attribute",
			step: models.Step{"action": "copy", "selector": "a.next", "attribute": "href"},
			setup: func(page *mocks.MockPage) {
				page.On("Attribute", "a.next", "href", 30000.0).Return(" /page/2 ", nil)
			},
			expected: map[string]string{"copied_value": "/page/2"},
		},
		{
			name: "no matching element yields empty string",
			step: models.Step{"action": "copy", "selector": ".missing", "key": "price"},
			setup: func(page *mocks.MockPage) {
				page.On("Text", ".missing", 30000.0).Return("", nil)
			},
			expected: map[string]string{"price": ""},
		},
		{
			name: "missing attribute yields empty string",
			step: models.Step{"action": "copy", "selector": "img", "attribute": "alt"},
			setup: func(page *mocks.MockPage) {
				page.On("Attribute", "img", "alt", 30000.0).Return("", nil)
			},
			expected: map[string]string{"copied_value": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &mocks.MockPage{}
			tt.setup(page)

			outputs, err := newTestExecutor().Execute(context.Background(), page, tt.step, newExecContext(t.TempDir(), 0))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outputs)
			page.AssertExpectations(t)
		})
	}
}

func TestExecutor_ScreenshotCreatesDirectory(t *testing.T) {
	siteDir := filepath.Join(t.TempDir(), "run-1", "shop")

	page := &mocks.MockPage{}
	page.On("Screenshot", filepath.Join(siteDir, "home.png"), true).Return(nil)

	outputs, err := newTestExecutor().Execute(
		context.Background(),
		page,
		models.Step{"action": "screenshot", "file": "home.png"},
		newExecContext(siteDir, 0),
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"screenshot": filepath.Join(siteDir, "home.png")}, outputs)
	assert.DirExists(t, siteDir)
	page.AssertExpectations(t)
}

func TestExecutor_ScreenshotDefaults(t *testing.T) {
	siteDir := t.TempDir()
	expected := filepath.Join(siteDir, "screenshot-1709634600000.png")

	page := &mocks.MockPage{}
	page.On("Screenshot", expected, false).Return(nil)

	outputs, err := newTestExecutor().Execute(
		context.Background(),
		page,
		models.Step{"action": "screenshot", "fullPage": false, "key": "shot"},
		newExecContext(siteDir, 0),
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"shot": expected}, outputs)
	assert.True(t, filepath.IsAbs(outputs["shot"]))
	assert.True(t, strings.HasPrefix(outputs["shot"], siteDir))
	page.AssertExpectations(t)
}

func TestExecutor_UnsupportedAction(t *testing.T) {
	page := &mocks.MockPage{}

	_, err := newTestExecutor().Execute(context.Background(), page, models.Step{"action": "teleport"}, newExecContext(t.TempDir(), 0))
	require.Error(t, err)

	var unsupported *UnsupportedActionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "teleport", unsupported.Action)
	assert.True(t, IsUnsupportedAction(err))
	assert.False(t, IsStepExecution(err))
	assert.Contains(t, err.Error(), "teleport")
	page.AssertNotCalled(t, "Click", mock.Anything, mock.Anything)
}

func TestExecutor_MissingAction(t *testing.T) {
	_, err := newTestExecutor().Execute(context.Background(), &mocks.MockPage{}, models.Step{"selector": "#a"}, newExecContext(t.TempDir(), 0))
	require.Error(t, err)
	assert.True(t, IsUnsupportedAction(err))
}

func TestExecutor_InvalidStep(t *testing.T) {
	tests := []models.Step{
		{"action": "click"},
		{"action": "navigate"},
		{"action": "press", "selector": "#q"},
		{"action": "select", "selector": "#q"},
		{"action": "upload", "selector": "#f"},
		{"action": "eval"},
		{"action": "wait", "ms": "soon"},
		{"action": "wait", "ms": -1},
	}

	for _, step := range tests {
		t.Run(step.Action(), func(t *testing.T) {
			_, err := newTestExecutor().Execute(context.Background(), &mocks.MockPage{}, step, newExecContext(t.TempDir(), 0))
			require.Error(t, err)
			assert.True(t, IsInvalidStep(err))
		})
	}
}

func TestExecutor_BrowserFailureIsStepExecutionError(t *testing.T) {
	browserErr := errors.New("timeout 30000ms exceeded")

	page := &mocks.MockPage{}
	page.On("Click", "#go", 30000.0).Return(browserErr)

	execCtx := newExecContext(t.TempDir(), 0)
	execCtx.Run.CurrentStepIndex = 3

	_, err := newTestExecutor().Execute(context.Background(), page, models.Step{"action": "click", "selector": "#go"}, execCtx)
	require.Error(t, err)

	var stepErr *StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 3, stepErr.Index)
	assert.Equal(t, "click", stepErr.Action)
	assert.ErrorIs(t, err, browserErr)
	assert.ErrorIs(t, err, ErrStepExecution)
	assert.Equal(t, "step 3 (click) failed: timeout 30000ms exceeded", err.Error())
}

func TestExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &mocks.MockPage{}

	_, err := newTestExecutor().Execute(ctx, page, models.Step{"action": "click", "selector": "#go"}, newExecContext(t.TempDir(), 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	page.AssertNotCalled(t, "Click", mock.Anything, mock.Anything)
}

func TestExecutor_Wait(t *testing.T) {
	tests := []struct {
		name    string
		step    models.Step
		advance time.Duration
	}{
		{name: "default", step: models.Step{"action": "wait"}, advance: time.Second},
		{name: "templated ms", step: models.Step{"action": "wait", "ms": "250"}, advance: 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := clockwork.NewFakeClockAt(fixedNow)
			executor := NewExecutor(NewRegistry(), persistence.OSFileSystem{}, clock, slog.New(slog.NewTextHandler(os.Stdout, nil)))

			done := make(chan error, 1)
			go func() {
				_, err := executor.Execute(context.Background(), &mocks.MockPage{}, tt.step, newExecContext(t.TempDir(), 0))
				done <- err
			}()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, clock.BlockUntilContext(ctx, 1))

			clock.Advance(tt.advance - time.Millisecond)
			select {
			case err := <-done:
				t.Fatalf("wait returned early: %v", err)
			default:
			}

			clock.Advance(time.Millisecond)
			assert.NoError(t, <-done)
		})
	}
}

func TestExecutor_WaitStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClockAt(fixedNow)
	executor := NewExecutor(NewRegistry(), persistence.OSFileSystem{}, clock, slog.New(slog.NewTextHandler(os.Stdout, nil)))

	runCtx, stop := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := executor.Execute(runCtx, &mocks.MockPage{}, models.Step{"action": "wait", "ms": 60000}, newExecContext(t.TempDir(), 0))
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	stop()

	err := <-done
	require.Error(t, err)
	assert.True(t, IsStepExecution(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	assert.True(t, registry.Supports("navigate"))
	assert.True(t, registry.Supports("waitForSelector"))
	assert.False(t, registry.Supports("teleport"))
	assert.Len(t, registry.Names(), 16)

	registry.Register("noop", func(step models.Step) (Action, error) {
		return &Wait{Ms: 0}, nil
	})
	assert.True(t, registry.Supports("noop"))
}

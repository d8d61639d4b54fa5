package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/clawtomations/pkg/persistence/file"
	"github.com/dukex/clawtomations/pkg/services"
	"github.com/dukex/clawtomations/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingExecutor struct{}

func (failingExecutor) RunWorkflow(context.Context, workflow.RunOptions) (*workflow.RunResult, error) {
	return nil, workflow.ErrWorkflowLoad
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	runs := services.NewRuns(failingExecutor{}, file.NewPersistence(t.TempDir()), services.NewTracker(nil), t.TempDir())

	return NewAPI(slog.Default(), runs).App()
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestAPI_RootServesControlPanel(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "<html")
}

func TestAPI_LivenessAndReadiness(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		status, body := get(t, app, path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "OK", string(body), path)
	}
}

func TestAPI_Health(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/health")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestAPI_RunsEmpty(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/runs")
	require.Equal(t, http.StatusOK, status)

	var response map[string]any
	require.NoError(t, json.Unmarshal(body, &response))
	assert.InDelta(t, 0, response["total_count"], 0)
}

func TestAPI_UnknownRun(t *testing.T) {
	status, _ := get(t, setupTestApp(t), "/runs/run-1-abcdef12")

	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")

	resp, err := setupTestApp(t).Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

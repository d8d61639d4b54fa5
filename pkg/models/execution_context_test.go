package models

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(clock clockwork.Clock) *ExecutionContext {
	return NewExecutionContext(ContextParams{
		Workflow: map[string]any{
			"name": "daily",
			"vars": map[string]any{"term": "hello"},
		},
		Site:  map[string]any{"name": "shop", "url": "https://shop.test"},
		RunID: "run-1",
		Clock: clock,
		Env:   MapEnvironment{"HOME": "/home/test"},
	})
}

func TestNewExecutionContext(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC))
	ctx := newTestContext(clock)

	assert.Equal(t, "run-1", ctx.Run.ID)
	assert.Equal(t, "2024-03-05T10:30:00Z", ctx.Run.StartedAt)
	assert.Equal(t, map[string]any{"term": "hello"}, ctx.Vars)
	assert.Equal(t, "2024-03-05", ctx.Now["date"])
	assert.Equal(t, "/home/test", ctx.Env["HOME"])
	assert.NotNil(t, ctx.Outputs)
}

func TestExecutionContext_ClonePreservesRunAndMergesSite(t *testing.T) {
	ctx := newTestContext(clockwork.NewFakeClock())
	ctx.Run.SiteOutputDir = "/tmp/out/shop"

	clone := ctx.Clone(ContextPatch{Site: map[string]any{"x": 1}})

	assert.Equal(t, "run-1", clone.Run.ID)
	assert.Equal(t, "/tmp/out/shop", clone.Run.SiteOutputDir)
	assert.Equal(t, 1, clone.Site["x"])
	assert.Equal(t, "shop", clone.Site["name"])
	assert.Equal(t, "https://shop.test", clone.Site["url"])
	assert.NotContains(t, ctx.Site, "x")
}

func TestExecutionContext_ClonePatchWins(t *testing.T) {
	ctx := newTestContext(clockwork.NewFakeClock())
	ctx.Outputs["title"] = "old"

	clone := ctx.Clone(ContextPatch{
		Outputs:  map[string]any{"title": "new", "price": "10"},
		Workflow: map[string]any{"vars": map[string]any{"term": "patched"}},
	})

	assert.Equal(t, "new", clone.Outputs["title"])
	assert.Equal(t, "10", clone.Outputs["price"])
	assert.Equal(t, "old", ctx.Outputs["title"])
	assert.Equal(t, "daily", clone.Workflow["name"])
	assert.Equal(t, map[string]any{"term": "patched"}, clone.Vars)
}

func TestExecutionContext_CloneRefreshesNow(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC))
	ctx := newTestContext(clock)

	clock.Advance(24 * time.Hour)
	clone := ctx.Clone(ContextPatch{})

	assert.Equal(t, "2024-03-05", ctx.Now["date"])
	assert.Equal(t, "2024-03-06", clone.Now["date"])
}

func TestExecutionContext_Layer(t *testing.T) {
	ctx := newTestContext(clockwork.NewFakeClock())
	ctx = ctx.WithRun(RunState{ID: "run-1", StartedAt: "x", CurrentStepIndex: 2})

	run, ok := ctx.Layer("run")
	require.True(t, ok)
	assert.Equal(t, 2, run.(map[string]any)["currentStepIndex"])

	_, ok = ctx.Layer("unknown")
	assert.False(t, ok)
}

func TestExecutionContext_ZeroValueClone(t *testing.T) {
	var ctx ExecutionContext

	clone := ctx.Clone(ContextPatch{Site: map[string]any{"name": "a"}})
	assert.Equal(t, "a", clone.Site["name"])
	assert.NotNil(t, clone.Now)
}

func TestNowFields(t *testing.T) {
	instant := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	fields := NowFields(instant)

	assert.Equal(t, "2024-01-02T03:04:05.006Z", fields["iso"])
	assert.Equal(t, "2024-01-02", fields["date"])
	assert.Equal(t, instant.UnixMilli(), fields["timestamp"])
	assert.Equal(t, instant.Unix(), fields["unix"])
}

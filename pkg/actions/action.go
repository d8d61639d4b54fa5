// Package actions decodes workflow steps into typed browser actions and runs them.
package actions

import (
	"context"
	"log/slog"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/jonboulle/clockwork"
)

// Runtime is what an action can see besides the page.
type Runtime struct {
	Run       models.RunState
	TimeoutMs float64
	FS        persistence.FileSystem
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

// Action is one decoded step. Implementations are the closed set built by NewRegistry.
type Action interface {
	Name() string
	Execute(ctx context.Context, page browser.Page, rt Runtime) (map[string]string, error)
}

// Factory decodes a resolved step into an Action.
type Factory func(step models.Step) (Action, error)

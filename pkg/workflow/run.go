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
	"github.com/dukex/clawtomations/pkg/events"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/otelhelper"
	"github.com/dukex/clawtomations/pkg/template"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// run is the state shared by the sites of one RunWorkflow call.
type run struct {
	engine            *Engine
	id                string
	loaded            *LoadedWorkflow
	dir               string
	settings          models.Settings
	browser           browser.Browser
	resolver          *template.Resolver
	base              *models.ExecutionContext
	logger            *slog.Logger
	continueOnFailure bool
}

// runSites runs the sites and returns the results of those that ran, in source order.
// The returned error is non-nil when the run stopped before every site was attempted.
func (r *run) runSites(ctx context.Context, sites []*models.Site, concurrency int) ([]*models.SiteResult, error) {
	results := make([]*models.SiteResult, len(sites))

	var abortErr error

	if concurrency <= 1 {
		for i, site := range sites {
			if err := ctx.Err(); err != nil {
				abortErr = &RunAbortedError{RunID: r.id, Err: err}

				break
			}

			result, err := r.runSite(ctx, i, site)
			results[i] = result

			if err != nil && !r.continueOnFailure {
				abortErr = &RunAbortedError{RunID: r.id, Site: result.Name, Err: err}

				break
			}
		}

		return compact(results), abortErr
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.SetLimit(concurrency)

	for i, site := range sites {
		mu.Lock()
		stop := abortErr != nil
		mu.Unlock()

		if stop {
			break
		}

		if err := ctx.Err(); err != nil {
			mu.Lock()
			abortErr = &RunAbortedError{RunID: r.id, Err: err}
			mu.Unlock()

			break
		}

		g.Go(func() error {
			// A slot may free up only after another site aborted the run.
			mu.Lock()
			stop := abortErr != nil
			mu.Unlock()

			if stop {
				return nil
			}

			result, err := r.runSite(ctx, i, site)

			mu.Lock()
			defer mu.Unlock()

			results[i] = result
			if err != nil && !r.continueOnFailure && abortErr == nil {
				abortErr = &RunAbortedError{RunID: r.id, Site: result.Name, Err: err}
			}

			return nil
		})
	}

	_ = g.Wait()

	return compact(results), abortErr
}

// runSite runs one site to completion and persists its outputs.json. The returned error is
// the failure recorded on the result, if any.
func (r *run) runSite(ctx context.Context, index int, site *models.Site) (*models.SiteResult, error) {
	name := site.DisplayName(index)
	result := models.NewSiteResult(r.id, name, filepath.Join(r.dir, Sanitize(name)))
	logger := r.logger.With("site", name, "site_index", index)

	ctx, span := otelhelper.StartSpan(ctx, r.engine.tracer, "workflow.site",
		attribute.String(otelhelper.RunIDKey, r.id),
		attribute.String(otelhelper.SiteNameKey, name),
		attribute.Int(otelhelper.SiteIndexKey, index),
	)
	defer span.End()

	logger.Info("Running site")

	err := r.executeSite(ctx, index, site, result, logger)
	if err != nil {
		result.Fail(stepError(err))
		otelhelper.SetError(span, err, attribute.String(otelhelper.SiteNameKey, name))
		logger.Error("Site failed", "error", err)
	} else {
		result.Status = models.SiteStatusSuccess
		logger.Info("Site completed", "outputs", result.Outputs.Len())
	}

	span.SetAttributes(attribute.String(otelhelper.SiteStatusKey, string(result.Status)))

	if _, saveErr := r.engine.artifacts.SaveSiteResult(context.WithoutCancel(ctx), result); saveErr != nil {
		logger.Error("Failed to write site outputs", "error", saveErr)
	}

	completed := events.SiteCompleted{
		BaseEvent: events.NewBaseEvent(events.SiteCompletedEvent, r.id),
		Site:      name,
		Index:     index,
		Status:    string(result.Status),
		OutputDir: result.OutputDir,
		Outputs:   result.Outputs.Len(),
	}
	for _, stepErr := range result.Errors {
		completed.Errors = append(completed.Errors, stepErr.Message)
	}

	r.engine.publish(ctx, r.id, completed)

	return result, err
}

func (r *run) executeSite(ctx context.Context, index int, site *models.Site, result *models.SiteResult, logger *slog.Logger) error {
	fs := r.engine.fs
	result.Status = models.SiteStatusRunning

	if err := fs.EnsureDir(result.OutputDir); err != nil {
		return fmt.Errorf("failed to create site output directory %s: %w", result.OutputDir, err)
	}

	statePath := ""
	if site.AuthState != "" {
		statePath = r.loaded.ResolvePath(site.AuthState)
	}

	authAvailable := false
	if statePath != "" {
		exists, err := fs.Exists(statePath)
		if err != nil {
			return fmt.Errorf("failed to check auth state %s: %w", statePath, err)
		}

		authAvailable = exists
	}

	if site.RequiresLogin && !authAvailable {
		return &MissingAuthStateError{Site: result.Name, Path: statePath}
	}

	opts := browser.ContextOptions{}
	if vp := r.settings.Viewport; vp != nil {
		opts.Viewport = &browser.Viewport{Width: vp.Width, Height: vp.Height}
	}

	if authAvailable {
		opts.StorageStatePath = statePath
	}

	bctx, err := r.browser.NewContext(opts)
	if err != nil {
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	defer closeWithLog(logger, "browser context", bctx.Close)

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer closeWithLog(logger, "page", page.Close)

	runState := models.RunState{
		ID:                r.id,
		StartedAt:         r.engine.clock.Now().UTC().Format(time.RFC3339Nano),
		SiteOutputDir:     result.OutputDir,
		WorkflowOutputDir: r.dir,
	}
	siteCtx := r.base.Clone(models.ContextPatch{Site: site.Fields(index)}).WithRun(runState)

	for i, step := range r.loaded.Workflow.StepsFor(site) {
		if err := r.executeStep(ctx, page, i+1, step, siteCtx, result); err != nil {
			return err
		}
	}

	return nil
}

// executeStep renders one step against the outputs gathered so far, runs it, and merges
// what it produced into result.
func (r *run) executeStep(ctx context.Context, page browser.Page, stepIndex int, step models.Step, siteCtx *models.ExecutionContext, result *models.SiteResult) error {
	ctx, span := otelhelper.StartSpan(ctx, r.engine.tracer, "workflow.step",
		attribute.Int(otelhelper.StepIndexKey, stepIndex),
		attribute.String(otelhelper.StepActionKey, step.Action()),
	)
	defer span.End()

	stepRun := siteCtx.Run
	stepRun.CurrentStepIndex = stepIndex

	stepRun.TimeoutMs = step.TimeoutMs()
	if stepRun.TimeoutMs <= 0 {
		stepRun.TimeoutMs = r.settings.StepTimeoutMs()
	}

	stepCtx := siteCtx.Clone(models.ContextPatch{Outputs: result.Outputs.ToMap()}).WithRun(stepRun)

	rendered, err := r.resolver.RenderStep(step, stepCtx)
	if err != nil {
		err = &stepFailure{Index: stepIndex, Action: step.Action(), Err: err}
		otelhelper.SetError(span, err)

		return err
	}

	produced, err := r.engine.executor.Execute(ctx, page, rendered, stepCtx)
	if err != nil {
		otelhelper.SetError(span, err)

		if !actions.IsStepExecution(err) {
			return &stepFailure{Index: stepIndex, Action: step.Action(), Err: err}
		}

		return err
	}

	result.Outputs.Merge(produced)

	return nil
}

func compact(results []*models.SiteResult) []*models.SiteResult {
	out := make([]*models.SiteResult, 0, len(results))

	for _, result := range results {
		if result != nil {
			out = append(out, result)
		}
	}

	return out
}

func closeWithLog(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("Failed to close "+what, "error", err)
	}
}

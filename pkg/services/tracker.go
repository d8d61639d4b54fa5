package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dukex/clawtomations/pkg/eventbus"
	"github.com/dukex/clawtomations/pkg/events"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/jonboulle/clockwork"
)

// RunSummary is the control panel's view of one run.
type RunSummary struct {
	RunID          string           `json:"runId"`
	Workflow       string           `json:"workflow,omitempty"`
	Status         models.RunStatus `json:"status"`
	StartedAt      time.Time        `json:"startedAt"`
	FinishedAt     *time.Time       `json:"finishedAt,omitempty"`
	ReportPath     string           `json:"reportPath,omitempty"`
	Sites          int              `json:"sites"`
	CompletedSites int              `json:"completedSites"`
	FailedSites    int              `json:"failedSites"`
	Error          string           `json:"error,omitempty"`
}

// SummaryFromReport summarizes a persisted run report.
func SummaryFromReport(report *models.RunReport) RunSummary {
	finishedAt := report.FinishedAt

	summary := RunSummary{
		RunID:          report.RunID,
		Workflow:       report.Workflow,
		Status:         report.Status,
		StartedAt:      report.StartedAt,
		FinishedAt:     &finishedAt,
		Sites:          len(report.Results),
		CompletedSites: len(report.Results),
	}

	for _, result := range report.Results {
		if result.Failed() {
			summary.FailedSites++
		}
	}

	return summary
}

// Tracker keeps the live state of runs started by this process. It is fed by run lifecycle
// events, so it also sees runs started by other publishers on the same bus.
type Tracker struct {
	mu    sync.RWMutex
	runs  map[string]*RunSummary
	clock clockwork.Clock
}

func NewTracker(clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Tracker{runs: map[string]*RunSummary{}, clock: clock}
}

// Register subscribes the tracker to run lifecycle events.
func (t *Tracker) Register(subscriber eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.RunStartedEvent:    t.handleRunStarted,
		events.SiteCompletedEvent: t.handleSiteCompleted,
		events.RunCompletedEvent:  t.handleRunCompleted,
	}

	for eventType, handler := range handlers {
		if err := subscriber.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	return nil
}

// Begin records a run that was accepted but may not have started yet.
func (t *Tracker) Begin(runID, workflow string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entry(runID).Workflow = workflow
}

// Fail marks a run failed. Used when the engine returns before publishing completion.
func (t *Tracker) Fail(runID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.entry(runID)
	run.Status = models.RunStatusFailed
	run.Error = err.Error()

	if run.FinishedAt == nil {
		now := t.clock.Now().UTC()
		run.FinishedAt = &now
	}
}

// Complete records the outcome of a run from its report.
func (t *Tracker) Complete(runID string, report *models.RunReport, reportPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.entry(runID)
	run.Status = report.Status
	run.Workflow = report.Workflow
	run.ReportPath = reportPath
	run.Sites = max(run.Sites, len(report.Results))
	run.CompletedSites = len(report.Results)
	run.FailedSites = 0

	for _, result := range report.Results {
		if result.Failed() {
			run.FailedSites++
		}
	}

	finishedAt := report.FinishedAt
	run.FinishedAt = &finishedAt
}

func (t *Tracker) Get(runID string) (RunSummary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[runID]
	if !ok {
		return RunSummary{}, false
	}

	return *run, true
}

// List returns tracked runs, newest first.
func (t *Tracker) List() []RunSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	runs := make([]RunSummary, 0, len(t.runs))
	for _, run := range t.runs {
		runs = append(runs, *run)
	}

	sortNewestFirst(runs)

	return runs
}

// entry returns the summary for runID, creating it. Callers hold the lock.
func (t *Tracker) entry(runID string) *RunSummary {
	run, ok := t.runs[runID]
	if !ok {
		run = &RunSummary{RunID: runID, Status: models.RunStatusRunning, StartedAt: t.clock.Now().UTC()}
		t.runs[runID] = run
	}

	return run
}

func (t *Tracker) handleRunStarted(_ context.Context, event any) error {
	started, ok := event.(*events.RunStarted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.entry(started.RunID)
	run.Workflow = started.Workflow
	run.Sites = started.SiteCount
	run.StartedAt = started.Timestamp

	return nil
}

func (t *Tracker) handleSiteCompleted(_ context.Context, event any) error {
	completed, ok := event.(*events.SiteCompleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.entry(completed.RunID)
	run.CompletedSites++

	if completed.Status == string(models.SiteStatusFailed) {
		run.FailedSites++
	}

	return nil
}

func (t *Tracker) handleRunCompleted(_ context.Context, event any) error {
	completed, ok := event.(*events.RunCompleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.entry(completed.RunID)
	run.Status = models.RunStatus(completed.Status)
	run.ReportPath = completed.ReportPath
	run.Error = completed.Error

	finishedAt := completed.Timestamp
	run.FinishedAt = &finishedAt

	return nil
}

func sortNewestFirst(runs []RunSummary) {
	slices.SortFunc(runs, func(a, b RunSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
}

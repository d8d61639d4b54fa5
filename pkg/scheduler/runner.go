package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/robfig/cron/v3"
)

// RunFunc runs one scheduled workflow.
type RunFunc func(ctx context.Context, workflowPath string) error

// Runner fires a DailySchedule in-process with robfig/cron.
type Runner struct {
	schedule *models.DailySchedule
	run      RunFunc
	cron     *cron.Cron
	ctx      context.Context
	logger   *slog.Logger
}

func NewRunner(schedule *models.DailySchedule, run RunFunc, logger *slog.Logger) *Runner {
	return &Runner{
		schedule: schedule,
		run:      run,
		logger: logger.With(
			"module", "daily_scheduler",
			"workflow", schedule.WorkflowPath,
			"cron", schedule.CronExpression,
		),
	}
}

// Start schedules the job. Runs triggered later use ctx.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info("Starting daily scheduler", "time", r.schedule.Clock())

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn))

	r.ctx = ctx
	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))

	if _, err := r.cron.AddFunc(r.schedule.CronExpression, r.fire); err != nil {
		return fmt.Errorf("failed to add cron job for %s: %w", r.schedule.WorkflowPath, err)
	}

	r.cron.Start()

	return nil
}

// Next returns the next time the job fires, or the zero time before Start.
func (r *Runner) Next() time.Time {
	if r.cron == nil {
		return time.Time{}
	}

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	return entries[0].Next
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (r *Runner) Stop(ctx context.Context) error {
	r.logger.Info("Stopping daily scheduler")

	if r.cron == nil {
		return nil
	}

	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) fire() {
	r.logger.Info("Scheduled run triggered")

	if err := r.run(r.ctx, r.schedule.WorkflowPath); err != nil {
		r.logger.Error("Scheduled run failed", "error", err)

		return
	}

	r.logger.Info("Scheduled run finished")
}

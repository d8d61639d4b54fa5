package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dukex/clawtomations/pkg/cmd"
	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/dukex/clawtomations/pkg/scheduler"
	"github.com/dukex/clawtomations/pkg/shell"
	"github.com/dukex/clawtomations/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const stopTimeout = 30 * time.Second

func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run a workflow every day at a fixed time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   "Path to the workflow YAML file",
				Value:   defaultWorkflow,
			},
			&cli.StringFlag{
				Name:  "time",
				Usage: "Local time of day as HH:MM",
				Value: "09:00",
			},
			&cli.BoolFlag{
				Name:  "install",
				Usage: "Load the launchd agent after writing it",
			},
			&cli.BoolFlag{
				Name:  "foreground",
				Usage: "Stay running and trigger the workflow from this process",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowPath, err := filepath.Abs(command.String("workflow"))
			if err != nil {
				return err
			}

			schedule, err := models.NewDailySchedule(workflowPath, command.String("time"), time.Now())
			if err != nil {
				return err
			}

			if command.Bool("foreground") {
				return runForeground(ctx, command, schedule)
			}

			return writeLaunchdJob(ctx, command, schedule)
		},
	}
}

func describeSchedule(schedule *models.DailySchedule) string {
	return fmt.Sprintf("daily at %s, next run %s", schedule.Clock(), schedule.NextDueAt.Format(time.RFC3339))
}

func writeLaunchdJob(ctx context.Context, command *cli.Command, schedule *models.DailySchedule) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to locate home directory: %w", err)
	}

	job := scheduler.NewLaunchdJob(schedule, scheduler.RunCommand(executable, schedule.WorkflowPath), home)
	if err := job.Write(persistence.OSFileSystem{}); err != nil {
		return err
	}

	out := command.Root().Writer
	fmt.Fprintf(out, "Wrote %s (%s)\n", job.PlistPath, describeSchedule(schedule))

	if !command.Bool("install") {
		fmt.Fprintf(out, "Load it with: launchctl bootstrap gui/%d %s\n", os.Getuid(), job.PlistPath)

		return nil
	}

	if err := job.Install(ctx, shell.NewExecRunner()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Installed %s\n", job.Label)

	return nil
}

func runForeground(ctx context.Context, command *cli.Command, schedule *models.DailySchedule) error {
	logger := log.WithModule("schedule")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdown, err := cmd.NewTracer(ctx, command.Bool("otel"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
		}
	}()

	engine := cmd.NewEngine(log.WithModule("workflow_engine"), tracer, nil)

	runner := scheduler.NewRunner(schedule, func(ctx context.Context, workflowPath string) error {
		result, err := engine.RunWorkflow(ctx, workflow.RunOptions{
			WorkflowPath: workflowPath,
			Extra:        map[string]any{"trigger": "schedule"},
		})
		if result != nil {
			printRunResult(command.Root().Writer, result)
		}

		return err
	}, logger)

	if err := runner.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(command.Root().Writer, "Next run at %s\n", runner.Next().Format(time.RFC3339))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	return runner.Stop(stopCtx)
}

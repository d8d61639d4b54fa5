package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dukex/clawtomations/pkg/cmd"
	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/services"
	"github.com/jonboulle/clockwork"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8787

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the control panel",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the control panel on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "workflows-dir",
				Usage:   "Directory that workflow paths in requests resolve against",
				Value:   ".",
				Sources: cli.EnvVars("CLAWTOMATIONS_WORKFLOWS_DIR"),
			},
			&cli.StringFlag{
				Name:    "output",
				Usage:   "Output root for runs and run history",
				Value:   "outputs",
				Sources: cli.EnvVars("CLAWTOMATIONS_OUTPUT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing control panel")

			outputDir, err := filepath.Abs(command.String("output"))
			if err != nil {
				return err
			}

			persistence := cmd.NewPersistence(outputDir)
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus("memory", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			tracker := services.NewTracker(clockwork.NewRealClock())
			if err := tracker.Register(eventBus); err != nil {
				return fmt.Errorf("failed to register run tracker: %w", err)
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return fmt.Errorf("failed to subscribe to run events: %w", err)
			}

			tracer, shutdown, err := cmd.NewTracer(ctx, command.Bool("otel"))
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
				}
			}()

			engine := cmd.NewEngine(log.WithModule("workflow_engine"), tracer, eventBus)

			runs := services.NewRuns(engine, persistence, tracker, command.String("workflows-dir")).
				WithDefaultOutputDir(outputDir)
			defer runs.Wait()

			api := NewAPI(logger, runs)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Control panel stopped", "error", err)

				return err
			}

			return nil
		},
	}
}

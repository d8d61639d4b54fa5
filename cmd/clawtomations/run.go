package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dukex/clawtomations/pkg/cmd"
	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/openclaw"
	"github.com/dukex/clawtomations/pkg/shell"
	"github.com/dukex/clawtomations/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a workflow against every configured site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   "Path to the workflow YAML file",
				Value:   defaultWorkflow,
				Sources: cli.EnvVars("CLAWTOMATIONS_WORKFLOW"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output root, overrides settings.outputDir",
				Sources: cli.EnvVars("CLAWTOMATIONS_OUTPUT"),
			},
			&cli.BoolFlag{
				Name:    "headless",
				Usage:   "Run the browser without a window, overrides settings.headless",
				Sources: cli.EnvVars("CLAWTOMATIONS_HEADLESS"),
			},
			&cli.BoolFlag{
				Name:    "continue-on-failure",
				Usage:   "Keep running the remaining sites after a failure",
				Sources: cli.EnvVars("CLAWTOMATIONS_CONTINUE_ON_FAILURE"),
			},
			&cli.BoolFlag{
				Name:    "stop-on-failure",
				Usage:   "Stop at the first failed site",
				Sources: cli.EnvVars("CLAWTOMATIONS_STOP_ON_FAILURE"),
			},
			&cli.BoolFlag{
				Name:    "strict",
				Usage:   "Fail steps that reference unknown template tokens",
				Sources: cli.EnvVars("CLAWTOMATIONS_STRICT"),
			},
			&cli.BoolFlag{
				Name:  "openclaw",
				Usage: "Print the openclaw command for this workflow instead of running it",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowPath, err := filepath.Abs(command.String("workflow"))
			if err != nil {
				return err
			}

			out := command.Root().Writer

			if command.Bool("openclaw") {
				return printOpenClawMetadata(ctx, out, workflowPath, command.String("output"))
			}

			logger := log.WithModule("run")

			tracer, shutdown, err := cmd.NewTracer(ctx, command.Bool("otel"))
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
				}
			}()

			engine := cmd.NewEngine(logger, tracer, nil)

			opts := workflow.RunOptions{
				WorkflowPath:  workflowPath,
				OutputDir:     command.String("output"),
				StopOnFailure: command.Bool("stop-on-failure"),
				Strict:        command.Bool("strict"),
				Extra:         map[string]any{"workflow": command.String("workflow"), "trigger": "cli"},
			}

			if command.IsSet("headless") {
				headless := command.Bool("headless")
				opts.Headless = &headless
			}

			if command.IsSet("continue-on-failure") {
				continueOnFailure := command.Bool("continue-on-failure")
				opts.ContinueOnFailure = &continueOnFailure
			}

			result, err := engine.RunWorkflow(ctx, opts)
			if result != nil {
				printRunResult(out, result)
			}

			return err
		},
	}
}

func printRunResult(out io.Writer, result *workflow.RunResult) {
	status := models.RunStatusFailed
	if result.Report != nil {
		status = result.Report.Status
	}

	fmt.Fprintf(out, "Run complete: %s\n", status)
	fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(out, "Report: %s\n", result.ReportPath)
}

func printOpenClawMetadata(ctx context.Context, out io.Writer, workflowPath, output string) error {
	req, err := openClawRequest(workflowPath, output)
	if err != nil {
		return err
	}

	adapter := openclaw.NewAdapter(shell.NewExecRunner(), models.OSEnvironment{})

	meta, err := adapter.Metadata(ctx, req)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(out, string(data))

	return nil
}

func openClawRequest(workflowPath, output string) (openclaw.Request, error) {
	loaded, err := workflow.LoadWorkflow(workflowPath)
	if err != nil {
		return openclaw.Request{}, err
	}

	if output == "" {
		output = "outputs"
	}

	outputPath, err := filepath.Abs(output)
	if err != nil {
		return openclaw.Request{}, err
	}

	return openclaw.Request{
		WorkflowPath: loaded.AbsPath,
		OutputPath:   outputPath,
		Workflow:     loaded.Workflow,
	}, nil
}

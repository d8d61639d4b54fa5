package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/openclaw"
	"github.com/dukex/clawtomations/pkg/shell"
	cli "github.com/urfave/cli/v3"
)

func NewOpenClawCommand() *cli.Command {
	return &cli.Command{
		Name:  "openclaw",
		Usage: "Print or execute the openclaw command for a workflow",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   "Path to the workflow YAML file",
				Value:   defaultWorkflow,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output root handed to openclaw",
				Value: "outputs",
			},
			&cli.BoolFlag{
				Name:  "exec",
				Usage: "Execute the command instead of printing it",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowPath, err := filepath.Abs(command.String("workflow"))
			if err != nil {
				return err
			}

			out := command.Root().Writer

			if !command.Bool("exec") {
				return printOpenClawMetadata(ctx, out, workflowPath, command.String("output"))
			}

			req, err := openClawRequest(workflowPath, command.String("output"))
			if err != nil {
				return err
			}

			adapter := openclaw.NewAdapter(shell.NewExecRunner(), models.OSEnvironment{})

			result, err := adapter.Exec(ctx, req)
			if result != nil {
				fmt.Fprintf(out, "openclaw exited with code %d\n", result.ExitCode)
			}

			return err
		},
	}
}

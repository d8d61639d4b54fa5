// Command clawtomations runs YAML browser workflows, captures login sessions and serves the control panel.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/clawtomations/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultWorkflow = "workflows/sample-workflow.yaml"

func main() {
	command := &cli.Command{
		Name:                  "clawtomations",
		Usage:                 "Run browser automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("CLAWTOMATIONS_OTEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewCaptureCommand(),
			NewServeCommand(),
			NewScheduleCommand(),
			NewOpenClawCommand(),
			NewValidateCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

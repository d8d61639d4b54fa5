package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/clawtomations/pkg/cmd"
	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func NewCaptureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Open a browser, log in by hand and save the session for later runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "site",
				Aliases: []string{"alias"},
				Usage:   "Name used for the saved session file",
				Value:   "default",
			},
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Login page to open",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Session file name under auth/, or an absolute path",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("capture")

			baseDir, err := os.Getwd()
			if err != nil {
				return err
			}

			engine := cmd.NewEngine(logger, nil, nil)

			result, err := engine.CaptureSession(ctx, workflow.CaptureOptions{
				Alias:   command.String("site"),
				URL:     command.String("url"),
				Output:  command.String("output"),
				BaseDir: baseDir,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(command.Root().Writer, "Saved session for %s to %s\n", result.Alias, result.AuthState)

			return nil
		},
	}
}

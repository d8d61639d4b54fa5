package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dukex/clawtomations/pkg/actions"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

var errUnknownActions = errors.New("workflow uses unknown actions")

// unknownAction is a step whose action has no registered implementation.
type unknownAction struct {
	Site   string
	Step   int
	Action string
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check a workflow file without running it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   "Path to the workflow YAML file",
				Value:   defaultWorkflow,
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail when a step uses an unknown action",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			return validateWorkflow(command.Root().Writer, command.String("workflow"), command.Bool("strict"))
		},
	}
}

func validateWorkflow(out io.Writer, path string, strict bool) error {
	loaded, err := workflow.LoadWorkflow(path)
	if err != nil {
		return err
	}

	unknown := findUnknownActions(loaded, actions.NewRegistry())

	for _, u := range unknown {
		fmt.Fprintf(out, "%s step %d: unknown action %q\n", u.Site, u.Step, u.Action)
	}

	if len(unknown) > 0 && strict {
		return fmt.Errorf("%w: %d step(s)", errUnknownActions, len(unknown))
	}

	fmt.Fprintf(out, "%s is valid: %d site(s)\n", loaded.AbsPath, len(loaded.Workflow.Sites))

	return nil
}

func findUnknownActions(loaded *workflow.LoadedWorkflow, registry *actions.Registry) []unknownAction {
	wf := loaded.Workflow
	offset := len(wf.Defaults.Steps)

	unknown := unknownIn("defaults", wf.Defaults.Steps, 0, registry)

	for i, site := range wf.Sites {
		unknown = append(unknown, unknownIn(site.DisplayName(i), site.Steps, offset, registry)...)
	}

	return unknown
}

// unknownIn checks steps numbered from offset+1. Templated actions are only known at run time.
func unknownIn(scope string, steps []models.Step, offset int, registry *actions.Registry) []unknownAction {
	var unknown []unknownAction

	for j, step := range steps {
		action := step.Action()
		if registry.Supports(action) || strings.Contains(action, "{{") {
			continue
		}

		unknown = append(unknown, unknownAction{
			Site:   scope,
			Step:   offset + j + 1,
			Action: action,
		})
	}

	return unknown
}

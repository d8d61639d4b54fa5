// Package openclaw hands workflows to the external openclaw CLI instead of running them locally.
package openclaw

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukex/clawtomations/pkg/log"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/shell"
	"github.com/dukex/clawtomations/pkg/template"
)

const (
	DefaultBinary = "openclaw"
	EnvCommand    = "CLAWTOMATIONS_OPENCLAW_COMMAND"
	EnvBinary     = "CLAWTOMATIONS_OPENCLAW_BIN"
)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// Version is the parsed output of `openclaw --version`. Major is -1 when unknown.
type Version struct {
	Major int
	Raw   string
}

func ParseVersion(raw string) Version {
	raw = strings.TrimSpace(raw)

	match := versionPattern.FindStringSubmatch(raw)
	if match == nil {
		return Version{Major: -1, Raw: raw}
	}

	major, err := strconv.Atoi(match[1])
	if err != nil {
		return Version{Major: -1, Raw: raw}
	}

	return Version{Major: major, Raw: raw}
}

type Request struct {
	WorkflowPath string
	OutputPath   string
	Workflow     *models.Workflow
}

// Metadata describes the command without running it.
type Metadata struct {
	Adapter string `json:"adapter"`
	Command string `json:"command"`
}

type ExecResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exitCode"`
}

type Adapter struct {
	runner   shell.Runner
	env      models.Environment
	resolver *template.Resolver
	logger   *slog.Logger
}

func NewAdapter(runner shell.Runner, env models.Environment) *Adapter {
	return &Adapter{
		runner:   runner,
		env:      env,
		resolver: template.NewResolver(template.WithEnvironment(env)),
		logger:   log.WithModule("openclaw"),
	}
}

// Binary returns the openclaw executable, honouring CLAWTOMATIONS_OPENCLAW_BIN.
func (a *Adapter) Binary() string {
	if bin, ok := a.env.Lookup(EnvBinary); ok && bin != "" {
		return bin
	}

	return DefaultBinary
}

// DetectVersion never fails; an unusable binary yields an unknown version.
func (a *Adapter) DetectVersion(ctx context.Context, bin string) Version {
	out, err := a.runner.Output(ctx, bin, "--version")
	if err != nil {
		a.logger.Debug("Could not detect openclaw version", "binary", bin, "error", err)

		return Version{Major: -1}
	}

	return ParseVersion(out)
}

// Command renders the shell command that runs the request through openclaw.
func (a *Adapter) Command(ctx context.Context, req Request) (string, error) {
	tmpl := a.commandTemplate(ctx, req.Workflow)

	label := "run"
	if req.Workflow != nil && req.Workflow.Name != "" {
		label = req.Workflow.Name
	}

	execCtx := models.NewExecutionContext(models.ContextParams{
		Workflow: map[string]any{
			"path":   req.WorkflowPath,
			"output": req.OutputPath,
			"label":  label,
		},
		Env: a.env,
	})

	command, err := a.resolver.Render(tmpl, execCtx)
	if err != nil {
		return "", fmt.Errorf("failed to render openclaw command: %w", err)
	}

	return command, nil
}

func (a *Adapter) Metadata(ctx context.Context, req Request) (*Metadata, error) {
	command, err := a.Command(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Metadata{Adapter: "openclaw", Command: command}, nil
}

// Exec runs the rendered command through the shell with the terminal attached.
func (a *Adapter) Exec(ctx context.Context, req Request) (*ExecResult, error) {
	command, err := a.Command(ctx, req)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Running workflow through openclaw", "command", command)

	name, args := shell.Command(command)

	code, err := a.runner.Run(ctx, name, args...)
	result := &ExecResult{Command: command, ExitCode: code}
	if err != nil {
		return result, fmt.Errorf("openclaw command failed: %w", err)
	}

	return result, nil
}

func (a *Adapter) commandTemplate(ctx context.Context, wf *models.Workflow) string {
	if wf != nil && wf.OpenClaw != nil {
		if wf.OpenClaw.Command != "" {
			return wf.OpenClaw.Command
		}

		if wf.OpenClaw.Template != "" {
			return wf.OpenClaw.Template
		}
	}

	if tmpl, ok := a.env.Lookup(EnvCommand); ok && tmpl != "" {
		return tmpl
	}

	bin := a.Binary()
	if a.DetectVersion(ctx, bin).Major >= 2 {
		return bin + " agent run --workflow {{workflow.path}} --output {{workflow.output}} --name clawtomations"
	}

	return bin + " run --workflow {{workflow.path}} --output {{workflow.output}}"
}

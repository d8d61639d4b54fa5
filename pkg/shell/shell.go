// Package shell runs external commands for the scheduler and the openclaw adapter.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external programs.
type Runner interface {
	// Output runs a program and returns its trimmed standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Run runs a program attached to the runner's output streams and returns its exit code.
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output() // #nosec G204 -- commands are configured by the operator
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", name, err)
	}

	return strings.TrimSpace(string(out)), nil
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- commands are configured by the operator
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), fmt.Errorf("%s exited with code %d: %w", name, exitErr.ExitCode(), err)
	}

	return -1, fmt.Errorf("failed to run %s: %w", name, err)
}

// Command returns the program and arguments that run command through the POSIX shell.
func Command(command string) (string, []string) {
	return "/bin/sh", []string{"-c", command}
}

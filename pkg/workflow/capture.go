package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dukex/clawtomations/pkg/actions"
	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/template"
	"github.com/go-playground/validator/v10"
)

const AuthDirName = "auth"

// Prompter blocks until the operator confirms they are done in the browser.
type Prompter interface {
	Confirm(ctx context.Context, message string) error
}

// LinePrompter writes a message and waits for a line on its input.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// NewStdinPrompter prompts on the terminal.
func NewStdinPrompter() *LinePrompter {
	return NewPrompter(os.Stdin, os.Stdout)
}

// Confirm returns once a line (or end of input) is read, or when ctx is done.
func (p *LinePrompter) Confirm(ctx context.Context, message string) error {
	if _, err := fmt.Fprint(p.out, message); err != nil {
		return err
	}

	done := make(chan error, 1)

	go func() {
		_, err := p.in.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}

		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

type CaptureOptions struct {
	Alias string `validate:"required"`
	URL   string `validate:"required"`
	// Output is the session file name. Relative names resolve under <BaseDir>/auth.
	Output string
	// BaseDir defaults to the working directory.
	BaseDir string
}

type CaptureResult struct {
	Alias     string    `json:"alias"`
	AuthState string    `json:"authState"`
	StartedAt time.Time `json:"startedAt"`
}

// CaptureSession opens a visible browser at the URL, waits for the operator to log in and
// confirm, then saves the context's storage state so workflows can reuse it as authState.
func (e *Engine) CaptureSession(ctx context.Context, opts CaptureOptions) (*CaptureResult, error) {
	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCapture, err)
	}

	startedAt := e.clock.Now().UTC()

	resolver := template.NewResolver(template.WithClock(e.clock), template.WithEnvironment(e.env))

	url, err := resolver.Render(opts.URL, models.NewExecutionContext(models.ContextParams{Clock: e.clock, Env: e.env}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCapture, err)
	}

	outPath, err := sessionPath(opts)
	if err != nil {
		return nil, err
	}

	if err := e.fs.EnsureDir(filepath.Dir(outPath)); err != nil {
		return nil, fmt.Errorf("failed to create auth directory: %w", err)
	}

	logger := e.logger.With("alias", opts.Alias, "url", url)

	proc, err := e.driver.Launch(ctx, browser.LaunchOptions{Headless: false})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
	}
	defer closeWithLog(logger, "browser", proc.Close)

	bctx, err := proc.NewContext(browser.ContextOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	defer closeWithLog(logger, "browser context", bctx.Close)

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer closeWithLog(logger, "page", page.Close)

	if err := page.Goto(url, browser.GotoOptions{WaitUntil: actions.DefaultWaitUntil, Timeout: models.DefaultTimeoutMs}); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	logger.Info("Waiting for login")

	message := fmt.Sprintf("Log in to %s in the opened browser, then press Enter to save the session... ", opts.Alias)
	if err := e.prompter.Confirm(ctx, message); err != nil {
		return nil, err
	}

	if err := bctx.StorageState(outPath); err != nil {
		return nil, fmt.Errorf("failed to save session to %s: %w", outPath, err)
	}

	logger.Info("Saved session", "path", outPath)

	return &CaptureResult{Alias: opts.Alias, AuthState: outPath, StartedAt: startedAt}, nil
}

func sessionPath(opts CaptureOptions) (string, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}

	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	output := opts.Output
	if output == "" {
		output = Sanitize(opts.Alias) + "-session.json"
	}

	if filepath.IsAbs(output) {
		return filepath.Clean(output), nil
	}

	return filepath.Join(baseDir, AuthDirName, output), nil
}

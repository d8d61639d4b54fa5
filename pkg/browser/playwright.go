package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver launches Chromium through playwright-go.
type PlaywrightDriver struct {
	logger  *slog.Logger
	install bool
}

type PlaywrightOption func(*PlaywrightDriver)

// WithInstall downloads the driver and browsers before the first launch.
func WithInstall(install bool) PlaywrightOption {
	return func(d *PlaywrightDriver) {
		d.install = install
	}
}

func NewPlaywrightDriver(logger *slog.Logger, opts ...PlaywrightOption) *PlaywrightDriver {
	d := &PlaywrightDriver{logger: logger, install: true}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if d.install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(opts.SlowMo),
	})
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			d.logger.Error("Failed to stop playwright", "error", stopErr)
		}

		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	d.logger.Debug("Browser launched", "headless", opts.Headless, "version", browser.Version())

	return &playwrightBrowser{pw: pw, browser: browser}, nil
}

type playwrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func (b *playwrightBrowser) NewContext(opts ContextOptions) (BrowserContext, error) {
	contextOpts := playwright.BrowserNewContextOptions{}

	if opts.Viewport != nil {
		contextOpts.Viewport = &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		}
	}

	if opts.StorageStatePath != "" {
		contextOpts.StorageStatePath = playwright.String(opts.StorageStatePath)
	}

	bc, err := b.browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	return &playwrightContext{context: bc}, nil
}

func (b *playwrightBrowser) Close() error {
	return errors.Join(b.browser.Close(), b.pw.Stop())
}

type playwrightContext struct {
	context playwright.BrowserContext
}

func (c *playwrightContext) NewPage() (Page, error) {
	page, err := c.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) StorageState(path string) error {
	if _, err := c.context.StorageState(path); err != nil {
		return fmt.Errorf("failed to save storage state: %w", err)
	}

	return nil
}

func (c *playwrightContext) Close() error {
	return c.context.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func timeoutPtr(timeout float64) *float64 {
	if timeout <= 0 {
		return nil
	}

	return &timeout
}

func (p *playwrightPage) locator(selector string) playwright.Locator {
	return p.page.Locator(selector)
}

func (p *playwrightPage) Goto(url string, opts GotoOptions) error {
	gotoOpts := playwright.PageGotoOptions{Timeout: timeoutPtr(opts.Timeout)}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}

	if _, err := p.page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	return nil
}

func (p *playwrightPage) Click(selector string, timeout float64) error {
	return p.locator(selector).Click(playwright.LocatorClickOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Fill(selector, value string, timeout float64) error {
	return p.locator(selector).Fill(value, playwright.LocatorFillOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Press(selector, key string, timeout float64) error {
	return p.locator(selector).Press(key, playwright.LocatorPressOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Check(selector string, timeout float64) error {
	return p.locator(selector).Check(playwright.LocatorCheckOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Uncheck(selector string, timeout float64) error {
	return p.locator(selector).Uncheck(playwright.LocatorUncheckOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) SelectOption(selector string, values []string, timeout float64) error {
	_, err := p.locator(selector).SelectOption(
		playwright.SelectOptionValues{Values: &values},
		playwright.LocatorSelectOptionOptions{Timeout: timeoutPtr(timeout)},
	)

	return err
}

func (p *playwrightPage) WaitForSelector(selector, state string, timeout float64) error {
	waitState := playwright.WaitForSelectorState(state)

	return p.locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   &waitState,
		Timeout: timeoutPtr(timeout),
	})
}

func (p *playwrightPage) Screenshot(path string, fullPage bool) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})

	return err
}

// readFirst waits for the first match, then reads it. A match that never appears
// within the timeout reads as "".
func readFirst(wait func() error, read func() (string, error)) (string, error) {
	if err := wait(); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return "", nil
		}

		return "", err
	}

	return read()
}

func waitAttached(locator playwright.Locator, timeout float64) func() error {
	return func() error {
		return locator.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: timeoutPtr(timeout),
		})
	}
}

func (p *playwrightPage) Attribute(selector, name string, timeout float64) (string, error) {
	first := p.locator(selector).First()

	return readFirst(waitAttached(first, timeout), func() (string, error) {
		return first.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: timeoutPtr(timeout)})
	})
}

func (p *playwrightPage) Text(selector string, timeout float64) (string, error) {
	first := p.locator(selector).First()

	return readFirst(waitAttached(first, timeout), func() (string, error) {
		return first.TextContent(playwright.LocatorTextContentOptions{Timeout: timeoutPtr(timeout)})
	})
}

func (p *playwrightPage) SetInputFiles(selector string, files []string, timeout float64) error {
	return p.locator(selector).SetInputFiles(files, playwright.LocatorSetInputFilesOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *playwrightPage) Focus(selector string, timeout float64) error {
	return p.locator(selector).Focus(playwright.LocatorFocusOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Hover(selector string, timeout float64) error {
	return p.locator(selector).Hover(playwright.LocatorHoverOptions{Timeout: timeoutPtr(timeout)})
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

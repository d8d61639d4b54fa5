package actions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/models"
)

const (
	DefaultScreenshotKey = "screenshot"
	DefaultCopyKey       = "copied_value"
)

// Screenshot captures the page into the site's output directory.
type Screenshot struct {
	File     string
	FullPage bool
	Key      string
}

func newScreenshot(step models.Step) (Action, error) {
	key := stringField(step, "key")
	if key == "" {
		key = DefaultScreenshotKey
	}

	return &Screenshot{
		File:     stringField(step, "file"),
		FullPage: boolField(step, "fullPage", true),
		Key:      key,
	}, nil
}

func (a *Screenshot) Name() string {
	return "screenshot"
}

func (a *Screenshot) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	file := a.File
	if file == "" {
		file = fmt.Sprintf("screenshot-%d.png", rt.Clock.Now().UnixMilli())
	}

	path, err := filepath.Abs(filepath.Join(rt.Run.SiteOutputDir, file))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve screenshot path: %w", err)
	}

	if err := rt.FS.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	if err := page.Screenshot(path, a.FullPage); err != nil {
		return nil, err
	}

	return map[string]string{a.Key: path}, nil
}

// Copy reads an attribute or the text of the first element matching Selector.
type Copy struct {
	Selector  string
	Attribute string
	Key       string
}

func newCopy(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	key := stringField(step, "key")
	if key == "" {
		key = DefaultCopyKey
	}

	return &Copy{Selector: selector, Attribute: stringField(step, "attribute"), Key: key}, nil
}

func (a *Copy) Name() string {
	return "copy"
}

func (a *Copy) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	var (
		value string
		err   error
	)

	if a.Attribute != "" {
		value, err = page.Attribute(a.Selector, a.Attribute, rt.TimeoutMs)
	} else {
		value, err = page.Text(a.Selector, rt.TimeoutMs)
	}

	if err != nil {
		return nil, err
	}

	return map[string]string{a.Key: strings.TrimSpace(value)}, nil
}

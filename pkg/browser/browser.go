// Package browser abstracts the browser automation driver used to run workflows.
package browser

import "context"

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

type LaunchOptions struct {
	Headless bool
	SlowMo   float64
}

type Viewport struct {
	Width  int
	Height int
}

type ContextOptions struct {
	Viewport *Viewport
	// StorageStatePath seeds cookies and local storage from a persisted session.
	StorageStatePath string
}

type GotoOptions struct {
	WaitUntil string
	Timeout   float64
}

// Driver starts browser processes.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is one browser process. It is shared by the sites of a run.
type Browser interface {
	NewContext(opts ContextOptions) (BrowserContext, error)
	Close() error
}

// BrowserContext is an isolated cookie and storage jar.
type BrowserContext interface {
	NewPage() (Page, error)
	StorageState(path string) error
	Close() error
}

// Page exposes the primitives used by step actions. Timeouts are in milliseconds.
type Page interface {
	Goto(url string, opts GotoOptions) error
	Click(selector string, timeout float64) error
	Fill(selector, value string, timeout float64) error
	Press(selector, key string, timeout float64) error
	Check(selector string, timeout float64) error
	Uncheck(selector string, timeout float64) error
	SelectOption(selector string, values []string, timeout float64) error
	WaitForSelector(selector, state string, timeout float64) error
	Screenshot(path string, fullPage bool) error
	// Attribute waits up to timeout for the first match and returns its attribute,
	// or "" when nothing matches in time.
	Attribute(selector, name string, timeout float64) (string, error)
	// Text is Attribute for the element's text content.
	Text(selector string, timeout float64) (string, error)
	SetInputFiles(selector string, files []string, timeout float64) error
	Evaluate(script string) (any, error)
	Focus(selector string, timeout float64) error
	Hover(selector string, timeout float64) error
	Close() error
}

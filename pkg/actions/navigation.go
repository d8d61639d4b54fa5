package actions

import (
	"context"
	"time"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/models"
)

const (
	DefaultWaitUntil     = "domcontentloaded"
	DefaultSelectorState = "visible"
	DefaultWaitMs        = 1000
)

// Navigate loads a URL. It backs both "navigate" and "open".
type Navigate struct {
	Action    string
	URL       string
	WaitUntil string
}

func newNavigate(step models.Step) (Action, error) {
	url, err := requiredString(step, "url")
	if err != nil {
		return nil, err
	}

	waitUntil := stringField(step, "waitUntil")
	if waitUntil == "" {
		waitUntil = DefaultWaitUntil
	}

	return &Navigate{Action: step.Action(), URL: url, WaitUntil: waitUntil}, nil
}

func (a *Navigate) Name() string {
	return a.Action
}

func (a *Navigate) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.Goto(a.URL, browser.GotoOptions{WaitUntil: a.WaitUntil, Timeout: rt.TimeoutMs})
}

type WaitForSelector struct {
	Selector string
	State    string
}

func newWaitForSelector(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	state := stringField(step, "state")
	if state == "" {
		state = DefaultSelectorState
	}

	return &WaitForSelector{Selector: selector, State: state}, nil
}

func (a *WaitForSelector) Name() string {
	return "waitForSelector"
}

func (a *WaitForSelector) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.WaitForSelector(a.Selector, a.State, rt.TimeoutMs)
}

// Wait pauses for a fixed duration regardless of page state. It stops early when the run is cancelled.
type Wait struct {
	Ms int
}

func newWait(step models.Step) (Action, error) {
	ms, err := intField(step, "ms", DefaultWaitMs)
	if err != nil {
		return nil, err
	}

	if ms < 0 {
		return nil, &InvalidStepError{Action: "wait", Field: "ms", Reason: "must not be negative"}
	}

	return &Wait{Ms: ms}, nil
}

func (a *Wait) Name() string {
	return "wait"
}

func (a *Wait) Execute(ctx context.Context, _ browser.Page, rt Runtime) (map[string]string, error) {
	if a.Ms == 0 {
		return nil, ctx.Err()
	}

	timer := rt.Clock.NewTimer(time.Duration(a.Ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.Chan():
		return nil, nil
	}
}

// Eval runs a script in the page.
type Eval struct {
	Script string
}

func newEval(step models.Step) (Action, error) {
	script, err := requiredString(step, "script")
	if err != nil {
		return nil, err
	}

	return &Eval{Script: script}, nil
}

func (a *Eval) Name() string {
	return "eval"
}

func (a *Eval) Execute(_ context.Context, page browser.Page, _ Runtime) (map[string]string, error) {
	_, err := page.Evaluate(a.Script)

	return nil, err
}

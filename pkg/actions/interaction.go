package actions

import (
	"context"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/dukex/clawtomations/pkg/models"
)

type Click struct {
	Selector string
}

func newClick(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	return &Click{Selector: selector}, nil
}

func (a *Click) Name() string {
	return "click"
}

func (a *Click) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.Click(a.Selector, rt.TimeoutMs)
}

type Fill struct {
	Selector string
	Value    string
}

func newFill(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	return &Fill{Selector: selector, Value: stringField(step, "value")}, nil
}

func (a *Fill) Name() string {
	return "fill"
}

func (a *Fill) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.Fill(a.Selector, a.Value, rt.TimeoutMs)
}

type Press struct {
	Selector string
	Key      string
}

func newPress(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	key, err := requiredString(step, "key")
	if err != nil {
		return nil, err
	}

	return &Press{Selector: selector, Key: key}, nil
}

func (a *Press) Name() string {
	return "press"
}

func (a *Press) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.Press(a.Selector, a.Key, rt.TimeoutMs)
}

// SetChecked backs "check" and "uncheck".
type SetChecked struct {
	Selector string
	Checked  bool
}

func newSetChecked(checked bool) Factory {
	return func(step models.Step) (Action, error) {
		selector, err := requiredString(step, "selector")
		if err != nil {
			return nil, err
		}

		return &SetChecked{Selector: selector, Checked: checked}, nil
	}
}

func (a *SetChecked) Name() string {
	if a.Checked {
		return "check"
	}

	return "uncheck"
}

func (a *SetChecked) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	if a.Checked {
		return nil, page.Check(a.Selector, rt.TimeoutMs)
	}

	return nil, page.Uncheck(a.Selector, rt.TimeoutMs)
}

type Select struct {
	Selector string
	Values   []string
}

func newSelect(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	values := stringsField(step, "value")
	if len(values) == 0 {
		return nil, &InvalidStepError{Action: "select", Field: "value", Reason: "is required"}
	}

	return &Select{Selector: selector, Values: values}, nil
}

func (a *Select) Name() string {
	return "select"
}

func (a *Select) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.SelectOption(a.Selector, a.Values, rt.TimeoutMs)
}

// Pointer backs "focus" and "hover".
type Pointer struct {
	Action   string
	Selector string
}

func newPointer(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	return &Pointer{Action: step.Action(), Selector: selector}, nil
}

func (a *Pointer) Name() string {
	return a.Action
}

func (a *Pointer) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	if a.Action == "hover" {
		return nil, page.Hover(a.Selector, rt.TimeoutMs)
	}

	return nil, page.Focus(a.Selector, rt.TimeoutMs)
}

type Upload struct {
	Selector string
	Files    []string
}

func newUpload(step models.Step) (Action, error) {
	selector, err := requiredString(step, "selector")
	if err != nil {
		return nil, err
	}

	files := stringsField(step, "file")
	if len(files) == 0 || files[0] == "" {
		return nil, &InvalidStepError{Action: "upload", Field: "file", Reason: "is required"}
	}

	return &Upload{Selector: selector, Files: files}, nil
}

func (a *Upload) Name() string {
	return "upload"
}

func (a *Upload) Execute(_ context.Context, page browser.Page, rt Runtime) (map[string]string, error) {
	return nil, page.SetInputFiles(a.Selector, a.Files, rt.TimeoutMs)
}

// Package models defines the core domain models for browser automation workflows.
package models

import (
	"fmt"
	"maps"
)

const (
	DefaultTimeoutMs   = 30000
	DefaultOutputDir   = "./outputs"
	DefaultConcurrency = 1
)

// Workflow is a declarative list of sites and the steps to run against each of them.
type Workflow struct {
	Name     string          `json:"name,omitempty"     yaml:"name"`
	Defaults Defaults        `json:"defaults"           yaml:"defaults"`
	Settings Settings        `json:"settings"           yaml:"settings"`
	Vars     map[string]any  `json:"vars,omitempty"     yaml:"vars"`
	Sites    []*Site         `json:"sites"              yaml:"sites"    validate:"dive,required"`
	OpenClaw *OpenClawConfig `json:"openclaw,omitempty" yaml:"openclaw"`

	// Raw holds the decoded document so templates can address any key.
	Raw map[string]any `json:"-" yaml:"-"`
}

// Defaults holds steps shared by every site. They run before the site's own steps.
type Defaults struct {
	Steps []Step `json:"steps,omitempty" yaml:"steps"`
}

type Settings struct {
	TimeoutMs         int       `json:"timeoutMs,omitempty"         yaml:"timeoutMs"         validate:"gte=0"`
	Headless          *bool     `json:"headless,omitempty"          yaml:"headless"`
	SlowMo            int       `json:"slowMo,omitempty"            yaml:"slowMo"            validate:"gte=0"`
	Viewport          *Viewport `json:"viewport,omitempty"          yaml:"viewport"`
	ContinueOnFailure *bool     `json:"continueOnFailure,omitempty" yaml:"continueOnFailure"`
	OutputDir         string    `json:"outputDir,omitempty"         yaml:"outputDir"`
	Concurrency       int       `json:"concurrency,omitempty"       yaml:"concurrency"       validate:"gte=0,lte=32"`
	RunTimeoutMs      int       `json:"runTimeoutMs,omitempty"      yaml:"runTimeoutMs"      validate:"gte=0"`
	StrictTemplates   bool      `json:"strictTemplates,omitempty"   yaml:"strictTemplates"`
}

type Viewport struct {
	Width  int `json:"width"  yaml:"width"  validate:"gt=0"`
	Height int `json:"height" yaml:"height" validate:"gt=0"`
}

// OpenClawConfig overrides the command used to hand a workflow to the openclaw CLI.
type OpenClawConfig struct {
	Command  string `json:"command,omitempty"  yaml:"command"`
	Template string `json:"template,omitempty" yaml:"template"`
}

// Site is one target application with its own steps and optional persisted session.
type Site struct {
	Name          string `json:"name,omitempty"          yaml:"name"`
	URL           string `json:"url,omitempty"           yaml:"url"`
	AuthState     string `json:"authState,omitempty"     yaml:"authState"`
	RequiresLogin bool   `json:"requiresLogin,omitempty" yaml:"requiresLogin"`
	Steps         []Step `json:"steps,omitempty"         yaml:"steps"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// StepTimeoutMs returns the per-step timeout used when a step does not set its own.
func (s Settings) StepTimeoutMs() int {
	if s.TimeoutMs > 0 {
		return s.TimeoutMs
	}

	return DefaultTimeoutMs
}

// IsHeadless returns the configured headless mode, headless unless explicitly disabled.
func (s Settings) IsHeadless() bool {
	return s.Headless == nil || *s.Headless
}

// ShouldContinueOnFailure resolves the continuation policy. An explicit per-invocation
// override wins, then the workflow setting, then the inverse of stopOnFailure.
func (s Settings) ShouldContinueOnFailure(override *bool, stopOnFailure bool) bool {
	if override != nil {
		return *override
	}

	if s.ContinueOnFailure != nil {
		return *s.ContinueOnFailure
	}

	return !stopOnFailure
}

func (s Settings) SiteConcurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}

	return DefaultConcurrency
}

func (s Settings) OutputDirOrDefault() string {
	if s.OutputDir != "" {
		return s.OutputDir
	}

	return DefaultOutputDir
}

// DisplayName returns the name used in reports and output directories.
func (s *Site) DisplayName(index int) string {
	if s.Name != "" {
		return s.Name
	}

	if s.URL != "" {
		return s.URL
	}

	return fmt.Sprintf("site-%d", index+1)
}

// Fields returns the site as a map for template lookups, with the resolved name applied.
func (s *Site) Fields(index int) map[string]any {
	fields := make(map[string]any, len(s.Raw)+2)
	maps.Copy(fields, s.Raw)

	fields["name"] = s.DisplayName(index)
	if s.URL != "" {
		fields["url"] = s.URL
	}

	return fields
}

// StepsFor returns the default steps followed by the site's own steps.
func (w *Workflow) StepsFor(site *Site) []Step {
	steps := make([]Step, 0, len(w.Defaults.Steps)+len(site.Steps))
	steps = append(steps, w.Defaults.Steps...)
	steps = append(steps, site.Steps...)

	return steps
}

// Fields returns the raw workflow document, or an empty map.
func (w *Workflow) Fields() map[string]any {
	if w.Raw == nil {
		return map[string]any{}
	}

	return w.Raw
}

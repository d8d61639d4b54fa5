package models

import (
	"maps"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Environment provides environment variables to template resolution.
type Environment interface {
	Lookup(key string) (string, bool)
	Snapshot() map[string]string
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

func (OSEnvironment) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (OSEnvironment) Snapshot() map[string]string {
	env := map[string]string{}

	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			env[key] = value
		}
	}

	return env
}

// MapEnvironment is a fixed environment, mostly useful in tests.
type MapEnvironment map[string]string

func (m MapEnvironment) Lookup(key string) (string, bool) {
	v, ok := m[key]

	return v, ok
}

func (m MapEnvironment) Snapshot() map[string]string {
	return maps.Clone(map[string]string(m))
}

// RunState is the run layer of the execution context.
type RunState struct {
	ID                string `json:"id"`
	StartedAt         string `json:"startedAt"`
	SiteOutputDir     string `json:"siteOutputDir,omitempty"`
	WorkflowOutputDir string `json:"workflowOutputDir,omitempty"`
	CurrentStepIndex  int    `json:"currentStepIndex,omitempty"`
	TimeoutMs         int    `json:"timeoutMs,omitempty"`
}

// Fields returns the populated run fields keyed by their template names.
func (r RunState) Fields() map[string]any {
	fields := map[string]any{
		"id":        r.ID,
		"startedAt": r.StartedAt,
	}

	if r.SiteOutputDir != "" {
		fields["siteOutputDir"] = r.SiteOutputDir
	}

	if r.WorkflowOutputDir != "" {
		fields["workflowOutputDir"] = r.WorkflowOutputDir
	}

	if r.CurrentStepIndex > 0 {
		fields["currentStepIndex"] = r.CurrentStepIndex
	}

	if r.TimeoutMs > 0 {
		fields["timeoutMs"] = r.TimeoutMs
	}

	return fields
}

// NowFields returns the now layer for the given instant.
func NowFields(t time.Time) map[string]any {
	utc := t.UTC()

	return map[string]any{
		"iso":       utc.Format("2006-01-02T15:04:05.000Z07:00"),
		"date":      utc.Format(time.DateOnly),
		"timestamp": utc.UnixMilli(),
		"unix":      utc.Unix(),
	}
}

// ExecutionContext is the layered data visible to template resolution.
type ExecutionContext struct {
	Workflow map[string]any    `json:"workflow"`
	Site     map[string]any    `json:"site"`
	Vars     map[string]any    `json:"vars"`
	Run      RunState          `json:"run"`
	Outputs  map[string]any    `json:"outputs"`
	Now      map[string]any    `json:"now"`
	Env      map[string]string `json:"-"`

	clock clockwork.Clock
	env   Environment
}

type ContextParams struct {
	Workflow map[string]any
	Site     map[string]any
	RunID    string
	Outputs  map[string]any
	Clock    clockwork.Clock
	Env      Environment
}

// ContextPatch holds the layers merged by Clone.
type ContextPatch struct {
	Workflow map[string]any
	Site     map[string]any
	Outputs  map[string]any
}

// NewExecutionContext builds a base context. The now and env layers are computed at build time.
func NewExecutionContext(params ContextParams) *ExecutionContext {
	clock := params.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	env := params.Env
	if env == nil {
		env = OSEnvironment{}
	}

	workflow := params.Workflow
	if workflow == nil {
		workflow = map[string]any{}
	}

	now := clock.Now()

	return &ExecutionContext{
		Workflow: workflow,
		Site:     orEmpty(params.Site),
		Vars:     varsOf(workflow),
		Run: RunState{
			ID:        params.RunID,
			StartedAt: now.UTC().Format(time.RFC3339Nano),
		},
		Outputs: orEmpty(params.Outputs),
		Now:     NowFields(now),
		Env:     env.Snapshot(),
		clock:   clock,
		env:     env,
	}
}

// Clone derives a context for a narrower scope. Workflow, site and outputs are
// shallow-merged with the patch winning on collisions; the run layer is kept and
// vars are rebuilt from the merged workflow.
func (c *ExecutionContext) Clone(patch ContextPatch) *ExecutionContext {
	workflow := merge(c.Workflow, patch.Workflow)
	clock := c.Clock()
	env := c.Environment()

	return &ExecutionContext{
		Workflow: workflow,
		Site:     merge(c.Site, patch.Site),
		Vars:     varsOf(workflow),
		Run:      c.Run,
		Outputs:  merge(c.Outputs, patch.Outputs),
		Now:      NowFields(clock.Now()),
		Env:      env.Snapshot(),
		clock:    clock,
		env:      env,
	}
}

// WithRun returns a copy of the context with a different run layer.
func (c *ExecutionContext) WithRun(run RunState) *ExecutionContext {
	clone := *c
	clone.Run = run

	return &clone
}

func (c *ExecutionContext) Clock() clockwork.Clock {
	if c.clock == nil {
		return clockwork.NewRealClock()
	}

	return c.clock
}

func (c *ExecutionContext) Environment() Environment {
	if c.env == nil {
		return OSEnvironment{}
	}

	return c.env
}

// Layer returns a top-level layer by name.
func (c *ExecutionContext) Layer(name string) (any, bool) {
	switch name {
	case "workflow":
		return c.Workflow, true
	case "site":
		return c.Site, true
	case "vars":
		return c.Vars, true
	case "run":
		return c.Run.Fields(), true
	case "outputs":
		return c.Outputs, true
	case "now":
		return c.Now, true
	case "env":
		return c.Env, true
	default:
		return nil, false
	}
}

func varsOf(workflow map[string]any) map[string]any {
	vars, ok := workflow["vars"].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return vars
}

func merge(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	maps.Copy(merged, base)
	maps.Copy(merged, patch)

	return merged
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}

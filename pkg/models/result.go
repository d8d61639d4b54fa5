package models

import "time"

type SiteStatus string

const (
	SiteStatusPending SiteStatus = "pending"
	SiteStatusRunning SiteStatus = "running"
	SiteStatusSuccess SiteStatus = "success"
	SiteStatusFailed  SiteStatus = "failed"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// StepError is a failure captured while running a site.
type StepError struct {
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
	Step    int    `json:"step,omitempty"`
	Action  string `json:"action,omitempty"`
}

// SiteResult is the outcome of one site. It is not modified after the site completes.
type SiteResult struct {
	Name      string      `json:"name"`
	Status    SiteStatus  `json:"status"`
	Outputs   *Outputs    `json:"outputs"`
	Errors    []StepError `json:"errors"`
	OutputDir string      `json:"outputDir"`
	RunID     string      `json:"runId"`
}

func NewSiteResult(runID, name, outputDir string) *SiteResult {
	return &SiteResult{
		Name:      name,
		Status:    SiteStatusPending,
		Outputs:   NewOutputs(),
		Errors:    []StepError{},
		OutputDir: outputDir,
		RunID:     runID,
	}
}

func (r *SiteResult) Fail(stepErr StepError) {
	r.Status = SiteStatusFailed
	r.Errors = append(r.Errors, stepErr)
}

func (r *SiteResult) Failed() bool {
	return r.Status == SiteStatusFailed
}

// SiteArtifact is the content of a site's outputs.json.
type SiteArtifact struct {
	RunID   string      `json:"runId"`
	Name    string      `json:"name"`
	Status  SiteStatus  `json:"status"`
	Outputs *Outputs    `json:"outputs"`
	Errors  []StepError `json:"errors"`
}

func (r *SiteResult) Artifact() SiteArtifact {
	return SiteArtifact{
		RunID:   r.RunID,
		Name:    r.Name,
		Status:  r.Status,
		Outputs: r.Outputs,
		Errors:  r.Errors,
	}
}

type ReportSettings struct {
	Headless          bool `json:"headless"`
	ContinueOnFailure bool `json:"continueOnFailure"`
	TimeoutMs         int  `json:"timeoutMs"`
	Concurrency       int  `json:"concurrency"`
}

// RunReport aggregates every site result of a run, in source order.
type RunReport struct {
	Workflow   string         `json:"workflow"`
	RunID      string         `json:"runId"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Settings   ReportSettings `json:"settings"`
	Results    []*SiteResult  `json:"results"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// OverallStatus is failed when any site failed.
func OverallStatus(results []*SiteResult) RunStatus {
	for _, result := range results {
		if result.Failed() {
			return RunStatusFailed
		}
	}

	return RunStatusSuccess
}

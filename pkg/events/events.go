// Package events defines event types and structures for workflow run lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "clawtomations.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent    EventType = "run.started"
	SiteCompletedEvent EventType = "site.completed"
	RunCompletedEvent  EventType = "run.completed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
	}
}

type RunStarted struct {
	BaseEvent

	Workflow  string `json:"workflow"`
	SiteCount int    `json:"site_count"`
}

func (RunStarted) GetType() EventType {
	return RunStartedEvent
}

type SiteCompleted struct {
	BaseEvent

	Site      string   `json:"site"`
	Index     int      `json:"index"`
	Status    string   `json:"status"`
	OutputDir string   `json:"output_dir"`
	Outputs   int      `json:"outputs"`
	Errors    []string `json:"errors,omitempty"`
}

func (SiteCompleted) GetType() EventType {
	return SiteCompletedEvent
}

type RunCompleted struct {
	BaseEvent

	Status     string        `json:"status"`
	ReportPath string        `json:"report_path"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

func (RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrInvalidSchedule is returned when schedule validation fails
	ErrInvalidSchedule = errors.New("invalid schedule configuration")
)

// DailySchedule runs a workflow once a day at a fixed local time.
type DailySchedule struct {
	// WorkflowPath is the workflow file to run
	WorkflowPath string `json:"workflowPath" validate:"required"`

	Hour   int `json:"hour"   validate:"gte=0,lte=23"`
	Minute int `json:"minute" validate:"gte=0,lte=59"`

	// CronExpression is the standard 5-field form of Hour and Minute
	CronExpression string `json:"cronExpression"`

	// NextDueAt is the next execution time after the reference time
	NextDueAt time.Time `json:"nextDueAt"`
}

// ParseClock parses an HH:MM wall clock time.
func ParseClock(value string) (int, int, error) {
	hourStr, minuteStr, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidSchedule, value)
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q must be 0-23", ErrInvalidSchedule, value)
	}

	minute, err := strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute in %q must be 0-59", ErrInvalidSchedule, value)
	}

	return hour, minute, nil
}

// NewDailySchedule creates a DailySchedule with the next execution time calculated from now.
func NewDailySchedule(workflowPath, clock string, now time.Time) (*DailySchedule, error) {
	if workflowPath == "" {
		return nil, fmt.Errorf("%w: workflow path is required", ErrInvalidSchedule)
	}

	hour, minute, err := ParseClock(clock)
	if err != nil {
		return nil, err
	}

	schedule := &DailySchedule{
		WorkflowPath:   workflowPath,
		Hour:           hour,
		Minute:         minute,
		CronExpression: fmt.Sprintf("%d %d * * *", minute, hour),
	}

	if err := schedule.calculateNextDueAt(now); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Clock returns the schedule time as HH:MM.
func (s *DailySchedule) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

func (s *DailySchedule) calculateNextDueAt(referenceTime time.Time) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	cronSchedule, err := parser.Parse(s.CronExpression)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	s.NextDueAt = cronSchedule.Next(referenceTime)

	return nil
}

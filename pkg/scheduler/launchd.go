// Package scheduler runs workflows once a day, either through a launchd agent or in-process.
package scheduler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/dukex/clawtomations/pkg/shell"
)

const Label = "com.clawtomations.daily"

var plistTemplate = template.Must(template.New("plist").Funcs(template.FuncMap{
	"xml": escapeXML,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>Label</key>
  <string>{{ xml .Label }}</string>
  <key>ProgramArguments</key>
  <array>
    <string>/bin/sh</string>
    <string>-lc</string>
    <string>{{ xml .Command }}</string>
  </array>
  <key>StartCalendarInterval</key>
  <dict>
    <key>Hour</key>
    <integer>{{ .Hour }}</integer>
    <key>Minute</key>
    <integer>{{ .Minute }}</integer>
  </dict>
  <key>StandardOutPath</key>
  <string>{{ xml .StdoutPath }}</string>
  <key>StandardErrorPath</key>
  <string>{{ xml .StderrPath }}</string>
</dict>
</plist>
`))

// LaunchdJob is a launchd agent that runs a command at the schedule's time every day.
type LaunchdJob struct {
	Label      string
	PlistPath  string
	Command    string
	StdoutPath string
	StderrPath string
	Hour       int
	Minute     int
}

// NewLaunchdJob lays out the agent files under home.
func NewLaunchdJob(schedule *models.DailySchedule, command, home string) *LaunchdJob {
	return &LaunchdJob{
		Label:      Label,
		PlistPath:  filepath.Join(home, "Library", "LaunchAgents", Label+".plist"),
		Command:    command,
		StdoutPath: filepath.Join(home, "Library", "Logs", "clawtomations.out.log"),
		StderrPath: filepath.Join(home, "Library", "Logs", "clawtomations.err.log"),
		Hour:       schedule.Hour,
		Minute:     schedule.Minute,
	}
}

// RunCommand returns the shell command that runs workflowPath with the given executable.
func RunCommand(executable, workflowPath string) string {
	return fmt.Sprintf("%s run --workflow %s", strconv.Quote(executable), strconv.Quote(workflowPath))
}

func (j *LaunchdJob) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := plistTemplate.Execute(&buf, j); err != nil {
		return nil, fmt.Errorf("failed to render plist: %w", err)
	}

	return buf.Bytes(), nil
}

// Write renders the plist and stores it at PlistPath.
func (j *LaunchdJob) Write(fs persistence.FileSystem) error {
	data, err := j.Render()
	if err != nil {
		return err
	}

	if err := fs.EnsureDir(filepath.Dir(j.PlistPath)); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(j.PlistPath), err)
	}

	if err := fs.WriteFile(j.PlistPath, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", j.PlistPath, err)
	}

	return nil
}

// Install loads the agent into the current user's launchd domain.
func (j *LaunchdJob) Install(ctx context.Context, runner shell.Runner) error {
	domain := fmt.Sprintf("gui/%d", os.Getuid())

	if _, err := runner.Run(ctx, "launchctl", "bootstrap", domain, j.PlistPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", j.Label, err)
	}

	return nil
}

func escapeXML(value string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(value)); err != nil {
		return "", err
	}

	return buf.String(), nil
}

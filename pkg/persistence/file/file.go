// Package file provides file-based storage of run artifacts.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
)

// Persistence stores artifacts under an output root laid out as
// <root>/<runId>/run-report.json and <root>/<runId>/<site>/outputs.json.
type Persistence struct {
	root string
	fs   persistence.FileSystem
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return NewPersistenceWithFS(root, persistence.OSFileSystem{})
}

func NewPersistenceWithFS(root string, fsys persistence.FileSystem) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot, fs: fsys}
}

func (fp *Persistence) Root() string {
	return fp.root
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// SaveSiteResult writes the site's outputs.json into its output directory.
func (fp *Persistence) SaveSiteResult(_ context.Context, result *models.SiteResult) (string, error) {
	path := filepath.Join(result.OutputDir, persistence.SiteArtifactName)

	if err := persistence.WriteJSON(fp.fs, path, result.Artifact()); err != nil {
		return "", persistence.NewRunError("SaveSiteResult", result.RunID, err)
	}

	return path, nil
}

// SaveReport writes run-report.json into the run directory.
func (fp *Persistence) SaveReport(_ context.Context, runDir string, report *models.RunReport) (string, error) {
	path := filepath.Join(runDir, persistence.ReportName)

	if err := persistence.WriteJSON(fp.fs, path, report); err != nil {
		return "", persistence.NewRunError("SaveReport", report.RunID, err)
	}

	return path, nil
}

// validateRunID validates that the run ID is safe for file operations.
func validateRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("%w: run ID cannot be empty", persistence.ErrInvalidRunID)
	}

	if strings.Contains(runID, "..") || strings.Contains(runID, "/") || strings.Contains(runID, "\\") {
		return fmt.Errorf("%w: run ID contains invalid characters", persistence.ErrInvalidRunID)
	}

	return nil
}

// GetReport reads the report of one run.
func (fp *Persistence) GetReport(_ context.Context, runID string) (*models.RunReport, error) {
	if err := validateRunID(runID); err != nil {
		return nil, persistence.NewRunError("GetReport", runID, err)
	}

	data, err := fp.fs.ReadFile(filepath.Join(fp.root, runID, persistence.ReportName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewRunError("GetReport", runID, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetReport", runID, err)
	}

	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, persistence.NewRunError("GetReport", runID, fmt.Errorf("failed to unmarshal report: %w", err))
	}

	return &report, nil
}

// ListReports returns every readable report under the root, newest first.
// Run directories without a report are skipped.
func (fp *Persistence) ListReports(ctx context.Context) ([]*models.RunReport, error) {
	entries, err := os.ReadDir(fp.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.RunReport{}, nil
		}

		return nil, fmt.Errorf("failed to read output root: %w", err)
	}

	reports := make([]*models.RunReport, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		report, err := fp.GetReport(ctx, entry.Name())
		if err != nil {
			continue
		}

		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})

	return reports, nil
}

// Package persistence provides the filesystem and run artifact storage used by the engine.
package persistence

import (
	"context"

	"github.com/dukex/clawtomations/pkg/models"
)

const (
	SiteArtifactName = "outputs.json"
	ReportName       = "run-report.json"
)

// FileSystem is the subset of filesystem operations the engine needs.
type FileSystem interface {
	EnsureDir(path string) error
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// ArtifactWriter persists per-site results and run reports.
type ArtifactWriter interface {
	SaveSiteResult(ctx context.Context, result *models.SiteResult) (string, error)
	SaveReport(ctx context.Context, runDir string, report *models.RunReport) (string, error)
}

// RunRepository reads back the reports of past runs under an output root.
type RunRepository interface {
	ListReports(ctx context.Context) ([]*models.RunReport, error)
	GetReport(ctx context.Context, runID string) (*models.RunReport, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

package workflow

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LoadedWorkflow is a parsed workflow together with where it was read from.
type LoadedWorkflow struct {
	Workflow *models.Workflow
	AbsPath  string
	Dir      string
}

// ResolvePath resolves p against the workflow's directory. Absolute paths are returned cleaned.
func (l *LoadedWorkflow) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(l.Dir, p)
}

type Loader struct {
	fs       persistence.FileSystem
	validate *validator.Validate
}

func NewLoader(fs persistence.FileSystem) *Loader {
	if fs == nil {
		fs = persistence.OSFileSystem{}
	}

	return &Loader{
		fs:       fs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// LoadWorkflow reads a workflow document from the local disk.
func LoadWorkflow(path string) (*LoadedWorkflow, error) {
	return NewLoader(nil).Load(path)
}

// Load reads, parses and validates the workflow at path. Every failure is a *WorkflowLoadError.
func (l *Loader) Load(path string) (*LoadedWorkflow, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &WorkflowLoadError{Path: path, Op: "resolve", Err: err}
	}

	data, err := l.fs.ReadFile(absPath)
	if err != nil {
		return nil, &WorkflowLoadError{Path: absPath, Op: "read", Err: err}
	}

	wf, err := l.Parse(data)
	if err != nil {
		var loadErr *WorkflowLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = absPath
		}

		return nil, err
	}

	return &LoadedWorkflow{
		Workflow: wf,
		AbsPath:  absPath,
		Dir:      filepath.Dir(absPath),
	}, nil
}

// Parse decodes a workflow document held in memory.
func (l *Loader) Parse(data []byte) (*models.Workflow, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, &WorkflowLoadError{Op: "parse", Err: err}
	}

	raw, err := asDocument(document)
	if err != nil {
		return nil, &WorkflowLoadError{Op: "parse", Err: err}
	}

	if err := validateSchema(raw); err != nil {
		return nil, &WorkflowLoadError{Op: "validate", Err: err}
	}

	wf := &models.Workflow{}
	if err := yaml.Unmarshal(data, wf); err != nil {
		return nil, &WorkflowLoadError{Op: "decode", Err: err}
	}

	wf.Raw = raw
	attachSiteFields(wf, raw)

	if err := l.validate.Struct(wf); err != nil {
		return nil, &WorkflowLoadError{Op: "validate", Err: err}
	}

	return wf, nil
}

func asDocument(document any) (map[string]any, error) {
	switch doc := document.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return doc, nil
	default:
		return nil, fmt.Errorf("%w, got %T", errUnsupportedFormat, document)
	}
}

func attachSiteFields(wf *models.Workflow, raw map[string]any) {
	rawSites, _ := raw["sites"].([]any)

	for i, site := range wf.Sites {
		if site == nil || i >= len(rawSites) {
			continue
		}

		if fields, ok := rawSites[i].(map[string]any); ok {
			site.Raw = fields
		}
	}
}

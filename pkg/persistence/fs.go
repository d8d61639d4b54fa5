package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

func (OSFileSystem) EnsureDir(path string) error {
	return os.MkdirAll(path, 0750)
}

func (OSFileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 -- paths come from the workflow author or the output root
}

func (OSFileSystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0600)
}

// MarshalArtifact renders v as two-space indented JSON without a trailing newline.
func MarshalArtifact(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteJSON writes v to path as an artifact, creating the parent directory first.
func WriteJSON(fsys FileSystem, path string, v any) error {
	data, err := MarshalArtifact(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := fsys.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := fsys.WriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

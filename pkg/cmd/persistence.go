package cmd

import (
	"strings"

	"github.com/dukex/clawtomations/pkg/persistence/file"
)

var supportedPersistenceProviders = []string{"file"}

// NewPersistence opens the run report store rooted at the output directory.
// Both "file://outputs" and a bare "outputs" are accepted.
func NewPersistence(outputURL string) *file.Persistence {
	provider, root := parsePersistenceURL(outputURL)

	switch provider {
	default:
		return file.NewPersistence(root)
	}
}

func parsePersistenceURL(outputURL string) (string, string) {
	provider, root, found := strings.Cut(outputURL, "://")
	if !found {
		return "file", outputURL
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider, root
		}
	}

	return "file", root
}

package workflow

import (
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-_]`)

// Sanitize turns a site name into a token safe to use as a directory name.
func Sanitize(name string) string {
	if name == "" {
		name = "site"
	}

	return unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_")
}

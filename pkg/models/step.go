package models

import (
	"strconv"
	"strings"
)

// Step is one declarative browser action. Its fields may hold template placeholders
// that are resolved right before the step runs.
type Step map[string]any

// Action returns the step discriminator, read from "action" with "type" as an alias.
func (s Step) Action() string {
	if action, ok := s["action"].(string); ok && action != "" {
		return action
	}

	if action, ok := s["type"].(string); ok {
		return action
	}

	return ""
}

// TimeoutMs returns the step level timeout override, or zero when unset.
func (s Step) TimeoutMs() int {
	switch v := s["timeoutMs"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}

		return n
	default:
		return 0
	}
}

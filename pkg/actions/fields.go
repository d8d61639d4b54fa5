package actions

import (
	"strconv"
	"strings"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/dukex/clawtomations/pkg/template"
)

func stringField(step models.Step, key string) string {
	value, ok := step[key]
	if !ok || value == nil {
		return ""
	}

	return template.Stringify(value)
}

func requiredString(step models.Step, key string) (string, error) {
	value := stringField(step, key)
	if value == "" {
		return "", &InvalidStepError{Action: step.Action(), Field: key, Reason: "is required"}
	}

	return value, nil
}

func intField(step models.Step, key string, fallback int) (int, error) {
	switch v := step[key].(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback, nil
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &InvalidStepError{Action: step.Action(), Field: key, Reason: "must be a number"}
		}

		return n, nil
	default:
		return 0, &InvalidStepError{Action: step.Action(), Field: key, Reason: "must be a number"}
	}
}

// boolField treats only an explicit false as false when fallback is true, and
// only an explicit true as true otherwise.
func boolField(step models.Step, key string, fallback bool) bool {
	switch v := step[key].(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}

		return parsed
	default:
		return fallback
	}
}

func stringsField(step models.Step, key string) []string {
	switch v := step[key].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		values := make([]string, 0, len(v))
		for _, entry := range v {
			values = append(values, template.Stringify(entry))
		}

		return values
	default:
		return []string{template.Stringify(v)}
	}
}

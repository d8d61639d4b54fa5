package workflow

import (
	_ "embed"
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaDocument string

var schemaLoader = gojsonschema.NewStringLoader(schemaDocument)

// validateSchema checks the decoded document against the workflow JSON schema.
// Unknown keys are allowed everywhere so templates can reference them.
func validateSchema(document map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(document))
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errorMessages []string
		for _, err := range result.Errors() {
			errorMessages = append(errorMessages, err.String())
		}

		return errors.New(strings.Join(errorMessages, "; "))
	}

	return nil
}

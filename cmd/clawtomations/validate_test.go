package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/clawtomations/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

const mixedWorkflow = `
sites:
  - name: shop
    steps:
      - action: navigate
        url: https://shop.example.com
      - action: teleport
  - url: https://blog.example.com
    steps:
      - type: screenshot
`

func TestValidateWorkflow_ReportsUnknownActions(t *testing.T) {
	path := writeWorkflow(t, mixedWorkflow)

	var out bytes.Buffer
	require.NoError(t, validateWorkflow(&out, path, false))

	assert.Contains(t, out.String(), `shop step 2: unknown action "teleport"`)
	assert.Contains(t, out.String(), "is valid: 2 site(s)")
}

func TestValidateWorkflow_StrictFails(t *testing.T) {
	path := writeWorkflow(t, mixedWorkflow)

	var out bytes.Buffer
	err := validateWorkflow(&out, path, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownActions)
}

func TestValidateWorkflow_LoadError(t *testing.T) {
	path := writeWorkflow(t, "sites: [1, 2")

	var out bytes.Buffer
	err := validateWorkflow(&out, path, false)
	require.Error(t, err)
	assert.True(t, workflow.IsWorkflowLoad(err))
}

func TestValidateWorkflow_DefaultsAndTemplatedActions(t *testing.T) {
	path := writeWorkflow(t, `
vars:
  kind: click
defaults:
  steps:
    - action: navigate
      url: https://shop.example.com
    - action: warp
sites: []
`)

	var out bytes.Buffer
	require.NoError(t, validateWorkflow(&out, path, false))
	assert.Contains(t, out.String(), `defaults step 2: unknown action "warp"`)

	path = writeWorkflow(t, `
defaults:
  steps:
    - action: navigate
      url: https://shop.example.com
sites:
  - name: shop
    steps:
      - action: "{{vars.kind}}"
        selector: "#buy"
      - action: teleport
`)

	out.Reset()
	require.NoError(t, validateWorkflow(&out, path, false))
	assert.NotContains(t, out.String(), "vars.kind")
	assert.NotContains(t, out.String(), "defaults step")
	assert.Contains(t, out.String(), `shop step 3: unknown action "teleport"`)
}

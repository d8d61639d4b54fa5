package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputs_KeepsInsertionOrder(t *testing.T) {
	outputs := NewOutputs()
	outputs.Set("zeta", "1")
	outputs.Set("alpha", "2")
	outputs.Set("zeta", "3")

	assert.Equal(t, []string{"zeta", "alpha"}, outputs.Keys())

	value, ok := outputs.Get("zeta")
	assert.True(t, ok)
	assert.Equal(t, "3", value)

	data, err := json.Marshal(outputs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":"3","alpha":"2"}`, string(data))
	assert.Less(t, strings.Index(string(data), "zeta"), strings.Index(string(data), "alpha"))
}

func TestOutputs_MergeSortsKeys(t *testing.T) {
	outputs := NewOutputs()
	outputs.Merge(map[string]string{"b": "2", "a": "1"})

	assert.Equal(t, []string{"a", "b"}, outputs.Keys())
	assert.Equal(t, map[string]any{"a": "1", "b": "2"}, outputs.ToMap())
}

func TestOutputs_EmptyAndNil(t *testing.T) {
	var nilOutputs *Outputs

	assert.Equal(t, 0, nilOutputs.Len())
	assert.Empty(t, nilOutputs.ToMap())

	data, err := json.Marshal(NewOutputs())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	var zero Outputs
	zero.Set("k", "v")
	assert.Equal(t, 1, zero.Len())
}

func TestOutputs_UnmarshalJSON(t *testing.T) {
	var outputs Outputs
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Hello","screenshot":"/tmp/a.png"}`), &outputs))

	assert.Equal(t, []string{"title", "screenshot"}, outputs.Keys())
}

func TestOverallStatus(t *testing.T) {
	ok := NewSiteResult("run-1", "a", "/tmp/a")
	ok.Status = SiteStatusSuccess

	failed := NewSiteResult("run-1", "b", "/tmp/b")
	failed.Fail(StepError{Message: "boom"})

	assert.Equal(t, RunStatusSuccess, OverallStatus([]*SiteResult{ok}))
	assert.Equal(t, RunStatusFailed, OverallStatus([]*SiteResult{ok, failed}))
	assert.Equal(t, RunStatusSuccess, OverallStatus(nil))
	assert.Len(t, failed.Errors, 1)
}

func TestSiteResult_Artifact(t *testing.T) {
	result := NewSiteResult("run-1", "Shop", "/tmp/shop")
	result.Status = SiteStatusSuccess
	result.Outputs.Set("title", "Hello")

	data, err := json.Marshal(result.Artifact())
	require.NoError(t, err)
	assert.JSONEq(t, `{"runId":"run-1","name":"Shop","status":"success","outputs":{"title":"Hello"},"errors":[]}`, string(data))
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesRelativePaths(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/upload-happy-path.yaml")
	require.NoError(t, err)

	assert.Equal(t, "upload-happy-path", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "specs", "upload.cue"), scenario.Specs[0])
	assert.Equal(t, filepath.Join("testdata", "grants.yaml"), scenario.Grants)
	assert.Len(t, scenario.Steps, 4)
	assert.Len(t, scenario.Assertions, 4)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/no-such.yaml")
	assert.Error(t, err)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
description: has a typo'd key
specs:
  - upload.cue
step:
  - intent: upload
    op: start
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field step not found")
}

func TestLoadScenario_MissingSpecFile(t *testing.T) {
	path := writeScenarioFile(t, `
name: missing-spec
description: references a spec that does not exist
specs:
  - ghost.cue
steps:
  - intent: upload
    op: start
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file not found")
}

func TestParseScenario_ValidationRules(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			name:     "missing name",
			scenario: Scenario{Description: "d", Specs: []string{"x"}, Steps: []Step{{Intent: "a", Op: "start"}}},
			wantErr:  "name is required",
		},
		{
			name:     "missing description",
			scenario: Scenario{Name: "n", Specs: []string{"x"}, Steps: []Step{{Intent: "a", Op: "start"}}},
			wantErr:  "description is required",
		},
		{
			name:     "no specs",
			scenario: Scenario{Name: "n", Description: "d", Steps: []Step{{Intent: "a", Op: "start"}}},
			wantErr:  "specs list is required",
		},
		{
			name:     "no steps",
			scenario: Scenario{Name: "n", Description: "d", Specs: []string{"x"}},
			wantErr:  "steps list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScenario(&tt.scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateScenario_UnknownOp(t *testing.T) {
	s := &Scenario{
		Name:        "n",
		Description: "d",
		Specs:       []string{"testdata/specs/upload.cue"},
		Steps:       []Step{{Intent: "upload", Op: "teleport"}},
	}
	err := validateScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "teleport"`)
}

func TestValidateScenario_UnknownExpectState(t *testing.T) {
	s := &Scenario{
		Name:        "n",
		Description: "d",
		Specs:       []string{"testdata/specs/upload.cue"},
		Steps: []Step{{
			Intent: "upload",
			Op:     "start",
			Expect: &ExpectClause{State: "paused"},
		}},
	}
	err := validateScenario(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown state "paused"`)
}

func TestValidateAssertion_Rules(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"missing type", Assertion{}, "type is required"},
		{"unknown type", Assertion{Type: "trace_contains"}, "unknown assertion type"},
		{"trace_count no intent", Assertion{Type: AssertTraceCount, Op: "start"}, "intent is required"},
		{"trace_count no op", Assertion{Type: AssertTraceCount, Intent: "a"}, "op is required"},
		{"trace_count negative", Assertion{Type: AssertTraceCount, Intent: "a", Op: "start", Count: -1}, "non-negative"},
		{"trace_order no ops", Assertion{Type: AssertTraceOrder, Intent: "a"}, "ops list is required"},
		{"final_state no state", Assertion{Type: AssertFinalState, Intent: "a"}, "state is required"},
		{"final_state bad state", Assertion{Type: AssertFinalState, Intent: "a", State: "paused"}, "unknown state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(0, &tt.assertion)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, validateAssertion(0, &Assertion{Type: AssertJournalConsistent}))
}

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

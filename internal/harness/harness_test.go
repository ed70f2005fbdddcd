package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_HappyPath(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/upload-happy-path.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 4)
	assert.Equal(t, "completed", result.FinalStates["upload"])

	// seq is assigned by the engine clock, starting at 1.
	for i, event := range result.Trace {
		assert.Equal(t, int64(i+1), event.Seq)
	}
}

func TestRun_FailureAndReset(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/failure-and-reset.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "idle", result.FinalStates["upload"])
	assert.Equal(t, "idle", result.FinalStates["checkout"])
}

func TestRun_ExpectMismatchFailsScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expect clause disagrees with the transition",
		Specs:       []string{"testdata/specs/upload.cue"},
		Steps: []Step{
			{Intent: "upload", Op: "start", Expect: &ExpectClause{State: "completed"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `state = "started", want "completed"`)
}

func TestRun_UnknownIntentInStep(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown-intent",
		Description: "step targets an intent no spec defines",
		Specs:       []string{"testdata/specs/upload.cue"},
		Steps: []Step{
			{Intent: "ghost", Op: "start"},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `intent "ghost" not defined`)
}

func TestRun_FailedAssertionFailsScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-count",
		Description: "assertion expects an op that never ran",
		Specs:       []string{"testdata/specs/upload.cue"},
		Steps: []Step{
			{Intent: "upload", Op: "start"},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Intent: "upload", Op: "complete", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "trace_count")
}

func TestRun_GrantsGateAllowed(t *testing.T) {
	// Without grants, the upload intent's requirement cannot be met.
	scenario := &Scenario{
		Name:        "no-grants",
		Description: "requirements without a resolver are not allowed",
		Specs:       []string{"testdata/specs/upload.cue"},
		Steps: []Step{
			{Intent: "upload", Op: "start", Expect: &ExpectClause{Allowed: boolPtr(false)}},
		},
	}
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// With grants, the same step is allowed.
	scenario.Name = "with-grants"
	scenario.Grants = "testdata/grants.yaml"
	scenario.Steps[0].Expect.Allowed = boolPtr(true)

	result, err = Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func boolPtr(b bool) *bool { return &b }

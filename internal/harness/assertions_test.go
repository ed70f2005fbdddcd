package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Intent: "upload", Op: "start", From: "idle", To: "started", Seq: 1},
		{Intent: "upload", Op: "progress", From: "started", To: "in-progress", Note: "chunk 1", Seq: 2},
		{Intent: "checkout", Op: "start", From: "idle", To: "started", Seq: 3},
		{Intent: "upload", Op: "complete", From: "in-progress", To: "completed", Seq: 4},
	}
}

func TestAssertTraceCount_Match(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type: AssertTraceCount, Intent: "upload", Op: "progress", Count: 1,
	})
	assert.NoError(t, err)
}

func TestAssertTraceCount_ZeroOccurrences(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type: AssertTraceCount, Intent: "upload", Op: "fail", Count: 0,
	})
	assert.NoError(t, err)
}

func TestAssertTraceCount_Mismatch(t *testing.T) {
	err := assertTraceCount(sampleTrace(), Assertion{
		Type: AssertTraceCount, Intent: "upload", Op: "start", Count: 2,
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceCount, ae.Type)
	assert.Contains(t, ae.Actual, "1 occurrences")
}

func TestAssertTraceOrder_Match(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type: AssertTraceOrder, Intent: "upload", Ops: []string{"start", "progress", "complete"},
	})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_IgnoresOtherIntents(t *testing.T) {
	// checkout's start must not satisfy upload's order.
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type: AssertTraceOrder, Intent: "checkout", Ops: []string{"start", "complete"},
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, `missing "complete"`)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{
		Type: AssertTraceOrder, Intent: "upload", Ops: []string{"complete", "start"},
	})
	assert.Error(t, err)
}

func TestAssertFinalState(t *testing.T) {
	finals := map[string]string{"upload": "completed"}

	assert.NoError(t, assertFinalState(finals, Assertion{
		Type: AssertFinalState, Intent: "upload", State: "completed",
	}))

	err := assertFinalState(finals, Assertion{
		Type: AssertFinalState, Intent: "upload", State: "idle",
	})
	assert.Error(t, err)

	err = assertFinalState(finals, Assertion{
		Type: AssertFinalState, Intent: "ghost", State: "idle",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present")
}

func TestAssertionError_MessageFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "2 occurrences of start on upload",
		Actual:   "1 occurrences",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 2 occurrences")
	assert.Contains(t, msg, "upload start: idle -> started")
}

func TestEvaluateAssertions_CollectsAllFailures(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.FinalStates = map[string]string{"upload": "completed"}

	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Intent: "upload", Op: "start", Count: 5},
		{Type: AssertFinalState, Intent: "upload", State: "completed"},
		{Type: AssertFinalState, Intent: "upload", State: "failed"},
	}, nil)

	assert.Len(t, failures, 2, "assertions do not short-circuit")
}

package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/wimi/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s: %s -> %s\n", i+1, event.Intent, event.Op, event.From, event.To)
	}

	return buf.String()
}

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	Store        *store.Store
	Ctx          context.Context
	JourneyToken string
}

// EvaluateAssertions runs all assertions and returns failure messages.
// Every assertion is evaluated; failures do not short-circuit.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string

	for _, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.FinalStates, assertion)
		case AssertJournalConsistent:
			err = assertJournalConsistent(result.Trace, actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	return failures
}

// assertTraceCount checks that an operation appears exactly the
// specified number of times for an intent.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Intent == assertion.Intent && event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s on %s", assertion.Count, assertion.Op, assertion.Intent),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceOrder checks that operations appear in the specified order
// for an intent. Operations need not be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next >= len(assertion.Ops) {
			break
		}
		if event.Intent == assertion.Intent && event.Op == assertion.Ops[next] {
			next++
		}
	}

	if next < len(assertion.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order on %s: %v", assertion.Intent, assertion.Ops),
			Actual:   fmt.Sprintf("matched %d of %d, missing %q", next, len(assertion.Ops), assertion.Ops[next]),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks the intent's state after the last step.
func assertFinalState(finalStates map[string]string, assertion Assertion) error {
	got, ok := finalStates[assertion.Intent]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("intent %s in state %q", assertion.Intent, assertion.State),
			Actual:   "intent not present in scenario",
		}
	}

	if got != assertion.State {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("intent %s in state %q", assertion.Intent, assertion.State),
			Actual:   fmt.Sprintf("state %q", got),
		}
	}

	return nil
}

// assertJournalConsistent cross-checks the in-memory trace against the
// store's journal for the journey: same length, same (intent, op, from,
// to, note, seq) per record, in the same order.
func assertJournalConsistent(trace []TraceEvent, actx *AssertionContext) error {
	records, err := actx.Store.ReadJourney(actx.Ctx, actx.JourneyToken)
	if err != nil {
		return fmt.Errorf("journal_consistent: read journey: %w", err)
	}

	if len(records) != len(trace) {
		return &AssertionError{
			Type:     AssertJournalConsistent,
			Expected: fmt.Sprintf("%d journaled records", len(trace)),
			Actual:   fmt.Sprintf("%d journaled records", len(records)),
			Trace:    trace,
		}
	}

	for i, record := range records {
		event := trace[i]
		journaled := TraceEvent{
			Intent: record.IntentID,
			Op:     record.Op,
			From:   record.From,
			To:     record.To,
			Note:   record.Note,
			Seq:    record.Seq,
		}
		if journaled != event {
			return &AssertionError{
				Type:     AssertJournalConsistent,
				Expected: fmt.Sprintf("record %d = %+v", i, event),
				Actual:   fmt.Sprintf("record %d = %+v", i, journaled),
				Trace:    trace,
			}
		}
	}

	return nil
}

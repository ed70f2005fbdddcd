// Package harness provides a conformance testing framework for
// observable intents.
//
// Scenarios are YAML files pairing CUE intent definitions with a
// scripted sequence of operations. Each step applies one operation
// through a real engine (fresh in-memory store, fixed journey token,
// deterministic clock) and optionally checks the intent's observable
// surface afterwards: state, predicates, message, allowed, protection.
//
// After the steps, scenario-level assertions validate the recorded
// trace and the final states, and journal_consistent cross-checks the
// in-memory trace against what the store journaled.
//
// Golden files capture the full trace in canonical JSON, so any change
// in transition order, notes, or seq numbering shows up as a diff.
package harness

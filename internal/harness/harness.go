package harness

import (
	"context"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/wimi/internal/authz"
	"github.com/roach88/wimi/internal/compiler"
	"github.com/roach88/wimi/internal/engine"
	"github.com/roach88/wimi/internal/intent"
	"github.com/roach88/wimi/internal/store"
	"github.com/roach88/wimi/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
// The journey token is fixed and the engine's clock starts at zero, so
// the same scenario always produces a byte-identical trace.
//
// Execution flow:
//  1. Create fresh in-memory store and engine
//  2. Compile CUE definitions and create the intents
//  3. Apply each step, validating its expect clause
//  4. Evaluate scenario assertions against trace, states, and journal
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	var opts []engine.Option
	if scenario.Grants != "" {
		resolver, err := authz.LoadGrants(scenario.Grants)
		if err != nil {
			return nil, fmt.Errorf("failed to load grants: %w", err)
		}
		opts = append(opts, engine.WithResolver(resolver))
	}

	eng := engine.New(st, testutil.NewFixedTokenGenerator(scenario.JourneyToken), opts...)
	defer eng.Close()

	ctx := context.Background()
	result := NewResult()

	intents, err := createIntents(ctx, eng, scenario.Specs, result)
	if err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		it, ok := intents[step.Intent]
		if !ok {
			return nil, fmt.Errorf("steps[%d]: intent %q not defined by any spec", i, step.Intent)
		}

		if err := eng.Apply(step.Intent, step.Op, step.Note); err != nil {
			return nil, fmt.Errorf("steps[%d]: apply %s: %w", i, step.Op, err)
		}

		if step.Expect != nil {
			for _, msg := range evaluateExpect(it, step.Expect) {
				result.AddError(fmt.Sprintf("steps[%d] (%s %s): %s", i, step.Intent, step.Op, msg))
			}
		}
	}

	for id, it := range intents {
		result.FinalStates[id] = string(it.State())
	}

	if err := eng.JournalErr(); err != nil {
		result.AddError(fmt.Sprintf("journal: %v", err))
	}

	actx := &AssertionContext{
		Store:        st,
		Ctx:          ctx,
		JourneyToken: eng.JourneyToken(),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// createIntents compiles every spec file and hosts the intents in the
// engine, attaching the trace observer to each.
func createIntents(ctx context.Context, eng *engine.Engine, specPaths []string, result *Result) (map[string]*intent.Intent, error) {
	cuectx := cuecontext.New()
	intents := make(map[string]*intent.Intent)

	for _, path := range specPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec %s: %w", path, err)
		}

		root := cuectx.CompileBytes(data)
		specs, err := compiler.CompileAll(root)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", path, err)
		}

		for _, spec := range specs {
			if errs := compiler.Validate(spec); len(errs) > 0 {
				return nil, fmt.Errorf("invalid definition %s in %s: %s", spec.ID, path, errs[0].Error())
			}

			it, err := eng.CreateIntent(ctx, *spec)
			if err != nil {
				return nil, fmt.Errorf("failed to create intent %s: %w", spec.ID, err)
			}

			// The journaling observer registered first, so by the
			// time this runs the clock already stamped this
			// transition; Current() is its seq.
			id := spec.ID
			it.Subscribe(func(tr intent.Transition) {
				result.AddTrace(id, string(tr.Op), string(tr.From), string(tr.To), tr.Note, eng.Clock().Current())
			})

			intents[id] = it
		}
	}

	return intents, nil
}

// evaluateExpect checks the intent's observable surface against an
// expect clause, returning one message per mismatch.
func evaluateExpect(it *intent.Intent, exp *ExpectClause) []string {
	var msgs []string

	if exp.State != "" && string(it.State()) != exp.State {
		msgs = append(msgs, fmt.Sprintf("state = %q, want %q", it.State(), exp.State))
	}
	if exp.Message != "" && it.Message() != exp.Message {
		msgs = append(msgs, fmt.Sprintf("message = %q, want %q", it.Message(), exp.Message))
	}

	checks := []struct {
		name string
		want *bool
		got  bool
	}{
		{"active", exp.Active, it.IsActive()},
		{"completed", exp.Completed, it.IsCompleted()},
		{"failed", exp.Failed, it.IsFailed()},
		{"blocked", exp.Blocked, it.IsBlocked()},
		{"waiting", exp.Waiting, it.IsWaiting()},
		{"allowed", exp.Allowed, it.Allowed()},
		{"protect", exp.Protect, it.ProtectNavigation()},
	}
	for _, c := range checks {
		if c.want != nil && c.got != *c.want {
			msgs = append(msgs, fmt.Sprintf("%s = %v, want %v", c.name, c.got, *c.want))
		}
	}

	return msgs
}

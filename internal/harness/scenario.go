package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wimi/internal/ir"
)

// Scenario defines a conformance test scenario.
// Scenarios execute a sequence of operations against hosted intents and
// assert on the resulting trace and final states.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE definition files to compile and load.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Grants optionally names a YAML capability-grant file for the
	// scenario's resolver. Without it, intents with requirements are
	// not allowed.
	Grants string `yaml:"grants,omitempty"`

	// Steps contains the operations to apply, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and states.
	// Supported types: trace_count, trace_order, final_state,
	// journal_consistent.
	Assertions []Assertion `yaml:"assertions"`

	// JourneyToken is an optional fixed journey token.
	// If empty, defaults to "test-journey-default" for deterministic
	// golden file comparison.
	JourneyToken string `yaml:"journey_token,omitempty"`
}

// Step applies one operation to one intent, optionally validating the
// observable surface afterwards.
type Step struct {
	// Intent is the target intent id.
	Intent string `yaml:"intent"`

	// Op is the operation name (start, progress, wait, block,
	// complete, fail, reset, replay).
	Op string `yaml:"op"`

	// Note is the optional annotation (step name, reason, payload).
	Note string `yaml:"note,omitempty"`

	// Expect specifies the expected observable surface after the step.
	// If nil, no validation is performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected observable surface of an intent.
// Every field is optional; only specified fields are validated.
type ExpectClause struct {
	// State is the expected state name.
	State string `yaml:"state,omitempty"`

	// Message is the expected user-facing wording.
	Message string `yaml:"message,omitempty"`

	// Predicate expectations. Pointers distinguish "unspecified"
	// from "expected false".
	Active    *bool `yaml:"active,omitempty"`
	Completed *bool `yaml:"completed,omitempty"`
	Failed    *bool `yaml:"failed,omitempty"`
	Blocked   *bool `yaml:"blocked,omitempty"`
	Waiting   *bool `yaml:"waiting,omitempty"`

	// Allowed is the expected capability verdict.
	Allowed *bool `yaml:"allowed,omitempty"`

	// Protect is the expected navigation-protection verdict.
	Protect *bool `yaml:"protect,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": Op appears exactly N times for an intent
	// - "trace_order": Ops appear in order for an intent
	// - "final_state": Intent ends in the given state
	// - "journal_consistent": Stored journal matches the observed trace
	Type string `yaml:"type"`

	// Intent is the target intent id (all types except journal_consistent).
	Intent string `yaml:"intent,omitempty"`

	// Op is the operation name (used by trace_count).
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected operation order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// State is the expected final state (used by final_state).
	State string `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount        = "trace_count"
	AssertTraceOrder        = "trace_order"
	AssertFinalState        = "final_state"
	AssertJournalConsistent = "journal_consistent"
)

// LoadScenario reads and parses a scenario YAML file.
// Spec and grant paths are resolved relative to the scenario file's
// directory. Returns an error if the file is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve relative paths against the scenario's directory.
	base := filepath.Dir(path)
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) {
			scenario.Specs[i] = filepath.Join(base, specPath)
		}
	}
	if scenario.Grants != "" && !filepath.IsAbs(scenario.Grants) {
		scenario.Grants = filepath.Join(base, scenario.Grants)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without path resolution or
// file-existence checks. Used by LoadScenario and by tests that build
// scenarios inline.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}
	if s.Grants != "" {
		if _, err := os.Stat(s.Grants); os.IsNotExist(err) {
			return fmt.Errorf("grants file not found: %s", s.Grants)
		}
	}

	for i, step := range s.Steps {
		if step.Intent == "" {
			return fmt.Errorf("steps[%d]: intent is required", i)
		}
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !ir.ValidOp(step.Op) {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil && step.Expect.State != "" && !validStateName(step.Expect.State) {
			return fmt.Errorf("steps[%d].expect: unknown state %q", i, step.Expect.State)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: intent is required for trace_count", index)
		}
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: intent is required for trace_order", index)
		}
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertFinalState:
		if a.Intent == "" {
			return fmt.Errorf("assertions[%d]: intent is required for final_state", index)
		}
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
		if !validStateName(a.State) {
			return fmt.Errorf("assertions[%d]: unknown state %q", index, a.State)
		}
	case AssertJournalConsistent:
		// No parameters.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validStateName(name string) bool {
	switch name {
	case "idle", "started", "in-progress", "waiting", "blocked", "completed", "failed":
		return true
	default:
		return false
	}
}

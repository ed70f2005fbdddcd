package compiler

import (
	"fmt"

	"github.com/roach88/wimi/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// IntentSpec errors (E101-E109)
	ErrIntentIDEmpty       = "E101" // intent id is required
	ErrUnknownMessageState = "E102" // message override keys an unknown state
	ErrDuplicateCapability = "E103" // capability listed twice in requires
	ErrUnknownProtection   = "E104" // unrecognized protection policy name
	ErrEmptyCapability     = "E105" // empty string in requires
)

// knownStates names the seven states message overrides may key.
var knownStates = map[string]bool{
	"idle": true, "started": true, "in-progress": true, "waiting": true,
	"blocked": true, "completed": true, "failed": true,
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled IntentSpec against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.IntentSpec:
		return validateIntentSpec(spec)
	case ir.IntentSpec:
		return validateIntentSpec(&spec)
	default:
		return []ValidationError{{
			Field:   "spec",
			Message: fmt.Sprintf("unsupported type %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateIntentSpec(spec *ir.IntentSpec) []ValidationError {
	var errs []ValidationError

	if spec.ID == "" {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: "intent id is required",
			Code:    ErrIntentIDEmpty,
		})
	}

	seen := make(map[string]bool, len(spec.Requires))
	for _, capability := range spec.Requires {
		if capability == "" {
			errs = append(errs, ValidationError{
				Field:   "requires",
				Message: "capability must not be empty",
				Code:    ErrEmptyCapability,
			})
			continue
		}
		if seen[capability] {
			errs = append(errs, ValidationError{
				Field:   "requires",
				Message: fmt.Sprintf("capability %q listed more than once", capability),
				Code:    ErrDuplicateCapability,
			})
		}
		seen[capability] = true
	}

	for state := range spec.Messages {
		if !knownStates[state] {
			errs = append(errs, ValidationError{
				Field:   "messages." + state,
				Message: fmt.Sprintf("unknown state %q", state),
				Code:    ErrUnknownMessageState,
			})
		}
	}

	if !ir.ValidProtection(spec.Protection) {
		errs = append(errs, ValidationError{
			Field:   "protection",
			Message: fmt.Sprintf("unknown protection policy %q (want active, always, or never)", spec.Protection),
			Code:    ErrUnknownProtection,
		})
	}

	return errs
}

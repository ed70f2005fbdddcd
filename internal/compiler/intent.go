// Package compiler turns CUE intent definitions into ir.IntentSpec.
//
// Definitions live under an "intent" struct, one entry per intent:
//
//	intent: upload: {
//		purpose:  "upload a file to the media library"
//		actor:    "alice"
//		requires: ["files:write", "quota:ok"]
//		messages: failed: "Upload broke"
//		protection: "active"
//	}
//
// The struct label is the intent id. Every field except the label is
// optional; validation beyond shape checks lives in validate.go.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/wimi/internal/ir"
)

// CompileIntent parses a CUE value into an IntentSpec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the intent struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`intent: upload: { purpose: "..." }`)
//	spec, err := CompileIntent(v.LookupPath(cue.ParsePath("intent.upload")))
func CompileIntent(v cue.Value) (*ir.IntentSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.IntentSpec{}

	// The intent id is the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.ID = labels[len(labels)-1].String()
	}
	if spec.ID == "" {
		return nil, &CompileError{
			Field:   "id",
			Message: "intent id is required (the struct label)",
			Pos:     v.Pos(),
		}
	}

	var err error
	if spec.Purpose, err = optionalString(v, "purpose"); err != nil {
		return nil, err
	}
	if spec.Actor, err = optionalString(v, "actor"); err != nil {
		return nil, err
	}
	if spec.Protection, err = optionalString(v, "protection"); err != nil {
		return nil, err
	}

	if spec.Requires, err = parseRequires(v); err != nil {
		return nil, err
	}
	if spec.Messages, err = parseMessages(v); err != nil {
		return nil, err
	}

	return spec, nil
}

// CompileAll parses every intent definition under the root value's
// "intent" struct, in declaration order.
//
// Returns an error if the "intent" struct is absent or any definition
// fails to compile.
func CompileAll(root cue.Value) ([]*ir.IntentSpec, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iv := root.LookupPath(cue.ParsePath("intent"))
	if !iv.Exists() {
		return nil, &CompileError{
			Field:   "intent",
			Message: "no intent definitions found (expected a top-level \"intent\" struct)",
			Pos:     root.Pos(),
		}
	}

	iter, err := iv.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   "intent",
			Message: fmt.Sprintf("must be a struct of definitions: %v", err),
			Pos:     iv.Pos(),
		}
	}

	var specs []*ir.IntentSpec
	for iter.Next() {
		spec, err := CompileIntent(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// optionalString reads a string field, returning "" when absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a string: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// parseRequires reads the optional capability list, preserving order.
func parseRequires(v cue.Value) ([]string, error) {
	rv := v.LookupPath(cue.ParsePath("requires"))
	if !rv.Exists() {
		return nil, nil
	}

	iter, err := rv.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "requires",
			Message: fmt.Sprintf("must be a list of capability strings: %v", err),
			Pos:     rv.Pos(),
		}
	}

	var requires []string
	for iter.Next() {
		capability, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "requires",
				Message: fmt.Sprintf("capability must be a string: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		requires = append(requires, capability)
	}
	return requires, nil
}

// parseMessages reads the optional state -> wording overrides.
func parseMessages(v cue.Value) (map[string]string, error) {
	mv := v.LookupPath(cue.ParsePath("messages"))
	if !mv.Exists() {
		return nil, nil
	}

	iter, err := mv.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   "messages",
			Message: fmt.Sprintf("must be a struct of state -> string: %v", err),
			Pos:     mv.Pos(),
		}
	}

	messages := make(map[string]string)
	for iter.Next() {
		wording, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "messages." + iter.Label(),
				Message: fmt.Sprintf("must be a string: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		messages[iter.Label()] = wording
	}
	return messages, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

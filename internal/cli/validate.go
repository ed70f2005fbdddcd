package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"github.com/spf13/cobra"

	"github.com/roach88/wimi/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <defs-dir>",
		Short: "Validate intent definitions without full compilation",
		Long: `Validate CUE intent definitions without producing compiled output.

Performs syntax checking, schema validation, and consistency checks.
Faster than compile for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Use shared loader with fail-fast mode for validation
	loadResult, loadErrors := LoadIntents(defsDir, LoadModeFailFast)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, defsDir)

	// Validate all intents using the loaded CUE value
	validationErrors := validateAll(loadResult.CUEValue, formatter)

	// Add any load errors as validation errors
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter)
}

// validateAll validates every intent in the CUE value.
// Compile errors and schema errors are collected, not fail-fast.
func validateAll(value cue.Value, formatter *OutputFormatter) []compiler.ValidationError {
	var allErrors []compiler.ValidationError

	intentsVal := value.LookupPath(cue.ParsePath("intent"))
	if intentsVal.Exists() {
		iter, err := intentsVal.Fields()
		if err == nil {
			for iter.Next() {
				intentName := iter.Label()
				formatter.VerboseLog("Validating intent: %s", intentName)

				spec, compileErr := compiler.CompileIntent(iter.Value())
				if compileErr != nil {
					var cErr *compiler.CompileError
					if errors.As(compileErr, &cErr) {
						allErrors = append(allErrors, compiler.ValidationError{
							Field:   cErr.Field,
							Message: cErr.Message,
							Code:    MapFieldToErrorCode(cErr.Field),
						})
					} else {
						allErrors = append(allErrors, compiler.ValidationError{
							Field:   "intent." + intentName,
							Message: compileErr.Error(),
							Code:    ErrCodeGeneric,
						})
					}
					continue
				}

				allErrors = append(allErrors, compiler.Validate(spec)...)
			}
		}
	}

	// Check if we found anything
	intentCount := 0
	if intentsVal.Exists() {
		iter, _ := intentsVal.Fields()
		for iter.Next() {
			intentCount++
		}
	}
	if intentCount == 0 && len(allErrors) == 0 {
		allErrors = append(allErrors, compiler.ValidationError{
			Field:   "defs",
			Message: "no intents found in definitions",
			Code:    ErrCodeGeneric,
		})
	}

	return allErrors
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ All definitions valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load-level errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wimi/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled intent definitions.
type CompilationResult struct {
	Intents []*ir.IntentSpec `json:"intents"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	IntentCount       int
	TotalCapabilities int
	MessageOverrides  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <defs-dir>",
		Short: "Compile CUE intent definitions to canonical form",
		Long: `Compile CUE intent definitions to their canonical compiled form.

The compiler parses CUE files, validates them against the definition
schema, and outputs canonical JSON for use by the runtime.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, defsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Use shared loader with collect-all mode
	loadResult, loadErrors := LoadIntents(defsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, defsDir)

	for _, spec := range loadResult.Intents {
		formatter.VerboseLog("Compiling intent: %s", spec.ID)
	}

	// Handle compilation errors
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{Intents: loadResult.Intents}
	stats := calculateStats(result)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeCompiledToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// calculateStats computes summary statistics from compilation result.
func calculateStats(result *CompilationResult) CompilationStats {
	stats := CompilationStats{
		IntentCount: len(result.Intents),
	}

	for _, spec := range result.Intents {
		stats.TotalCapabilities += len(spec.Requires)
		stats.MessageOverrides += len(spec.Messages)
	}

	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d intent(s)\n\n", stats.IntentCount)

	if len(result.Intents) > 0 {
		fmt.Fprintln(formatter.Writer, "Intents:")
		for _, spec := range result.Intents {
			fmt.Fprintf(formatter.Writer, "  %s", spec.ID)
			if spec.Purpose != "" {
				fmt.Fprintf(formatter.Writer, " - %s", spec.Purpose)
			}
			fmt.Fprintln(formatter.Writer)
			if len(spec.Requires) > 0 {
				fmt.Fprintf(formatter.Writer, "    requires: %v\n", spec.Requires)
			}
		}
		fmt.Fprintln(formatter.Writer)
	}

	fmt.Fprintf(formatter.Writer, "Capabilities: %d, message overrides: %d\n",
		stats.TotalCapabilities, stats.MessageOverrides)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Written to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		details := make([]string, 0, len(errs))
		for _, err := range errs {
			details = append(details, err.Error())
		}
		firstCode := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(errs[0], &loadErr) {
			firstCode = loadErr.Code
		}
		_ = formatter.Error(firstCode, errs[0].Error(), details)
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %v\n", err)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeCompiledToFile writes the compiled intents as pretty-printed JSON.
// The canonical byte form lives in the journal; the file output is for
// inspection and tooling.
func writeCompiledToFile(result *CompilationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

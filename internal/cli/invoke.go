package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wimi/internal/authz"
	"github.com/roach88/wimi/internal/compiler"
	"github.com/roach88/wimi/internal/engine"
	"github.com/roach88/wimi/internal/ir"
	"github.com/roach88/wimi/internal/store"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	Defs     string
	Journey  string
	Note     string
	Grants   string
}

// InvokeResult holds the observable surface after applying an operation.
type InvokeResult struct {
	JourneyToken     string `json:"journey_token"`
	Intent           string `json:"intent"`
	Op               string `json:"op"`
	From             string `json:"from"`
	To               string `json:"to"`
	Seq              int64  `json:"seq"`
	Message          string `json:"message"`
	Active           bool   `json:"active"`
	Completed        bool   `json:"completed"`
	Failed           bool   `json:"failed"`
	Blocked          bool   `json:"blocked"`
	Waiting          bool   `json:"waiting"`
	Allowed          bool   `json:"allowed"`
	ProtectionActive bool   `json:"protection_active"`
	CanLeave         bool   `json:"can_leave"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <intent> <op>",
		Short: "Apply an operation to an intent",
		Long: `Apply a transition operation to an intent within a journey.

The runtime loads the intent definitions, replays the journey's prior
transitions from the journal, applies the new operation, and journals it.
Re-running with the same journey token resumes where it left off; the
journal writes are idempotent.

Operations: start, progress, wait, block, complete, fail, reset, replay

Examples:
  wimi invoke upload start --db ./wimi.db --defs ./defs --journey order-42
  wimi invoke upload fail --db ./wimi.db --defs ./defs --journey order-42 --note "disk full"
  wimi invoke upload start --db ./wimi.db --defs ./defs --journey order-42 --grants ./grants.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Defs, "defs", "", "path to intent definitions directory (required)")
	_ = cmd.MarkFlagRequired("defs")
	cmd.Flags().StringVar(&opts.Journey, "journey", "", "journey token (required)")
	_ = cmd.MarkFlagRequired("journey")
	cmd.Flags().StringVar(&opts.Note, "note", "", "note attached to the transition")
	cmd.Flags().StringVar(&opts.Grants, "grants", "", "path to capability grants YAML")

	return cmd
}

func runInvoke(opts *InvokeOptions, intentID, op string, cmd *cobra.Command) error {
	ctx := context.Background()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if !ir.ValidOp(op) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown operation %q", op))
	}

	// Load and validate definitions
	loadResult, loadErrors := LoadIntents(opts.Defs, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load definitions", loadErrors[0])
	}
	for _, spec := range loadResult.Intents {
		if errs := compiler.Validate(spec); len(errs) > 0 {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid definition %q", spec.ID), errs[0])
		}
	}

	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	engOpts := []engine.Option{}
	if opts.Grants != "" {
		resolver, err := authz.LoadGrants(opts.Grants)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load grants", err)
		}
		engOpts = append(engOpts, engine.WithResolver(resolver))
	}

	eng := engine.New(st, engine.NewFixedGenerator(opts.Journey), engOpts...)
	defer eng.Close()

	for _, spec := range loadResult.Intents {
		if _, err := eng.CreateIntent(ctx, *spec); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to register intent %q", spec.ID), err)
		}
	}

	// Refold the journey's prior transitions. The clock advances through
	// the same seqs, so the re-journaled records are byte-identical and
	// the idempotent writes are no-ops.
	prior, err := st.ReadJourney(ctx, opts.Journey)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journey", err)
	}
	for _, tr := range prior {
		if err := eng.Apply(tr.IntentID, tr.Op, tr.Note); err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to refold transition seq %d", tr.Seq), err)
		}
	}
	formatter.VerboseLog("Refolded %d prior transition(s) for journey %s", len(prior), opts.Journey)

	it, ok := eng.Get(intentID)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("intent %q not defined", intentID))
	}

	from := it.State().String()
	if err := eng.Apply(intentID, op, opts.Note); err != nil {
		return WrapExitError(ExitCommandError, "failed to apply operation", err)
	}
	if err := eng.JournalErr(); err != nil {
		return WrapExitError(ExitFailure, "transition applied but journal write failed", err)
	}

	protected := it.ProtectNavigation()
	result := InvokeResult{
		JourneyToken:     opts.Journey,
		Intent:           intentID,
		Op:               op,
		From:             from,
		To:               it.State().String(),
		Seq:              eng.Clock().Current(),
		Message:          it.Message(),
		Active:           it.IsActive(),
		Completed:        it.IsCompleted(),
		Failed:           it.IsFailed(),
		Blocked:          it.IsBlocked(),
		Waiting:          it.IsWaiting(),
		Allowed:          it.Allowed(),
		ProtectionActive: protected,
		CanLeave:         !protected,
	}

	return outputInvokeResult(formatter, result)
}

func outputInvokeResult(formatter *OutputFormatter, result InvokeResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s %s: %s -> %s (seq %d)\n", result.Intent, result.Op, result.From, result.To, result.Seq)
	fmt.Fprintf(w, "  message:   %s\n", result.Message)
	fmt.Fprintf(w, "  allowed:   %t\n", result.Allowed)
	fmt.Fprintf(w, "  protected: %t (can leave: %t)\n", result.ProtectionActive, result.CanLeave)
	return nil
}

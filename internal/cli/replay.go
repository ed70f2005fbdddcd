package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wimi/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database     string
	JourneyToken string // optional - specific journey only
}

// ReplayJourneyResult holds the replay result for a single journey.
type ReplayJourneyResult struct {
	JourneyToken string            `json:"journey_token"`
	Transitions  int               `json:"transitions"`
	LastSeq      int64             `json:"last_seq"`
	FinalStates  map[string]string `json:"final_states"`
	Consistent   bool              `json:"consistent"`
	Divergences  []string          `json:"divergences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Journeys      []ReplayJourneyResult `json:"journeys"`
	TotalJourneys int                   `json:"total_journeys"`
	AllConsistent bool                  `json:"all_consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Fold the journal and verify consistency",
		Long: `Fold the transition journal and verify journal consistency.

Every journey is replayed from the initial state. Each record's origin
state must match the folded state at that point; a mismatch is reported
as a divergence.

Exit codes:
  0 - All journeys are consistent
  1 - Divergences detected
  2 - Command error (database not found, etc.)

Examples:
  wimi replay --db ./wimi.db
  wimi replay --db ./wimi.db --journey order-42
  wimi replay --db ./wimi.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.JourneyToken, "journey", "", "replay specific journey only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var states []store.JourneyState
	if opts.JourneyToken != "" {
		state, err := st.Rebuild(ctx, opts.JourneyToken)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to rebuild journey", err)
		}
		states = []store.JourneyState{state}
	} else {
		states, err = st.RebuildAll(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to rebuild journeys", err)
		}
	}

	if len(states) == 0 || (len(states) == 1 && len(states[0].Transitions) == 0) {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{
				Journeys:      []ReplayJourneyResult{},
				AllConsistent: true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No journeys found in database.")
		return nil
	}

	result := ReplayResult{
		Journeys:      make([]ReplayJourneyResult, 0, len(states)),
		TotalJourneys: len(states),
		AllConsistent: true,
	}

	for _, state := range states {
		jr := ReplayJourneyResult{
			JourneyToken: state.JourneyToken,
			Transitions:  len(state.Transitions),
			LastSeq:      state.LastSeq,
			FinalStates:  state.FinalStates,
			Consistent:   len(state.Divergences) == 0,
		}
		for _, d := range state.Divergences {
			jr.Divergences = append(jr.Divergences, d.String())
		}
		if !jr.Consistent {
			result.AllConsistent = false
		}
		result.Journeys = append(result.Journeys, jr)
	}

	if opts.Format == "json" {
		if err := outputReplayJSON(cmd, result); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.AllConsistent {
		return NewExitError(ExitFailure, "journal divergences detected")
	}
	return nil
}

func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	return formatter.Success(result)
}

func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()

	for _, jr := range result.Journeys {
		mark := "✓"
		if !jr.Consistent {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d transition(s), last seq %d\n", mark, jr.JourneyToken, jr.Transitions, jr.LastSeq)
		for _, intentID := range sortedKeys(jr.FinalStates) {
			fmt.Fprintf(w, "    %s: %s\n", intentID, jr.FinalStates[intentID])
		}
		for _, d := range jr.Divergences {
			fmt.Fprintf(w, "    divergence: %s\n", d)
		}
	}

	fmt.Fprintln(w)
	if result.AllConsistent {
		fmt.Fprintf(w, "All %d journey(s) consistent\n", result.TotalJourneys)
	} else {
		fmt.Fprintf(w, "Divergences detected across %d journey(s)\n", result.TotalJourneys)
	}
}

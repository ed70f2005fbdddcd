package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/wimi/internal/ir"
	"github.com/roach88/wimi/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database     string
	JourneyToken string
	Intent       string // optional - filter to specific intent
}

// TraceEvent represents a single transition in the trace timeline.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Intent string `json:"intent"`
	Op     string `json:"op"`
	From   string `json:"from"`
	To     string `json:"to"`
	Note   string `json:"note,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalTransitions int  `json:"total_transitions"`
	Intents          int  `json:"intents"`
	Consistent       bool `json:"consistent"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	JourneyToken string            `json:"journey_token"`
	Timeline     []TraceEvent      `json:"timeline"`
	FinalStates  map[string]string `json:"final_states"`
	Stats        TraceStats        `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the transition timeline for a journey",
		Long: `Show the journaled transition timeline for a journey.

The output includes:
- Timeline: Chronological list of transitions with notes
- Final states: Where each intent ended up after folding the journal
- Stats: Summary statistics including journal consistency

Examples:
  wimi trace --db ./wimi.db --journey order-42
  wimi trace --db ./wimi.db --journey order-42 --intent upload
  wimi trace --db ./wimi.db --journey order-42 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.JourneyToken, "journey", "", "journey token to trace (required)")
	_ = cmd.MarkFlagRequired("journey")
	cmd.Flags().StringVar(&opts.Intent, "intent", "", "filter to specific intent")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	state, err := st.Rebuild(ctx, opts.JourneyToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to rebuild journey", err)
	}

	if len(state.Transitions) == 0 {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceResult{
				JourneyToken: opts.JourneyToken,
				Timeline:     []TraceEvent{},
				FinalStates:  map[string]string{},
				Stats:        TraceStats{Consistent: true},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No transitions found for journey: %s\n", opts.JourneyToken)
		return nil
	}

	result := TraceResult{
		JourneyToken: opts.JourneyToken,
		Timeline:     buildTimeline(state.Transitions, opts.Intent),
		FinalStates:  state.FinalStates,
		Stats: TraceStats{
			Intents:    len(state.FinalStates),
			Consistent: len(state.Divergences) == 0,
		},
	}
	result.Stats.TotalTransitions = len(result.Timeline)

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result)
}

// buildTimeline converts journal records to trace events, optionally
// filtered to a single intent.
func buildTimeline(transitions []ir.Transition, intentFilter string) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(transitions))
	for _, tr := range transitions {
		if intentFilter != "" && tr.IntentID != intentFilter {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:    tr.Seq,
			Intent: tr.IntentID,
			Op:     tr.Op,
			From:   tr.From,
			To:     tr.To,
			Note:   tr.Note,
		})
	}
	return timeline
}

func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	return formatter.Success(result)
}

func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Journey: %s\n\n", result.JourneyToken)

	fmt.Fprintln(w, "Timeline:")
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  %4d  %s %s: %s -> %s", ev.Seq, ev.Intent, ev.Op, ev.From, ev.To)
		if ev.Note != "" {
			fmt.Fprintf(w, " (%s)", ev.Note)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Final states:")
	for _, intentID := range sortedKeys(result.FinalStates) {
		fmt.Fprintf(w, "  %s: %s\n", intentID, result.FinalStates[intentID])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Transitions: %d, intents: %d, consistent: %t\n",
		result.Stats.TotalTransitions, result.Stats.Intents, result.Stats.Consistent)

	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package store

import (
	"context"
	"fmt"

	"github.com/roach88/wimi/internal/ir"
)

// JourneyState is the rebuilt state of a journey, derived by folding its
// journal records in order.
type JourneyState struct {
	JourneyToken string
	Transitions  []ir.Transition
	FinalStates  map[string]string // intent id -> last recorded state
	LastSeq      int64
	Divergences  []Divergence
}

// Divergence marks a journal record whose From state does not match the
// state folded from the records before it. A clean journal has none;
// a divergence indicates lost or reordered records.
type Divergence struct {
	TransitionID string
	IntentID     string
	Seq          int64
	Expected     string // state folded from prior records
	Recorded     string // the record's From field
}

func (d Divergence) String() string {
	return fmt.Sprintf("transition %s (intent %s, seq %d): expected from=%q, recorded from=%q",
		d.TransitionID, d.IntentID, d.Seq, d.Expected, d.Recorded)
}

// Rebuild folds all transitions for a journey into per-intent final
// states, verifying that each record's From matches the folded state.
//
// Every intent starts at "idle". Folding uses only the journal content,
// not the runtime's operation table, so a rebuilt state reflects exactly
// what was recorded.
func (s *Store) Rebuild(ctx context.Context, journeyToken string) (JourneyState, error) {
	state := JourneyState{
		JourneyToken: journeyToken,
		FinalStates:  make(map[string]string),
	}

	trs, err := s.ReadJourney(ctx, journeyToken)
	if err != nil {
		return state, fmt.Errorf("rebuild journey: %w", err)
	}
	state.Transitions = trs

	for _, tr := range trs {
		current, seen := state.FinalStates[tr.IntentID]
		if !seen {
			current = "idle"
		}
		if tr.From != current {
			state.Divergences = append(state.Divergences, Divergence{
				TransitionID: tr.ID,
				IntentID:     tr.IntentID,
				Seq:          tr.Seq,
				Expected:     current,
				Recorded:     tr.From,
			})
		}
		state.FinalStates[tr.IntentID] = tr.To
		if tr.Seq > state.LastSeq {
			state.LastSeq = tr.Seq
		}
	}

	return state, nil
}

// RebuildAll rebuilds every journey in the store, keyed by token.
// Journeys are processed in alphabetical token order.
func (s *Store) RebuildAll(ctx context.Context) ([]JourneyState, error) {
	tokens, err := s.ListJourneyTokens(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]JourneyState, 0, len(tokens))
	for _, token := range tokens {
		state, err := s.Rebuild(ctx, token)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	return states, nil
}

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM transitions
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}

// GetLastSeqForJourney returns the highest seq number used in a journey.
func (s *Store) GetLastSeqForJourney(ctx context.Context, journeyToken string) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM transitions WHERE journey_token = ?
	`, journeyToken).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq for journey: %w", err)
	}
	return maxSeq, nil
}

package ir

// Operation names as they appear in transition records and scenario files.
// The intent package defines the typed operations; records store the name.
const (
	OpStart    = "start"
	OpProgress = "progress"
	OpWait     = "wait"
	OpBlock    = "block"
	OpComplete = "complete"
	OpFail     = "fail"
	OpReset    = "reset"
	OpReplay   = "replay"
)

// ValidOp reports whether name is a recognized operation name.
func ValidOp(name string) bool {
	switch name {
	case OpStart, OpProgress, OpWait, OpBlock, OpComplete, OpFail, OpReset, OpReplay:
		return true
	default:
		return false
	}
}

// Transition is one journaled state change of one intent.
//
// Records are written synchronously during observer fan-out and are the
// durable form of the core's transition history. From/To/Op are stored as
// plain strings so the journal stays readable without the intent package.
type Transition struct {
	// ID is the content-addressed record identity (see TransitionID).
	ID string `json:"id"`

	// JourneyToken correlates all transitions applied in one run.
	JourneyToken string `json:"journey_token"`

	// IntentID names the intent this transition belongs to.
	IntentID string `json:"intent_id"`

	// Seq is the engine's monotonic logical clock value for this record.
	// Ordering within a journey is (seq, id) - see store read paths.
	Seq int64 `json:"seq"`

	// Op is the operation name that caused the transition.
	Op string `json:"op"`

	// From is the state before the transition.
	From string `json:"from"`

	// To is the state after the transition. Always Op's fixed target.
	To string `json:"to"`

	// Note is the optional free-form annotation (step name, reason,
	// or failure payload). Advisory only, never validated.
	Note string `json:"note,omitempty"`

	// SpecHash pins the record to the intent definition it ran under.
	SpecHash string `json:"spec_hash"`

	// EngineVersion records the engine that produced the record.
	EngineVersion string `json:"engine_version"`
}

// transitionIdentity builds the identity object hashed by TransitionID.
//
// SpecHash and EngineVersion are intentionally excluded: the ID represents
// what happened, not which build observed it. Re-journaling the same
// journey under a newer engine yields identical record IDs.
func transitionIdentity(journeyToken, intentID string, seq int64, op, from, to, note string) map[string]any {
	m := map[string]any{
		"journey_token": journeyToken,
		"intent_id":     intentID,
		"seq":           seq,
		"op":            op,
		"from":          from,
		"to":            to,
	}
	if note != "" {
		m["note"] = note
	}
	return m
}

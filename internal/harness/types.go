package harness

// TraceEvent is one observed transition in a scenario run.
type TraceEvent struct {
	Intent string `json:"intent"`
	Op     string `json:"op"`
	From   string `json:"from"`
	To     string `json:"to"`
	Note   string `json:"note,omitempty"`
	Seq    int64  `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every observed transition in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalStates maps intent id to its state after the last step.
	FinalStates map[string]string `json:"final_states"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Trace:       []TraceEvent{},
		Errors:      []string{},
		FinalStates: make(map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends one observed transition.
func (r *Result) AddTrace(intentID, op, from, to, note string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Intent: intentID,
		Op:     op,
		From:   from,
		To:     to,
		Note:   note,
		Seq:    seq,
	})
}

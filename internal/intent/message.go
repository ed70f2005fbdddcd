package intent

// defaultMessages is the state-indexed default wording. Descriptor
// metadata supplied at construction overrides per state.
var defaultMessages = map[State]string{
	StateIdle:       "Not started",
	StateStarted:    "Started",
	StateInProgress: "In progress",
	StateWaiting:    "Waiting",
	StateBlocked:    "Blocked",
	StateCompleted:  "Completed",
	StateFailed:     "Failed",
}

// Message returns the human-readable wording for the current state.
//
// Pure with respect to the machine: it derives from current state,
// immutable descriptor metadata, and (for failed) the last failure
// payload. It never mutates state and never fails.
func (i *Intent) Message() string {
	i.mu.Lock()
	state := i.state
	failure := i.failure
	i.mu.Unlock()

	msg, ok := i.spec.Messages[string(state)]
	if !ok {
		msg = defaultMessages[state]
	}

	if state == StateFailed && failure != "" {
		return msg + ": " + failure
	}
	return msg
}

package intent

// State is one of the seven fixed intent states.
//
// There is no "in transition" or null state: an Intent always holds
// exactly one of these values, and only the transition operations
// mutate it.
type State string

const (
	// StateIdle is the initial state. Reset and Replay return here.
	StateIdle State = "idle"

	// StateStarted marks the beginning of work.
	StateStarted State = "started"

	// StateInProgress marks work underway, optionally annotated per step.
	StateInProgress State = "in-progress"

	// StateWaiting marks a pause, e.g. pending external approval.
	StateWaiting State = "waiting"

	// StateBlocked marks work that cannot continue without intervention.
	StateBlocked State = "blocked"

	// StateCompleted is the success terminal.
	StateCompleted State = "completed"

	// StateFailed is the failure terminal, carrying an opaque payload.
	StateFailed State = "failed"
)

// String returns the state's wire name.
func (s State) String() string {
	return string(s)
}

// IsValid reports whether s is one of the seven canonical states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateStarted, StateInProgress, StateWaiting, StateBlocked, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// AllStates returns the seven canonical states in declaration order.
func AllStates() []State {
	return []State{
		StateIdle,
		StateStarted,
		StateInProgress,
		StateWaiting,
		StateBlocked,
		StateCompleted,
		StateFailed,
	}
}

// active reports the activity predicate truth for a state:
// true for started and in-progress only.
func (s State) active() bool {
	return s == StateStarted || s == StateInProgress
}

// Op names a transition operation. Every operation is total: it forces
// its fixed target state from any current state, with no guard.
type Op string

const (
	OpStart    Op = "start"
	OpProgress Op = "progress"
	OpWait     Op = "wait"
	OpBlock    Op = "block"
	OpComplete Op = "complete"
	OpFail     Op = "fail"
	OpReset    Op = "reset"
	OpReplay   Op = "replay"
)

// Target returns the fixed state an operation forces, and false for an
// unrecognized operation name.
func (o Op) Target() (State, bool) {
	switch o {
	case OpStart:
		return StateStarted, true
	case OpProgress:
		return StateInProgress, true
	case OpWait:
		return StateWaiting, true
	case OpBlock:
		return StateBlocked, true
	case OpComplete:
		return StateCompleted, true
	case OpFail:
		return StateFailed, true
	case OpReset, OpReplay:
		return StateIdle, true
	default:
		return "", false
	}
}

// String returns the operation's wire name.
func (o Op) String() string {
	return string(o)
}

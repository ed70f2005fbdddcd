package testutil

import (
	"sync"

	"github.com/roach88/wimi/internal/intent"
)

// Recorder is an observer that captures transitions in arrival order.
//
// Register it with intent.Subscribe(rec.Observe) and assert on the
// captured slice. All methods are safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	transitions []intent.Transition
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe appends the transition to the recording.
// Implements intent.Observer as a method value.
func (r *Recorder) Observe(tr intent.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, tr)
}

// Transitions returns a copy of everything recorded so far.
func (r *Recorder) Transitions() []intent.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]intent.Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// Ops returns just the operation names, in arrival order.
func (r *Recorder) Ops() []intent.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]intent.Op, len(r.transitions))
	for i, tr := range r.transitions {
		ops[i] = tr.Op
	}
	return ops
}

// Len returns the number of recorded transitions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transitions)
}

// Reset clears the recording for test reuse.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = nil
}

// Package intent implements the observable intent state machine.
//
// An Intent is a named seven-state machine with total transition
// operations: every operation is legal from every state and simply
// forces its target state. The machine trusts the caller's sequencing;
// there is no transition-guard validation by design.
//
// Notification contract:
//   - State is fully updated before any observer runs.
//   - Fan-out is synchronous, in registration order, over a snapshot of
//     the observer list taken at transition commit. Subscribing or
//     unsubscribing during fan-out affects only subsequent transitions;
//     detaching mid-fan-out never aborts in-flight delivery.
//   - A callback that transitions the same Intent triggers a nested
//     fan-out over its own fresh snapshot. Re-entrant use is the
//     caller's responsibility.
//
// Concurrency: transition operations on one Intent must be serialized
// by the owner (one owning goroutine, or an external mutex). The
// observer registry itself is mutex-guarded, so Subscribe and the
// cancel handles are safe from any goroutine.
package intent

import (
	"fmt"
	"sync"

	"github.com/roach88/wimi/internal/ir"
)

// Transition is the notification payload delivered to observers.
// To is always the post-transition state the machine holds when the
// callback runs (unless the callback itself transitions again).
type Transition struct {
	Op   Op
	From State
	To   State
	Note string
}

// Snapshot is the plain-data view of an Intent for external
// persistence. The core never serializes or restores itself.
type Snapshot struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	Note    string `json:"note,omitempty"`
	Failure string `json:"failure,omitempty"`
}

// PolicyFunc decides whether leaving while the intent is in the given
// state should be intercepted. Evaluated fresh on every query.
type PolicyFunc func(s State, spec ir.IntentSpec) bool

// Built-in navigation-protection policies.
var (
	// ProtectWhileActive intercepts while state is started or in-progress.
	ProtectWhileActive PolicyFunc = func(s State, _ ir.IntentSpec) bool { return s.active() }

	// ProtectAlways intercepts in every state.
	ProtectAlways PolicyFunc = func(State, ir.IntentSpec) bool { return true }

	// ProtectNever disables interception.
	ProtectNever PolicyFunc = func(State, ir.IntentSpec) bool { return false }
)

// PolicyByName resolves a protection policy name from an intent spec.
// The empty string means "active". Unknown names also fall back to
// "active"; the compiler rejects them before they reach the runtime.
func PolicyByName(name string) PolicyFunc {
	switch name {
	case ir.ProtectionAlways:
		return ProtectAlways
	case ir.ProtectionNever:
		return ProtectNever
	default:
		return ProtectWhileActive
	}
}

// Intent is one observable unit of work.
//
// ID and spec are fixed at construction. State mutates only through the
// transition operations. The zero value is not usable; construct with New.
type Intent struct {
	spec     ir.IntentSpec
	resolver CapabilityResolver
	override OverrideFunc
	policy   PolicyFunc

	mu      sync.Mutex
	state   State
	note    string // last annotation from any operation
	failure string // payload from the most recent Fail; Reset does not clear it
	nextReg uint64
	regs    []registration
}

// Option configures an Intent at construction.
type Option func(*Intent)

// WithResolver injects the capability resolver consulted by Allowed.
func WithResolver(r CapabilityResolver) Option {
	return func(i *Intent) { i.resolver = r }
}

// WithOverride injects a runtime override for Allowed. When the func
// returns ok=true its verdict wins over capability resolution.
func WithOverride(f OverrideFunc) Option {
	return func(i *Intent) { i.override = f }
}

// WithProtection replaces the navigation-protection policy.
func WithProtection(p PolicyFunc) Option {
	return func(i *Intent) { i.policy = p }
}

// New constructs an Intent in the idle state.
// The spec's ID is required and immutable; uniqueness across intents is
// the caller's responsibility and is not enforced here.
func New(spec ir.IntentSpec, opts ...Option) (*Intent, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("intent: id is required")
	}

	i := &Intent{
		spec:   spec,
		state:  StateIdle,
		policy: PolicyByName(spec.Protection),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// ID returns the intent's stable identifier.
func (i *Intent) ID() string {
	return i.spec.ID
}

// Spec returns the immutable creation-time descriptor.
func (i *Intent) Spec() ir.IntentSpec {
	return i.spec
}

// State returns the current state.
func (i *Intent) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Start marks the beginning of work.
func (i *Intent) Start() {
	i.apply(OpStart, "")
}

// Progress marks work underway. step is advisory metadata only and is
// not validated against any step list.
func (i *Intent) Progress(step string) {
	i.apply(OpProgress, step)
}

// Wait marks a pause, e.g. pending external approval.
func (i *Intent) Wait(reason string) {
	i.apply(OpWait, reason)
}

// Block marks work that cannot continue without intervention.
func (i *Intent) Block(reason string) {
	i.apply(OpBlock, reason)
}

// Complete moves to the success terminal.
func (i *Intent) Complete() {
	i.apply(OpComplete, "")
}

// Fail moves to the failure terminal. The payload is opaque: it is
// surfaced through Message and the journal but never inspected here.
// Failure in a consumer's own asynchronous work is never observed by
// the core directly; the caller must report it through Fail.
func (i *Intent) Fail(payload string) {
	i.apply(OpFail, payload)
}

// Reset returns to the initial state. It clears nothing else: the last
// annotation and failure payload survive a reset.
func (i *Intent) Reset() {
	i.apply(OpReset, "")
}

// Replay is semantically identical to Reset. It exists as a distinct
// named operation for caller intent-clarity only; both route through
// the same transition path.
func (i *Intent) Replay() {
	i.apply(OpReplay, "")
}

// Apply dispatches an operation by name. Unknown names return an error;
// recognized operations never fail.
func (i *Intent) Apply(op Op, note string) error {
	if _, ok := op.Target(); !ok {
		return fmt.Errorf("intent %s: unknown operation %q", i.spec.ID, op)
	}
	i.apply(op, note)
	return nil
}

// apply commits the transition and fans out to observers.
// The state is fully updated inside the lock; the snapshot is taken in
// the same critical section so observers registered before the
// transition are guaranteed to see it, then callbacks run outside the
// lock so they may subscribe, unsubscribe, or transition re-entrantly.
func (i *Intent) apply(op Op, note string) {
	target, ok := op.Target()
	if !ok {
		return
	}

	i.mu.Lock()
	from := i.state
	i.state = target
	if note != "" {
		i.note = note
	}
	if op == OpFail {
		i.failure = note
	}
	snapshot := make([]registration, len(i.regs))
	copy(snapshot, i.regs)
	i.mu.Unlock()

	tr := Transition{Op: op, From: from, To: target, Note: note}
	for _, reg := range snapshot {
		reg.fn(tr)
	}
}

// IsActive reports state ∈ {started, in-progress}.
func (i *Intent) IsActive() bool {
	return i.State().active()
}

// IsCompleted reports state == completed.
func (i *Intent) IsCompleted() bool {
	return i.State() == StateCompleted
}

// IsFailed reports state == failed.
func (i *Intent) IsFailed() bool {
	return i.State() == StateFailed
}

// IsBlocked reports state == blocked.
func (i *Intent) IsBlocked() bool {
	return i.State() == StateBlocked
}

// IsWaiting reports state == waiting.
func (i *Intent) IsWaiting() bool {
	return i.State() == StateWaiting
}

// ProtectNavigation reports whether leaving while this intent is in its
// current state should be intercepted. Recomputed on every call from
// the current state and the static policy; never cached.
func (i *Intent) ProtectNavigation() bool {
	return i.policy(i.State(), i.spec)
}

// Snapshot returns the plain-data view of the current state for an
// external persistence layer.
func (i *Intent) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Snapshot{
		ID:      i.spec.ID,
		State:   string(i.state),
		Note:    i.note,
		Failure: i.failure,
	}
}

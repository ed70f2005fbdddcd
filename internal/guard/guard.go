// Package guard derives navigation-protection signals from an intent.
//
// The guard is glue between the intent core and an external routing
// collaborator: it answers "should an in-flight attempt to leave be
// intercepted right now" from the current state snapshot, and keeps an
// optional interceptor armed or disarmed as that answer flips. The
// interceptor may be absent at runtime; the derived predicates remain
// computable without one.
package guard

import (
	"github.com/roach88/wimi/internal/intent"
)

// Interceptor is the external intercept-before-leave registration
// point. Arm begins intercepting leave attempts, carrying the intent's
// current message for display; Disarm stops. Implementations belong to
// the routing collaborator, not to this package.
type Interceptor interface {
	Arm(reason string)
	Disarm()
}

// Guard derives the navigation signals for one intent.
type Guard struct {
	intent *intent.Intent
}

// New binds a guard to an intent. The guard holds no state of its own;
// both predicates are recomputed from the intent on every query.
func New(it *intent.Intent) *Guard {
	return &Guard{intent: it}
}

// ProtectionActive reports whether leaving should be intercepted right
// now. Never cached: derived from the current state snapshot plus the
// intent's static policy.
func (g *Guard) ProtectionActive() bool {
	return g.intent.ProtectNavigation()
}

// CanLeave is the negation of ProtectionActive.
func (g *Guard) CanLeave() bool {
	return !g.ProtectionActive()
}

// Bind wires an interceptor to the intent's transitions: it is armed
// whenever protection is active and disarmed otherwise. The current
// protection state is applied immediately at bind time, since
// subscription alone delivers no notification.
//
// A nil interceptor degrades gracefully: Bind returns a no-op cancel
// and the guard's predicates keep working.
//
// The returned cancel disarms the interceptor and detaches from the
// intent; like all detachment handles it is idempotent.
func (g *Guard) Bind(ic Interceptor) (cancel func()) {
	if ic == nil {
		return func() {}
	}

	g.sync(ic)
	unsubscribe := g.intent.Subscribe(func(intent.Transition) {
		g.sync(ic)
	})

	return func() {
		unsubscribe()
		ic.Disarm()
	}
}

// sync pushes the current protection verdict to the interceptor.
func (g *Guard) sync(ic Interceptor) {
	if g.ProtectionActive() {
		ic.Arm(g.intent.Message())
	} else {
		ic.Disarm()
	}
}

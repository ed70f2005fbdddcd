package intent

// CapabilityResolver answers whether an actor currently holds a
// capability. Implementations must be synchronous and side-effect-free;
// results may change between calls for reasons external to the machine.
type CapabilityResolver interface {
	Holds(actor, capability string) bool
}

// OverrideFunc is a runtime override for Allowed. When ok is true the
// verdict replaces capability resolution entirely.
type OverrideFunc func() (verdict bool, ok bool)

// Allowed reports whether the intent's actor holds every capability in
// the requirement set, subject to the runtime override.
//
// The resolver is consulted fresh on every call; nothing is cached,
// since permissions may change at any time for reasons external to the
// state machine. With no requirements the intent is always allowed.
// A non-empty requirement set with no resolver configured is denied.
func (i *Intent) Allowed() bool {
	if i.override != nil {
		if verdict, ok := i.override(); ok {
			return verdict
		}
	}

	if len(i.spec.Requires) == 0 {
		return true
	}
	if i.resolver == nil {
		return false
	}

	for _, capability := range i.spec.Requires {
		if !i.resolver.Holds(i.spec.Actor, capability) {
			return false
		}
	}
	return true
}

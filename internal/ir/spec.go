package ir

// IntentSpec is a compiled intent definition.
//
// The spec is immutable creation-time metadata: it fixes the intent's
// identity and the inputs to the derived predicates (allowed, message,
// navigation protection). It never carries runtime state.
type IntentSpec struct {
	// ID is the opaque stable identifier used for correlation and logging.
	// Uniqueness across intents is the caller's responsibility.
	ID string `json:"id"`

	// Purpose is the human-readable description of the unit of work.
	Purpose string `json:"purpose,omitempty"`

	// Actor identifies who the intent acts on behalf of. Opaque to the
	// runtime; interpreted only by the capability resolver.
	Actor string `json:"actor,omitempty"`

	// Requires lists the capabilities the actor must hold for the intent
	// to be allowed. Order is preserved from the definition.
	Requires []string `json:"requires,omitempty"`

	// Messages overrides the default state-indexed wording.
	// Keys are state names ("idle", "failed", ...).
	Messages map[string]string `json:"messages,omitempty"`

	// Protection names the navigation-protection policy:
	// "active" (default), "always", or "never".
	Protection string `json:"protection,omitempty"`
}

// Protection policy names accepted in intent definitions.
const (
	ProtectionActive = "active"
	ProtectionAlways = "always"
	ProtectionNever  = "never"
)

// ValidProtection reports whether name is a recognized protection policy.
// The empty string is valid and means "active".
func ValidProtection(name string) bool {
	switch name {
	case "", ProtectionActive, ProtectionAlways, ProtectionNever:
		return true
	default:
		return false
	}
}

// CanonicalJSON serializes the spec as RFC 8785 canonical JSON.
// This is the durable form stored alongside journal records, and the
// exact bytes hashed by SpecHash.
func (s IntentSpec) CanonicalJSON() ([]byte, error) {
	return MarshalCanonical(s.canonicalMap())
}

// canonicalMap converts the spec to a map for canonical serialization.
// Empty optional fields are omitted (canonical JSON forbids null).
func (s IntentSpec) canonicalMap() map[string]any {
	m := map[string]any{
		"id": s.ID,
	}
	if s.Purpose != "" {
		m["purpose"] = s.Purpose
	}
	if s.Actor != "" {
		m["actor"] = s.Actor
	}
	if len(s.Requires) > 0 {
		reqs := make([]any, len(s.Requires))
		for i, r := range s.Requires {
			reqs[i] = r
		}
		m["requires"] = reqs
	}
	if len(s.Messages) > 0 {
		msgs := make(map[string]any, len(s.Messages))
		for k, v := range s.Messages {
			msgs[k] = v
		}
		m["messages"] = msgs
	}
	if s.Protection != "" {
		m["protection"] = s.Protection
	}
	return m
}

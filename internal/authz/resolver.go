// Package authz provides capability resolvers for the intent runtime.
//
// Resolution is a pluggable collaborator: the core only requires a
// synchronous, side-effect-free Holds check that is consulted fresh on
// every allowed() evaluation. The implementations here cover the common
// deployments: allow everything, deny everything, and a static grant
// table loaded from a YAML file.
package authz

import "sync"

// AllowAll grants every capability to every actor.
type AllowAll struct{}

// Holds always returns true.
func (AllowAll) Holds(actor, capability string) bool { return true }

// Deny grants nothing. Useful as a fail-closed default.
type Deny struct{}

// Holds always returns false.
func (Deny) Holds(actor, capability string) bool { return false }

// Static resolves capabilities from an in-memory grant table.
//
// Grants may change at runtime via Grant/Revoke; since the core never
// caches allowed(), changes are visible on the next evaluation.
type Static struct {
	mu     sync.RWMutex
	grants map[string]map[string]bool // actor -> capability -> held
}

// NewStatic builds a resolver from actor -> capability list.
func NewStatic(grants map[string][]string) *Static {
	s := &Static{grants: make(map[string]map[string]bool, len(grants))}
	for actor, caps := range grants {
		set := make(map[string]bool, len(caps))
		for _, c := range caps {
			set[c] = true
		}
		s.grants[actor] = set
	}
	return s
}

// Holds reports whether actor currently holds capability.
func (s *Static) Holds(actor, capability string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[actor][capability]
}

// Grant adds a capability for an actor.
func (s *Static) Grant(actor, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[actor] == nil {
		s.grants[actor] = make(map[string]bool)
	}
	s.grants[actor][capability] = true
}

// Revoke removes a capability from an actor. Revoking a capability the
// actor never held is a no-op.
func (s *Static) Revoke(actor, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[actor], capability)
}

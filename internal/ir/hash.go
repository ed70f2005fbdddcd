package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTransition = "wimi/transition/v1"
	DomainSpec       = "wimi/spec/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TransitionID computes the content-addressed ID for a transition record.
// The ID is stable across restarts and replays given the same inputs.
func TransitionID(journeyToken, intentID string, seq int64, op, from, to, note string) (string, error) {
	canonical, err := MarshalCanonical(transitionIdentity(journeyToken, intentID, seq, op, from, to, note))
	if err != nil {
		return "", fmt.Errorf("TransitionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransition, canonical), nil
}

// SpecHash computes the content-addressed hash of an intent definition.
// Used to pin journal records to the definition they ran under.
func SpecHash(spec IntentSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSpec, canonical), nil
}

// MustTransitionID is like TransitionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTransitionID(journeyToken, intentID string, seq int64, op, from, to, note string) string {
	id, err := TransitionID(journeyToken, intentID, seq, op, from, to, note)
	if err != nil {
		panic(err)
	}
	return id
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpecHash(spec IntentSpec) string {
	h, err := SpecHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}

// Package ir defines the shared vocabulary of the wimi runtime: compiled
// intent specs, transition records, the constrained annotation value model,
// and the canonical serialization used for content-addressed identity.
//
// Determinism rules:
//   - All identity hashing goes through MarshalCanonical (RFC 8785).
//   - Floats and nulls are forbidden in annotation values.
//   - Record IDs are SHA-256 with domain separation, stable across replays.
package ir

// Package store provides SQLite-backed durable storage for the
// transition journal.
//
// The store implements an append-only log with:
//   - Intents: compiled intent definitions, pinned by spec hash
//   - Transitions: state-change records, one per applied operation
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Enables deterministic replay regardless of wall time
//
// Deterministic Query Results
//   - All queries MUST include: ORDER BY seq ASC, id COLLATE BINARY ASC
//   - Ensures identical results across replays
//
// Idempotent Writes
//   - Transition ids are content-addressed, INSERT uses ON CONFLICT(id)
//     DO NOTHING, so re-journaling a journey is a safe no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// All content-addressed IDs are computed via functions in internal/ir/hash.go
// using RFC 8785 canonical JSON and SHA-256 with domain separation.
package store

package store

import (
	"context"
	"fmt"

	"github.com/roach88/wimi/internal/ir"
)

// WriteIntent inserts a compiled intent definition into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - re-registering an
// intent id is silently ignored. Transition records carry their own
// spec hash, so a later definition change never rewrites history.
func (s *Store) WriteIntent(ctx context.Context, spec ir.IntentSpec, specHash string) error {
	specJSON, err := marshalSpec(spec)
	if err != nil {
		return fmt.Errorf("write intent: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intents (id, spec_hash, spec)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		spec.ID,
		specHash,
		specJSON,
	)
	if err != nil {
		return fmt.Errorf("write intent: %w", err)
	}

	return nil
}

// WriteTransition inserts a transition record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - the id is
// content-addressed, so writing the same record twice is a no-op.
// Other constraint violations (e.g. NOT NULL, missing intent) still
// return errors.
func (s *Store) WriteTransition(ctx context.Context, tr ir.Transition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions
		(id, journey_token, intent_id, seq, op, from_state, to_state, note, spec_hash, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		tr.ID,
		tr.JourneyToken,
		tr.IntentID,
		tr.Seq,
		tr.Op,
		tr.From,
		tr.To,
		tr.Note,
		tr.SpecHash,
		tr.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write transition: %w", err)
	}

	return nil
}

// WriteTransitions inserts a batch of transition records in one
// transaction. Used by replay to re-journal a journey atomically.
// Each insert is individually idempotent (ON CONFLICT DO NOTHING).
func (s *Store) WriteTransitions(ctx context.Context, trs []ir.Transition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write transitions: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, tr := range trs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transitions
			(id, journey_token, intent_id, seq, op, from_state, to_state, note, spec_hash, engine_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			tr.ID,
			tr.JourneyToken,
			tr.IntentID,
			tr.Seq,
			tr.Op,
			tr.From,
			tr.To,
			tr.Note,
			tr.SpecHash,
			tr.EngineVersion,
		)
		if err != nil {
			return fmt.Errorf("write transitions: insert %s: %w", tr.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write transitions: commit: %w", err)
	}

	return nil
}

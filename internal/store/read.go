package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/wimi/internal/ir"
)

const transitionColumns = `id, journey_token, intent_id, seq, op, from_state, to_state, note, spec_hash, engine_version`

// ReadJourney returns all transitions for a journey token.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no records exist for the token.
func (s *Store) ReadJourney(ctx context.Context, journeyToken string) ([]ir.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE journey_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, journeyToken)
	if err != nil {
		return nil, fmt.Errorf("query journey: %w", err)
	}
	defer rows.Close()

	return collectTransitions(rows)
}

// ReadIntentTransitions returns all transitions for one intent within a
// journey, in deterministic order.
func (s *Store) ReadIntentTransitions(ctx context.Context, journeyToken, intentID string) ([]ir.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE journey_token = ? AND intent_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, journeyToken, intentID)
	if err != nil {
		return nil, fmt.Errorf("query intent transitions: %w", err)
	}
	defer rows.Close()

	return collectTransitions(rows)
}

// ReadAllTransitions returns every transition with deterministic ordering.
// Used for replay scenarios.
func (s *Store) ReadAllTransitions(ctx context.Context) ([]ir.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all transitions: %w", err)
	}
	defer rows.Close()

	return collectTransitions(rows)
}

// ReadTransition retrieves a single transition by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadTransition(ctx context.Context, id string) (ir.Transition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE id = ?
	`, id)

	var tr ir.Transition
	if err := row.Scan(
		&tr.ID, &tr.JourneyToken, &tr.IntentID, &tr.Seq,
		&tr.Op, &tr.From, &tr.To, &tr.Note, &tr.SpecHash, &tr.EngineVersion,
	); err != nil {
		return ir.Transition{}, err
	}
	return tr, nil
}

// ReadIntent retrieves a stored intent definition by id along with its
// spec hash. Returns sql.ErrNoRows if not found.
func (s *Store) ReadIntent(ctx context.Context, id string) (ir.IntentSpec, string, error) {
	var specJSON, specHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT spec, spec_hash FROM intents WHERE id = ?
	`, id).Scan(&specJSON, &specHash)
	if err != nil {
		return ir.IntentSpec{}, "", err
	}

	spec, err := unmarshalSpec(specJSON)
	if err != nil {
		return ir.IntentSpec{}, "", err
	}
	return spec, specHash, nil
}

// ListIntents returns all stored intent ids, ordered alphabetically.
func (s *Store) ListIntents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM intents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan intent id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intent ids: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}

// ListJourneyTokens returns all distinct journey tokens in the database.
// Used by replay and trace commands to enumerate journeys.
// Results ordered alphabetically.
func (s *Store) ListJourneyTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT journey_token FROM transitions
		ORDER BY journey_token
	`)
	if err != nil {
		return nil, fmt.Errorf("list journey tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan journey token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journey tokens: %w", err)
	}

	if tokens == nil {
		tokens = []string{}
	}

	return tokens, nil
}

// collectTransitions drains rows into a slice, returning an empty slice
// (not nil) for zero results.
func collectTransitions(rows *sql.Rows) ([]ir.Transition, error) {
	var trs []ir.Transition
	for rows.Next() {
		var tr ir.Transition
		if err := rows.Scan(
			&tr.ID, &tr.JourneyToken, &tr.IntentID, &tr.Seq,
			&tr.Op, &tr.From, &tr.To, &tr.Note, &tr.SpecHash, &tr.EngineVersion,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		trs = append(trs, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	if trs == nil {
		trs = []ir.Transition{}
	}

	return trs, nil
}

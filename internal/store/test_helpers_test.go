package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/wimi/internal/ir"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTransition creates a transition record with a content-addressed
// id derived from the other fields.
func createTestTransition(journeyToken, intentID string, seq int64, op, from, to, note string) ir.Transition {
	return ir.Transition{
		ID:            ir.MustTransitionID(journeyToken, intentID, seq, op, from, to, note),
		JourneyToken:  journeyToken,
		IntentID:      intentID,
		Seq:           seq,
		Op:            op,
		From:          from,
		To:            to,
		Note:          note,
		SpecHash:      "test-hash",
		EngineVersion: "0.1.0",
	}
}

// mustWriteIntent registers an intent so transitions can reference it.
func mustWriteIntent(t *testing.T, s *Store, id string) ir.IntentSpec {
	t.Helper()
	spec := ir.IntentSpec{ID: id, Purpose: "test intent"}
	if err := s.WriteIntent(context.Background(), spec, ir.MustSpecHash(spec)); err != nil {
		t.Fatalf("WriteIntent(%q) failed: %v", id, err)
	}
	return spec
}

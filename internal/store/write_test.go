package store

import (
	"context"
	"testing"

	"github.com/roach88/wimi/internal/ir"
)

func TestWriteIntent_Basic(t *testing.T) {
	s := createTestStore(t)

	spec := ir.IntentSpec{
		ID:       "upload",
		Purpose:  "upload a file",
		Actor:    "alice",
		Requires: []string{"files:write"},
	}
	hash := ir.MustSpecHash(spec)

	if err := s.WriteIntent(context.Background(), spec, hash); err != nil {
		t.Fatalf("WriteIntent() failed: %v", err)
	}

	stored, storedHash, err := s.ReadIntent(context.Background(), "upload")
	if err != nil {
		t.Fatalf("ReadIntent() failed: %v", err)
	}
	if stored.ID != spec.ID {
		t.Errorf("id = %q, want %q", stored.ID, spec.ID)
	}
	if stored.Purpose != spec.Purpose {
		t.Errorf("purpose = %q, want %q", stored.Purpose, spec.Purpose)
	}
	if storedHash != hash {
		t.Errorf("spec_hash = %q, want %q", storedHash, hash)
	}
}

func TestWriteIntent_Idempotent(t *testing.T) {
	s := createTestStore(t)

	spec := ir.IntentSpec{ID: "upload", Purpose: "first"}
	if err := s.WriteIntent(context.Background(), spec, ir.MustSpecHash(spec)); err != nil {
		t.Fatalf("first WriteIntent() failed: %v", err)
	}

	// A second registration of the same id is silently ignored.
	changed := ir.IntentSpec{ID: "upload", Purpose: "second"}
	if err := s.WriteIntent(context.Background(), changed, ir.MustSpecHash(changed)); err != nil {
		t.Fatalf("second WriteIntent() failed: %v", err)
	}

	stored, _, err := s.ReadIntent(context.Background(), "upload")
	if err != nil {
		t.Fatalf("ReadIntent() failed: %v", err)
	}
	if stored.Purpose != "first" {
		t.Errorf("purpose = %q, want %q (first write wins)", stored.Purpose, "first")
	}
}

func TestWriteTransition_Basic(t *testing.T) {
	s := createTestStore(t)
	mustWriteIntent(t, s, "upload")

	tr := createTestTransition("journey-1", "upload", 1, "start", "idle", "started", "")

	if err := s.WriteTransition(context.Background(), tr); err != nil {
		t.Fatalf("WriteTransition() failed: %v", err)
	}

	stored, err := s.ReadTransition(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("ReadTransition() failed: %v", err)
	}
	if stored != tr {
		t.Errorf("stored transition = %+v, want %+v", stored, tr)
	}
}

func TestWriteTransition_Idempotent(t *testing.T) {
	s := createTestStore(t)
	mustWriteIntent(t, s, "upload")

	tr := createTestTransition("journey-1", "upload", 1, "start", "idle", "started", "")

	for i := 0; i < 3; i++ {
		if err := s.WriteTransition(context.Background(), tr); err != nil {
			t.Fatalf("WriteTransition() iteration %d failed: %v", i, err)
		}
	}

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transitions WHERE id = ?", tr.ID).Scan(&count)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (duplicate writes ignored)", count)
	}
}

func TestWriteTransition_UnknownIntentRejected(t *testing.T) {
	s := createTestStore(t)

	tr := createTestTransition("journey-1", "ghost", 1, "start", "idle", "started", "")

	if err := s.WriteTransition(context.Background(), tr); err == nil {
		t.Error("WriteTransition() with unregistered intent should fail (foreign key)")
	}
}

func TestWriteTransition_PreservesNote(t *testing.T) {
	s := createTestStore(t)
	mustWriteIntent(t, s, "upload")

	tr := createTestTransition("journey-1", "upload", 2, "fail", "in-progress", "failed", "disk full")

	if err := s.WriteTransition(context.Background(), tr); err != nil {
		t.Fatalf("WriteTransition() failed: %v", err)
	}

	stored, err := s.ReadTransition(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("ReadTransition() failed: %v", err)
	}
	if stored.Note != "disk full" {
		t.Errorf("note = %q, want %q", stored.Note, "disk full")
	}
}

func TestWriteTransitions_Batch(t *testing.T) {
	s := createTestStore(t)
	mustWriteIntent(t, s, "upload")

	trs := []ir.Transition{
		createTestTransition("journey-1", "upload", 1, "start", "idle", "started", ""),
		createTestTransition("journey-1", "upload", 2, "progress", "started", "in-progress", "chunk 1"),
		createTestTransition("journey-1", "upload", 3, "complete", "in-progress", "completed", ""),
	}

	if err := s.WriteTransitions(context.Background(), trs); err != nil {
		t.Fatalf("WriteTransitions() failed: %v", err)
	}

	got, err := s.ReadJourney(context.Background(), "journey-1")
	if err != nil {
		t.Fatalf("ReadJourney() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(transitions) = %d, want 3", len(got))
	}
}

func TestWriteTransitions_AtomicOnError(t *testing.T) {
	s := createTestStore(t)
	mustWriteIntent(t, s, "upload")

	trs := []ir.Transition{
		createTestTransition("journey-1", "upload", 1, "start", "idle", "started", ""),
		// Second record references an unregistered intent; the whole
		// batch must roll back.
		createTestTransition("journey-1", "ghost", 2, "start", "idle", "started", ""),
	}

	if err := s.WriteTransitions(context.Background(), trs); err == nil {
		t.Fatal("WriteTransitions() with bad record should fail")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM transitions").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 (batch rolled back)", count)
	}
}

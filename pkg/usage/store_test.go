package usage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "usage.db"), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreInsertAndTotals(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	records := []*Record{
		{ID: "a", RequestID: "r1", Model: "claude-3-opus", TargetModel: "gpt-4o",
			InputTokens: 100, OutputTokens: 20, StopReason: "end_turn", DurationMS: 900, CreatedAt: now},
		{ID: "b", RequestID: "r2", Model: "claude-3-haiku", TargetModel: "gpt-4o-mini",
			InputTokens: 50, OutputTokens: 5, StopReason: "tool_use", Stream: true, DurationMS: 400, CreatedAt: now},
	}
	for _, rec := range records {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	in, out, err := store.Totals(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if in != 150 || out != 25 {
		t.Errorf("totals = %d/%d, want 150/25", in, out)
	}
}

func TestStorePruneOlderThan(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &Record{ID: "old", RequestID: "r1", Model: "m", TargetModel: "t",
		CreatedAt: now.AddDate(0, 0, -40)}
	fresh := &Record{ID: "fresh", RequestID: "r2", Model: "m", TargetModel: "t",
		CreatedAt: now}
	for _, rec := range []*Record{old, fresh} {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	deleted, err := store.PruneOlderThan(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	in, out, err := store.Totals(ctx, now.AddDate(0, 0, -60))
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if in != 0 || out != 0 {
		t.Errorf("unexpected totals after prune: %d/%d", in, out)
	}
}

func TestRecorderWritesAsync(t *testing.T) {
	store := testStore(t)
	recorder := NewRecorder(store, 10, nil)

	recorder.Record(&Record{RequestID: "r1", Model: "m", TargetModel: "t",
		InputTokens: 10, OutputTokens: 2})
	recorder.Close()

	in, out, err := store.Totals(context.Background(), time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if in != 10 || out != 2 {
		t.Errorf("totals = %d/%d, want 10/2", in, out)
	}
}

func TestRecorderFillsIdentity(t *testing.T) {
	store := testStore(t)
	recorder := NewRecorder(store, 10, nil)
	defer recorder.Close()

	rec := &Record{RequestID: "r1", Model: "m", TargetModel: "t"}
	recorder.Record(rec)
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Errorf("record identity not filled: %+v", rec)
	}
}

package overlay

import (
	"context"
	"testing"
)

func TestMemoryStore_AppendListPrune(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, overlayEntry("e1", "1", "2")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, overlayEntry("e1", "2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, corrupt, err := store.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if corrupt != 0 || len(entries) != 2 {
		t.Fatalf("expected 2 clean entries, got entries=%d corrupt=%d", len(entries), corrupt)
	}

	if err := store.Prune(ctx, "e1", "2"); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	entries, _, err = store.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Judges) != 1 || entries[0].Judges[0] != "1" {
		t.Fatalf("expected only person 1 left, got=%+v", entries)
	}
}

func TestMemoryStore_AppendCopiesInput(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	judges := []string{"1"}
	entry := overlayEntry("e1", judges...)
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	judges[0] = "mutated"

	entries, _, err := store.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if entries[0].Judges[0] != "1" {
		t.Fatalf("expected stored entry isolated from caller slice, got=%q", entries[0].Judges[0])
	}
}

func TestMemoryStore_ListedEntriesSurviveLaterPrune(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, overlayEntry("e1", "1", "2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, _, err := store.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}

	if err := store.Prune(ctx, "e1", "2"); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if len(entries[0].Judges) != 2 || entries[0].Judges[0] != "1" || entries[0].Judges[1] != "2" {
		t.Fatalf("expected previously listed entry untouched by prune, got=%+v", entries[0].Judges)
	}

	entries, _, err = store.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(entries[0].Judges) != 1 || entries[0].Judges[0] != "1" {
		t.Fatalf("expected fresh list to reflect prune, got=%+v", entries[0].Judges)
	}
}

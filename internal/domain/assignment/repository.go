package assignment

import "context"

// OverlayStore is the durable append-only log of unconfirmed assignment
// submissions. Implementations must treat appends as atomic per entry and must
// never fail a whole load because one stored entry is corrupt: bad entries are
// skipped and reported through the skipped counter.
type OverlayStore interface {
	Append(ctx context.Context, entry OverlayEntry) error
	// ListByEvent returns entries for the event in insertion order plus the
	// number of stored entries that could not be decoded.
	ListByEvent(ctx context.Context, eventID string) ([]OverlayEntry, int, error)
	// Prune removes a person from every stored entry for the event, deleting
	// entries that become empty. Pruned state must not resurrect after reload.
	Prune(ctx context.Context, eventID, personID string) error
}

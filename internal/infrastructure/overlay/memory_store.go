package overlay

import (
	"context"
	"sync"

	"github.com/drillscope/panel-api/internal/domain/assignment"
)

// MemoryStore keeps overlay entries in process memory. It backs tests and
// deployments that can afford to lose pending rows on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []assignment.OverlayEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry assignment.OverlayEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	entry.Judges = append([]string(nil), entry.Judges...)
	entry.Organizers = append([]string(nil), entry.Organizers...)

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListByEvent(_ context.Context, eventID string) ([]assignment.OverlayEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []assignment.OverlayEntry
	for _, entry := range s.entries {
		if entry.EventID != eventID {
			continue
		}
		// Copies keep returned entries stable across a later Prune.
		entry.Judges = append([]string(nil), entry.Judges...)
		entry.Organizers = append([]string(nil), entry.Organizers...)
		out = append(out, entry)
	}
	return out, 0, nil
}

func (s *MemoryStore) Prune(_ context.Context, eventID, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.EventID == eventID {
			entry.Judges = removeID(entry.Judges, personID)
			entry.Organizers = removeID(entry.Organizers, personID)
			if len(entry.Judges) == 0 && len(entry.Organizers) == 0 {
				continue
			}
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return nil
}

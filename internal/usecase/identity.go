package usecase

import (
	"github.com/drillscope/panel-api/external/drillhq"
	"github.com/drillscope/panel-api/internal/domain/user"
)

// directoryIndex precomputes the lookup keys the resolver matches against so
// a refresh cycle resolves references in constant time per reference.
type directoryIndex struct {
	byID       map[string]user.User
	byLegacyID map[string]user.User
}

func newDirectoryIndex(users []user.User) directoryIndex {
	idx := directoryIndex{
		byID:       make(map[string]user.User, len(users)),
		byLegacyID: make(map[string]user.User, len(users)),
	}
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		// First record wins so resolution stays deterministic when the
		// directory itself carries duplicates.
		if _, exists := idx.byID[u.ID]; !exists {
			idx.byID[u.ID] = u
		}
		if u.LegacyID != "" {
			if _, exists := idx.byLegacyID[u.LegacyID]; !exists {
				idx.byLegacyID[u.LegacyID] = u
			}
		}
	}
	return idx
}

// resolve matches one raw assignment reference against the directory. Key
// strategies are tried in a fixed order and the first hit wins: the
// reference's primary id against account ids, then the reference's user_id
// against account ids, then the primary id against legacy ids. A reference
// that matches nothing resolves to a placeholder so the assignment stays
// visible instead of silently disappearing.
func (idx directoryIndex) resolve(ref drillhq.PersonRef) (user.User, bool) {
	if ref.ID != "" {
		if u, ok := idx.byID[ref.ID]; ok {
			return u, true
		}
	}
	if ref.UserID != "" {
		if u, ok := idx.byID[ref.UserID]; ok {
			return u, true
		}
	}
	if ref.ID != "" {
		if u, ok := idx.byLegacyID[ref.ID]; ok {
			return u, true
		}
	}

	id := ref.ID
	if id == "" {
		id = ref.UserID
	}
	return user.Placeholder(id), false
}

// resolveID matches a bare person identifier, as stored in overlay entries.
func (idx directoryIndex) resolveID(personID string) (user.User, bool) {
	if personID == "" {
		return user.Placeholder(personID), false
	}
	if u, ok := idx.byID[personID]; ok {
		return u, true
	}
	if u, ok := idx.byLegacyID[personID]; ok {
		return u, true
	}
	return user.Placeholder(personID), false
}

package usecase

import (
	"sync"

	"github.com/drillscope/panel-api/internal/domain/assignment"
)

// AssignmentStore holds the merged per-event assignment view: the
// server-confirmed rows as of the last refresh plus locally pending overlay
// rows. All methods are safe for concurrent use.
type AssignmentStore struct {
	mu     sync.RWMutex
	events map[string]*eventState
}

type eventState struct {
	judges     *roleSet
	organizers *roleSet
}

// roleSet keeps members in first-seen order, deduplicated by person id.
type roleSet struct {
	order []string
	byID  map[string]assignment.Member
}

func newRoleSet() *roleSet {
	return &roleSet{byID: make(map[string]assignment.Member)}
}

func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{events: make(map[string]*eventState)}
}

func (s *AssignmentStore) state(eventID string) *eventState {
	st, ok := s.events[eventID]
	if !ok {
		st = &eventState{judges: newRoleSet(), organizers: newRoleSet()}
		s.events[eventID] = st
	}
	return st
}

func (st *eventState) role(role assignment.Role) *roleSet {
	if role == assignment.RoleOrganizer {
		return st.organizers
	}
	return st.judges
}

// roleMembers pairs one role with the members to install for it.
type roleMembers struct {
	role    assignment.Role
	members []assignment.Member
}

// ReplaceEvent atomically installs one refresh cycle's results for an event:
// the confirmed snapshot for both roles followed by the pending overlay rows.
// stillCurrent is evaluated under the store lock, so a cycle that has been
// superseded cannot write after a newer cycle's check passed. It reports
// whether the update was applied.
func (s *AssignmentStore) ReplaceEvent(eventID string, judges, organizers []assignment.Member, overlays []roleMembers, stillCurrent func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stillCurrent != nil && !stillCurrent() {
		return false
	}

	s.setFromServerLocked(eventID, assignment.RoleJudge, judges)
	s.setFromServerLocked(eventID, assignment.RoleOrganizer, organizers)
	for _, o := range overlays {
		s.applyOverlayLocked(eventID, o.role, o.members)
	}
	return true
}

// SetFromServer replaces one role's server-confirmed rows with a fresh
// snapshot. Pending rows the server now confirms are absorbed into the
// confirmed set; the rest stay pending behind it.
func (s *AssignmentStore) SetFromServer(eventID string, role assignment.Role, members []assignment.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setFromServerLocked(eventID, role, members)
}

func (s *AssignmentStore) setFromServerLocked(eventID string, role assignment.Role, members []assignment.Member) {
	st := s.state(eventID)
	old := st.role(role)

	next := newRoleSet()
	for _, m := range members {
		if m.User.ID == "" {
			continue
		}
		if _, exists := next.byID[m.User.ID]; exists {
			continue
		}
		m.ServerConfirmed = true
		m.Pending = false
		next.order = append(next.order, m.User.ID)
		next.byID[m.User.ID] = m
	}

	for _, id := range old.order {
		prior := old.byID[id]
		if !prior.Pending {
			continue
		}
		if _, confirmed := next.byID[id]; confirmed {
			continue
		}
		next.order = append(next.order, id)
		next.byID[id] = prior
	}

	if role == assignment.RoleOrganizer {
		st.organizers = next
	} else {
		st.judges = next
	}
}

// ApplyOverlay adds locally pending members for one role. A person already
// present, confirmed or pending, is left untouched, so replays of the same
// overlay entries are no-ops and a local row never shadows a server row.
func (s *AssignmentStore) ApplyOverlay(eventID string, role assignment.Role, members []assignment.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyOverlayLocked(eventID, role, members)
}

func (s *AssignmentStore) applyOverlayLocked(eventID string, role assignment.Role, members []assignment.Member) {
	set := s.state(eventID).role(role)
	for _, m := range members {
		if m.User.ID == "" {
			continue
		}
		if _, exists := set.byID[m.User.ID]; exists {
			continue
		}
		m.ServerConfirmed = false
		m.Pending = true
		set.order = append(set.order, m.User.ID)
		set.byID[m.User.ID] = m
	}
}

// Confirm upserts members as server-confirmed rows for one role without
// touching the rest of the set. A pending row for the same person flips to
// confirmed in place.
func (s *AssignmentStore) Confirm(eventID string, role assignment.Role, members []assignment.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.state(eventID).role(role)
	for _, m := range members {
		if m.User.ID == "" {
			continue
		}
		m.ServerConfirmed = true
		m.Pending = false
		if _, exists := set.byID[m.User.ID]; !exists {
			set.order = append(set.order, m.User.ID)
		}
		set.byID[m.User.ID] = m
	}
}

// Remove drops a person from both roles of an event. It reports whether
// anything was removed.
func (s *AssignmentStore) Remove(eventID, personID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.events[eventID]
	if !ok {
		return false
	}

	removed := st.judges.remove(personID)
	if st.organizers.remove(personID) {
		removed = true
	}
	return removed
}

func (rs *roleSet) remove(personID string) bool {
	if _, ok := rs.byID[personID]; !ok {
		return false
	}
	delete(rs.byID, personID)
	for i, id := range rs.order {
		if id == personID {
			rs.order = append(rs.order[:i], rs.order[i+1:]...)
			break
		}
	}
	return true
}

// View returns a copy of the merged view for one event. Unknown events yield
// an empty view rather than an error; the panel renders them as unassigned.
func (s *AssignmentStore) View(eventID string) assignment.EventView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := assignment.EventView{EventID: eventID}
	st, ok := s.events[eventID]
	if !ok {
		return view
	}
	view.Judges = st.judges.members()
	view.Organizers = st.organizers.members()
	return view
}

func (rs *roleSet) members() []assignment.Member {
	out := make([]assignment.Member, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

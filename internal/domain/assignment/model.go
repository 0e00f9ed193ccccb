package assignment

import (
	"fmt"
	"time"

	"github.com/drillscope/panel-api/internal/domain/user"
)

// Role is the role a person holds within an assignment, independent of the
// role on their directory account.
type Role string

const (
	RoleJudge     Role = "judge"
	RoleOrganizer Role = "organizer"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleJudge, RoleOrganizer:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("invalid assignment role %q", raw)
	}
}

// Record is one server-confirmed (event, person, role) assignment. Overlapping
// upstream sources can report the same logical assignment more than once;
// consumers deduplicate by Key before use.
type Record struct {
	EventID    string
	PersonID   string
	Role       Role
	AssignedAt time.Time
}

func (r Record) Key() string {
	return r.EventID + "|" + r.PersonID + "|" + string(r.Role)
}

// OverlayEntry is a locally persisted record of an assignment submission that
// could not be confirmed against the server. Entries are appended, never
// mutated in place, and stay visible as locally pending until the server
// confirms them or the person is removed.
type OverlayEntry struct {
	EventID    string    `json:"event_id"`
	Judges     []string  `json:"judges"`
	Organizers []string  `json:"organizers"`
	AssignedAt time.Time `json:"assigned_at"`
}

func (e OverlayEntry) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("overlay entry event id is required")
	}
	if len(e.Judges) == 0 && len(e.Organizers) == 0 {
		return fmt.Errorf("overlay entry must name at least one person")
	}
	return nil
}

// PersonIDs returns the identifiers recorded for one role.
func (e OverlayEntry) PersonIDs(role Role) []string {
	if role == RoleOrganizer {
		return e.Organizers
	}
	return e.Judges
}

// Member is one resolved row of the merged per-event view.
type Member struct {
	User            user.User
	ServerConfirmed bool
	Pending         bool
}

// EventView is the merged assignment view for a single event: the union of
// server-confirmed records and overlay entries, deduplicated by person within
// each role.
type EventView struct {
	EventID    string
	Judges     []Member
	Organizers []Member
}

// Members returns the view rows for one role.
func (v EventView) Members(role Role) []Member {
	if role == RoleOrganizer {
		return v.Organizers
	}
	return v.Judges
}

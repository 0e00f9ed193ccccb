package user

import (
	"fmt"
	"strings"
)

// Role is the account role carried by the upstream directory.
type Role string

const (
	RoleUser      Role = "user"
	RoleJudge     Role = "judge"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
	RoleUnknown   Role = "unknown"
)

// User is a directory account as served by the competition backend. The
// backend sends identifiers as either JSON numbers or strings; they are
// normalized to strings at the boundary. LegacyID carries the alternate
// "user_id" field some endpoints expose alongside "id".
type User struct {
	ID       string
	LegacyID string
	Name     string
	Email    string
	Phone    string
	Role     Role
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	return nil
}

// ParseRole maps the loosely-typed upstream role field onto a Role. The
// upstream mixes casings and Indonesian/English synonyms; anything outside the
// known synonym sets stays RoleUnknown rather than being guessed at.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "juri", "judge":
		return RoleJudge
	case "organizer", "penyelenggara":
		return RoleOrganizer
	case "admin", "administrator":
		return RoleAdmin
	case "user", "member", "peserta":
		return RoleUser
	default:
		return RoleUnknown
	}
}

func (r Role) IsJudge() bool {
	return r == RoleJudge
}

func (r Role) IsOrganizer() bool {
	return r == RoleOrganizer
}

// Placeholder synthesizes a display record for a person reference that could
// not be resolved against the directory. Callers render it instead of
// dropping the assignment.
func Placeholder(id string) User {
	return User{
		ID:   id,
		Name: "User " + id,
		Role: RoleUnknown,
	}
}

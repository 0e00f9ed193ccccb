package event

import (
	"fmt"
	"time"
)

// Status is derived from the event dates on every read; it is never stored.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusUnknown   Status = "unknown"
)

// Event is a competition instance owned by the upstream backend. The panel
// treats it as read-mostly reference data keyed by ID.
type Event struct {
	ID          string
	Name        string
	Organizer   string
	Location    string
	Info        string
	Terms       string
	StartDate   *time.Time
	EndDate     *time.Time
	ImageURL    string
	OwnerUserID string
}

func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if e.Name == "" {
		return fmt.Errorf("event name is required")
	}
	return nil
}

// StatusAt derives the event status relative to now. Missing dates degrade to
// StatusUnknown instead of guessing.
func (e Event) StatusAt(now time.Time) Status {
	if e.StartDate == nil || e.EndDate == nil {
		return StatusUnknown
	}
	if now.Before(*e.StartDate) {
		return StatusUpcoming
	}
	if now.After(*e.EndDate) {
		return StatusCompleted
	}
	return StatusOngoing
}

package event

import (
	"testing"
	"time"
)

func TestEvent_StatusAt(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 3, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		now   time.Time
		want  Status
	}{
		{
			name:  "before start",
			event: Event{ID: "1", Name: "Regional", StartDate: &start, EndDate: &end},
			now:   start.Add(-time.Hour),
			want:  StatusUpcoming,
		},
		{
			name:  "between dates",
			event: Event{ID: "1", Name: "Regional", StartDate: &start, EndDate: &end},
			now:   start.Add(24 * time.Hour),
			want:  StatusOngoing,
		},
		{
			name:  "exactly at start",
			event: Event{ID: "1", Name: "Regional", StartDate: &start, EndDate: &end},
			now:   start,
			want:  StatusOngoing,
		},
		{
			name:  "after end",
			event: Event{ID: "1", Name: "Regional", StartDate: &start, EndDate: &end},
			now:   end.Add(time.Minute),
			want:  StatusCompleted,
		},
		{
			name:  "missing start date",
			event: Event{ID: "1", Name: "Regional", EndDate: &end},
			now:   start,
			want:  StatusUnknown,
		},
		{
			name:  "missing end date",
			event: Event{ID: "1", Name: "Regional", StartDate: &start},
			now:   start,
			want:  StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.event.StatusAt(tt.now); got != tt.want {
				t.Fatalf("StatusAt() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	if err := (Event{Name: "Regional"}).Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}
	if err := (Event{ID: "1"}).Validate(); err == nil {
		t.Fatal("expected error for missing name")
	}
	if err := (Event{ID: "1", Name: "Regional"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

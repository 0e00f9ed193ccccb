package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/drillscope/panel-api/external/drillhq"
	"github.com/drillscope/panel-api/internal/domain/assignment"
	"github.com/drillscope/panel-api/internal/domain/event"
	"github.com/drillscope/panel-api/internal/domain/user"
	"github.com/drillscope/panel-api/internal/platform/cache"
	"github.com/drillscope/panel-api/internal/platform/logging"
)

type fakeClient struct {
	mu sync.Mutex

	users     []user.User
	usersErr  error
	events    []event.Event
	eventsErr error

	assignments map[string][]drillhq.PersonRef
	unavailable map[string]bool

	onFetchAssignments func(eventID string)

	submitConfirmed bool
	submitErr       error
	submitted       []string

	removeConfirmed bool
	removed         []string
}

func (f *fakeClient) FetchEvents(context.Context) ([]event.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeClient) FetchUsers(context.Context) ([]user.User, error) {
	return f.users, f.usersErr
}

func (f *fakeClient) FetchEventAssignments(_ context.Context, eventID string) ([]drillhq.PersonRef, bool, error) {
	if f.onFetchAssignments != nil {
		f.onFetchAssignments(eventID)
	}
	if f.unavailable[eventID] {
		return nil, false, nil
	}
	return f.assignments[eventID], true, nil
}

func (f *fakeClient) SubmitAssignments(_ context.Context, eventID string, personIDs []string, role assignment.Role) (bool, int, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, eventID)
	f.mu.Unlock()
	if f.submitErr != nil {
		return false, 0, f.submitErr
	}
	if !f.submitConfirmed {
		return false, 5, nil
	}
	return true, 1, nil
}

func (f *fakeClient) RemoveAssignment(_ context.Context, eventID, personID string) (bool, int, error) {
	f.mu.Lock()
	f.removed = append(f.removed, eventID+"|"+personID)
	f.mu.Unlock()
	return f.removeConfirmed, 1, nil
}

// fakeOverlay is an in-memory overlay store with a configurable corrupt count.
type fakeOverlay struct {
	mu      sync.Mutex
	entries []assignment.OverlayEntry
	corrupt int
	pruned  []string
}

func (f *fakeOverlay) Append(_ context.Context, entry assignment.OverlayEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeOverlay) ListByEvent(_ context.Context, eventID string) ([]assignment.OverlayEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []assignment.OverlayEntry
	for _, e := range f.entries {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	return out, f.corrupt, nil
}

func (f *fakeOverlay) Prune(_ context.Context, eventID, personID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, eventID+"|"+personID)
	return nil
}

func newTestService(client *fakeClient, overlay *fakeOverlay) *ReconcileService {
	if overlay == nil {
		overlay = &fakeOverlay{}
	}
	return NewReconcileService(
		client,
		overlay,
		NewAssignmentStore(),
		cache.NewStore(time.Minute),
		logging.NewNop(),
		1,
	)
}

func TestRefresh_MergesServerAndOverlayRows(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users: []user.User{
			{ID: "1", Name: "Andi", Role: user.RoleJudge},
			{ID: "2", Name: "Budi", Role: user.RoleJudge},
		},
		events: []event.Event{{ID: "e1", Name: "City Drill Cup"}},
		assignments: map[string][]drillhq.PersonRef{
			"e1": {{ID: "1", RoleHint: "juri"}},
		},
	}
	overlay := &fakeOverlay{entries: []assignment.OverlayEntry{
		{EventID: "e1", Judges: []string{"1"}, AssignedAt: time.Now()},
		{EventID: "e1", Judges: []string{"1", "2"}, AssignedAt: time.Now()},
	}}
	svc := newTestService(client, overlay)

	result, err := svc.Refresh(context.Background(), nil)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.ServerConfirmed != 1 {
		t.Fatalf("expected 1 confirmed row, got=%d", result.ServerConfirmed)
	}

	view := svc.store.View("e1")
	if len(view.Judges) != 2 {
		t.Fatalf("expected union of server and overlay rows, got=%v", view.Judges)
	}
	if !view.Judges[0].ServerConfirmed || view.Judges[0].User.ID != "1" {
		t.Fatalf("expected person 1 server-confirmed, got=%+v", view.Judges[0])
	}
	if !view.Judges[1].Pending || view.Judges[1].User.ID != "2" {
		t.Fatalf("expected person 2 locally pending, got=%+v", view.Judges[1])
	}
}

func TestRefresh_UnresolvedReferenceRendersPlaceholder(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:  []user.User{{ID: "1", Name: "Andi"}},
		events: []event.Event{{ID: "e1", Name: "Cup"}},
		assignments: map[string][]drillhq.PersonRef{
			"e1": {{ID: "404", RoleHint: "judge"}},
		},
	}
	svc := newTestService(client, nil)

	result, err := svc.Refresh(context.Background(), []string{"e1"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Placeholders != 1 {
		t.Fatalf("expected 1 placeholder, got=%d", result.Placeholders)
	}

	view := svc.store.View("e1")
	if len(view.Judges) != 1 || view.Judges[0].User.Name != "User 404" {
		t.Fatalf("expected placeholder row, got=%+v", view.Judges)
	}
}

func TestRefresh_DirectoryFailureFailsCycle(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		usersErr: errors.New("directory down"),
		events:   []event.Event{{ID: "e1", Name: "Cup"}},
	}
	svc := newTestService(client, nil)

	_, err := svc.Refresh(context.Background(), []string{"e1"})
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got=%v", err)
	}
}

func TestRefresh_PerEventFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:  []user.User{{ID: "1", Name: "Andi"}},
		events: []event.Event{{ID: "e1", Name: "Cup"}, {ID: "e2", Name: "Regional"}},
		assignments: map[string][]drillhq.PersonRef{
			"e1": {{ID: "1", RoleHint: "juri"}},
		},
		unavailable: map[string]bool{"e2": true},
	}
	svc := newTestService(client, nil)

	result, err := svc.Refresh(context.Background(), nil)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.ServerConfirmed != 1 {
		t.Fatalf("expected healthy event still reconciled, got=%d", result.ServerConfirmed)
	}
	if len(result.FailedEvents) != 1 || result.FailedEvents[0] != "e2" {
		t.Fatalf("expected e2 reported failed, got=%v", result.FailedEvents)
	}
	if got := svc.store.View("e2"); len(got.Judges) != 0 {
		t.Fatalf("expected zero confirmed rows for failed event, got=%v", got.Judges)
	}
}

func TestRefresh_StaleCycleDoesNotOverwriteNewerState(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:  []user.User{{ID: "1", Name: "Andi"}},
		events: []event.Event{{ID: "e1", Name: "Cup"}},
		assignments: map[string][]drillhq.PersonRef{
			"e1": {{ID: "1", RoleHint: "juri"}},
		},
	}
	svc := newTestService(client, nil)

	// A newer cycle starts while this one is mid-flight.
	client.onFetchAssignments = func(string) {
		svc.refreshToken.Add(1)
	}

	result, err := svc.Refresh(context.Background(), []string{"e1"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !result.Stale {
		t.Fatalf("expected cycle marked stale")
	}
	if got := svc.store.View("e1"); len(got.Judges) != 0 {
		t.Fatalf("expected stale results discarded, got=%v", got.Judges)
	}
}

func TestRefresh_CountsCorruptOverlayEntries(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:  []user.User{{ID: "1", Name: "Andi"}},
		events: []event.Event{{ID: "e1", Name: "Cup"}},
	}
	svc := newTestService(client, &fakeOverlay{corrupt: 3})

	result, err := svc.Refresh(context.Background(), []string{"e1"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.CorruptEntries != 3 {
		t.Fatalf("expected 3 corrupt entries surfaced, got=%d", result.CorruptEntries)
	}
}

func TestAssign_ServerConfirmedUpdatesView(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:           []user.User{{ID: "1", Name: "Andi"}},
		submitConfirmed: true,
	}
	overlay := &fakeOverlay{}
	svc := newTestService(client, overlay)

	result, err := svc.Assign(context.Background(), "e1", []string{"1"}, assignment.RoleJudge)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !result.OK || !result.ServerConfirmed {
		t.Fatalf("expected confirmed result, got=%+v", result)
	}
	if len(overlay.entries) != 0 {
		t.Fatalf("expected no overlay entry for a confirmed write, got=%v", overlay.entries)
	}

	view := svc.store.View("e1")
	if len(view.Judges) != 1 || !view.Judges[0].ServerConfirmed {
		t.Fatalf("expected confirmed judge row, got=%+v", view.Judges)
	}
}

func TestAssign_WriteExhaustionFallsBackToOverlay(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:           []user.User{{ID: "1", Name: "Andi"}, {ID: "2", Name: "Budi"}},
		submitConfirmed: false,
	}
	overlay := &fakeOverlay{}
	svc := newTestService(client, overlay)

	result, err := svc.Assign(context.Background(), "e1", []string{"1", "2"}, assignment.RoleOrganizer)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !result.OK || result.ServerConfirmed {
		t.Fatalf("expected ok-but-unconfirmed result, got=%+v", result)
	}

	if len(overlay.entries) != 1 {
		t.Fatalf("expected one overlay entry, got=%d", len(overlay.entries))
	}
	entry := overlay.entries[0]
	if entry.EventID != "e1" || len(entry.Organizers) != 2 || len(entry.Judges) != 0 {
		t.Fatalf("unexpected overlay entry: %+v", entry)
	}
	if entry.AssignedAt.IsZero() {
		t.Fatalf("expected assigned_at stamped")
	}

	view := svc.store.View("e1")
	if len(view.Organizers) != 2 || !view.Organizers[0].Pending {
		t.Fatalf("expected pending organizer rows, got=%+v", view.Organizers)
	}
}

func TestAssign_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeClient{}, nil)

	if _, err := svc.Assign(context.Background(), "e1", nil, assignment.RoleJudge); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty people, got=%v", err)
	}
	if _, err := svc.Assign(context.Background(), "e1", []string{" ", ""}, assignment.RoleJudge); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank people, got=%v", err)
	}
	if _, err := svc.Assign(context.Background(), "", []string{"1"}, assignment.RoleJudge); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty event, got=%v", err)
	}
	if _, err := svc.Assign(context.Background(), "e1", []string{"1"}, assignment.Role("referee")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad role, got=%v", err)
	}
}

func TestRemove_PrunesOverlayEvenWithoutServerConfirmation(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		users:           []user.User{{ID: "1", Name: "Andi"}},
		removeConfirmed: false,
	}
	overlay := &fakeOverlay{}
	svc := newTestService(client, overlay)
	svc.store.ApplyOverlay("e1", assignment.RoleJudge, []assignment.Member{
		{User: user.User{ID: "1", Name: "Andi"}},
	})

	result, err := svc.Remove(context.Background(), "e1", "1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !result.Removed || result.ServerConfirmed {
		t.Fatalf("expected local removal without server confirmation, got=%+v", result)
	}
	if len(overlay.pruned) != 1 || overlay.pruned[0] != "e1|1" {
		t.Fatalf("expected overlay pruned, got=%v", overlay.pruned)
	}
	if got := svc.store.View("e1"); len(got.Judges) != 0 {
		t.Fatalf("expected view emptied, got=%v", got.Judges)
	}
}

func TestEventStatus_DerivesFromDates(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{
		events: []event.Event{{ID: "e1", Name: "Cup", StartDate: &start, EndDate: &end}},
	}
	svc := newTestService(client, nil)
	svc.now = func() time.Time { return time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC) }

	ev, status, err := svc.EventStatus(context.Background(), "e1")
	if err != nil {
		t.Fatalf("EventStatus: %v", err)
	}
	if ev.Name != "Cup" {
		t.Fatalf("expected event echoed, got=%+v", ev)
	}
	if status != event.StatusOngoing {
		t.Fatalf("expected ongoing, got=%q", status)
	}

	if _, _, err := svc.EventStatus(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/drillscope/panel-api/internal/domain/assignment"
	"github.com/drillscope/panel-api/internal/domain/user"
	assignmentmock "github.com/drillscope/panel-api/internal/mocks/domain/assignment"
	"github.com/drillscope/panel-api/internal/platform/cache"
	"github.com/drillscope/panel-api/internal/platform/logging"
)

func TestAssign_WriteExhaustionAppendsOverlayEntryUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	overlay := assignmentmock.NewOverlayStore(t)
	client := &fakeClient{
		users:           []user.User{{ID: "1", Name: "Andi", Role: user.RoleOrganizer}},
		submitConfirmed: false,
	}

	svc := NewReconcileService(client, overlay, NewAssignmentStore(), cache.NewStore(time.Minute), logging.NewNop(), 1)
	assignedAt := time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return assignedAt }

	overlay.
		On("Append", mock.Anything, mock.MatchedBy(func(e assignment.OverlayEntry) bool {
			return e.EventID == "e1" &&
				len(e.Organizers) == 1 && e.Organizers[0] == "1" &&
				len(e.Judges) == 0 &&
				e.AssignedAt.Equal(assignedAt)
		})).
		Return(nil).
		Once()

	got, err := svc.Assign(ctx, "e1", []string{"1"}, assignment.RoleOrganizer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !got.OK || got.ServerConfirmed {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAssign_OverlayAppendFailureSurfacesUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	overlay := assignmentmock.NewOverlayStore(t)
	client := &fakeClient{submitConfirmed: false}

	svc := NewReconcileService(client, overlay, NewAssignmentStore(), cache.NewStore(time.Minute), logging.NewNop(), 1)

	diskErr := errors.New("disk full")
	overlay.
		On("Append", mock.Anything, mock.AnythingOfType("assignment.OverlayEntry")).
		Return(diskErr).
		Once()

	if _, err := svc.Assign(ctx, "e1", []string{"1"}, assignment.RoleJudge); !errors.Is(err, diskErr) {
		t.Fatalf("expected append error to surface, got %v", err)
	}
}

func TestRemove_PrunesOverlayWhenUpstreamRejectsUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	overlay := assignmentmock.NewOverlayStore(t)
	client := &fakeClient{removeConfirmed: false}

	svc := NewReconcileService(client, overlay, NewAssignmentStore(), cache.NewStore(time.Minute), logging.NewNop(), 1)
	svc.store.ApplyOverlay("e1", assignment.RoleJudge, []assignment.Member{
		{User: user.User{ID: "9", Name: "Citra"}},
	})

	overlay.
		On("Prune", mock.Anything, "e1", "9").
		Return(nil).
		Once()

	got, err := svc.Remove(ctx, "e1", "9")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !got.Removed {
		t.Fatal("expected local row to be removed")
	}
	if got.ServerConfirmed {
		t.Fatal("expected removal to stay unconfirmed upstream")
	}
}

package usecase

import (
	"testing"

	"github.com/drillscope/panel-api/external/drillhq"
	"github.com/drillscope/panel-api/internal/domain/user"
)

func testDirectory() directoryIndex {
	return newDirectoryIndex([]user.User{
		{ID: "1", LegacyID: "101", Name: "Andi", Role: user.RoleJudge},
		{ID: "7", Name: "Budi", Role: user.RoleOrganizer},
		{ID: "3", LegacyID: "7", Name: "Citra", Role: user.RoleJudge},
	})
}

func TestResolve_PrimaryIDWins(t *testing.T) {
	t.Parallel()

	idx := testDirectory()
	got, ok := idx.resolve(drillhq.PersonRef{ID: "1", UserID: "7"})
	if !ok {
		t.Fatalf("expected a directory match")
	}
	if got.Name != "Andi" {
		t.Fatalf("expected primary id match to win, got=%q", got.Name)
	}
}

func TestResolve_FallsBackToUserIDField(t *testing.T) {
	t.Parallel()

	idx := testDirectory()
	got, ok := idx.resolve(drillhq.PersonRef{UserID: "7"})
	if !ok {
		t.Fatalf("expected a directory match")
	}
	if got.Name != "Budi" {
		t.Fatalf("expected user_id to match account id 7, got=%q", got.Name)
	}
}

func TestResolve_FallsBackToLegacyID(t *testing.T) {
	t.Parallel()

	idx := testDirectory()
	got, ok := idx.resolve(drillhq.PersonRef{ID: "101"})
	if !ok {
		t.Fatalf("expected a directory match")
	}
	if got.Name != "Andi" {
		t.Fatalf("expected legacy id match, got=%q", got.Name)
	}
}

func TestResolve_UserIDBeatsLegacyID(t *testing.T) {
	t.Parallel()

	// "7" is both an account id (Budi) and Citra's legacy id; the account id
	// strategy runs first.
	idx := testDirectory()
	got, ok := idx.resolve(drillhq.PersonRef{ID: "999", UserID: "7"})
	if !ok {
		t.Fatalf("expected a directory match")
	}
	if got.Name != "Budi" {
		t.Fatalf("expected user_id strategy before legacy id, got=%q", got.Name)
	}
}

func TestResolve_MissYieldsPlaceholder(t *testing.T) {
	t.Parallel()

	idx := testDirectory()
	got, ok := idx.resolve(drillhq.PersonRef{ID: "404"})
	if ok {
		t.Fatalf("expected no match")
	}
	if got.ID != "404" || got.Name != "User 404" {
		t.Fatalf("expected placeholder for id 404, got=%+v", got)
	}
	if got.Role != user.RoleUnknown {
		t.Fatalf("expected unknown role on placeholder, got=%q", got.Role)
	}
}

func TestResolve_DeterministicAcrossDuplicateDirectoryRecords(t *testing.T) {
	t.Parallel()

	idx := newDirectoryIndex([]user.User{
		{ID: "5", Name: "First"},
		{ID: "5", Name: "Second"},
	})
	for i := 0; i < 10; i++ {
		got, ok := idx.resolve(drillhq.PersonRef{ID: "5"})
		if !ok || got.Name != "First" {
			t.Fatalf("expected first directory record to win, got=%+v", got)
		}
	}
}

func TestResolveID_MatchesLegacyID(t *testing.T) {
	t.Parallel()

	idx := testDirectory()
	got, ok := idx.resolveID("101")
	if !ok || got.Name != "Andi" {
		t.Fatalf("expected legacy id resolution, got=%+v", got)
	}

	if _, ok := idx.resolveID(""); ok {
		t.Fatalf("expected empty id to miss")
	}
}

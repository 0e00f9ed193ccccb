package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/drillscope/panel-api/external/drillhq"
	"github.com/drillscope/panel-api/internal/domain/assignment"
	"github.com/drillscope/panel-api/internal/domain/event"
	"github.com/drillscope/panel-api/internal/domain/user"
	"github.com/drillscope/panel-api/internal/platform/cache"
	"github.com/drillscope/panel-api/internal/platform/logging"
)

const (
	cacheKeyDirectory = "drillhq:users"
	cacheKeyEvents    = "drillhq:events"

	defaultRefreshWorkers = 4
)

// UpstreamClient is the slice of the competition backend the reconciler
// depends on.
type UpstreamClient interface {
	FetchEvents(ctx context.Context) ([]event.Event, error)
	FetchUsers(ctx context.Context) ([]user.User, error)
	FetchEventAssignments(ctx context.Context, eventID string) ([]drillhq.PersonRef, bool, error)
	SubmitAssignments(ctx context.Context, eventID string, personIDs []string, role assignment.Role) (bool, int, error)
	RemoveAssignment(ctx context.Context, eventID, personID string) (bool, int, error)
}

type ReconcileService struct {
	client  UpstreamClient
	overlay assignment.OverlayStore
	store   *AssignmentStore
	cache   *cache.Store
	logger  *logging.Logger

	maxWorkers int
	now        func() time.Time

	// refreshToken invalidates in-flight refresh cycles: results belonging to
	// an older token are discarded instead of overwriting newer state.
	refreshToken atomic.Uint64
}

func NewReconcileService(
	client UpstreamClient,
	overlay assignment.OverlayStore,
	store *AssignmentStore,
	cacheStore *cache.Store,
	logger *logging.Logger,
	maxWorkers int,
) *ReconcileService {
	if maxWorkers < 1 {
		maxWorkers = defaultRefreshWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{
		client:     client,
		overlay:    overlay,
		store:      store,
		cache:      cacheStore,
		logger:     logger,
		maxWorkers: maxWorkers,
		now:        time.Now,
	}
}

type RefreshResult struct {
	Token           uint64   `json:"token"`
	Events          int      `json:"events"`
	ServerConfirmed int      `json:"server_confirmed"`
	OverlayApplied  int      `json:"overlay_applied"`
	CorruptEntries  int      `json:"corrupt_entries"`
	Placeholders    int      `json:"placeholders"`
	FailedEvents    []string `json:"failed_events,omitempty"`
	Stale           bool     `json:"stale"`
}

type AssignResult struct {
	OK              bool `json:"ok"`
	ServerConfirmed bool `json:"server_confirmed"`
}

type RemoveResult struct {
	Removed         bool `json:"removed"`
	ServerConfirmed bool `json:"server_confirmed"`
}

// Refresh reconciles local state with the backend for the given events, or
// for every known event when none are named. The user directory and event
// list are prefetched together; per-event assignment reads then fan out over
// a bounded worker pool. An event whose assignment read fails contributes
// zero confirmed rows and is reported, not fatal. Losing the directory fails
// the whole cycle: nothing can be resolved without it.
func (s *ReconcileService) Refresh(ctx context.Context, eventIDs []string) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.Refresh")
	defer span.End()

	token := s.refreshToken.Add(1)
	result := RefreshResult{Token: token}

	var (
		users    []user.User
		usersErr error
		events   []event.Event
		evErr    error
	)

	var prefetch conc.WaitGroup
	prefetch.Go(func() {
		users, usersErr = s.directory(ctx)
	})
	prefetch.Go(func() {
		events, evErr = s.events(ctx)
	})
	prefetch.Wait()

	if usersErr != nil {
		return result, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, usersErr)
	}

	targets := normalizeEventIDs(eventIDs)
	if len(targets) == 0 {
		if evErr != nil {
			return result, fmt.Errorf("%w: list events: %v", ErrDependencyUnavailable, evErr)
		}
		for _, ev := range events {
			targets = append(targets, ev.ID)
		}
	}
	result.Events = len(targets)

	idx := newDirectoryIndex(users)

	var (
		confirmedCount   atomic.Int64
		overlayCount     atomic.Int64
		corruptCount     atomic.Int64
		placeholderCount atomic.Int64

		failedMu sync.Mutex
		failed   []string
	)

	pool, err := ants.NewPool(s.maxWorkers)
	if err != nil {
		return result, fmt.Errorf("create refresh worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, eventID := range targets {
		eventID := eventID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			stats, refreshErr := s.refreshEvent(ctx, token, idx, eventID)
			confirmedCount.Add(int64(stats.confirmed))
			overlayCount.Add(int64(stats.overlay))
			corruptCount.Add(int64(stats.corrupt))
			placeholderCount.Add(int64(stats.placeholders))
			if refreshErr != nil {
				s.logger.WarnContext(ctx, "event refresh failed",
					"event_id", eventID,
					"error", refreshErr,
				)
				failedMu.Lock()
				failed = append(failed, eventID)
				failedMu.Unlock()
			}
		}); err != nil {
			workers.Done()
			return result, fmt.Errorf("submit refresh task: %w", err)
		}
	}
	workers.Wait()

	sort.Strings(failed)
	result.ServerConfirmed = int(confirmedCount.Load())
	result.OverlayApplied = int(overlayCount.Load())
	result.CorruptEntries = int(corruptCount.Load())
	result.Placeholders = int(placeholderCount.Load())
	result.FailedEvents = failed
	result.Stale = s.refreshToken.Load() != token

	s.logger.InfoContext(ctx, "refresh cycle finished",
		"token", token,
		"events", result.Events,
		"server_confirmed", result.ServerConfirmed,
		"overlay_applied", result.OverlayApplied,
		"corrupt_entries", result.CorruptEntries,
		"placeholders", result.Placeholders,
		"failed_events", len(result.FailedEvents),
		"stale", result.Stale,
	)
	return result, ctx.Err()
}

type eventRefreshStats struct {
	confirmed    int
	overlay      int
	corrupt      int
	placeholders int
}

func (s *ReconcileService) refreshEvent(ctx context.Context, token uint64, idx directoryIndex, eventID string) (eventRefreshStats, error) {
	var stats eventRefreshStats

	refs, available, err := s.client.FetchEventAssignments(ctx, eventID)
	if err != nil {
		return stats, err
	}

	judges := make([]assignment.Member, 0, len(refs))
	organizers := make([]assignment.Member, 0)
	if available {
		for _, ref := range refs {
			resolved, matched := idx.resolve(ref)
			if !matched {
				stats.placeholders++
			}
			m := assignment.Member{User: resolved}
			if roleFromHint(ref.RoleHint, resolved) == assignment.RoleOrganizer {
				organizers = append(organizers, m)
			} else {
				judges = append(judges, m)
			}
		}
	}

	entries, corrupt, overlayErr := s.overlay.ListByEvent(ctx, eventID)
	stats.corrupt = corrupt
	if overlayErr != nil {
		s.logger.WarnContext(ctx, "overlay read failed",
			"event_id", eventID,
			"error", overlayErr,
		)
	}

	var overlays []roleMembers
	for _, entry := range entries {
		for _, role := range []assignment.Role{assignment.RoleJudge, assignment.RoleOrganizer} {
			ids := entry.PersonIDs(role)
			if len(ids) == 0 {
				continue
			}
			members := make([]assignment.Member, 0, len(ids))
			for _, id := range ids {
				resolved, matched := idx.resolveID(id)
				if !matched {
					stats.placeholders++
				}
				members = append(members, assignment.Member{User: resolved})
			}
			overlays = append(overlays, roleMembers{role: role, members: members})
			stats.overlay += len(members)
		}
	}

	// Results computed before a newer cycle started must not overwrite it. The
	// token comparison runs under the store lock so the check and the writes
	// cannot interleave with a newer cycle's.
	applied := s.store.ReplaceEvent(eventID, judges, organizers, overlays, func() bool {
		return s.refreshToken.Load() == token
	})
	if !applied {
		return eventRefreshStats{}, nil
	}
	stats.confirmed = len(judges) + len(organizers)

	if !available {
		return stats, fmt.Errorf("assignment read exhausted for event %s", eventID)
	}
	return stats, nil
}

// Assign submits an assignment upstream. A write the backend rejects on every
// candidate route is recorded locally instead of failing: the result then
// carries ServerConfirmed=false and the rows surface as pending until a later
// refresh confirms them.
func (s *ReconcileService) Assign(ctx context.Context, eventID string, personIDs []string, role assignment.Role) (AssignResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.Assign")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	personIDs = normalizePersonIDs(personIDs)
	if eventID == "" {
		return AssignResult{}, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	if len(personIDs) == 0 {
		return AssignResult{}, fmt.Errorf("%w: at least one person id is required", ErrInvalidInput)
	}
	if _, err := assignment.ParseRole(string(role)); err != nil {
		return AssignResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	confirmed, tried, err := s.client.SubmitAssignments(ctx, eventID, personIDs, role)
	if err != nil {
		return AssignResult{}, err
	}

	idx := s.bestEffortDirectory(ctx)
	members := make([]assignment.Member, 0, len(personIDs))
	for _, id := range personIDs {
		resolved, _ := idx.resolveID(id)
		members = append(members, assignment.Member{User: resolved})
	}

	if confirmed {
		s.store.Confirm(eventID, role, members)
		return AssignResult{OK: true, ServerConfirmed: true}, nil
	}

	entry := assignment.OverlayEntry{
		EventID:    eventID,
		AssignedAt: s.now().UTC(),
	}
	if role == assignment.RoleOrganizer {
		entry.Organizers = personIDs
	} else {
		entry.Judges = personIDs
	}
	if err := s.overlay.Append(ctx, entry); err != nil {
		return AssignResult{}, fmt.Errorf("record overlay entry: %w", err)
	}

	s.store.ApplyOverlay(eventID, role, members)
	s.logger.InfoContext(ctx, "assignment recorded locally after write exhaustion",
		"event_id", eventID,
		"role", string(role),
		"people", len(personIDs),
		"candidates_tried", tried,
	)
	return AssignResult{OK: true, ServerConfirmed: false}, nil
}

// Remove deletes a person from an event. The local overlay is pruned and the
// merged view updated even when no upstream delete route accepts the call, so
// a removal is never resurrected by replaying the overlay.
func (s *ReconcileService) Remove(ctx context.Context, eventID, personID string) (RemoveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.Remove")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	personID = strings.TrimSpace(personID)
	if eventID == "" || personID == "" {
		return RemoveResult{}, fmt.Errorf("%w: event id and person id are required", ErrInvalidInput)
	}

	confirmed, _, err := s.client.RemoveAssignment(ctx, eventID, personID)
	if err != nil {
		return RemoveResult{}, err
	}

	if err := s.overlay.Prune(ctx, eventID, personID); err != nil {
		return RemoveResult{}, fmt.Errorf("prune overlay: %w", err)
	}
	removed := s.store.Remove(eventID, personID)

	return RemoveResult{Removed: removed, ServerConfirmed: confirmed}, nil
}

// EventAssignments returns the merged view for one event as of the last
// reconciliation.
func (s *ReconcileService) EventAssignments(ctx context.Context, eventID string) (assignment.EventView, error) {
	_, span := startUsecaseSpan(ctx, "ReconcileService.EventAssignments")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return assignment.EventView{}, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	return s.store.View(eventID), nil
}

// Events lists the upstream events.
func (s *ReconcileService) Events(ctx context.Context) ([]event.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.Events")
	defer span.End()

	events, err := s.events(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return events, nil
}

// EventStatus derives the lifecycle status of one event from its dates.
func (s *ReconcileService) EventStatus(ctx context.Context, eventID string) (event.Event, event.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService.EventStatus")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return event.Event{}, event.StatusUnknown, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}

	events, err := s.events(ctx)
	if err != nil {
		return event.Event{}, event.StatusUnknown, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	for _, ev := range events {
		if ev.ID == eventID {
			return ev, ev.StatusAt(s.now()), nil
		}
	}
	return event.Event{}, event.StatusUnknown, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
}

func (s *ReconcileService) directory(ctx context.Context) ([]user.User, error) {
	value, err := s.cache.GetOrLoad(ctx, cacheKeyDirectory, func(ctx context.Context) (any, error) {
		return s.client.FetchUsers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]user.User), nil
}

func (s *ReconcileService) events(ctx context.Context) ([]event.Event, error) {
	value, err := s.cache.GetOrLoad(ctx, cacheKeyEvents, func(ctx context.Context) (any, error) {
		return s.client.FetchEvents(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]event.Event), nil
}

// bestEffortDirectory resolves against the directory when it is reachable and
// degrades to placeholders when it is not; a write path must not fail just
// because names cannot be attached.
func (s *ReconcileService) bestEffortDirectory(ctx context.Context) directoryIndex {
	users, err := s.directory(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "directory unavailable, resolving to placeholders", "error", err)
		return newDirectoryIndex(nil)
	}
	return newDirectoryIndex(users)
}

// roleFromHint decides which role bucket an upstream reference belongs to.
// The hint wins when it names a known role; otherwise the resolved account's
// own role is used, and anything still ambiguous counts as a judge, the
// dominant assignment kind on this backend.
func roleFromHint(hint string, resolved user.User) assignment.Role {
	switch user.ParseRole(hint) {
	case user.RoleOrganizer:
		return assignment.RoleOrganizer
	case user.RoleJudge:
		return assignment.RoleJudge
	}
	if resolved.Role.IsOrganizer() {
		return assignment.RoleOrganizer
	}
	return assignment.RoleJudge
}

func normalizeEventIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizePersonIDs(ids []string) []string {
	return normalizeEventIDs(ids)
}

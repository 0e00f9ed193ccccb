package drillhq

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/drillscope/panel-api/internal/domain/assignment"
	"github.com/drillscope/panel-api/internal/domain/event"
	"github.com/drillscope/panel-api/internal/domain/user"
	"github.com/drillscope/panel-api/internal/platform/logging"
	"github.com/drillscope/panel-api/internal/platform/resilience"
)

// ErrUpstreamUnavailable is returned when the backend cannot be reached at
// all for a read: every candidate failed at the transport or status level.
var ErrUpstreamUnavailable = crerr.New("drillhq upstream unavailable")

// PersonRef is one raw assignment reference as the backend reports it, before
// resolution against the user directory. Different routes identify the same
// person through different fields, so both identifier forms are kept.
type PersonRef struct {
	ID         string
	UserID     string
	RoleHint   string
	AssignedAt time.Time
}

type ClientConfig struct {
	Transport Transport
	BaseURL   string
	Token     string
	Timeout   time.Duration
	Logger    *logging.Logger

	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the DrillHQ competition backend. The backend's endpoint
// surface is unstable, so every operation probes an ordered candidate set
// instead of assuming a single route. The user directory sits behind a
// circuit breaker and singleflight because it is the hottest read and the
// first thing to melt down when the backend degrades.
type Client struct {
	transport Transport
	baseURL   string
	logger    *logging.Logger

	breakerEnabled bool
	breaker        *resilience.CircuitBreaker
	directoryCalls resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	transport := cfg.Transport
	if transport == nil {
		transport = NewFastHTTPTransport(cfg.Token, cfg.Timeout)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		transport:      transport,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		logger:         logger,
		breakerEnabled: breakerCfg.Enabled,
		breaker: resilience.NewCircuitBreaker(
			breakerCfg.FailureThreshold,
			breakerCfg.OpenTimeout,
			breakerCfg.HalfOpenMaxReq,
		),
	}
}

// FetchEvents lists the competition events.
func (c *Client) FetchEvents(ctx context.Context) ([]event.Event, error) {
	result, err := c.probe(ctx, eventListCandidates())
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, crerr.Wrapf(ErrUpstreamUnavailable, "list events: tried %d candidates, last: %v", result.Tried, result.LastErr)
	}

	records := Normalize(result.Env.Data)
	events := make([]event.Event, 0, len(records))
	for _, record := range records {
		mapped := mapEvent(record)
		if mapped.ID == "" {
			continue
		}
		events = append(events, mapped)
	}
	return events, nil
}

// FetchUsers lists the user directory. Concurrent callers share one in-flight
// request and the circuit breaker sheds load once the backend is failing.
func (c *Client) FetchUsers(ctx context.Context) ([]user.User, error) {
	value, err, shared := c.directoryCalls.Do("users", func() (any, error) {
		return c.fetchUsers(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "user directory fetch deduplicated")
	}
	return value.([]user.User), nil
}

func (c *Client) fetchUsers(ctx context.Context) ([]user.User, error) {
	if c.breakerEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	result, err := c.probe(ctx, userListCandidates())
	if err != nil {
		c.recordFailure()
		return nil, err
	}
	if !result.OK {
		c.recordFailure()
		return nil, crerr.Wrapf(ErrUpstreamUnavailable, "list users: tried %d candidates, last: %v", result.Tried, result.LastErr)
	}
	c.recordSuccess()

	records := Normalize(result.Env.Data)
	users := make([]user.User, 0, len(records))
	for _, record := range records {
		mapped := mapUser(record)
		if mapped.ID == "" {
			continue
		}
		users = append(users, mapped)
	}
	return users, nil
}

// FetchEventAssignments reads the raw assignment references for one event.
// available is false when no candidate answered; the caller then falls back
// to whatever local state it holds instead of treating the miss as fatal.
func (c *Client) FetchEventAssignments(ctx context.Context, eventID string) ([]PersonRef, bool, error) {
	if eventID == "" {
		return nil, false, crerr.New("event id is required")
	}

	result, err := c.probe(ctx, eventAssignmentReadCandidates(eventID))
	if err != nil {
		return nil, false, err
	}
	if !result.OK {
		c.logger.WarnContext(ctx, "assignment read exhausted all candidates",
			"event_id", eventID,
			"tried", result.Tried,
			"error", result.LastErr,
		)
		return nil, false, nil
	}

	records := Normalize(result.Env.Data)
	refs := make([]PersonRef, 0, len(records))
	for _, record := range records {
		ref := mapPersonRef(record)
		if ref.ID == "" && ref.UserID == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, true, nil
}

// SubmitAssignments writes an assignment for the given people. confirmed is
// false when every write candidate was rejected; the caller records the
// submission locally in that case. tried reports how many candidates were
// attempted, for logging.
func (c *Client) SubmitAssignments(ctx context.Context, eventID string, personIDs []string, role assignment.Role) (confirmed bool, tried int, err error) {
	if eventID == "" {
		return false, 0, crerr.New("event id is required")
	}
	if len(personIDs) == 0 {
		return false, 0, crerr.New("at least one person id is required")
	}

	payload := map[string]any{
		"event_id": eventID,
		"user_ids": personIDs,
		"role":     string(role),
	}

	result, err := c.probe(ctx, eventAssignmentWriteCandidates(eventID, payload))
	if err != nil {
		return false, result.Tried, err
	}
	if !result.OK {
		c.logger.WarnContext(ctx, "assignment write exhausted all candidates",
			"event_id", eventID,
			"role", string(role),
			"tried", result.Tried,
			"error", result.LastErr,
		)
		return false, result.Tried, nil
	}
	return true, result.Tried, nil
}

// RemoveAssignment deletes one person from an event upstream. confirmed is
// false when no delete candidate was accepted.
func (c *Client) RemoveAssignment(ctx context.Context, eventID, personID string) (confirmed bool, tried int, err error) {
	if eventID == "" || personID == "" {
		return false, 0, crerr.New("event id and person id are required")
	}

	result, err := c.probe(ctx, eventAssignmentRemoveCandidates(eventID, personID))
	if err != nil {
		return false, result.Tried, err
	}
	if !result.OK {
		c.logger.WarnContext(ctx, "assignment delete exhausted all candidates",
			"event_id", eventID,
			"person_id", personID,
			"tried", result.Tried,
			"error", result.LastErr,
		)
		return false, result.Tried, nil
	}
	return true, result.Tried, nil
}

func (c *Client) recordSuccess() {
	if c.breakerEnabled {
		c.breaker.RecordSuccess()
	}
}

func (c *Client) recordFailure() {
	if c.breakerEnabled {
		c.breaker.RecordFailure()
	}
}

func mapUser(record map[string]any) user.User {
	return user.User{
		ID:       getID(record, "id", "user_id", "uid"),
		LegacyID: getID(record, "user_id", "uid"),
		Name:     getString(record, "name", "full_name", "username"),
		Email:    getString(record, "email"),
		Phone:    getString(record, "phone", "phone_number", "no_hp"),
		Role:     user.ParseRole(getString(record, "role", "user_role", "user_type", "type")),
	}
}

func mapEvent(record map[string]any) event.Event {
	return event.Event{
		ID:          getID(record, "id", "event_id"),
		Name:        getString(record, "name", "event_name", "title"),
		Organizer:   getString(record, "organizer", "penyelenggara"),
		Location:    getString(record, "location", "place", "venue"),
		Info:        getString(record, "info", "description"),
		Terms:       getString(record, "terms", "syarat"),
		StartDate:   getDate(record, "start_date", "startDate", "date_start"),
		EndDate:     getDate(record, "end_date", "endDate", "date_end"),
		ImageURL:    getString(record, "image", "image_url", "banner"),
		OwnerUserID: getID(record, "user_id", "owner_id", "created_by"),
	}
}

func mapPersonRef(record map[string]any) PersonRef {
	ref := PersonRef{
		ID:       getID(record, "id"),
		UserID:   getID(record, "user_id", "uid"),
		RoleHint: getString(record, "role", "user_role", "user_type", "type"),
	}
	if at := getDate(record, "assigned_at", "created_at"); at != nil {
		ref.AssignedAt = *at
	}
	return ref
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// getDate parses the first parseable date under the given keys. The backend
// is inconsistent about formats, so several layouts are tried.
func getDate(src map[string]any, keys ...string) *time.Time {
	raw := getString(src, keys...)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}

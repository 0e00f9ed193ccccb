package httpapi

import (
	"net/http"

	"github.com/drillscope/panel-api/internal/domain/assignment"
)

type refreshRequest struct {
	// EventIDs narrows the cycle; empty means every known event.
	EventIDs []string `json:"event_ids" validate:"omitempty,dive,required"`
}

type refreshResponse struct {
	Token           uint64   `json:"token"`
	Events          int      `json:"events"`
	ServerConfirmed int      `json:"server_confirmed"`
	OverlayApplied  int      `json:"overlay_applied"`
	CorruptEntries  int      `json:"corrupt_entries"`
	Placeholders    int      `json:"placeholders"`
	FailedEvents    []string `json:"failed_events,omitempty"`
	Stale           bool     `json:"stale"`
}

type submitAssignmentsRequest struct {
	PersonIDs []string `json:"person_ids" validate:"required,min=1,dive,required"`
	Role      string   `json:"role" validate:"required,oneof=judge organizer"`
}

type assignResponse struct {
	OK              bool `json:"ok"`
	ServerConfirmed bool `json:"server_confirmed"`
}

type removeResponse struct {
	Removed         bool `json:"removed"`
	ServerConfirmed bool `json:"server_confirmed"`
}

type memberDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	AccountRole     string `json:"account_role"`
	ServerConfirmed bool   `json:"server_confirmed"`
	Pending         bool   `json:"pending"`
}

type eventViewDTO struct {
	EventID    string      `json:"event_id"`
	Judges     []memberDTO `json:"judges"`
	Organizers []memberDTO `json:"organizers"`
}

func (h *Handler) RefreshAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshAssignments")
	defer span.End()

	var req refreshRequest
	if r.ContentLength > 0 {
		if err := h.decodeRequest(ctx, r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	result, err := h.reconciler.Refresh(ctx, req.EventIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, refreshResponse{
		Token:           result.Token,
		Events:          result.Events,
		ServerConfirmed: result.ServerConfirmed,
		OverlayApplied:  result.OverlayApplied,
		CorruptEntries:  result.CorruptEntries,
		Placeholders:    result.Placeholders,
		FailedEvents:    result.FailedEvents,
		Stale:           result.Stale,
	})
}

func (h *Handler) GetEventAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEventAssignments")
	defer span.End()

	view, err := h.reconciler.EventAssignments(ctx, r.PathValue("eventID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventViewDTO{
		EventID:    view.EventID,
		Judges:     memberDTOs(view.Judges),
		Organizers: memberDTOs(view.Organizers),
	})
}

func (h *Handler) SubmitAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitAssignments")
	defer span.End()

	var req submitAssignmentsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.reconciler.Assign(ctx, r.PathValue("eventID"), req.PersonIDs, assignment.Role(req.Role))
	if err != nil {
		h.logger.ErrorContext(ctx, "submit assignments failed",
			"event_id", r.PathValue("eventID"),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, assignResponse{
		OK:              result.OK,
		ServerConfirmed: result.ServerConfirmed,
	})
}

func (h *Handler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveAssignment")
	defer span.End()

	result, err := h.reconciler.Remove(ctx, r.PathValue("eventID"), r.PathValue("personID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "remove assignment failed",
			"event_id", r.PathValue("eventID"),
			"person_id", r.PathValue("personID"),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, removeResponse{
		Removed:         result.Removed,
		ServerConfirmed: result.ServerConfirmed,
	})
}

func memberDTOs(members []assignment.Member) []memberDTO {
	out := make([]memberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, memberDTO{
			ID:              m.User.ID,
			Name:            m.User.Name,
			Email:           m.User.Email,
			Phone:           m.User.Phone,
			AccountRole:     string(m.User.Role),
			ServerConfirmed: m.ServerConfirmed,
			Pending:         m.Pending,
		})
	}
	return out
}

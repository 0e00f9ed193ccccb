package httpapi

import (
	"net/http"
	"time"

	"github.com/drillscope/panel-api/internal/domain/event"
)

type eventDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Organizer   string `json:"organizer,omitempty"`
	Location    string `json:"location,omitempty"`
	Info        string `json:"info,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	OwnerUserID string `json:"owner_user_id,omitempty"`
}

type eventStatusDTO struct {
	Event  eventDTO `json:"event"`
	Status string   `json:"status"`
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEvents")
	defer span.End()

	events, err := h.reconciler.Events(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list events failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventDTO(ev))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetEventStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEventStatus")
	defer span.End()

	ev, status, err := h.reconciler.EventStatus(ctx, r.PathValue("eventID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventStatusDTO{
		Event:  toEventDTO(ev),
		Status: string(status),
	})
}

func toEventDTO(ev event.Event) eventDTO {
	return eventDTO{
		ID:          ev.ID,
		Name:        ev.Name,
		Organizer:   ev.Organizer,
		Location:    ev.Location,
		Info:        ev.Info,
		StartDate:   formatDate(ev.StartDate),
		EndDate:     formatDate(ev.EndDate),
		ImageURL:    ev.ImageURL,
		OwnerUserID: ev.OwnerUserID,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

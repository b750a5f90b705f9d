package handler

import (
	"net/http" // HTTP status codes
	"time"     // response timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// waitlistResp is a waitlist entry as returned to clients.  Position
// is 1-based among ACTIVE entries; 0 means the seat is currently
// offered to this entry.
type waitlistResp struct {
	ID         uint64     `json:"id"`
	CabinID    uint64     `json:"cabin_id"`
	VenueID    uint64     `json:"venue_id"`
	Status     string     `json:"status"`
	Position   *int       `json:"position,omitempty"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toWaitlistResp(w *model.WaitlistEntry) waitlistResp {
	return waitlistResp{
		ID:         w.ID,
		CabinID:    w.CabinID,
		VenueID:    w.VenueID,
		Status:     string(w.Status),
		NotifiedAt: w.NotifiedAt,
		ExpiresAt:  w.ExpiresAt,
		CreatedAt:  w.CreatedAt,
	}
}

// JoinWaitlist handles POST /v1/cabins/:id/waitlist.  It queues the
// student for a cabin that is not currently bookable.  Joining an
// available cabin is refused (book it instead), as is queueing twice
// or queueing while holding an active booking for the same cabin.
func (h *StudentHandler) JoinWaitlist(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cabinID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cabin id"})
	}
	w, err := h.Engine.JoinWaitlist(c.Request().Context(), userID, cabinID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toWaitlistResp(w))
}

// CancelWaitlistEntry handles DELETE /v1/waitlist/:id.  It withdraws
// the student's entry.  Cancelling a NOTIFIED entry releases the
// reserved seat to the next person in line.  Returns 204.
func (h *StudentHandler) CancelWaitlistEntry(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	events, err := h.Engine.CancelWaitlistEntry(c.Request().Context(), userID, entryID)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.NoContent(http.StatusNoContent)
}

// WaitlistStatus handles GET /v1/waitlist/:id.  It returns the entry
// together with its live queue position: 0 while the seat is offered
// to this entry, otherwise 1-based among ACTIVE entries ahead of it.
func (h *StudentHandler) WaitlistStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	pos, w, err := h.Engine.WaitlistPosition(c.Request().Context(), userID, entryID)
	if err != nil {
		return fail(c, err)
	}
	resp := toWaitlistResp(w)
	if w.Status == model.WaitlistActive || w.Status == model.WaitlistNotified {
		resp.Position = &pos
	}
	return c.JSON(http.StatusOK, echo.Map{"item": resp})
}

// ListWaitlists handles GET /v1/my-waitlists.  It returns every
// waitlist entry of the current student, most recent first.
func (h *StudentHandler) ListWaitlists(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Store.Waitlist().ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load waitlist entries"})
	}
	items := make([]waitlistResp, 0, len(list))
	for i := range list {
		items = append(items, toWaitlistResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

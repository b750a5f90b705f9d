package handler

import (
	"net/http" // HTTP status codes
	"time"     // formatting hold deadlines

	"github.com/labstack/echo/v4" // Echo web framework
)

// holdResp describes the state of a cabin hold in API responses.
type holdResp struct {
	CabinID          uint64 `json:"cabin_id"`
	Status           string `json:"status"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	Mine             bool   `json:"mine"`
}

// AcquireHold handles POST /v1/cabins/:id/hold.  It places a short
// exclusive hold on the cabin for the current student so they can
// complete a booking without the seat being taken.  Re-holding a cabin
// the student already holds refreshes the deadline.  Returns 201 with
// the hold expiry; 409 when the cabin is held by someone else or not
// claimable.
func (h *StudentHandler) AcquireHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cabinID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cabin id"})
	}
	cab, events, err := h.Engine.AcquireHold(c.Request().Context(), userID, cabinID)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.JSON(http.StatusCreated, holdResp{
		CabinID:   cab.ID,
		Status:    string(cab.Status),
		ExpiresAt: cab.HoldExpiresAt.UTC().Format(time.RFC3339),
		Mine:      true,
	})
}

// ReleaseHold handles DELETE /v1/cabins/:id/hold.  It releases the
// student's own hold early, freeing the cabin for the waitlist or the
// next taker.  Releasing a hold that already lapsed is a no-op
// success.  Returns 204; 409 when the hold belongs to someone else.
func (h *StudentHandler) ReleaseHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cabinID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cabin id"})
	}
	events, err := h.Engine.ReleaseHold(c.Request().Context(), userID, cabinID)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.NoContent(http.StatusNoContent)
}

// HoldStatus handles GET /v1/cabins/:id/hold.  It reports the cabin's
// current hold from the caller's point of view: whether a hold or
// offer is live, how long it has left, and whether it belongs to the
// caller.  Reading a cabin whose hold lapsed settles the expiry first,
// so the response never shows a dead hold.
func (h *StudentHandler) HoldStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cabinID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cabin id"})
	}
	view, events, err := h.Engine.CabinState(c.Request().Context(), cabinID)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	resp := holdResp{CabinID: view.Cabin.ID, Status: string(view.Status)}
	if view.HoldRemaining > 0 {
		resp.ExpiresAt = view.Cabin.HoldExpiresAt.UTC().Format(time.RFC3339)
		resp.RemainingSeconds = int64(view.HoldRemaining / time.Second)
		resp.Mine = view.Cabin.HolderID != nil && *view.Cabin.HolderID == userID
	}
	return c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http" // HTTP status codes
	"time"     // date parsing and formatting

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/service"
)

// bookingReq is the body of booking creation endpoints.  Dates are
// calendar days; both "2006-01-02" and RFC3339 values are accepted.
type bookingReq struct {
	CabinID     uint64 `json:"cabin_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	AmountCents uint32 `json:"amount_cents" validate:"required,gt=0"`
	PaymentRef  string `json:"payment_ref"`
}

type confirmReq struct {
	PaymentRef string `json:"payment_ref" validate:"required"`
}

type extendReq struct {
	EndDate    string `json:"end_date" validate:"required"`
	ExtraCents uint32 `json:"extra_cents" validate:"required,gt=0"`
}

// bookingResp is the booking shape returned to clients.  The numeric
// ID stays internal to protected endpoints; Ref is the public handle.
type bookingResp struct {
	ID          uint64     `json:"id"`
	Ref         string     `json:"ref"`
	CabinID     uint64     `json:"cabin_id"`
	VenueID     uint64     `json:"venue_id"`
	Status      string     `json:"status"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	AmountCents uint32     `json:"amount_cents"`
	Payment     string     `json:"payment_status"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:          b.ID,
		Ref:         b.Ref,
		CabinID:     b.CabinID,
		VenueID:     b.VenueID,
		Status:      string(b.Status),
		StartDate:   b.StartDate.Format("2006-01-02"),
		EndDate:     b.EndDate.Format("2006-01-02"),
		AmountCents: b.AmountCents,
		Payment:     string(b.Payment),
		ExpiresAt:   b.ExpiresAt,
	}
}

// parseDate accepts a calendar day or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// bindBookingParams binds and validates a bookingReq into engine params.
func bindBookingParams(c echo.Context) (service.BookingParams, bool) {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return service.BookingParams{}, false
	}
	if err := c.Validate(&req); err != nil {
		return service.BookingParams{}, false
	}
	start, ok1 := parseDate(req.StartDate)
	end, ok2 := parseDate(req.EndDate)
	if !ok1 || !ok2 {
		return service.BookingParams{}, false
	}
	return service.BookingParams{
		CabinID:     req.CabinID,
		StartDate:   start,
		EndDate:     end,
		AmountCents: req.AmountCents,
		PaymentRef:  req.PaymentRef,
	}, true
}

// HoldBooking handles POST /v1/bookings/hold.  It creates a HELD
// booking and puts the cabin under the booking-window hold in one
// step; the student then has the window to confirm payment.  Returns
// 201 with the pending booking and its confirmation deadline.
func (h *StudentHandler) HoldBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	params, ok := bindBookingParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, events, err := h.Engine.HoldBooking(c.Request().Context(), userID, params)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm.  It finalises
// payment on a HELD booking: the booking becomes ACTIVE, the cabin
// OCCUPIED.  Confirming after the window returns 410 and retires the
// lapsed booking so the student can start over.
func (h *StudentHandler) ConfirmBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref is required"})
	}
	b, events, err := h.Engine.ConfirmBooking(c.Request().Context(), userID, bookingID, req.PaymentRef)
	if err != nil {
		// The lapsed-hold path commits its cleanup and still reports
		// the expiry; deliver whatever events the cleanup produced.
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// BookDirect handles POST /v1/bookings.  It books a claimable cabin in
// one step, skipping the interactive hold.  A waitlisted student
// taking their offer uses this endpoint too.  Returns 201 with the
// ACTIVE booking.
func (h *StudentHandler) BookDirect(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	params, ok := bindBookingParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, events, err := h.Engine.BookDirect(c.Request().Context(), userID, params)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// CancelBooking handles DELETE /v1/bookings/:id.  It cancels the
// student's ACTIVE booking, frees the cabin and offers it to the
// waitlist.  Returns 200 with the cancelled booking.
func (h *StudentHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, events, err := h.Engine.CancelBooking(c.Request().Context(), userID, bookingID)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// ExtendBooking handles POST /v1/bookings/:id/extend.  It pushes the
// end date of the student's ACTIVE booking out against a surcharge.
func (h *StudentHandler) ExtendBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req extendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date and extra_cents are required"})
	}
	newEnd, ok := parseDate(req.EndDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	b, events, err := h.Engine.ExtendBooking(c.Request().Context(), userID, bookingID, newEnd, req.ExtraCents)
	if err != nil {
		emit(h.Events, events)
		return fail(c, err)
	}
	emit(h.Events, events)
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// GetBooking handles GET /v1/bookings/:id.  It returns one of the
// student's bookings; requesting someone else's yields 403.
func (h *StudentHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Store.Bookings().Get(c.Request().Context(), bookingID)
	if err != nil {
		return fail(c, err)
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toBookingResp(b)})
}

// ListBookings handles GET /v1/my-bookings.  It returns all bookings
// of the current student, newest first.
func (h *StudentHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Store.Bookings().ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	items := make([]bookingResp, 0, len(list))
	for i := range list {
		items = append(items, toBookingResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

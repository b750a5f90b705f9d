package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/notify"
	"github.com/iliyamo/study-room-reservation/internal/service"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// StudentHandler bundles the reservation engine and its outbound event
// dispatcher for student-facing endpoints: seat holds, bookings and
// waitlists.  JWT authentication and role checks happen in middleware;
// methods only re-verify that a user ID is present in the context.
type StudentHandler struct {
	Engine *service.Engine
	Store  store.Store
	Events *notify.Dispatcher
}

// NewStudentHandler constructs a StudentHandler and panics if the engine
// or store is missing.  Events may be nil; committed events are then
// dropped, which tests use.
func NewStudentHandler(engine *service.Engine, st store.Store, events *notify.Dispatcher) *StudentHandler {
	if engine == nil || st == nil {
		panic("nil dependency passed to NewStudentHandler")
	}
	return &StudentHandler{Engine: engine, Store: st, Events: events}
}

// OwnerHandler bundles dependencies for venue and cabin management.
type OwnerHandler struct {
	Engine *service.Engine
	Store  store.Store
	Events *notify.Dispatcher
}

// NewOwnerHandler constructs an OwnerHandler and panics if the engine
// or store is missing.
func NewOwnerHandler(engine *service.Engine, st store.Store, events *notify.Dispatcher) *OwnerHandler {
	if engine == nil || st == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{Engine: engine, Store: st, Events: events}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) { // begin getUserID helper
	v := c.Get("user_id") // fetch user_id from context
	switch t := v.(type) { // perform type switch on the value
	case uint64: // when already uint64
		return t, nil // return directly
	case int: // when stored as int
		return uint64(t), nil // convert to uint64
	case int64: // when stored as int64
		return uint64(t), nil // convert to uint64
	case float64: // when stored as float64
		return uint64(t), nil // convert to uint64
	case string: // when stored as string
		if n, err := strconv.ParseUint(t, 10, 64); err == nil { // parse string to uint64
			return n, nil // return parsed number
		}
	} // end type switch
	return 0, errors.New("invalid user_id in context") // return error if value is missing or invalid
}

// pathID parses a positive numeric :param from the URL.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// statusFor translates engine errors into an HTTP status and message.
// Unknown errors map to 500 so callers never leak internals.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrCabinNotFound):
		return http.StatusNotFound, "cabin not found"
	case errors.Is(err, service.ErrBookingNotFound):
		return http.StatusNotFound, "booking not found"
	case errors.Is(err, service.ErrEntryNotFound):
		return http.StatusNotFound, "waitlist entry not found"
	case errors.Is(err, service.ErrSeatUnavailable):
		return http.StatusConflict, "cabin is not available"
	case errors.Is(err, service.ErrHeldByOther):
		return http.StatusConflict, "cabin is held by another user"
	case errors.Is(err, service.ErrSeatAvailable):
		return http.StatusConflict, "cabin is available, book it directly"
	case errors.Is(err, service.ErrAlreadyQueued):
		return http.StatusConflict, "already on the waitlist for this cabin"
	case errors.Is(err, service.ErrHasActiveBooking):
		return http.StatusConflict, "you already have an active booking for this cabin"
	case errors.Is(err, service.ErrNotHolder):
		return http.StatusConflict, "hold belongs to another user"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrHoldExpired):
		return http.StatusGone, "hold expired, start over"
	case errors.Is(err, service.ErrAlreadyCancelled):
		return http.StatusConflict, "booking already cancelled"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "operation not valid in the current state"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "lost a concurrent update, try again"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, "internal error"
}

// fail writes the JSON error response for an engine error.
func fail(c echo.Context, err error) error {
	code, msg := statusFor(err)
	return c.JSON(code, echo.Map{"error": msg})
}

// emit hands committed events to the dispatcher, when one is wired.
// Delivery runs on a fresh context so it outlives the request.
func emit(d *notify.Dispatcher, events []service.Event) {
	if d == nil || len(events) == 0 {
		return
	}
	d.Dispatch(context.Background(), events)
}

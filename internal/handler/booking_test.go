package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/service"
)

func bookingBody(cabinID uint64) string {
	return fmt.Sprintf(`{"cabin_id":%d,"start_date":"2025-07-01","end_date":"2025-08-01","amount_cents":90000}`, cabinID)
}

func TestHoldBookingEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.HoldBooking, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	wantStatus(t, rec, http.StatusCreated)
	var resp bookingResp
	decode(t, rec, &resp)
	if resp.Status != "HELD" || resp.Payment != "PENDING" {
		t.Errorf("booking = %s/%s, want HELD/PENDING", resp.Status, resp.Payment)
	}
	if resp.Ref == "" || resp.ExpiresAt == nil {
		t.Errorf("resp = %+v, want a ref and a confirmation deadline", resp)
	}
	if resp.StartDate != "2025-07-01" || resp.EndDate != "2025-08-01" {
		t.Errorf("dates = %s..%s, want the requested range back", resp.StartDate, resp.EndDate)
	}
}

func TestHoldBookingEndpointBadBody(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	tests := []struct {
		name string
		body string
	}{
		{"missing amount", fmt.Sprintf(`{"cabin_id":%d,"start_date":"2025-07-01","end_date":"2025-08-01"}`, cab)},
		{"unparseable date", fmt.Sprintf(`{"cabin_id":%d,"start_date":"July 1st","end_date":"2025-08-01","amount_cents":90000}`, cab)},
		{"no cabin", `{"start_date":"2025-07-01","end_date":"2025-08-01","amount_cents":90000}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, env.student.HoldBooking, call{method: http.MethodPost, user: 7, body: tc.body})
			wantError(t, rec, http.StatusBadRequest, "invalid request body")
		})
	}
}

func TestConfirmBookingEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.HoldBooking, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	var held bookingResp
	decode(t, rec, &held)

	rec = env.do(t, env.student.ConfirmBooking, call{
		method: http.MethodPost, user: 7, body: `{"payment_ref":"pay-1"}`, params: idParam(held.ID),
	})
	wantStatus(t, rec, http.StatusOK)
	var resp bookingResp
	decode(t, rec, &resp)
	if resp.Status != "ACTIVE" || resp.Payment != "PAID" {
		t.Errorf("booking = %s/%s, want ACTIVE/PAID", resp.Status, resp.Payment)
	}
	if resp.ExpiresAt != nil {
		t.Errorf("deadline = %v, want cleared once active", resp.ExpiresAt)
	}

	// Confirming twice is a state conflict.
	rec = env.do(t, env.student.ConfirmBooking, call{
		method: http.MethodPost, user: 7, body: `{"payment_ref":"pay-1"}`, params: idParam(held.ID),
	})
	wantError(t, rec, http.StatusConflict, "operation not valid in the current state")
}

func TestConfirmBookingEndpointLapsed(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.HoldBooking, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	var held bookingResp
	decode(t, rec, &held)

	env.clock.advance(service.DefaultBookingWindow + time.Second)

	rec = env.do(t, env.student.ConfirmBooking, call{
		method: http.MethodPost, user: 7, body: `{"payment_ref":"pay-1"}`, params: idParam(held.ID),
	})
	wantError(t, rec, http.StatusGone, "hold expired, start over")

	// The student can start over right away.
	rec = env.do(t, env.student.HoldBooking, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	wantStatus(t, rec, http.StatusCreated)
}

func TestConfirmBookingEndpointNeedsRef(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.HoldBooking, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	var held bookingResp
	decode(t, rec, &held)

	rec = env.do(t, env.student.ConfirmBooking, call{
		method: http.MethodPost, user: 7, body: `{}`, params: idParam(held.ID),
	})
	wantError(t, rec, http.StatusBadRequest, "payment_ref is required")
}

func TestBookDirectEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	wantStatus(t, rec, http.StatusCreated)
	var resp bookingResp
	decode(t, rec, &resp)
	if resp.Status != "ACTIVE" || resp.Payment != "PAID" {
		t.Errorf("booking = %s/%s, want ACTIVE/PAID", resp.Status, resp.Payment)
	}

	// The cabin is taken now.
	rec = env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 8, body: bookingBody(cab)})
	wantError(t, rec, http.StatusConflict, "cabin is not available")
}

func TestCancelBookingEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	var b bookingResp
	decode(t, rec, &b)

	rec = env.do(t, env.student.CancelBooking, call{method: http.MethodDelete, user: 8, params: idParam(b.ID)})
	wantError(t, rec, http.StatusForbidden, "forbidden")

	rec = env.do(t, env.student.CancelBooking, call{method: http.MethodDelete, user: 7, params: idParam(b.ID)})
	wantStatus(t, rec, http.StatusOK)
	var cancelled bookingResp
	decode(t, rec, &cancelled)
	if cancelled.Status != "CANCELLED" {
		t.Errorf("booking = %s, want CANCELLED", cancelled.Status)
	}

	rec = env.do(t, env.student.CancelBooking, call{method: http.MethodDelete, user: 7, params: idParam(b.ID)})
	wantError(t, rec, http.StatusConflict, "booking already cancelled")
}

func TestExtendBookingEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	var b bookingResp
	decode(t, rec, &b)

	rec = env.do(t, env.student.ExtendBooking, call{
		method: http.MethodPost, user: 7, body: `{"end_date":"2025-09-01","extra_cents":5000}`, params: idParam(b.ID),
	})
	wantStatus(t, rec, http.StatusOK)
	var extended bookingResp
	decode(t, rec, &extended)
	if extended.EndDate != "2025-09-01" || extended.AmountCents != 95000 {
		t.Errorf("extended = %s / %d, want 2025-09-01 / 95000", extended.EndDate, extended.AmountCents)
	}

	// A zero surcharge never reaches the engine.
	rec = env.do(t, env.student.ExtendBooking, call{
		method: http.MethodPost, user: 7, body: `{"end_date":"2025-10-01","extra_cents":0}`, params: idParam(b.ID),
	})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestGetBookingEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 7, body: bookingBody(cab)})
	var b bookingResp
	decode(t, rec, &b)

	rec = env.do(t, env.student.GetBooking, call{user: 7, params: idParam(b.ID)})
	wantStatus(t, rec, http.StatusOK)
	var resp struct {
		Item bookingResp `json:"item"`
	}
	decode(t, rec, &resp)
	if resp.Item.ID != b.ID || resp.Item.Ref != b.Ref {
		t.Errorf("item = %+v, want booking %d", resp.Item, b.ID)
	}

	rec = env.do(t, env.student.GetBooking, call{user: 8, params: idParam(b.ID)})
	wantError(t, rec, http.StatusForbidden, "forbidden")

	rec = env.do(t, env.student.GetBooking, call{user: 7, params: idParam(9999)})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestListBookingsEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	first := env.seedCabin(venueID, "1-01")
	second := env.seedCabin(venueID, "1-02")

	env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 7, body: bookingBody(first)})
	env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 7, body: bookingBody(second)})
	env.do(t, env.student.BookDirect, call{method: http.MethodPost, user: 8, body: bookingBody(env.seedCabin(venueID, "1-03"))})

	rec := env.do(t, env.student.ListBookings, call{user: 7})
	wantStatus(t, rec, http.StatusOK)
	var resp struct {
		Items []bookingResp `json:"items"`
	}
	decode(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want the student's two bookings", len(resp.Items))
	}
	if resp.Items[0].ID < resp.Items[1].ID {
		t.Errorf("order = [%d %d], want newest first", resp.Items[0].ID, resp.Items[1].ID)
	}
	if resp.Items[0].CabinID != second {
		t.Errorf("newest booking cabin = %d, want %d", resp.Items[0].CabinID, second)
	}
}

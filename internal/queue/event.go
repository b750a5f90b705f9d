// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	BookingRef  string `json:"booking_ref"`
	UserID      uint64 `json:"user_id"`
	CabinID     uint64 `json:"cabin_id"`
	CabinNumber string `json:"cabin_number"`
	VenueID     uint64 `json:"venue_id"`
	VenueName   string `json:"venue_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	AmountCents uint32 `json:"amount_cents"`
	ConfirmedAt string `json:"confirmed_at"`
}

package model

import "time"

// BookingStatus is the lifecycle state of a booking.  A booking is
// created HELD while the student completes payment, becomes ACTIVE
// on confirmation and ends in EXPIRED or CANCELLED.  ACTIVE, EXPIRED
// and CANCELLED are terminal except for ACTIVE→CANCELLED.
type BookingStatus string

const (
	BookingHeld      BookingStatus = "HELD"
	BookingActive    BookingStatus = "ACTIVE"
	BookingExpired   BookingStatus = "EXPIRED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// PaymentStatus tracks whether the booking amount has been paid.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// SettlementStatus tracks payout of the booking amount to the venue
// owner.  Settlement itself is handled outside this service; the
// field is carried for reporting.
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "NOT_SETTLED"
	SettlementDone    SettlementStatus = "SETTLED"
	SettlementOnHold  SettlementStatus = "ON_HOLD"
)

// Booking records a student's tenancy of a cabin.  Rows carry an
// internal numeric key plus a public UUID reference used in API
// responses and queue events.
//
// Fields:
//  ID          – primary key identifier.
//  Ref         – public UUID reference.
//  UserID      – student who made the booking.
//  CabinID     – cabin being booked.
//  VenueID     – venue of the cabin, denormalized for listings.
//  Status      – lifecycle state (HELD, ACTIVE, EXPIRED, CANCELLED).
//  StartDate   – first day of the tenancy.
//  EndDate     – last day of the tenancy.
//  AmountCents – total price in cents, grows on extension.
//  Payment     – payment state (PENDING, PAID, REFUNDED).
//  Settlement  – owner payout state.
//  PaymentRef  – external payment reference, if any.
//  ExpiresAt   – confirmation deadline while Status is HELD.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          uint64           // bookings.id
	Ref         string           // bookings.ref
	UserID      uint64           // bookings.user_id
	CabinID     uint64           // bookings.cabin_id
	VenueID     uint64           // bookings.venue_id
	Status      BookingStatus    // bookings.status
	StartDate   time.Time        // bookings.start_date
	EndDate     time.Time        // bookings.end_date
	AmountCents uint32           // bookings.amount_cents
	Payment     PaymentStatus    // bookings.payment_status
	Settlement  SettlementStatus // bookings.settlement_status
	PaymentRef  *string          // bookings.payment_ref (nullable)
	ExpiresAt   *time.Time       // bookings.expires_at (nullable)
	CreatedAt   time.Time        // bookings.created_at
	UpdatedAt   time.Time        // bookings.updated_at
}

// HoldLapsed reports whether a HELD booking has outlived its
// confirmation window.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.Status == BookingHeld && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

package service

import "errors"

// Sentinel errors returned by the booking engine.  Handlers compare
// with errors.Is and translate each one onto its HTTP status; the
// engine itself never renders user-facing messages.
var (
	ErrCabinNotFound   = errors.New("cabin not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrEntryNotFound   = errors.New("waitlist entry not found")

	// ErrSeatUnavailable covers cabins that cannot be claimed at all
	// right now: occupied, under maintenance, or lost to a
	// concurrent writer.
	ErrSeatUnavailable = errors.New("cabin is not available")
	// ErrHeldByOther covers cabins under someone else's unexpired
	// hold or offer; the caller may retry once it lapses.
	ErrHeldByOther = errors.New("cabin is temporarily held by another user")
	// ErrSeatAvailable rejects queueing for a cabin that can simply
	// be booked.
	ErrSeatAvailable = errors.New("cabin is available and can be booked directly")

	ErrAlreadyQueued    = errors.New("already on the waitlist for this cabin")
	ErrHasActiveBooking = errors.New("an active booking for this cabin already exists")

	// ErrNotHolder is returned when releasing a hold the caller does
	// not own.
	ErrNotHolder = errors.New("cabin is not held by this user")
	// ErrForbidden is returned when acting on another user's booking
	// or waitlist entry.
	ErrForbidden = errors.New("not allowed")

	// ErrHoldExpired means the confirmation window of a held booking
	// has lapsed; the caller must start the hold flow again.
	ErrHoldExpired = errors.New("booking hold has expired")

	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrInvalidTransition = errors.New("operation not valid in the current state")
	ErrInvalidInput      = errors.New("invalid input")
)

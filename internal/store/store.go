// Package store defines the persistence contracts for the booking
// engine.  Implementations live in the mysql and memstore
// subpackages.  Every method that mutates guarded state is written
// as a conditional update: it names the state it expects and fails
// with ErrConflict when the row has moved on, so concurrent writers
// serialise per cabin without table locks.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a guarded update matched no row,
	// meaning the expected state was gone by the time the statement ran.
	ErrConflict = errors.New("store: conflict")
)

// CabinStore persists cabins.  All state changes flow through
// CompareAndSet; the remaining methods are reads and owner-side
// bookkeeping that never touch the guarded fields.
type CabinStore interface {
	Create(ctx context.Context, c *model.Cabin) error
	Get(ctx context.Context, id uint64) (*model.Cabin, error)
	ListByVenue(ctx context.Context, venueID uint64) ([]model.Cabin, error)

	// CompareAndSet replaces the guarded fields of a cabin in one
	// conditional statement: the write applies only while the row
	// still matches expect exactly (status, holder, occupant).
	// Returns ErrConflict when another writer got there first and
	// ErrNotFound when the cabin does not exist.
	CompareAndSet(ctx context.Context, id uint64, expect, next model.CabinState) error

	UpdatePrice(ctx context.Context, id uint64, priceCents uint32) error

	// ListExpired returns IDs of cabins whose hold or offer deadline
	// has passed, oldest deadline first, capped at limit.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uint64, error)
}

// BookingStore persists bookings.  Lifecycle transitions are guarded
// on the current status so a stale caller loses with ErrConflict.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	Get(ctx context.Context, id uint64) (*model.Booking, error)

	// Confirm moves a HELD booking to ACTIVE, records the payment
	// reference and marks it PAID.
	Confirm(ctx context.Context, id uint64, paymentRef string) error
	// MarkExpired retires a HELD booking whose confirmation window
	// lapsed.
	MarkExpired(ctx context.Context, id uint64) error
	// Cancel moves an ACTIVE booking to CANCELLED.
	Cancel(ctx context.Context, id uint64) error
	// Extend pushes the end date of an ACTIVE booking out and adds
	// the extra amount to its total.
	Extend(ctx context.Context, id uint64, newEnd time.Time, extraCents uint32) error

	// HasActive reports whether the user has an ACTIVE booking for
	// the cabin that is still running at now.
	HasActive(ctx context.Context, userID, cabinID uint64, now time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	// CountByVenue counts bookings attached to any cabin of the
	// venue, used as the venue deletion guard.
	CountByVenue(ctx context.Context, venueID uint64) (int, error)
}

// WaitlistStore persists waitlist entries.  FIFO order among ACTIVE
// entries of a cabin is CreatedAt ascending with ID as tie-break.
type WaitlistStore interface {
	Create(ctx context.Context, w *model.WaitlistEntry) error
	Get(ctx context.Context, id uint64) (*model.WaitlistEntry, error)

	// OldestActive returns the next entry in line for the cabin, or
	// ErrNotFound when nobody is queued.
	OldestActive(ctx context.Context, cabinID uint64) (*model.WaitlistEntry, error)
	// HasOpen reports whether the user already has an ACTIVE or
	// NOTIFIED entry for the cabin.
	HasOpen(ctx context.Context, userID, cabinID uint64) (bool, error)

	// MarkNotified moves an ACTIVE entry to NOTIFIED with the offer
	// deadline.  ErrConflict when the entry is no longer ACTIVE.
	MarkNotified(ctx context.Context, id uint64, at, deadline time.Time) error
	// SetStatus performs a guarded status transition on one entry.
	SetStatus(ctx context.Context, id uint64, from, to model.WaitlistStatus) error
	// ExpireNotified retires every NOTIFIED entry of the cabin except
	// the one belonging to exceptUserID.  Pass zero to retire all.
	// Matching no rows is not an error.
	ExpireNotified(ctx context.Context, cabinID, exceptUserID uint64) error
	// Convert closes the user's open entry for the cabin as
	// CONVERTED once they hold a booking.  Matching no rows is not
	// an error.
	Convert(ctx context.Context, userID, cabinID uint64) error

	// CountActiveBefore counts ACTIVE entries of the cabin queued
	// strictly ahead of the given position.
	CountActiveBefore(ctx context.Context, cabinID uint64, createdAt time.Time, id uint64) (int, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.WaitlistEntry, error)
	ListByVenue(ctx context.Context, venueID uint64) ([]model.WaitlistEntry, error)
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error)
	// MarkRead flips the read flag; scoped to the owning user so one
	// user cannot read off another's inbox.
	MarkRead(ctx context.Context, id, userID uint64) error
}

// VenueStore persists venues.
type VenueStore interface {
	Create(ctx context.Context, v *model.Venue) error
	Get(ctx context.Context, id uint64) (*model.Venue, error)
	ListAll(ctx context.Context) ([]model.Venue, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Venue, error)
	Update(ctx context.Context, v *model.Venue) error
	// Delete removes the venue together with its cabins and their
	// waitlist entries.  The caller is responsible for refusing the
	// call while bookings exist.
	Delete(ctx context.Context, id uint64) error
}

// Store bundles the per-table stores and the transaction boundary.
type Store interface {
	Cabins() CabinStore
	Bookings() BookingStore
	Waitlist() WaitlistStore
	Notifications() NotificationStore
	Venues() VenueStore

	// InTx runs fn against a store whose operations share one
	// transaction.  fn returning an error rolls everything back.
	InTx(ctx context.Context, fn func(Store) error) error
}

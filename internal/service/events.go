package service

import (
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

// Event is an outbound side effect produced by a state transition.
// The engine appends events instead of delivering anything itself;
// that keeps every transition inside one transaction and leaves
// notification channels, broadcast and brokers to the caller, which
// drains the list after commit.  Delivery is best-effort by
// definition: a lost event never invalidates the transition that
// produced it.
type Event interface {
	event()
}

// NotifyUser requests an in-app notification for one user.
type NotifyUser struct {
	UserID  uint64
	Title   string
	Message string
	Kind    model.NotificationKind
}

// SeatUpdate announces a cabin state change so live views can
// refresh without polling.
type SeatUpdate struct {
	CabinID       uint64     `json:"cabin_id"`
	VenueID       uint64     `json:"venue_id"`
	Status        string     `json:"status"`
	HolderID      *uint64    `json:"holder_id,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

// BookingConfirmed is handed to the message broker for downstream
// consumers once a booking reaches ACTIVE.
type BookingConfirmed struct {
	BookingID   uint64
	Ref         string
	UserID      uint64
	CabinID     uint64
	VenueID     uint64
	AmountCents uint32
	StartDate   time.Time
	EndDate     time.Time
}

func (NotifyUser) event()       {}
func (SeatUpdate) event()       {}
func (BookingConfirmed) event() {}

// seatUpdate builds the broadcast payload for a cabin that just
// moved to the given state.
func seatUpdate(c *model.Cabin, next model.CabinState) SeatUpdate {
	return SeatUpdate{
		CabinID:       c.ID,
		VenueID:       c.VenueID,
		Status:        string(next.Status),
		HolderID:      next.HolderID,
		HoldExpiresAt: next.HoldExpiresAt,
	}
}

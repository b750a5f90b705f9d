package model

import "time"

// CabinStatus is the stored occupancy state of a cabin.  The value
// on the row is not always the truth a caller should act on: a HELD
// or RESERVED_FOR_WAITLIST cabin whose hold deadline has passed is
// logically available again, and readers resolve that through
// EffectiveStatus instead of waiting for a background process.
type CabinStatus string

const (
	CabinAvailable   CabinStatus = "AVAILABLE"
	CabinHeld        CabinStatus = "HELD"
	CabinReserved    CabinStatus = "RESERVED_FOR_WAITLIST"
	CabinOccupied    CabinStatus = "OCCUPIED"
	CabinMaintenance CabinStatus = "MAINTENANCE"
)

// Cabin describes a bookable seat inside a venue.  Cabins are
// uniquely identified by their venue and number.  Hold bookkeeping
// lives directly on the row so that a single guarded UPDATE can
// claim or free a cabin.
//
// Fields:
//  ID            – primary key identifier.
//  VenueID       – venue to which this cabin belongs.
//  Number        – label of the cabin within the venue (e.g. "A-12").
//  Floor         – floor the cabin is on.
//  PriceCents    – monthly price in cents.
//  Status        – stored state (AVAILABLE, HELD, RESERVED_FOR_WAITLIST,
//                  OCCUPIED, MAINTENANCE).
//  HolderID      – user holding the cabin while Status is HELD or
//                  RESERVED_FOR_WAITLIST.
//  HoldExpiresAt – when the current hold or offer lapses.
//  OccupantID    – user occupying the cabin while Status is OCCUPIED.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Cabin struct {
	ID            uint64      // cabins.id
	VenueID       uint64      // cabins.venue_id
	Number        string      // cabins.number
	Floor         uint8       // cabins.floor
	PriceCents    uint32      // cabins.price_cents
	Status        CabinStatus // cabins.status
	HolderID      *uint64     // cabins.holder_id (nullable)
	HoldExpiresAt *time.Time  // cabins.hold_expires_at (nullable)
	OccupantID    *uint64     // cabins.occupant_id (nullable)
	CreatedAt     time.Time   // cabins.created_at
	UpdatedAt     time.Time   // cabins.updated_at
}

// HoldActive reports whether the cabin carries an unexpired hold or
// waitlist offer.
func (c *Cabin) HoldActive(now time.Time) bool {
	if c.Status != CabinHeld && c.Status != CabinReserved {
		return false
	}
	return c.HolderID != nil && c.HoldExpiresAt != nil && now.Before(*c.HoldExpiresAt)
}

// HeldBy reports whether userID owns an unexpired hold on the cabin.
func (c *Cabin) HeldBy(userID uint64, now time.Time) bool {
	return c.HoldActive(now) && *c.HolderID == userID
}

// EffectiveStatus resolves lazy hold expiry without touching storage.
// Hold validity is a pure function of the deadline against now, so an
// expired HELD or RESERVED_FOR_WAITLIST row reads as AVAILABLE.
func (c *Cabin) EffectiveStatus(now time.Time) CabinStatus {
	if (c.Status == CabinHeld || c.Status == CabinReserved) && !c.HoldActive(now) {
		return CabinAvailable
	}
	return c.Status
}

// CabinState is the guarded portion of a cabin row: the fields every
// mutation must both expect and replace in one compare-and-set.
type CabinState struct {
	Status        CabinStatus
	HolderID      *uint64
	HoldExpiresAt *time.Time
	OccupantID    *uint64
}

// State snapshots the cabin's guarded fields for use as a CAS
// expectation.
func (c *Cabin) State() CabinState {
	return CabinState{
		Status:        c.Status,
		HolderID:      c.HolderID,
		HoldExpiresAt: c.HoldExpiresAt,
		OccupantID:    c.OccupantID,
	}
}

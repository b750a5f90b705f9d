package model

import "time"

// WaitlistStatus is the lifecycle state of a waitlist entry.
// Entries queue as ACTIVE, become NOTIFIED when the seat is offered
// to them, and end in CONVERTED (offer taken), EXPIRED (offer or
// queue abandoned) or CANCELLED (left voluntarily).
type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "ACTIVE"
	WaitlistNotified  WaitlistStatus = "NOTIFIED"
	WaitlistConverted WaitlistStatus = "CONVERTED"
	WaitlistExpired   WaitlistStatus = "EXPIRED"
	WaitlistCancelled WaitlistStatus = "CANCELLED"
)

// WaitlistEntry queues a student for a cabin that is not currently
// bookable.  Ordering among ACTIVE entries of a cabin is strictly
// CreatedAt ascending; the oldest entry is always offered first.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – queued student.
//  CabinID    – cabin being waited on.
//  VenueID    – venue of the cabin, denormalized for owner queries.
//  Status     – lifecycle state (ACTIVE, NOTIFIED, CONVERTED,
//               EXPIRED, CANCELLED).
//  NotifiedAt – when the offer was made, while NOTIFIED.
//  ExpiresAt  – offer deadline, while NOTIFIED.
//  CreatedAt  – when the student joined the queue; the FIFO key.
type WaitlistEntry struct {
	ID         uint64         // waitlist_entries.id
	UserID     uint64         // waitlist_entries.user_id
	CabinID    uint64         // waitlist_entries.cabin_id
	VenueID    uint64         // waitlist_entries.venue_id
	Status     WaitlistStatus // waitlist_entries.status
	NotifiedAt *time.Time     // waitlist_entries.notified_at (nullable)
	ExpiresAt  *time.Time     // waitlist_entries.expires_at (nullable)
	CreatedAt  time.Time      // waitlist_entries.created_at
}

// OfferLapsed reports whether a NOTIFIED entry's offer window has
// passed.
func (w *WaitlistEntry) OfferLapsed(now time.Time) bool {
	return w.Status == WaitlistNotified && w.ExpiresAt != nil && !now.Before(*w.ExpiresAt)
}

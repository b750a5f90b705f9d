package model

import "time"

// Venue represents a reading room owned by a user.  A venue
// contains multiple cabins that students can book.  This struct
// corresponds to a row in the `venues` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the venue owner.
//  Name      – unique name of the venue per owner.
//  City      – city the venue is located in.
//  Address   – street address of the venue.
//  CreatedAt – timestamp when the venue was created.
//  UpdatedAt – timestamp of last update.
type Venue struct {
	ID        uint64    // venues.id
	OwnerID   uint64    // venues.owner_id
	Name      string    // venues.name
	City      string    // venues.city
	Address   string    // venues.address
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}

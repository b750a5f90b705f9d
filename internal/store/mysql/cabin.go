package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

type cabinStore struct{ q queryer }

const cabinCols = `id, venue_id, number, floor, price_cents, status, holder_id, hold_expires_at, occupant_id, created_at, updated_at`

func scanCabin(row rowScanner) (*model.Cabin, error) {
	var c model.Cabin
	var status string
	var holder, occupant sql.NullInt64
	var holdExp sql.NullTime
	if err := row.Scan(
		&c.ID, &c.VenueID, &c.Number, &c.Floor, &c.PriceCents, &status,
		&holder, &holdExp, &occupant, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = model.CabinStatus(status)
	c.HolderID = idPtr(holder)
	c.HoldExpiresAt = timePtr(holdExp)
	c.OccupantID = idPtr(occupant)
	return &c, nil
}

// Create inserts a cabin and populates its generated ID and
// timestamps.  New cabins always start AVAILABLE with no holder.
func (s *cabinStore) Create(ctx context.Context, c *model.Cabin) error {
	const q = `INSERT INTO cabins (venue_id, number, floor, price_cents, status) VALUES (?, ?, ?, ?, ?)`
	res, err := s.q.ExecContext(ctx, q, c.VenueID, c.Number, c.Floor, c.PriceCents, string(model.CabinAvailable))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Status = model.CabinAvailable
	const sel = `SELECT created_at, updated_at FROM cabins WHERE id = ?`
	return s.q.QueryRowContext(ctx, sel, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// Get fetches one cabin by ID.
func (s *cabinStore) Get(ctx context.Context, id uint64) (*model.Cabin, error) {
	const q = `SELECT ` + cabinCols + ` FROM cabins WHERE id = ?`
	c, err := scanCabin(s.q.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByVenue returns all cabins of a venue ordered by floor and
// number for deterministic output.
func (s *cabinStore) ListByVenue(ctx context.Context, venueID uint64) ([]model.Cabin, error) {
	const q = `SELECT ` + cabinCols + ` FROM cabins WHERE venue_id = ? ORDER BY floor, number`
	rows, err := s.q.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cabins := make([]model.Cabin, 0)
	for rows.Next() {
		c, err := scanCabin(rows)
		if err != nil {
			return nil, err
		}
		cabins = append(cabins, *c)
	}
	return cabins, rows.Err()
}

// CompareAndSet performs the single guarded UPDATE every cabin
// mutation funnels through.  The WHERE clause re-states the status,
// holder and occupant the caller read; <=> is MySQL's NULL-safe
// equality so NULL holder and occupant values guard correctly.
func (s *cabinStore) CompareAndSet(ctx context.Context, id uint64, expect, next model.CabinState) error {
	const q = `UPDATE cabins
	           SET status = ?, holder_id = ?, hold_expires_at = ?, occupant_id = ?
	           WHERE id = ? AND status = ? AND holder_id <=> ? AND occupant_id <=> ?`
	res, err := s.q.ExecContext(ctx, q,
		string(next.Status), nullID(next.HolderID), nullTime(next.HoldExpiresAt), nullID(next.OccupantID),
		id, string(expect.Status), nullID(expect.HolderID), nullID(expect.OccupantID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the cabin is gone or another writer moved it on.
		var one int
		err := s.q.QueryRowContext(ctx, `SELECT 1 FROM cabins WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

// UpdatePrice changes the monthly price of a cabin.
func (s *cabinStore) UpdatePrice(ctx context.Context, id uint64, priceCents uint32) error {
	const q = `UPDATE cabins SET price_cents = ? WHERE id = ?`
	res, err := s.q.ExecContext(ctx, q, priceCents, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListExpired returns cabins whose hold or offer deadline has
// passed, oldest first, for the sweeper to materialise.
func (s *cabinStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	const q = `SELECT id FROM cabins
	           WHERE status IN ('HELD', 'RESERVED_FOR_WAITLIST')
	             AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?
	           ORDER BY hold_expires_at
	           LIMIT ?`
	rows, err := s.q.QueryContext(ctx, q, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

type venueStore struct{ q queryer }

const venueCols = `id, owner_id, name, city, address, created_at, updated_at`

func scanVenue(row rowScanner) (*model.Venue, error) {
	var v model.Venue
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.City, &v.Address, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a venue and populates its generated ID and
// timestamps.
func (s *venueStore) Create(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (owner_id, name, city, address) VALUES (?, ?, ?, ?)`
	res, err := s.q.ExecContext(ctx, q, v.OwnerID, v.Name, v.City, v.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM venues WHERE id = ?`
	return s.q.QueryRowContext(ctx, sel, v.ID).Scan(&v.CreatedAt, &v.UpdatedAt)
}

// Get fetches one venue by ID.
func (s *venueStore) Get(ctx context.Context, id uint64) (*model.Venue, error) {
	const q = `SELECT ` + venueCols + ` FROM venues WHERE id = ?`
	v, err := scanVenue(s.q.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListAll returns every venue for public browsing.
func (s *venueStore) ListAll(ctx context.Context) ([]model.Venue, error) {
	const q = `SELECT ` + venueCols + ` FROM venues ORDER BY name`
	return s.list(ctx, q)
}

// ListByOwner returns the venues owned by a user.
func (s *venueStore) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Venue, error) {
	const q = `SELECT ` + venueCols + ` FROM venues WHERE owner_id = ? ORDER BY name`
	return s.list(ctx, q, ownerID)
}

// Update rewrites the editable venue fields.
func (s *venueStore) Update(ctx context.Context, v *model.Venue) error {
	const q = `UPDATE venues SET name = ?, city = ?, address = ? WHERE id = ?`
	res, err := s.q.ExecContext(ctx, q, v.Name, v.City, v.Address, v.ID)
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

// Delete removes the venue, its cabins and their waitlist entries.
// Callers check the booking guard first and wrap this in InTx.
func (s *venueStore) Delete(ctx context.Context, id uint64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE venue_id = ?`, id); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM cabins WHERE venue_id = ?`, id); err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
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

func (s *venueStore) list(ctx context.Context, query string, args ...any) ([]model.Venue, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := make([]model.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

type waitlistStore struct{ q queryer }

const waitlistCols = `id, user_id, cabin_id, venue_id, status, notified_at, expires_at, created_at`

func scanEntry(row rowScanner) (*model.WaitlistEntry, error) {
	var w model.WaitlistEntry
	var status string
	var notified, expires sql.NullTime
	if err := row.Scan(
		&w.ID, &w.UserID, &w.CabinID, &w.VenueID, &status, &notified, &expires, &w.CreatedAt,
	); err != nil {
		return nil, err
	}
	w.Status = model.WaitlistStatus(status)
	w.NotifiedAt = timePtr(notified)
	w.ExpiresAt = timePtr(expires)
	return &w, nil
}

// Create inserts an entry with the engine-assigned creation time;
// that timestamp is the queue position and must not drift to the
// database clock.
func (s *waitlistStore) Create(ctx context.Context, w *model.WaitlistEntry) error {
	const q = `INSERT INTO waitlist_entries (user_id, cabin_id, venue_id, status, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := s.q.ExecContext(ctx, q, w.UserID, w.CabinID, w.VenueID, string(w.Status), w.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// Get fetches one entry by ID.
func (s *waitlistStore) Get(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistCols + ` FROM waitlist_entries WHERE id = ?`
	w, err := scanEntry(s.q.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// OldestActive returns the next entry in line for the cabin.
func (s *waitlistStore) OldestActive(ctx context.Context, cabinID uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistCols + ` FROM waitlist_entries
	           WHERE cabin_id = ? AND status = 'ACTIVE'
	           ORDER BY created_at, id
	           LIMIT 1`
	w, err := scanEntry(s.q.QueryRowContext(ctx, q, cabinID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// HasOpen reports whether the user already queues for the cabin.
func (s *waitlistStore) HasOpen(ctx context.Context, userID, cabinID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM waitlist_entries
	             WHERE user_id = ? AND cabin_id = ? AND status IN ('ACTIVE', 'NOTIFIED')
	           )`
	var exists bool
	if err := s.q.QueryRowContext(ctx, q, userID, cabinID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// MarkNotified moves an ACTIVE entry to NOTIFIED with its offer
// deadline.
func (s *waitlistStore) MarkNotified(ctx context.Context, id uint64, at, deadline time.Time) error {
	const q = `UPDATE waitlist_entries
	           SET status = 'NOTIFIED', notified_at = ?, expires_at = ?
	           WHERE id = ? AND status = 'ACTIVE'`
	return s.guarded(ctx, q, at.UTC(), deadline.UTC(), id)
}

// SetStatus performs a guarded transition on one entry.
func (s *waitlistStore) SetStatus(ctx context.Context, id uint64, from, to model.WaitlistStatus) error {
	const q = `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`
	return s.guarded(ctx, q, string(to), id, string(from))
}

// ExpireNotified retires the cabin's NOTIFIED entries, sparing
// exceptUserID when non-zero.  Matching nothing is fine.
func (s *waitlistStore) ExpireNotified(ctx context.Context, cabinID, exceptUserID uint64) error {
	const q = `UPDATE waitlist_entries SET status = 'EXPIRED'
	           WHERE cabin_id = ? AND status = 'NOTIFIED' AND user_id <> ?`
	_, err := s.q.ExecContext(ctx, q, cabinID, exceptUserID)
	return err
}

// Convert closes the user's open entry for the cabin once they hold
// a booking.  Matching nothing is fine.
func (s *waitlistStore) Convert(ctx context.Context, userID, cabinID uint64) error {
	const q = `UPDATE waitlist_entries SET status = 'CONVERTED'
	           WHERE user_id = ? AND cabin_id = ? AND status IN ('ACTIVE', 'NOTIFIED')`
	_, err := s.q.ExecContext(ctx, q, userID, cabinID)
	return err
}

// guarded runs a status-guarded update and maps a zero row count to
// ErrConflict.
func (s *waitlistStore) guarded(ctx context.Context, query string, args ...any) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

// CountActiveBefore counts ACTIVE entries queued strictly ahead of
// the given position, with ID breaking creation-time ties.
func (s *waitlistStore) CountActiveBefore(ctx context.Context, cabinID uint64, createdAt time.Time, id uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM waitlist_entries
	           WHERE cabin_id = ? AND status = 'ACTIVE'
	             AND (created_at < ? OR (created_at = ? AND id < ?))`
	var n int
	at := createdAt.UTC()
	if err := s.q.QueryRowContext(ctx, q, cabinID, at, at, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListByUser returns the user's open entries, newest first.
func (s *waitlistStore) ListByUser(ctx context.Context, userID uint64) ([]model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistCols + ` FROM waitlist_entries
	           WHERE user_id = ? AND status IN ('ACTIVE', 'NOTIFIED')
	           ORDER BY created_at DESC`
	return s.list(ctx, q, userID)
}

// ListByVenue returns the venue's open entries in queue order for
// the owner view.
func (s *waitlistStore) ListByVenue(ctx context.Context, venueID uint64) ([]model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistCols + ` FROM waitlist_entries
	           WHERE venue_id = ? AND status IN ('ACTIVE', 'NOTIFIED')
	           ORDER BY created_at, id`
	return s.list(ctx, q, venueID)
}

func (s *waitlistStore) list(ctx context.Context, query string, arg any) ([]model.WaitlistEntry, error) {
	rows, err := s.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.WaitlistEntry, 0)
	for rows.Next() {
		w, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *w)
	}
	return entries, rows.Err()
}

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

type bookingStore struct{ q queryer }

const bookingCols = `id, ref, user_id, cabin_id, venue_id, status, start_date, end_date,
	amount_cents, payment_status, settlement_status, payment_ref, expires_at, created_at, updated_at`

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var status, payment, settlement string
	var payRef sql.NullString
	var expires sql.NullTime
	if err := row.Scan(
		&b.ID, &b.Ref, &b.UserID, &b.CabinID, &b.VenueID, &status, &b.StartDate, &b.EndDate,
		&b.AmountCents, &payment, &settlement, &payRef, &expires, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	b.Payment = model.PaymentStatus(payment)
	b.Settlement = model.SettlementStatus(settlement)
	b.PaymentRef = strPtr(payRef)
	b.ExpiresAt = timePtr(expires)
	return &b, nil
}

// Create inserts a booking exactly as the engine shaped it and
// populates the generated ID.
func (s *bookingStore) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (ref, user_id, cabin_id, venue_id, status, start_date, end_date,
	            amount_cents, payment_status, settlement_status, payment_ref, expires_at, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.q.ExecContext(ctx, q,
		b.Ref, b.UserID, b.CabinID, b.VenueID, string(b.Status), b.StartDate.UTC(), b.EndDate.UTC(),
		b.AmountCents, string(b.Payment), string(b.Settlement), nullStr(b.PaymentRef), nullTime(b.ExpiresAt), b.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// Get fetches one booking by ID.
func (s *bookingStore) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(s.q.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Confirm moves a HELD booking to ACTIVE and records payment.  The
// status guard makes concurrent confirms lose cleanly.
func (s *bookingStore) Confirm(ctx context.Context, id uint64, paymentRef string) error {
	const q = `UPDATE bookings
	           SET status = 'ACTIVE', payment_status = 'PAID', payment_ref = ?, expires_at = NULL
	           WHERE id = ? AND status = 'HELD'`
	return s.guarded(ctx, q, paymentRef, id)
}

// MarkExpired retires a HELD booking whose window lapsed.
func (s *bookingStore) MarkExpired(ctx context.Context, id uint64) error {
	const q = `UPDATE bookings SET status = 'EXPIRED' WHERE id = ? AND status = 'HELD'`
	return s.guarded(ctx, q, id)
}

// Cancel moves an ACTIVE booking to CANCELLED.
func (s *bookingStore) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE bookings SET status = 'CANCELLED' WHERE id = ? AND status = 'ACTIVE'`
	return s.guarded(ctx, q, id)
}

// Extend pushes the end date out and adds the surcharge to the
// total, only while the booking is ACTIVE.
func (s *bookingStore) Extend(ctx context.Context, id uint64, newEnd time.Time, extraCents uint32) error {
	const q = `UPDATE bookings
	           SET end_date = ?, amount_cents = amount_cents + ?
	           WHERE id = ? AND status = 'ACTIVE'`
	return s.guarded(ctx, q, newEnd.UTC(), extraCents, id)
}

// guarded runs a status-guarded update and maps a zero row count to
// ErrConflict.
func (s *bookingStore) guarded(ctx context.Context, query string, args ...any) error {
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

// HasActive reports whether the user has a running ACTIVE booking
// for the cabin.
func (s *bookingStore) HasActive(ctx context.Context, userID, cabinID uint64, now time.Time) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM bookings
	             WHERE user_id = ? AND cabin_id = ? AND status = 'ACTIVE' AND end_date > ?
	           )`
	var exists bool
	if err := s.q.QueryRowContext(ctx, q, userID, cabinID, now.UTC()).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns the user's bookings, newest first.
func (s *bookingStore) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := s.q.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CountByVenue counts bookings attached to the venue's cabins; the
// venue deletion guard.
func (s *bookingStore) CountByVenue(ctx context.Context, venueID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE venue_id = ?`
	var n int
	if err := s.q.QueryRowContext(ctx, q, venueID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

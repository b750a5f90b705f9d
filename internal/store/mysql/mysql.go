// Package mysql implements store.Store on MySQL through database/sql.
// Queries use placeholders throughout and every timestamp is stored
// and compared in UTC.  Guarded updates depend on the connection
// reporting found rows rather than changed rows, which database.Open
// arranges via the clientFoundRows DSN flag.
package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/store"
)

// queryer is the subset of database/sql shared by *sql.DB and
// *sql.Tx, so each store method can run standalone or inside a
// transaction without duplicated bodies.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan
// helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// Store implements store.Store.  Use New to bind it to a database
// handle; InTx derives transaction-bound copies from it.
type Store struct {
	db *sql.DB
	q  queryer
}

// New returns a Store backed by the given database handle.
func New(db *sql.DB) *Store { return &Store{db: db, q: db} }

func (s *Store) Cabins() store.CabinStore               { return &cabinStore{q: s.q} }
func (s *Store) Bookings() store.BookingStore           { return &bookingStore{q: s.q} }
func (s *Store) Waitlist() store.WaitlistStore          { return &waitlistStore{q: s.q} }
func (s *Store) Notifications() store.NotificationStore { return &notificationStore{q: s.q} }
func (s *Store) Venues() store.VenueStore               { return &venueStore{q: s.q} }

// InTx opens a transaction and hands fn a Store bound to it.  A
// Store that is already transaction-bound runs fn directly, so a
// helper shared between paths does not open a second transaction.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// nullID converts an optional user ID for use as a query argument.
func nullID(p *uint64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// nullTime converts an optional timestamp for use as a query argument.
func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func idPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

// nullStr converts an optional string for use as a query argument.
func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

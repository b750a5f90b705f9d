// Package memstore implements store.Store in memory.  It exists for
// tests: a single mutex serialises access so concurrent callers see
// the same winner-takes-all behaviour as the guarded SQL statements,
// and InTx snapshots state so a failed transaction leaves no partial
// effects.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

type state struct {
	cabins        map[uint64]*model.Cabin
	bookings      map[uint64]*model.Booking
	entries       map[uint64]*model.WaitlistEntry
	notifications map[uint64]*model.Notification
	venues        map[uint64]*model.Venue
	seq           uint64
}

func (st *state) next() uint64 {
	st.seq++
	return st.seq
}

func cloneTable[V any](m map[uint64]*V) map[uint64]*V {
	out := make(map[uint64]*V, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (st *state) clone() *state {
	return &state{
		cabins:        cloneTable(st.cabins),
		bookings:      cloneTable(st.bookings),
		entries:       cloneTable(st.entries),
		notifications: cloneTable(st.notifications),
		venues:        cloneTable(st.venues),
		seq:           st.seq,
	}
}

// Store implements store.Store.  The zero value is not usable; call
// New.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		st: &state{
			cabins:        map[uint64]*model.Cabin{},
			bookings:      map[uint64]*model.Booking{},
			entries:       map[uint64]*model.WaitlistEntry{},
			notifications: map[uint64]*model.Notification{},
			venues:        map[uint64]*model.Venue{},
		},
	}
}

// lock acquires the store mutex unless the call is already inside a
// transaction, which holds it for its whole body.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Cabins() store.CabinStore               { return cabinStore{s} }
func (s *Store) Bookings() store.BookingStore           { return bookingStore{s} }
func (s *Store) Waitlist() store.WaitlistStore          { return waitlistStore{s} }
func (s *Store) Notifications() store.NotificationStore { return notificationStore{s} }
func (s *Store) Venues() store.VenueStore               { return venueStore{s} }

// InTx holds the mutex for the duration of fn and restores a
// snapshot when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.st.clone()
	if err := fn(&Store{mu: s.mu, st: s.st, inTx: true}); err != nil {
		*s.st = *snap
		return err
	}
	return nil
}

// Seed inserts a cabin directly, bypassing the AVAILABLE default of
// Create, for tests that need to start from a particular state.
func (s *Store) Seed(c model.Cabin) uint64 {
	defer s.lock()()
	if c.ID == 0 {
		c.ID = s.st.next()
	}
	s.st.cabins[c.ID] = &c
	return c.ID
}

func eqID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ---- cabins ----

type cabinStore struct{ s *Store }

func (c cabinStore) Create(ctx context.Context, cb *model.Cabin) error {
	defer c.s.lock()()
	cb.ID = c.s.st.next()
	cb.Status = model.CabinAvailable
	cb.HolderID, cb.HoldExpiresAt, cb.OccupantID = nil, nil, nil
	if cb.CreatedAt.IsZero() {
		cb.CreatedAt = time.Now().UTC()
	}
	cb.UpdatedAt = cb.CreatedAt
	cp := *cb
	c.s.st.cabins[cb.ID] = &cp
	return nil
}

func (c cabinStore) Get(ctx context.Context, id uint64) (*model.Cabin, error) {
	defer c.s.lock()()
	cb, ok := c.s.st.cabins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *cb
	return &cp, nil
}

func (c cabinStore) ListByVenue(ctx context.Context, venueID uint64) ([]model.Cabin, error) {
	defer c.s.lock()()
	out := make([]model.Cabin, 0)
	for _, cb := range c.s.st.cabins {
		if cb.VenueID == venueID {
			out = append(out, *cb)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (c cabinStore) CompareAndSet(ctx context.Context, id uint64, expect, next model.CabinState) error {
	defer c.s.lock()()
	cb, ok := c.s.st.cabins[id]
	if !ok {
		return store.ErrNotFound
	}
	if cb.Status != expect.Status || !eqID(cb.HolderID, expect.HolderID) || !eqID(cb.OccupantID, expect.OccupantID) {
		return store.ErrConflict
	}
	cp := *cb
	cp.Status = next.Status
	cp.HolderID = next.HolderID
	cp.HoldExpiresAt = next.HoldExpiresAt
	cp.OccupantID = next.OccupantID
	cp.UpdatedAt = time.Now().UTC()
	c.s.st.cabins[id] = &cp
	return nil
}

func (c cabinStore) UpdatePrice(ctx context.Context, id uint64, priceCents uint32) error {
	defer c.s.lock()()
	cb, ok := c.s.st.cabins[id]
	if !ok {
		return store.ErrNotFound
	}
	cb.PriceCents = priceCents
	cb.UpdatedAt = time.Now().UTC()
	return nil
}

func (c cabinStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	defer c.s.lock()()
	type due struct {
		id uint64
		at time.Time
	}
	var dues []due
	for _, cb := range c.s.st.cabins {
		if cb.Status != model.CabinHeld && cb.Status != model.CabinReserved {
			continue
		}
		if cb.HoldExpiresAt != nil && !now.Before(*cb.HoldExpiresAt) {
			dues = append(dues, due{cb.ID, *cb.HoldExpiresAt})
		}
	}
	sort.Slice(dues, func(i, j int) bool { return dues[i].at.Before(dues[j].at) })
	ids := make([]uint64, 0, len(dues))
	for _, d := range dues {
		if len(ids) == limit {
			break
		}
		ids = append(ids, d.id)
	}
	return ids, nil
}

// ---- bookings ----

type bookingStore struct{ s *Store }

func (b bookingStore) Create(ctx context.Context, bk *model.Booking) error {
	defer b.s.lock()()
	bk.ID = b.s.st.next()
	cp := *bk
	b.s.st.bookings[bk.ID] = &cp
	return nil
}

func (b bookingStore) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	defer b.s.lock()()
	bk, ok := b.s.st.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *bk
	return &cp, nil
}

func (b bookingStore) Confirm(ctx context.Context, id uint64, paymentRef string) error {
	defer b.s.lock()()
	bk, ok := b.s.st.bookings[id]
	if !ok || bk.Status != model.BookingHeld {
		return store.ErrConflict
	}
	bk.Status = model.BookingActive
	bk.Payment = model.PaymentPaid
	bk.PaymentRef = &paymentRef
	bk.ExpiresAt = nil
	bk.UpdatedAt = time.Now().UTC()
	return nil
}

func (b bookingStore) MarkExpired(ctx context.Context, id uint64) error {
	return b.transition(id, model.BookingHeld, model.BookingExpired)
}

func (b bookingStore) Cancel(ctx context.Context, id uint64) error {
	return b.transition(id, model.BookingActive, model.BookingCancelled)
}

func (b bookingStore) transition(id uint64, from, to model.BookingStatus) error {
	defer b.s.lock()()
	bk, ok := b.s.st.bookings[id]
	if !ok || bk.Status != from {
		return store.ErrConflict
	}
	bk.Status = to
	bk.UpdatedAt = time.Now().UTC()
	return nil
}

func (b bookingStore) Extend(ctx context.Context, id uint64, newEnd time.Time, extraCents uint32) error {
	defer b.s.lock()()
	bk, ok := b.s.st.bookings[id]
	if !ok || bk.Status != model.BookingActive {
		return store.ErrConflict
	}
	bk.EndDate = newEnd
	bk.AmountCents += extraCents
	bk.UpdatedAt = time.Now().UTC()
	return nil
}

func (b bookingStore) HasActive(ctx context.Context, userID, cabinID uint64, now time.Time) (bool, error) {
	defer b.s.lock()()
	for _, bk := range b.s.st.bookings {
		if bk.UserID == userID && bk.CabinID == cabinID && bk.Status == model.BookingActive && bk.EndDate.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (b bookingStore) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	defer b.s.lock()()
	out := make([]model.Booking, 0)
	for _, bk := range b.s.st.bookings {
		if bk.UserID == userID {
			out = append(out, *bk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (b bookingStore) CountByVenue(ctx context.Context, venueID uint64) (int, error) {
	defer b.s.lock()()
	n := 0
	for _, bk := range b.s.st.bookings {
		if bk.VenueID == venueID {
			n++
		}
	}
	return n, nil
}

// ---- waitlist ----

type waitlistStore struct{ s *Store }

func (w waitlistStore) Create(ctx context.Context, e *model.WaitlistEntry) error {
	defer w.s.lock()()
	e.ID = w.s.st.next()
	cp := *e
	w.s.st.entries[e.ID] = &cp
	return nil
}

func (w waitlistStore) Get(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
	defer w.s.lock()()
	e, ok := w.s.st.entries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (w waitlistStore) OldestActive(ctx context.Context, cabinID uint64) (*model.WaitlistEntry, error) {
	defer w.s.lock()()
	var best *model.WaitlistEntry
	for _, e := range w.s.st.entries {
		if e.CabinID != cabinID || e.Status != model.WaitlistActive {
			continue
		}
		if best == nil || e.CreatedAt.Before(best.CreatedAt) ||
			(e.CreatedAt.Equal(best.CreatedAt) && e.ID < best.ID) {
			best = e
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (w waitlistStore) HasOpen(ctx context.Context, userID, cabinID uint64) (bool, error) {
	defer w.s.lock()()
	for _, e := range w.s.st.entries {
		if e.UserID == userID && e.CabinID == cabinID &&
			(e.Status == model.WaitlistActive || e.Status == model.WaitlistNotified) {
			return true, nil
		}
	}
	return false, nil
}

func (w waitlistStore) MarkNotified(ctx context.Context, id uint64, at, deadline time.Time) error {
	defer w.s.lock()()
	e, ok := w.s.st.entries[id]
	if !ok || e.Status != model.WaitlistActive {
		return store.ErrConflict
	}
	e.Status = model.WaitlistNotified
	e.NotifiedAt = &at
	e.ExpiresAt = &deadline
	return nil
}

func (w waitlistStore) SetStatus(ctx context.Context, id uint64, from, to model.WaitlistStatus) error {
	defer w.s.lock()()
	e, ok := w.s.st.entries[id]
	if !ok || e.Status != from {
		return store.ErrConflict
	}
	e.Status = to
	return nil
}

func (w waitlistStore) ExpireNotified(ctx context.Context, cabinID, exceptUserID uint64) error {
	defer w.s.lock()()
	for _, e := range w.s.st.entries {
		if e.CabinID == cabinID && e.Status == model.WaitlistNotified && e.UserID != exceptUserID {
			e.Status = model.WaitlistExpired
		}
	}
	return nil
}

func (w waitlistStore) Convert(ctx context.Context, userID, cabinID uint64) error {
	defer w.s.lock()()
	for _, e := range w.s.st.entries {
		if e.UserID == userID && e.CabinID == cabinID &&
			(e.Status == model.WaitlistActive || e.Status == model.WaitlistNotified) {
			e.Status = model.WaitlistConverted
		}
	}
	return nil
}

func (w waitlistStore) CountActiveBefore(ctx context.Context, cabinID uint64, createdAt time.Time, id uint64) (int, error) {
	defer w.s.lock()()
	n := 0
	for _, e := range w.s.st.entries {
		if e.CabinID != cabinID || e.Status != model.WaitlistActive {
			continue
		}
		if e.CreatedAt.Before(createdAt) || (e.CreatedAt.Equal(createdAt) && e.ID < id) {
			n++
		}
	}
	return n, nil
}

func (w waitlistStore) ListByUser(ctx context.Context, userID uint64) ([]model.WaitlistEntry, error) {
	defer w.s.lock()()
	out := make([]model.WaitlistEntry, 0)
	for _, e := range w.s.st.entries {
		if e.UserID == userID && (e.Status == model.WaitlistActive || e.Status == model.WaitlistNotified) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (w waitlistStore) ListByVenue(ctx context.Context, venueID uint64) ([]model.WaitlistEntry, error) {
	defer w.s.lock()()
	out := make([]model.WaitlistEntry, 0)
	for _, e := range w.s.st.entries {
		if e.VenueID == venueID && (e.Status == model.WaitlistActive || e.Status == model.WaitlistNotified) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- notifications ----

type notificationStore struct{ s *Store }

func (n notificationStore) Create(ctx context.Context, m *model.Notification) error {
	defer n.s.lock()()
	m.ID = n.s.st.next()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	cp := *m
	n.s.st.notifications[m.ID] = &cp
	return nil
}

func (n notificationStore) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	defer n.s.lock()()
	out := make([]model.Notification, 0)
	for _, m := range n.s.st.notifications {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (n notificationStore) MarkRead(ctx context.Context, id, userID uint64) error {
	defer n.s.lock()()
	m, ok := n.s.st.notifications[id]
	if !ok || m.UserID != userID {
		return store.ErrNotFound
	}
	m.Read = true
	return nil
}

// ---- venues ----

type venueStore struct{ s *Store }

func (v venueStore) Create(ctx context.Context, m *model.Venue) error {
	defer v.s.lock()()
	m.ID = v.s.st.next()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = m.CreatedAt
	cp := *m
	v.s.st.venues[m.ID] = &cp
	return nil
}

func (v venueStore) Get(ctx context.Context, id uint64) (*model.Venue, error) {
	defer v.s.lock()()
	m, ok := v.s.st.venues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (v venueStore) ListAll(ctx context.Context) ([]model.Venue, error) {
	defer v.s.lock()()
	out := make([]model.Venue, 0)
	for _, m := range v.s.st.venues {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v venueStore) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Venue, error) {
	defer v.s.lock()()
	out := make([]model.Venue, 0)
	for _, m := range v.s.st.venues {
		if m.OwnerID == ownerID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v venueStore) Update(ctx context.Context, m *model.Venue) error {
	defer v.s.lock()()
	cur, ok := v.s.st.venues[m.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Name, cur.City, cur.Address = m.Name, m.City, m.Address
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (v venueStore) Delete(ctx context.Context, id uint64) error {
	defer v.s.lock()()
	if _, ok := v.s.st.venues[id]; !ok {
		return store.ErrNotFound
	}
	for eid, e := range v.s.st.entries {
		if e.VenueID == id {
			delete(v.s.st.entries, eid)
		}
	}
	for cid, c := range v.s.st.cabins {
		if c.VenueID == id {
			delete(v.s.st.cabins, cid)
		}
	}
	delete(v.s.st.venues, id)
	return nil
}

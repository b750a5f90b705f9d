package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store/memstore"
)

// testClock is a hand-driven clock so tests decide when holds lapse.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T) (*Engine, *memstore.Store, *testClock) {
	t.Helper()
	st := memstore.New()
	ck := &testClock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	return New(st, Options{Now: ck.Now}), st, ck
}

func seedCabin(st *memstore.Store, number string) uint64 {
	return st.Seed(model.Cabin{VenueID: 1, Number: number, Floor: 1, PriceCents: 90000, Status: model.CabinAvailable})
}

func seedOccupied(st *memstore.Store, number string, occupant uint64) uint64 {
	return st.Seed(model.Cabin{VenueID: 1, Number: number, Floor: 1, PriceCents: 90000, Status: model.CabinOccupied, OccupantID: &occupant})
}

func notifyEvents(events []Event) []NotifyUser {
	var out []NotifyUser
	for _, ev := range events {
		if n, ok := ev.(NotifyUser); ok {
			out = append(out, n)
		}
	}
	return out
}

func seatEvents(events []Event) []SeatUpdate {
	var out []SeatUpdate
	for _, ev := range events {
		if s, ok := ev.(SeatUpdate); ok {
			out = append(out, s)
		}
	}
	return out
}

func confirmedEvents(events []Event) []BookingConfirmed {
	var out []BookingConfirmed
	for _, ev := range events {
		if b, ok := ev.(BookingConfirmed); ok {
			out = append(out, b)
		}
	}
	return out
}

func mustCabin(t *testing.T, st *memstore.Store, id uint64) *model.Cabin {
	t.Helper()
	c, err := st.Cabins().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("cabin %d: %v", id, err)
	}
	return c
}

func mustEntry(t *testing.T, st *memstore.Store, id uint64) *model.WaitlistEntry {
	t.Helper()
	w, err := st.Waitlist().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("entry %d: %v", id, err)
	}
	return w
}

func TestAcquireHoldMutualExclusion(t *testing.T) {
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")

	const racers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []uint64
		errs []error
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, _, err := e.AcquireHold(context.Background(), user, cabinID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			wins = append(wins, user)
		}(uint64(i + 1))
	}
	wg.Wait()

	if len(wins) != 1 {
		t.Fatalf("winners = %d, want exactly 1", len(wins))
	}
	if len(errs) != racers-1 {
		t.Fatalf("losers = %d, want %d", len(errs), racers-1)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrHeldByOther) {
			t.Errorf("loser error = %v, want ErrHeldByOther", err)
		}
	}
	c := mustCabin(t, st, cabinID)
	if c.Status != model.CabinHeld || c.HolderID == nil || *c.HolderID != wins[0] {
		t.Fatalf("cabin = %s holder %v, want HELD by %d", c.Status, c.HolderID, wins[0])
	}
}

func TestSweepExpired(t *testing.T) {
	e, st, ck := newTestEngine(t)
	ctx := context.Background()

	// Cabin A: plain hold that will lapse.
	a := seedCabin(st, "1-01")
	if _, _, err := e.AcquireHold(ctx, 1, a); err != nil {
		t.Fatal(err)
	}

	// Cabin B: a live offer to user 3 with user 4 queued behind it.
	b := seedCabin(st, "1-02")
	if _, _, err := e.AcquireHold(ctx, 2, b); err != nil {
		t.Fatal(err)
	}
	w3, err := e.JoinWaitlist(ctx, 3, b)
	if err != nil {
		t.Fatal(err)
	}
	w4, err := e.JoinWaitlist(ctx, 4, b)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.ReleaseHold(ctx, 2, b); err != nil {
		t.Fatal(err)
	}
	if got := mustEntry(t, st, w3.ID).Status; got != model.WaitlistNotified {
		t.Fatalf("entry for user 3 = %s, want NOTIFIED", got)
	}

	// Both the hold on A and the offer on B lapse.
	ck.Advance(DefaultOfferWindow + time.Minute)

	// Cabin C: a hold taken after the clock moved stays live.
	c := seedCabin(st, "1-03")
	if _, _, err := e.AcquireHold(ctx, 5, c); err != nil {
		t.Fatal(err)
	}

	n, events, err := e.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("swept = %d, want 2", n)
	}
	if ca := mustCabin(t, st, a); ca.Status != model.CabinAvailable {
		t.Errorf("cabin A = %s, want AVAILABLE", ca.Status)
	}
	cb := mustCabin(t, st, b)
	if cb.Status != model.CabinReserved || cb.HolderID == nil || *cb.HolderID != 4 {
		t.Errorf("cabin B = %s holder %v, want RESERVED_FOR_WAITLIST for user 4", cb.Status, cb.HolderID)
	}
	if cc := mustCabin(t, st, c); cc.Status != model.CabinHeld {
		t.Errorf("cabin C = %s, want HELD (live hold untouched)", cc.Status)
	}
	if got := mustEntry(t, st, w3.ID).Status; got != model.WaitlistExpired {
		t.Errorf("entry for user 3 = %s, want EXPIRED", got)
	}
	if got := mustEntry(t, st, w4.ID).Status; got != model.WaitlistNotified {
		t.Errorf("entry for user 4 = %s, want NOTIFIED", got)
	}
	offers := notifyEvents(events)
	if len(offers) != 1 || offers[0].UserID != 4 {
		t.Errorf("notifications = %+v, want one offer for user 4", offers)
	}

	// A second pass finds nothing left to do.
	n, _, err = e.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second sweep = %d, want 0", n)
	}
}

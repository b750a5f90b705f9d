package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

func TestAcquireHold(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")

	c, events, err := e.AcquireHold(context.Background(), 7, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != model.CabinHeld {
		t.Errorf("status = %s, want HELD", c.Status)
	}
	if c.HolderID == nil || *c.HolderID != 7 {
		t.Errorf("holder = %v, want 7", c.HolderID)
	}
	wantDeadline := ck.Now().Add(DefaultHoldTTL)
	if c.HoldExpiresAt == nil || !c.HoldExpiresAt.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v", c.HoldExpiresAt, wantDeadline)
	}
	seats := seatEvents(events)
	if len(seats) != 1 || seats[0].Status != string(model.CabinHeld) || seats[0].CabinID != cabinID {
		t.Errorf("events = %+v, want one HELD seat update", events)
	}

	// The stored row matches what was returned.
	stored := mustCabin(t, st, cabinID)
	if stored.Status != model.CabinHeld || stored.HolderID == nil || *stored.HolderID != 7 {
		t.Errorf("stored = %s holder %v, want HELD by 7", stored.Status, stored.HolderID)
	}
}

func TestAcquireHoldRefreshesOwnDeadline(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 7, cabinID); err != nil {
		t.Fatal(err)
	}
	ck.Advance(3 * time.Minute)

	c, _, err := e.AcquireHold(ctx, 7, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	wantDeadline := ck.Now().Add(DefaultHoldTTL)
	if c.HoldExpiresAt == nil || !c.HoldExpiresAt.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want refreshed to %v", c.HoldExpiresAt, wantDeadline)
	}
}

func TestAcquireHoldRefused(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()

	held := seedCabin(st, "1-01")
	if _, _, err := e.AcquireHold(ctx, 1, held); err != nil {
		t.Fatal(err)
	}
	occupied := seedOccupied(st, "1-02", 9)
	maintenance := st.Seed(model.Cabin{VenueID: 1, Number: "1-03", Floor: 1, PriceCents: 90000, Status: model.CabinMaintenance})

	tests := []struct {
		name    string
		cabinID uint64
		wantErr error
	}{
		{"held by someone else", held, ErrHeldByOther},
		{"occupied", occupied, ErrSeatUnavailable},
		{"under maintenance", maintenance, ErrSeatUnavailable},
		{"missing cabin", 9999, ErrCabinNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := e.AcquireHold(ctx, 2, tc.cabinID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAcquireHoldAfterExpiryTakesOver(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	ck.Advance(DefaultHoldTTL + time.Second)

	c, _, err := e.AcquireHold(ctx, 2, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if c.HolderID == nil || *c.HolderID != 2 {
		t.Errorf("holder = %v, want 2 after the old hold lapsed", c.HolderID)
	}
}

func TestAcquireHoldOverLapsedOfferRetiresEntry(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	// User 2 ends up with an offer, then sleeps through it.
	if _, _, err := e.AcquireHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	w, err := e.JoinWaitlist(ctx, 2, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.ReleaseHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	ck.Advance(DefaultOfferWindow + time.Second)

	c, _, err := e.AcquireHold(ctx, 3, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if c.HolderID == nil || *c.HolderID != 3 {
		t.Errorf("holder = %v, want 3", c.HolderID)
	}
	if got := mustEntry(t, st, w.ID).Status; got != model.WaitlistExpired {
		t.Errorf("stale offer entry = %s, want EXPIRED", got)
	}
}

func TestReleaseHold(t *testing.T) {
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 7, cabinID); err != nil {
		t.Fatal(err)
	}
	events, err := e.ReleaseHold(ctx, 7, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if c := mustCabin(t, st, cabinID); c.Status != model.CabinAvailable || c.HolderID != nil {
		t.Errorf("cabin = %s holder %v, want AVAILABLE with no holder", c.Status, c.HolderID)
	}
	seats := seatEvents(events)
	if len(seats) != 1 || seats[0].Status != string(model.CabinAvailable) {
		t.Errorf("events = %+v, want one AVAILABLE seat update", events)
	}
}

func TestReleaseHoldRefused(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()

	held := seedCabin(st, "1-01")
	if _, _, err := e.AcquireHold(ctx, 1, held); err != nil {
		t.Fatal(err)
	}
	idle := seedCabin(st, "1-02")

	tests := []struct {
		name    string
		userID  uint64
		cabinID uint64
		wantErr error
	}{
		{"not the holder", 2, held, ErrNotHolder},
		{"nothing held", 1, idle, ErrNotHolder},
		{"missing cabin", 1, 9999, ErrCabinNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ReleaseHold(ctx, tc.userID, tc.cabinID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestReleaseHoldAfterExpiryStillFrees(t *testing.T) {
	// The row still says HELD until someone touches it, so the original
	// holder releasing late is honoured rather than rejected.
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 7, cabinID); err != nil {
		t.Fatal(err)
	}
	ck.Advance(DefaultHoldTTL + time.Minute)

	if _, err := e.ReleaseHold(ctx, 7, cabinID); err != nil {
		t.Fatal(err)
	}
	if c := mustCabin(t, st, cabinID); c.Status != model.CabinAvailable {
		t.Errorf("cabin = %s, want AVAILABLE", c.Status)
	}
}

func TestReleaseHoldPromotesNextWaiter(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	w, err := e.JoinWaitlist(ctx, 2, cabinID)
	if err != nil {
		t.Fatal(err)
	}

	events, err := e.ReleaseHold(ctx, 1, cabinID)
	if err != nil {
		t.Fatal(err)
	}

	c := mustCabin(t, st, cabinID)
	if c.Status != model.CabinReserved || c.HolderID == nil || *c.HolderID != 2 {
		t.Fatalf("cabin = %s holder %v, want RESERVED_FOR_WAITLIST for user 2", c.Status, c.HolderID)
	}
	wantDeadline := ck.Now().Add(DefaultOfferWindow)
	if c.HoldExpiresAt == nil || !c.HoldExpiresAt.Equal(wantDeadline) {
		t.Errorf("offer deadline = %v, want %v", c.HoldExpiresAt, wantDeadline)
	}

	entry := mustEntry(t, st, w.ID)
	if entry.Status != model.WaitlistNotified {
		t.Errorf("entry = %s, want NOTIFIED", entry.Status)
	}
	if entry.NotifiedAt == nil || entry.ExpiresAt == nil {
		t.Errorf("entry timestamps = %v / %v, want both set", entry.NotifiedAt, entry.ExpiresAt)
	}

	offers := notifyEvents(events)
	if len(offers) != 1 || offers[0].UserID != 2 || offers[0].Kind != model.NotifySuccess {
		t.Fatalf("notifications = %+v, want one success notice for user 2", offers)
	}
	if offers[0].Title != "Seat available!" {
		t.Errorf("title = %q", offers[0].Title)
	}
	if len(seatEvents(events)) != 2 {
		t.Errorf("seat updates = %d, want 2 (freed, then reserved)", len(seatEvents(events)))
	}
}

func TestCabinStateLiveHold(t *testing.T) {
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 7, cabinID); err != nil {
		t.Fatal(err)
	}
	view, events, err := e.CabinState(ctx, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != model.CabinHeld {
		t.Errorf("status = %s, want HELD", view.Status)
	}
	if view.HoldRemaining != DefaultHoldTTL {
		t.Errorf("remaining = %v, want %v", view.HoldRemaining, DefaultHoldTTL)
	}
	if len(events) != 0 {
		t.Errorf("events = %+v, want none for a live hold", events)
	}
}

func TestCabinStateHealsLapsedHold(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 7, cabinID); err != nil {
		t.Fatal(err)
	}
	ck.Advance(DefaultHoldTTL + time.Second)

	view, events, err := e.CabinState(ctx, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != model.CabinAvailable {
		t.Errorf("status = %s, want AVAILABLE", view.Status)
	}
	if len(seatEvents(events)) != 1 {
		t.Errorf("events = %+v, want the repair to be announced", events)
	}
	if c := mustCabin(t, st, cabinID); c.Status != model.CabinAvailable {
		t.Errorf("stored = %s, want the row healed to AVAILABLE", c.Status)
	}
}

func TestCabinStateMovesLapsedOfferOn(t *testing.T) {
	e, st, ck := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	w2, err := e.JoinWaitlist(ctx, 2, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	w3, err := e.JoinWaitlist(ctx, 3, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.ReleaseHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	ck.Advance(DefaultOfferWindow + time.Second)

	view, events, err := e.CabinState(ctx, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != model.CabinReserved {
		t.Errorf("status = %s, want RESERVED_FOR_WAITLIST for the next waiter", view.Status)
	}
	if view.Cabin.HolderID == nil || *view.Cabin.HolderID != 3 {
		t.Errorf("holder = %v, want 3", view.Cabin.HolderID)
	}
	if got := mustEntry(t, st, w2.ID).Status; got != model.WaitlistExpired {
		t.Errorf("entry for user 2 = %s, want EXPIRED", got)
	}
	if got := mustEntry(t, st, w3.ID).Status; got != model.WaitlistNotified {
		t.Errorf("entry for user 3 = %s, want NOTIFIED", got)
	}
	offers := notifyEvents(events)
	if len(offers) != 1 || offers[0].UserID != 3 {
		t.Errorf("notifications = %+v, want the offer handed to user 3", offers)
	}
}

func TestCabinStateMissing(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if _, _, err := e.CabinState(context.Background(), 42); !errors.Is(err, ErrCabinNotFound) {
		t.Errorf("err = %v, want ErrCabinNotFound", err)
	}
}

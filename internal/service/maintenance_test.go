package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

func TestSetMaintenance(t *testing.T) {
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	events, err := e.SetMaintenance(ctx, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if c := mustCabin(t, st, cabinID); c.Status != model.CabinMaintenance {
		t.Errorf("cabin = %s, want MAINTENANCE", c.Status)
	}
	if len(seatEvents(events)) != 1 {
		t.Errorf("events = %+v, want one seat update", events)
	}

	// Setting it again is a no-op, not an error.
	events, err = e.SetMaintenance(ctx, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("repeat events = %+v, want none", events)
	}

	occupied := seedOccupied(st, "1-02", 9)
	if _, err := e.SetMaintenance(ctx, occupied); !errors.Is(err, ErrSeatUnavailable) {
		t.Errorf("occupied err = %v, want ErrSeatUnavailable", err)
	}
	if _, err := e.SetMaintenance(ctx, 9999); !errors.Is(err, ErrCabinNotFound) {
		t.Errorf("missing cabin err = %v, want ErrCabinNotFound", err)
	}
}

func TestSetMaintenanceOverHold(t *testing.T) {
	// Taking a cabin out of service wins over an interactive hold; the
	// browsing user simply loses the 5-minute claim.
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, _, err := e.AcquireHold(ctx, 1, cabinID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetMaintenance(ctx, cabinID); err != nil {
		t.Fatal(err)
	}
	c := mustCabin(t, st, cabinID)
	if c.Status != model.CabinMaintenance || c.HolderID != nil {
		t.Errorf("cabin = %s holder %v, want MAINTENANCE with no holder", c.Status, c.HolderID)
	}
}

func TestMaintenanceCycleKeepsQueue(t *testing.T) {
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	// User 2 holds the live offer, user 3 waits behind it.
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

	// Closing the cabin rescinds the offer but keeps waiting entries.
	if _, err := e.SetMaintenance(ctx, cabinID); err != nil {
		t.Fatal(err)
	}
	if got := mustEntry(t, st, w2.ID).Status; got != model.WaitlistExpired {
		t.Errorf("offered entry = %s, want EXPIRED after the offer was rescinded", got)
	}
	if got := mustEntry(t, st, w3.ID).Status; got != model.WaitlistActive {
		t.Errorf("queued entry = %s, want still ACTIVE", got)
	}

	// A closed cabin can still gather waiters.
	w4, err := e.JoinWaitlist(ctx, 4, cabinID)
	if err != nil {
		t.Fatal(err)
	}

	// Reopening offers the seat to the oldest waiter straight away.
	events, err := e.ClearMaintenance(ctx, cabinID)
	if err != nil {
		t.Fatal(err)
	}
	c := mustCabin(t, st, cabinID)
	if c.Status != model.CabinReserved || c.HolderID == nil || *c.HolderID != 3 {
		t.Fatalf("cabin = %s holder %v, want RESERVED_FOR_WAITLIST for user 3", c.Status, c.HolderID)
	}
	if got := mustEntry(t, st, w3.ID).Status; got != model.WaitlistNotified {
		t.Errorf("entry for user 3 = %s, want NOTIFIED", got)
	}
	if got := mustEntry(t, st, w4.ID).Status; got != model.WaitlistActive {
		t.Errorf("entry for user 4 = %s, want still ACTIVE", got)
	}
	offers := notifyEvents(events)
	if len(offers) != 1 || offers[0].UserID != 3 {
		t.Errorf("notifications = %+v, want the offer for user 3", offers)
	}
}

func TestClearMaintenanceRefused(t *testing.T) {
	e, st, _ := newTestEngine(t)
	cabinID := seedCabin(st, "1-01")
	ctx := context.Background()

	if _, err := e.ClearMaintenance(ctx, cabinID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("available cabin err = %v, want ErrInvalidTransition", err)
	}
	if _, err := e.ClearMaintenance(ctx, 9999); !errors.Is(err, ErrCabinNotFound) {
		t.Errorf("missing cabin err = %v, want ErrCabinNotFound", err)
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// AcquireHold places or refreshes a short interactive hold on a
// cabin so the user can walk through the booking flow without the
// seat being sold under them.  Re-acquiring one's own hold pushes
// the deadline out.  Holds lapse on their own; no cleanup call is
// required.
func (e *Engine) AcquireHold(ctx context.Context, userID, cabinID uint64) (*model.Cabin, []Event, error) {
	var (
		out    *model.Cabin
		events []Event
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		c, next, err := e.claim(ctx, tx, cabinID, userID, func(now time.Time) model.CabinState {
			deadline := now.Add(e.holdTTL)
			return model.CabinState{Status: model.CabinHeld, HolderID: &userID, HoldExpiresAt: &deadline}
		}, ErrHeldByOther)
		if err != nil {
			return err
		}
		events = append(events, seatUpdate(c, next))
		cc := *c
		cc.Status = next.Status
		cc.HolderID = next.HolderID
		cc.HoldExpiresAt = next.HoldExpiresAt
		cc.OccupantID = next.OccupantID
		out = &cc
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

// ReleaseHold frees a cabin the caller holds and offers it onwards
// in the same transaction.  Releasing also serves as declining an
// offer; the next waiter is promoted immediately.
func (e *Engine) ReleaseHold(ctx context.Context, userID, cabinID uint64) ([]Event, error) {
	var events []Event
	err := e.store.InTx(ctx, func(tx store.Store) error {
		c, err := tx.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCabinNotFound
		}
		if err != nil {
			return err
		}
		if (c.Status != model.CabinHeld && c.Status != model.CabinReserved) ||
			c.HolderID == nil || *c.HolderID != userID {
			return ErrNotHolder
		}
		next := model.CabinState{Status: model.CabinAvailable}
		err = tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next)
		if errors.Is(err, store.ErrConflict) {
			return ErrNotHolder
		}
		if errors.Is(err, store.ErrNotFound) {
			return ErrCabinNotFound
		}
		if err != nil {
			return err
		}
		events = append(events, seatUpdate(c, next))
		more, err := e.promote(ctx, tx, cabinID)
		if err != nil {
			return err
		}
		events = append(events, more...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// SeatView is a cabin's effective state as of one read.
type SeatView struct {
	Cabin         model.Cabin
	Status        model.CabinStatus
	HoldRemaining time.Duration
}

// CabinState reads a cabin with lazy expiry applied.  A read that
// lands on a lapsed hold or offer materialises the expiry first,
// promotion included, so the returned view never shows a dead hold
// and an expired offer moves on to the next waiter at read time.
func (e *Engine) CabinState(ctx context.Context, cabinID uint64) (*SeatView, []Event, error) {
	c, err := e.store.Cabins().Get(ctx, cabinID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrCabinNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var events []Event
	if (c.Status == model.CabinHeld || c.Status == model.CabinReserved) && !c.HoldActive(e.now()) {
		err := e.store.InTx(ctx, func(tx store.Store) error {
			_, evs, err := e.reconcile(ctx, tx, cabinID)
			events = evs
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		c, err = e.store.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrCabinNotFound
		}
		if err != nil {
			return nil, nil, err
		}
	}
	now := e.now()
	view := &SeatView{Cabin: *c, Status: c.EffectiveStatus(now)}
	if c.HoldActive(now) {
		view.HoldRemaining = c.HoldExpiresAt.Sub(now)
	}
	return view, events, nil
}

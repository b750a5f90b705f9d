// Package service implements the cabin booking engine: interactive
// holds, the booking lifecycle, per-cabin waitlists and the
// promotion step that hands a freed cabin to the next waiter.
//
// Every cabin mutation funnels through the store's CompareAndSet, so
// writers racing for one cabin resolve to exactly one winner no
// matter how many server instances run.  Hold and offer expiry is
// lazy: deadlines are compared against the clock at read time, and
// readers materialise whatever they find expired.  No background
// process is required for correctness; the optional sweeper only
// shortens the time until a dead hold is noticed.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// Default windows, overridable through Options.
const (
	DefaultHoldTTL       = 5 * time.Minute
	DefaultBookingWindow = 10 * time.Minute
	DefaultOfferWindow   = 30 * time.Minute
)

// Engine owns the booking state machine.  It is safe for concurrent
// use; all shared state lives in the store.
type Engine struct {
	store         store.Store
	holdTTL       time.Duration
	bookingWindow time.Duration
	offerWindow   time.Duration
	now           func() time.Time
}

// Options tunes the engine.  Zero values fall back to the defaults;
// Now exists so tests can drive the clock.
type Options struct {
	HoldTTL       time.Duration
	BookingWindow time.Duration
	OfferWindow   time.Duration
	Now           func() time.Time
}

// New builds an Engine on top of the given store.
func New(st store.Store, opts Options) *Engine {
	e := &Engine{
		store:         st,
		holdTTL:       opts.HoldTTL,
		bookingWindow: opts.BookingWindow,
		offerWindow:   opts.OfferWindow,
		now:           opts.Now,
	}
	if e.holdTTL <= 0 {
		e.holdTTL = DefaultHoldTTL
	}
	if e.bookingWindow <= 0 {
		e.bookingWindow = DefaultBookingWindow
	}
	if e.offerWindow <= 0 {
		e.offerWindow = DefaultOfferWindow
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// claim takes a cabin for userID.  The guards admit a claim when the
// cabin is AVAILABLE, when its hold has lapsed, or when the caller
// already holds it (which is also how a waitlist offer is consumed).
// On a lost compare-and-set the claim re-reads once and re-applies
// the guards, so the caller either wins or gets the error that
// matches the fresh state; lossErr is the verdict when even the
// retry loses.  A successful claim retires any stale NOTIFIED entry
// left behind by a lapsed offer of another user.
func (e *Engine) claim(
	ctx context.Context,
	tx store.Store,
	cabinID, userID uint64,
	build func(now time.Time) model.CabinState,
	lossErr error,
) (*model.Cabin, model.CabinState, error) {
	for attempt := 0; ; attempt++ {
		c, err := tx.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.CabinState{}, ErrCabinNotFound
		}
		if err != nil {
			return nil, model.CabinState{}, err
		}
		now := e.now()
		if c.Status == model.CabinOccupied || c.Status == model.CabinMaintenance {
			return nil, model.CabinState{}, ErrSeatUnavailable
		}
		if c.HoldActive(now) && *c.HolderID != userID {
			return nil, model.CabinState{}, ErrHeldByOther
		}
		next := build(now)
		err = tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next)
		if errors.Is(err, store.ErrConflict) {
			if attempt == 0 {
				continue
			}
			return nil, model.CabinState{}, lossErr
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.CabinState{}, ErrCabinNotFound
		}
		if err != nil {
			return nil, model.CabinState{}, err
		}
		if err := tx.Waitlist().ExpireNotified(ctx, cabinID, userID); err != nil {
			return nil, model.CabinState{}, err
		}
		return c, next, nil
	}
}

// reconcile materialises lazy expiry for one cabin: an expired hold
// or offer frees the seat, and promotion runs right after so the
// queue never stalls behind a dead hold.  Reports whether the row
// changed.  A cabin with a live hold, or one already claimed by a
// faster writer, is left alone.
func (e *Engine) reconcile(ctx context.Context, tx store.Store, cabinID uint64) (bool, []Event, error) {
	c, err := tx.Cabins().Get(ctx, cabinID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil, ErrCabinNotFound
	}
	if err != nil {
		return false, nil, err
	}
	if c.Status != model.CabinHeld && c.Status != model.CabinReserved {
		return false, nil, nil
	}
	if c.HoldActive(e.now()) {
		return false, nil, nil
	}
	next := model.CabinState{Status: model.CabinAvailable}
	err = tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next)
	if errors.Is(err, store.ErrConflict) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	events := []Event{seatUpdate(c, next)}
	more, err := e.promote(ctx, tx, cabinID)
	if err != nil {
		return false, nil, err
	}
	return true, append(events, more...), nil
}

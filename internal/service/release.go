package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// promote hands a freed cabin to the oldest ACTIVE waiter: the entry
// becomes NOTIFIED with the offer deadline, the cabin is reserved
// for that user and a notification event is queued.  With nobody
// waiting the cabin settles as AVAILABLE.  promote runs inside the
// caller's transaction, right after the write that freed the seat.
//
// Each step re-states what it expects, and a lost compare-and-set
// re-reads and retries once from the top; if the seat turns out to
// be claimed again, the claimant's write stands and promotion simply
// does nothing.
func (e *Engine) promote(ctx context.Context, tx store.Store, cabinID uint64) ([]Event, error) {
	var events []Event
	for attempt := 0; attempt < 2; attempt++ {
		c, err := tx.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		now := e.now()
		if c.EffectiveStatus(now) != model.CabinAvailable {
			return events, nil
		}
		// A NOTIFIED entry at this point is a dead offer, its seat
		// reservation no longer exists.  Retire it before choosing.
		if err := tx.Waitlist().ExpireNotified(ctx, cabinID, 0); err != nil {
			return nil, err
		}
		w, err := tx.Waitlist().OldestActive(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			if c.Status == model.CabinAvailable {
				return events, nil
			}
			next := model.CabinState{Status: model.CabinAvailable}
			err := tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next)
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return append(events, seatUpdate(c, next)), nil
		}
		if err != nil {
			return nil, err
		}
		deadline := now.Add(e.offerWindow)
		if err := tx.Waitlist().MarkNotified(ctx, w.ID, now, deadline); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return nil, err
		}
		next := model.CabinState{Status: model.CabinReserved, HolderID: &w.UserID, HoldExpiresAt: &deadline}
		if err := tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next); err != nil {
			if errors.Is(err, store.ErrConflict) {
				// Put the entry back in line before retrying so the
				// head keeps its place.
				if err := tx.Waitlist().SetStatus(ctx, w.ID, model.WaitlistNotified, model.WaitlistActive); err != nil && !errors.Is(err, store.ErrConflict) {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		events = append(events,
			seatUpdate(c, next),
			NotifyUser{
				UserID: w.UserID,
				Title:  "Seat available!",
				Message: fmt.Sprintf(
					"Cabin %s is free now! You have %d minutes to book it before it is offered to the next person.",
					c.Number, int(e.offerWindow.Minutes()),
				),
				Kind: model.NotifySuccess,
			},
		)
		return events, nil
	}
	return nil, store.ErrConflict
}

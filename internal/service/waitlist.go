package service

import (
	"context"
	"errors"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// JoinWaitlist queues the user for a cabin that cannot be booked
// right now.  Queueing is refused when the cabin is effectively
// available (it can simply be booked), when the user already queues
// for it, or when they already rent it.
func (e *Engine) JoinWaitlist(ctx context.Context, userID, cabinID uint64) (*model.WaitlistEntry, error) {
	var out *model.WaitlistEntry
	err := e.store.InTx(ctx, func(tx store.Store) error {
		c, err := tx.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCabinNotFound
		}
		if err != nil {
			return err
		}
		now := e.now()
		if c.EffectiveStatus(now) == model.CabinAvailable {
			return ErrSeatAvailable
		}
		renting, err := tx.Bookings().HasActive(ctx, userID, cabinID, now)
		if err != nil {
			return err
		}
		if renting {
			return ErrHasActiveBooking
		}
		queued, err := tx.Waitlist().HasOpen(ctx, userID, cabinID)
		if err != nil {
			return err
		}
		if queued {
			return ErrAlreadyQueued
		}
		w := &model.WaitlistEntry{
			UserID:    userID,
			CabinID:   cabinID,
			VenueID:   c.VenueID,
			Status:    model.WaitlistActive,
			CreatedAt: now,
		}
		if err := tx.Waitlist().Create(ctx, w); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelWaitlistEntry removes the caller from a queue.  Cancelling a
// live offer also frees the cabin and promotes the next waiter in
// the same transaction, so an untaken offer never blocks the line.
func (e *Engine) CancelWaitlistEntry(ctx context.Context, userID, entryID uint64) ([]Event, error) {
	var events []Event
	err := e.store.InTx(ctx, func(tx store.Store) error {
		w, err := tx.Waitlist().Get(ctx, entryID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		if w.UserID != userID {
			return ErrForbidden
		}
		if w.Status != model.WaitlistActive && w.Status != model.WaitlistNotified {
			return ErrInvalidTransition
		}
		if err := tx.Waitlist().SetStatus(ctx, w.ID, w.Status, model.WaitlistCancelled); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTransition
			}
			return err
		}
		if w.Status != model.WaitlistNotified {
			return nil
		}
		c, err := tx.Cabins().Get(ctx, w.CabinID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.Status != model.CabinReserved || c.HolderID == nil || *c.HolderID != userID {
			return nil
		}
		next := model.CabinState{Status: model.CabinAvailable}
		err = tx.Cabins().CompareAndSet(ctx, w.CabinID, c.State(), next)
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		if err != nil {
			return err
		}
		events = append(events, seatUpdate(c, next))
		more, err := e.promote(ctx, tx, w.CabinID)
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

// WaitlistPosition reports how many people stand ahead of the
// caller's entry, 1-based among ACTIVE entries.  A NOTIFIED entry
// reports position zero: the offer is already theirs.
func (e *Engine) WaitlistPosition(ctx context.Context, userID, entryID uint64) (int, *model.WaitlistEntry, error) {
	w, err := e.store.Waitlist().Get(ctx, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil, ErrEntryNotFound
	}
	if err != nil {
		return 0, nil, err
	}
	if w.UserID != userID {
		return 0, nil, ErrForbidden
	}
	if w.Status != model.WaitlistActive {
		return 0, w, nil
	}
	ahead, err := e.store.Waitlist().CountActiveBefore(ctx, w.CabinID, w.CreatedAt, w.ID)
	if err != nil {
		return 0, nil, err
	}
	return ahead + 1, w, nil
}

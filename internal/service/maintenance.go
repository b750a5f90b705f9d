package service

import (
	"context"
	"errors"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// SetMaintenance takes a cabin out of service.  Occupied cabins are
// refused.  A live offer is rescinded by retiring its entry; queued
// ACTIVE waiters stay in line and are offered the cabin once it
// reopens.
func (e *Engine) SetMaintenance(ctx context.Context, cabinID uint64) ([]Event, error) {
	var events []Event
	err := e.store.InTx(ctx, func(tx store.Store) error {
		c, err := tx.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCabinNotFound
		}
		if err != nil {
			return err
		}
		switch c.Status {
		case model.CabinOccupied:
			return ErrSeatUnavailable
		case model.CabinMaintenance:
			return nil
		}
		if c.Status == model.CabinReserved {
			if err := tx.Waitlist().ExpireNotified(ctx, cabinID, 0); err != nil {
				return err
			}
		}
		next := model.CabinState{Status: model.CabinMaintenance}
		if err := tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrSeatUnavailable
			}
			return err
		}
		events = append(events, seatUpdate(c, next))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ClearMaintenance returns a cabin to service and offers it to the
// queue straight away.
func (e *Engine) ClearMaintenance(ctx context.Context, cabinID uint64) ([]Event, error) {
	var events []Event
	err := e.store.InTx(ctx, func(tx store.Store) error {
		c, err := tx.Cabins().Get(ctx, cabinID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCabinNotFound
		}
		if err != nil {
			return err
		}
		if c.Status != model.CabinMaintenance {
			return ErrInvalidTransition
		}
		next := model.CabinState{Status: model.CabinAvailable}
		if err := tx.Cabins().CompareAndSet(ctx, cabinID, c.State(), next); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTransition
			}
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

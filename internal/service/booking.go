package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// BookingParams carries the user-supplied fields of a new booking.
type BookingParams struct {
	CabinID     uint64
	StartDate   time.Time
	EndDate     time.Time
	AmountCents uint32
	// PaymentRef is recorded on direct bookings; the hold flow
	// supplies it at confirmation instead.
	PaymentRef string
}

func (p *BookingParams) validate() error {
	if p.AmountCents == 0 || !p.EndDate.After(p.StartDate) {
		return ErrInvalidInput
	}
	return nil
}

// HoldBooking creates a HELD booking and puts the cabin under the
// booking-window hold in one transaction.  The booking has to be
// confirmed before the window lapses, otherwise both the booking and
// the seat hold expire lazily.
func (e *Engine) HoldBooking(ctx context.Context, userID uint64, p BookingParams) (*model.Booking, []Event, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	var (
		out    *model.Booking
		events []Event
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		var deadline time.Time
		c, next, err := e.claim(ctx, tx, p.CabinID, userID, func(now time.Time) model.CabinState {
			deadline = now.Add(e.bookingWindow)
			return model.CabinState{Status: model.CabinHeld, HolderID: &userID, HoldExpiresAt: &deadline}
		}, ErrSeatUnavailable)
		if err != nil {
			return err
		}
		b := &model.Booking{
			Ref:         uuid.NewString(),
			UserID:      userID,
			CabinID:     c.ID,
			VenueID:     c.VenueID,
			Status:      model.BookingHeld,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			AmountCents: p.AmountCents,
			Payment:     model.PaymentPending,
			Settlement:  model.SettlementPending,
			ExpiresAt:   &deadline,
			CreatedAt:   e.now(),
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		out = b
		events = append(events, seatUpdate(c, next))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

// ConfirmBooking finalises payment on a HELD booking: the booking
// becomes ACTIVE and PAID, the cabin becomes OCCUPIED, and any open
// waitlist entry of the buyer for this cabin closes as CONVERTED,
// all in one transaction.
//
// Confirming after the window returns ErrHoldExpired.  The lapsed
// booking is retired and the freed seat promoted in the same call,
// and that bookkeeping commits even though an error is returned; the
// caller just restarts the hold flow.
func (e *Engine) ConfirmBooking(ctx context.Context, userID, bookingID uint64, paymentRef string) (*model.Booking, []Event, error) {
	var (
		out    *model.Booking
		events []Event
		lapsed bool
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		b, err := tx.Bookings().Get(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.Status != model.BookingHeld {
			return ErrInvalidTransition
		}
		if b.HoldLapsed(e.now()) {
			lapsed = true
			evs, err := e.expireHeldBooking(ctx, tx, b)
			if err != nil {
				return err
			}
			events = evs
			return nil
		}
		if err := tx.Bookings().Confirm(ctx, b.ID, paymentRef); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTransition
			}
			return err
		}
		c, err := tx.Cabins().Get(ctx, b.CabinID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSeatUnavailable
		}
		if err != nil {
			return err
		}
		// The seat must still be under this user's hold; anything
		// else means it was released or reclaimed and the booking
		// cannot attach to it.
		if c.Status != model.CabinHeld || c.HolderID == nil || *c.HolderID != userID {
			return ErrSeatUnavailable
		}
		next := model.CabinState{Status: model.CabinOccupied, OccupantID: &userID}
		if err := tx.Cabins().CompareAndSet(ctx, b.CabinID, c.State(), next); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrSeatUnavailable
			}
			return err
		}
		if err := tx.Waitlist().Convert(ctx, userID, b.CabinID); err != nil {
			return err
		}
		ref := paymentRef
		b.Status = model.BookingActive
		b.Payment = model.PaymentPaid
		b.PaymentRef = &ref
		b.ExpiresAt = nil
		out = b
		events = append(events,
			seatUpdate(c, next),
			bookingConfirmed(b),
			NotifyUser{
				UserID:  userID,
				Title:   "Booking confirmed",
				Message: fmt.Sprintf("Cabin %s is yours from %s to %s.", c.Number, b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02")),
				Kind:    model.NotifySuccess,
			},
		)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lapsed {
		return nil, events, ErrHoldExpired
	}
	return out, events, nil
}

// expireHeldBooking retires a HELD booking whose window lapsed and,
// when the seat still carries that user's hold, frees it and runs
// promotion.
func (e *Engine) expireHeldBooking(ctx context.Context, tx store.Store, b *model.Booking) ([]Event, error) {
	if err := tx.Bookings().MarkExpired(ctx, b.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	c, err := tx.Cabins().Get(ctx, b.CabinID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Status != model.CabinHeld || c.HolderID == nil || *c.HolderID != b.UserID {
		return nil, nil
	}
	next := model.CabinState{Status: model.CabinAvailable}
	err = tx.Cabins().CompareAndSet(ctx, b.CabinID, c.State(), next)
	if errors.Is(err, store.ErrConflict) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	events := []Event{seatUpdate(c, next)}
	more, err := e.promote(ctx, tx, b.CabinID)
	if err != nil {
		return nil, err
	}
	return append(events, more...), nil
}

// BookDirect books a claimable cabin in one step, skipping the
// interactive hold.  The cabin moves straight to OCCUPIED and the
// booking is created ACTIVE and PAID.  A waitlisted buyer taking
// their offer lands here too; their entry converts in the same
// transaction.
func (e *Engine) BookDirect(ctx context.Context, userID uint64, p BookingParams) (*model.Booking, []Event, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	var (
		out    *model.Booking
		events []Event
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		c, next, err := e.claim(ctx, tx, p.CabinID, userID, func(time.Time) model.CabinState {
			return model.CabinState{Status: model.CabinOccupied, OccupantID: &userID}
		}, ErrSeatUnavailable)
		if err != nil {
			return err
		}
		if err := tx.Waitlist().Convert(ctx, userID, c.ID); err != nil {
			return err
		}
		b := &model.Booking{
			Ref:         uuid.NewString(),
			UserID:      userID,
			CabinID:     c.ID,
			VenueID:     c.VenueID,
			Status:      model.BookingActive,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			AmountCents: p.AmountCents,
			Payment:     model.PaymentPaid,
			Settlement:  model.SettlementPending,
			CreatedAt:   e.now(),
		}
		if p.PaymentRef != "" {
			ref := p.PaymentRef
			b.PaymentRef = &ref
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		out = b
		events = append(events,
			seatUpdate(c, next),
			bookingConfirmed(b),
			NotifyUser{
				UserID:  userID,
				Title:   "Booking confirmed",
				Message: fmt.Sprintf("Cabin %s is yours from %s to %s.", c.Number, b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02")),
				Kind:    model.NotifySuccess,
			},
		)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

// CancelBooking cancels an ACTIVE booking.  While the booking still
// occupies its cabin the seat is freed and offered to the waitlist
// in the same transaction.
func (e *Engine) CancelBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, []Event, error) {
	var (
		out    *model.Booking
		events []Event
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		b, err := tx.Bookings().Get(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.Status == model.BookingCancelled {
			return ErrAlreadyCancelled
		}
		if b.Status != model.BookingActive {
			return ErrInvalidTransition
		}
		if err := tx.Bookings().Cancel(ctx, b.ID); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTransition
			}
			return err
		}
		c, err := tx.Cabins().Get(ctx, b.CabinID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				b.Status = model.BookingCancelled
				out = b
				return nil
			}
			return err
		}
		if c.Status == model.CabinOccupied && c.OccupantID != nil && *c.OccupantID == userID {
			next := model.CabinState{Status: model.CabinAvailable}
			err := tx.Cabins().CompareAndSet(ctx, b.CabinID, c.State(), next)
			if err != nil && !errors.Is(err, store.ErrConflict) {
				return err
			}
			if err == nil {
				events = append(events, seatUpdate(c, next))
				more, err := e.promote(ctx, tx, b.CabinID)
				if err != nil {
					return err
				}
				events = append(events, more...)
			}
		}
		b.Status = model.BookingCancelled
		out = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

// ExtendBooking pushes the end date of an ACTIVE booking out against
// a positive surcharge.  Seat state is untouched; the occupant
// simply keeps the cabin longer.
func (e *Engine) ExtendBooking(ctx context.Context, userID, bookingID uint64, newEnd time.Time, extraCents uint32) (*model.Booking, []Event, error) {
	if extraCents == 0 {
		return nil, nil, ErrInvalidInput
	}
	var (
		out    *model.Booking
		events []Event
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		b, err := tx.Bookings().Get(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.Status != model.BookingActive {
			return ErrInvalidTransition
		}
		if !newEnd.After(b.EndDate) {
			return ErrInvalidInput
		}
		if err := tx.Bookings().Extend(ctx, b.ID, newEnd, extraCents); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTransition
			}
			return err
		}
		b.EndDate = newEnd
		b.AmountCents += extraCents
		out = b
		events = append(events, NotifyUser{
			UserID:  userID,
			Title:   "Booking extended",
			Message: fmt.Sprintf("Your booking now runs until %s.", newEnd.Format("2006-01-02")),
			Kind:    model.NotifyInfo,
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

func bookingConfirmed(b *model.Booking) BookingConfirmed {
	return BookingConfirmed{
		BookingID:   b.ID,
		Ref:         b.Ref,
		UserID:      b.UserID,
		CabinID:     b.CabinID,
		VenueID:     b.VenueID,
		AmountCents: b.AmountCents,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
	}
}

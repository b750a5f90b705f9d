// Package notify fans engine events out to their delivery channels
// after the transition that produced them has committed.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/queue"
	"github.com/iliyamo/study-room-reservation/internal/service"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// SeatChannel is the Redis pub/sub channel carrying cabin state
// updates for live seat maps.
const SeatChannel = "cabin.updates"

// Dispatcher routes engine events to their channels: in-app
// notification rows, the cabin.updates Redis channel and the message
// broker. Delivery is best-effort; failures are logged and never
// propagated back to the request that produced the events.
type Dispatcher struct {
	store store.Store
	redis *redis.Client // may be nil; seat updates are skipped then
}

// New builds a dispatcher over the given store and optional Redis client.
func New(st store.Store, rdb *redis.Client) *Dispatcher {
	return &Dispatcher{store: st, redis: rdb}
}

// Dispatch delivers every event produced by a committed transition.
func (d *Dispatcher) Dispatch(ctx context.Context, events []service.Event) {
	for _, ev := range events {
		switch ev := ev.(type) {
		case service.NotifyUser:
			d.storeNotification(ctx, ev)
		case service.SeatUpdate:
			d.publishSeatUpdate(ctx, ev)
		case service.BookingConfirmed:
			d.publishBookingConfirmed(ctx, ev)
		}
	}
}

func (d *Dispatcher) storeNotification(ctx context.Context, ev service.NotifyUser) {
	n := &model.Notification{
		UserID:  ev.UserID,
		Title:   ev.Title,
		Message: ev.Message,
		Kind:    ev.Kind,
	}
	if err := d.store.Notifications().Create(ctx, n); err != nil {
		log.Printf("notify: store notification for user %d failed: %v", ev.UserID, err)
	}
}

func (d *Dispatcher) publishSeatUpdate(ctx context.Context, ev service.SeatUpdate) {
	if d.redis == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notify: marshal seat update failed: %v", err)
		return
	}
	if err := d.redis.Publish(ctx, SeatChannel, body).Err(); err != nil {
		log.Printf("notify: publish seat update for cabin %d failed: %v", ev.CabinID, err)
	}
}

// publishBookingConfirmed enriches the broker payload with venue and
// cabin names so consumers need not query the database, then hands it
// to the booking.confirmed queue.
func (d *Dispatcher) publishBookingConfirmed(ctx context.Context, ev service.BookingConfirmed) {
	msg := queue.BookingConfirmedEvent{
		BookingID:   ev.BookingID,
		BookingRef:  ev.Ref,
		UserID:      ev.UserID,
		CabinID:     ev.CabinID,
		VenueID:     ev.VenueID,
		StartDate:   ev.StartDate.Format("2006-01-02"),
		EndDate:     ev.EndDate.Format("2006-01-02"),
		AmountCents: ev.AmountCents,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if c, err := d.store.Cabins().Get(ctx, ev.CabinID); err == nil {
		msg.CabinNumber = c.Number
	}
	if v, err := d.store.Venues().Get(ctx, ev.VenueID); err == nil {
		msg.VenueName = v.Name
	}
	if err := queue.PublishBookingConfirmed(ctx, msg); err != nil {
		log.Printf("notify: publish booking %d to broker failed: %v", ev.BookingID, err)
	}
}

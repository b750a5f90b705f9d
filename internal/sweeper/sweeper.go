// Package sweeper runs the periodic expiry pass.  Readers already
// repair lapsed holds on contact, so the sweeper only catches cabins
// nobody is looking at, keeping waitlist offers moving on quiet nights.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/notify"
	"github.com/iliyamo/study-room-reservation/internal/service"
)

// Sweeper walks expired holds and offers on a fixed interval and hands
// the resulting events to the dispatcher.
type Sweeper struct {
	Engine   *service.Engine
	Events   *notify.Dispatcher // may be nil
	Interval time.Duration
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, events, err := s.Engine.SweepExpired(ctx)
	if err != nil {
		log.Printf("sweeper: %v", err)
	}
	if s.Events != nil && len(events) > 0 {
		s.Events.Dispatch(ctx, events)
	}
	if n > 0 {
		log.Printf("sweeper: materialised %d expired hold(s)", n)
	}
}

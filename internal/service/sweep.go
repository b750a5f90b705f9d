package service

import (
	"context"
	"errors"

	"github.com/iliyamo/study-room-reservation/internal/store"
)

// sweepBatch caps how many cabins one sweep pass touches.
const sweepBatch = 256

// SweepExpired materialises lazy expiry for cabins whose hold or
// offer deadline has passed, one transaction per cabin so a single
// contended row cannot wedge the pass.  Returns how many cabins were
// actually rewritten.  The sweep is a promptness aid only; readers
// resolve expiry on their own and never depend on it running.
func (e *Engine) SweepExpired(ctx context.Context) (int, []Event, error) {
	ids, err := e.store.Cabins().ListExpired(ctx, e.now(), sweepBatch)
	if err != nil {
		return 0, nil, err
	}
	var (
		n      int
		events []Event
	)
	for _, id := range ids {
		err := e.store.InTx(ctx, func(tx store.Store) error {
			changed, evs, err := e.reconcile(ctx, tx, id)
			if err != nil {
				return err
			}
			if changed {
				n++
				events = append(events, evs...)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrCabinNotFound) {
				continue
			}
			return n, events, err
		}
	}
	return n, events, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/study-room-reservation/internal/config"
	"github.com/iliyamo/study-room-reservation/internal/database"
	"github.com/iliyamo/study-room-reservation/internal/notify"
	"github.com/iliyamo/study-room-reservation/internal/service"
	"github.com/iliyamo/study-room-reservation/internal/store/mysql"
	"github.com/iliyamo/study-room-reservation/internal/sweeper"
)

func newSweepCmd() *cobra.Command {
	var every time.Duration

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Materialise expired holds and waitlist offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg := config.Load()

			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()

			st := mysql.New(db)
			engine := service.New(st, service.Options{
				HoldTTL:       cfg.HoldTTL,
				BookingWindow: cfg.BookingWindow,
				OfferWindow:   cfg.OfferWindow,
			})
			events := notify.New(st, config.NewRedisClient())

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if every > 0 {
				sw := &sweeper.Sweeper{Engine: engine, Events: events, Interval: every}
				if err := sw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}

			n, evs, err := engine.SweepExpired(ctx)
			if err != nil {
				return err
			}
			events.Dispatch(ctx, evs)
			fmt.Fprintf(os.Stdout, "swept %d expired hold(s)\n", n)
			return nil
		},
	}
	c.Flags().DurationVar(&every, "every", 0, "keep sweeping on this interval (0 runs once)")
	return c
}

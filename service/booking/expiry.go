package bookingsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	"github.com/wayddd1/VanEaseRentalSystem/repository/events"
	paymentrepo "github.com/wayddd1/VanEaseRentalSystem/repository/payment"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

// Expirer fails PENDING bookings that received no payment, or only a FAILED
// one, within TTL, freeing the vehicle calendar they were holding.
type Expirer struct {
	Tx       database.Transactor
	Bookings bookingrepo.Repo
	Payments paymentrepo.Repo
	Machine  Transitioner
	Pub      events.Publisher
	Log      *slog.Logger
	TTL      time.Duration
	Now      func() time.Time
}

func (x *Expirer) now() time.Time {
	if x.Now != nil {
		return x.Now()
	}
	return time.Now()
}

// ExpireStale returns how many bookings moved to PAYMENT_FAILED.
func (x *Expirer) ExpireStale(ctx context.Context) (int, error) {
	cutoff := x.now().Add(-x.TTL)
	stale, err := x.Bookings.List(ctx, x.Tx.Q(), model.BookingFilter{
		Statuses:      []model.BookingStatus{model.BookingPending},
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return 0, err
	}

	var firstErr error
	n := 0
	for _, b := range stale {
		var expired *model.Booking
		err := x.Tx.InTx(ctx, func(q database.Querier) error {
			cur, err := x.Bookings.LockByID(ctx, q, b.ID)
			if err != nil {
				if database.IsNotFound(err) {
					return nil
				}
				return err
			}
			if cur.Status != model.BookingPending {
				return nil
			}
			if p, err := x.Payments.ByBookingID(ctx, q, cur.ID); err == nil {
				if p.Status != model.PaymentFailed {
					return nil
				}
			} else if !database.IsNotFound(err) {
				return err
			}
			if err := x.Machine.Apply(ctx, q, cur, model.EventFailPayment); err != nil {
				return err
			}
			expired = cur
			return nil
		})
		if err != nil {
			x.log().WarnContext(ctx, "expire booking failed", "booking_id", b.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if expired == nil {
			continue
		}
		n++
		events.Emit(ctx, x.Pub, x.log(), model.Event{
			Type:      model.EvBookingStatusChanged,
			BookingID: expired.ID,
			VehicleID: expired.VehicleID,
			UserID:    expired.UserID,
			Status:    string(expired.Status),
		})
	}
	return n, firstErr
}

// Run calls ExpireStale every interval until ctx is done.
func (x *Expirer) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := x.ExpireStale(ctx)
			if err != nil {
				x.log().ErrorContext(ctx, "booking expiry sweep", "err", err, "expired", n)
				continue
			}
			if n > 0 {
				x.log().InfoContext(ctx, "expired unpaid bookings", "count", n, "ttl", x.TTL)
			}
		}
	}
}

func (x *Expirer) log() *slog.Logger {
	if x.Log == nil {
		return slog.Default()
	}
	return x.Log
}

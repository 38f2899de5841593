package bookingsvc

import (
	"context"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	paymentrepo "github.com/wayddd1/VanEaseRentalSystem/repository/payment"
	vehiclerepo "github.com/wayddd1/VanEaseRentalSystem/repository/vehicle"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

// Transitioner moves a booking through its lifecycle inside the caller's transaction.
type Transitioner interface {
	Apply(ctx context.Context, q database.Querier, b *model.Booking, ev model.BookingEvent) error
}

// Machine applies booking events and their side effects on vehicles and payments.
type Machine struct {
	Bookings bookingrepo.Repo
	Vehicles vehiclerepo.Repo
	Payments paymentrepo.Repo
}

var _ Transitioner = (*Machine)(nil)

// Apply moves b to the status ev leads to. An illegal event returns INVALID_STATE
// before anything is written; b.Status is updated only on success.
func (m *Machine) Apply(ctx context.Context, q database.Querier, b *model.Booking, ev model.BookingEvent) error {
	from := b.Status
	to, ok := from.Next(ev)
	if !ok {
		return svcerr.New(svcerr.ErrInvalidState, "cannot %s a booking in status %s", ev, from)
	}
	if err := m.Bookings.UpdateStatus(ctx, q, b.ID, to); err != nil {
		return err
	}

	if ev == model.EventCancel {
		if err := m.refundPayment(ctx, q, b.ID); err != nil {
			return err
		}
	}
	if from.Blocks() && to.ReleasesVehicle() {
		if err := m.Release(ctx, q, b.VehicleID, b.ID); err != nil {
			return err
		}
	}
	b.Status = to
	return nil
}

// Release marks a RENTED vehicle AVAILABLE once no blocking booking other than
// exceptID remains. MAINTENANCE is left alone.
func (m *Machine) Release(ctx context.Context, q database.Querier, vehicleID, exceptID int64) error {
	v, err := m.Vehicles.LockByID(ctx, q, vehicleID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil
		}
		return err
	}
	if v.Status != model.VehicleRented {
		return nil
	}
	n, err := m.Bookings.CountBlocking(ctx, q, vehicleID, exceptID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return m.Vehicles.SetStatus(ctx, q, vehicleID, model.VehicleAvailable)
}

func (m *Machine) refundPayment(ctx context.Context, q database.Querier, bookingID int64) error {
	p, err := m.Payments.ByBookingID(ctx, q, bookingID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil
		}
		return err
	}
	if p.Status == model.PaymentRefunded {
		return nil
	}
	return m.Payments.UpdateStatus(ctx, q, p.ID, model.PaymentRefunded)
}

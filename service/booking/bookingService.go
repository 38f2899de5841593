package bookingsvc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	"github.com/wayddd1/VanEaseRentalSystem/repository/events"
	paymentrepo "github.com/wayddd1/VanEaseRentalSystem/repository/payment"
	vehiclerepo "github.com/wayddd1/VanEaseRentalSystem/repository/vehicle"
	"github.com/wayddd1/VanEaseRentalSystem/service/pricing"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

type QuoteResult struct {
	VehicleID int64  `json:"vehicle_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
	pricing.Quote
}

type Service interface {
	// Create books a vehicle for an inclusive date range as PENDING.
	Create(ctx context.Context, who model.Identity, req model.BookingRequest) (*model.Booking, error)
	// Quote prices a range without persisting anything.
	Quote(ctx context.Context, vehicleID int64, start, end string) (*QuoteResult, error)
	// HasConflict reports whether a blocking booking intersects [start, end].
	HasConflict(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error)

	Get(ctx context.Context, who model.Identity, id int64) (*model.Booking, error)
	ListAll(ctx context.Context, who model.Identity) ([]model.Booking, error)
	ListMine(ctx context.Context, who model.Identity) ([]model.Booking, error)
	ListByVehicle(ctx context.Context, who model.Identity, vehicleID int64) ([]model.Booking, error)
	ListActive(ctx context.Context, who model.Identity) ([]model.Booking, error)
	ListByStatus(ctx context.Context, who model.Identity, status string) ([]model.Booking, error)
	Upcoming(ctx context.Context, who model.Identity) ([]model.Booking, error)
	Past(ctx context.Context, who model.Identity) ([]model.Booking, error)

	// UpdateStatus drives the booking to target through the matching lifecycle event.
	UpdateStatus(ctx context.Context, who model.Identity, id int64, target string) (*model.Booking, error)
	// Delete removes a booking and its payment, releasing the vehicle when it was blocking.
	Delete(ctx context.Context, who model.Identity, id int64) error
}

type service struct {
	tx       database.Transactor
	bookings bookingrepo.Repo
	vehicles vehiclerepo.Repo
	machine  *Machine
	pub      events.Publisher
	log      *slog.Logger
	now      func() time.Time
}

func New(tx database.Transactor, br bookingrepo.Repo, vr vehiclerepo.Repo, pr paymentrepo.Repo, pub events.Publisher, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		tx:       tx,
		bookings: br,
		vehicles: vr,
		machine:  &Machine{Bookings: br, Vehicles: vr, Payments: pr},
		pub:      pub,
		log:      log,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, who model.Identity, req model.BookingRequest) (*model.Booking, error) {
	if who.UserID <= 0 {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "login required")
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	pickup := strings.TrimSpace(req.PickupLocation)
	dropoff := strings.TrimSpace(req.DropoffLocation)
	if pickup == "" || dropoff == "" {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "pickup and dropoff locations are required")
	}

	var b *model.Booking
	err = s.tx.InTx(ctx, func(q database.Querier) error {
		v, err := s.vehicles.LockByID(ctx, q, req.VehicleID)
		if err != nil {
			if database.IsNotFound(err) {
				return svcerr.New(svcerr.ErrNotFound, "vehicle %d not found", req.VehicleID)
			}
			return err
		}
		if v.Status == model.VehicleMaintenance {
			return svcerr.New(svcerr.ErrConflict, "vehicle is under maintenance")
		}

		clash, err := s.bookings.FindActiveForVehicleInRange(ctx, q, v.ID, start, end)
		if err != nil {
			return err
		}
		if len(clash) > 0 {
			return svcerr.New(svcerr.ErrConflict, "vehicle is already booked for the selected dates")
		}

		quote, err := pricing.Price(v.RatePerDay, start, end)
		if err != nil {
			return err
		}

		b = &model.Booking{
			VehicleID:       v.ID,
			UserID:          who.UserID,
			StartDate:       start,
			EndDate:         end,
			PickupLocation:  pickup,
			DropoffLocation: dropoff,
			Status:          model.BookingPending,
			TotalDays:       quote.TotalDays,
			TotalPrice:      quote.TotalPrice,
		}
		if err := s.bookings.Insert(ctx, q, b); err != nil {
			if _, ok := database.ExclusionViolation(err); ok {
				return svcerr.Wrap(svcerr.ErrConflict, err, "vehicle is already booked for the selected dates")
			}
			return err
		}
		if v.Status != model.VehicleRented {
			return s.vehicles.SetStatus(ctx, q, v.ID, model.VehicleRented)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "booking created",
		"booking_id", b.ID, "vehicle_id", b.VehicleID, "user_id", b.UserID,
		"total_days", b.TotalDays, "total_price", b.TotalPrice.StringFixed(2))
	events.Emit(ctx, s.pub, s.log, model.Event{
		Type:      model.EvBookingCreated,
		BookingID: b.ID,
		VehicleID: b.VehicleID,
		UserID:    b.UserID,
		Status:    string(b.Status),
	})
	return b, nil
}

func (s *service) Quote(ctx context.Context, vehicleID int64, start, end string) (*QuoteResult, error) {
	sd, ed, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}
	v, err := s.vehicles.ByID(ctx, s.tx.Q(), vehicleID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, svcerr.New(svcerr.ErrNotFound, "vehicle %d not found", vehicleID)
		}
		return nil, err
	}
	quote, err := pricing.Price(v.RatePerDay, sd, ed)
	if err != nil {
		return nil, err
	}
	clash, err := s.HasConflict(ctx, vehicleID, sd, ed)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		VehicleID: vehicleID,
		StartDate: sd.Format(pricing.DateLayout),
		EndDate:   ed.Format(pricing.DateLayout),
		Available: !clash && v.Status != model.VehicleMaintenance,
		Quote:     quote,
	}, nil
}

func (s *service) HasConflict(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error) {
	clash, err := s.bookings.FindActiveForVehicleInRange(ctx, s.tx.Q(), vehicleID, pricing.Day(start), pricing.Day(end))
	if err != nil {
		return false, err
	}
	return len(clash) > 0, nil
}

func (s *service) Get(ctx context.Context, who model.Identity, id int64) (*model.Booking, error) {
	b, err := s.bookings.ByID(ctx, s.tx.Q(), id)
	if err != nil {
		return nil, notFound(err, id)
	}
	if !who.CanAccess(b.UserID) {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "not your booking")
	}
	return b, nil
}

func (s *service) ListAll(ctx context.Context, who model.Identity) ([]model.Booking, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	return s.bookings.List(ctx, s.tx.Q(), model.BookingFilter{})
}

func (s *service) ListMine(ctx context.Context, who model.Identity) ([]model.Booking, error) {
	return s.bookings.List(ctx, s.tx.Q(), model.BookingFilter{UserID: &who.UserID})
}

func (s *service) ListByVehicle(ctx context.Context, who model.Identity, vehicleID int64) ([]model.Booking, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	return s.bookings.List(ctx, s.tx.Q(), model.BookingFilter{VehicleID: &vehicleID})
}

// ListActive returns PENDING and CONFIRMED bookings; customers only see their own.
func (s *service) ListActive(ctx context.Context, who model.Identity) ([]model.Booking, error) {
	f := model.BookingFilter{Statuses: []model.BookingStatus{model.BookingPending, model.BookingConfirmed}}
	return s.bookings.List(ctx, s.tx.Q(), scope(who, f))
}

func (s *service) ListByStatus(ctx context.Context, who model.Identity, status string) ([]model.Booking, error) {
	st := model.BookingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unknown booking status %q", status)
	}
	f := model.BookingFilter{Statuses: []model.BookingStatus{st}}
	return s.bookings.List(ctx, s.tx.Q(), scope(who, f))
}

func (s *service) Upcoming(ctx context.Context, who model.Identity) ([]model.Booking, error) {
	today := pricing.Day(s.now())
	return s.bookings.List(ctx, s.tx.Q(), model.BookingFilter{UserID: &who.UserID, EndFrom: &today})
}

func (s *service) Past(ctx context.Context, who model.Identity) ([]model.Booking, error) {
	today := pricing.Day(s.now())
	return s.bookings.List(ctx, s.tx.Q(), model.BookingFilter{UserID: &who.UserID, EndBefore: &today})
}

func (s *service) UpdateStatus(ctx context.Context, who model.Identity, id int64, target string) (*model.Booking, error) {
	to := model.BookingStatus(strings.ToUpper(strings.TrimSpace(target)))
	ev, ok := model.EventFor(to)
	if !ok {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unsupported target status %q", target)
	}

	var b *model.Booking
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		var err error
		b, err = s.bookings.LockByID(ctx, q, id)
		if err != nil {
			return notFound(err, id)
		}
		if !who.Privileged() {
			if b.UserID != who.UserID {
				return svcerr.New(svcerr.ErrUnauthorized, "not your booking")
			}
			if ev != model.EventCancel {
				return svcerr.New(svcerr.ErrUnauthorized, "customers may only cancel bookings")
			}
		}
		return s.machine.Apply(ctx, q, b, ev)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "booking status changed", "booking_id", b.ID, "status", b.Status, "by", who.UserID)
	events.Emit(ctx, s.pub, s.log, model.Event{
		Type:      model.EvBookingStatusChanged,
		BookingID: b.ID,
		VehicleID: b.VehicleID,
		UserID:    b.UserID,
		Status:    string(b.Status),
	})
	return b, nil
}

func (s *service) Delete(ctx context.Context, who model.Identity, id int64) error {
	var b *model.Booking
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		var err error
		b, err = s.bookings.LockByID(ctx, q, id)
		if err != nil {
			return notFound(err, id)
		}
		if !who.CanAccess(b.UserID) {
			return svcerr.New(svcerr.ErrUnauthorized, "not your booking")
		}
		if err := s.bookings.Delete(ctx, q, id); err != nil {
			return err
		}
		if b.Status.Blocks() {
			return s.machine.Release(ctx, q, b.VehicleID, b.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "booking deleted", "booking_id", id, "by", who.UserID)
	events.Emit(ctx, s.pub, s.log, model.Event{
		Type:      model.EvBookingDeleted,
		BookingID: b.ID,
		VehicleID: b.VehicleID,
		UserID:    b.UserID,
	})
	return nil
}

func scope(who model.Identity, f model.BookingFilter) model.BookingFilter {
	if !who.Privileged() {
		f.UserID = &who.UserID
	}
	return f
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	sd, err := pricing.ParseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	ed, err := pricing.ParseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if ed.Before(sd) {
		return time.Time{}, time.Time{}, svcerr.New(svcerr.ErrInvalidInput, "end date must not be before start date")
	}
	return sd, ed, nil
}

func notFound(err error, id int64) error {
	if database.IsNotFound(err) {
		return svcerr.New(svcerr.ErrNotFound, "booking %d not found", id)
	}
	return err
}

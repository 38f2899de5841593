package vehiclesvc

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	vehiclerepo "github.com/wayddd1/VanEaseRentalSystem/repository/vehicle"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

const MaxImageSize = 5_000_000

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

type Service interface {
	Create(ctx context.Context, who model.Identity, req model.VehicleRequest) (*model.Vehicle, error)
	Update(ctx context.Context, who model.Identity, id int64, req model.VehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, who model.Identity, id int64) error
	Get(ctx context.Context, id int64) (*model.Vehicle, error)
	List(ctx context.Context, status string, availableOnly bool) ([]model.Vehicle, error)
	SetStatus(ctx context.Context, who model.Identity, id int64, status string) (*model.Vehicle, error)

	SetImage(ctx context.Context, who model.Identity, id int64, data []byte) (*model.VehicleImage, error)
	Image(ctx context.Context, id int64) (*model.VehicleImage, error)
}

type service struct {
	tx       database.Transactor
	vehicles vehiclerepo.Repo
	bookings bookingrepo.Repo
	log      *slog.Logger
}

func New(tx database.Transactor, vr vehiclerepo.Repo, br bookingrepo.Repo, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{tx: tx, vehicles: vr, bookings: br, log: log}
}

func (s *service) Create(ctx context.Context, who model.Identity, req model.VehicleRequest) (*model.Vehicle, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	v := &model.Vehicle{ManagerID: who.UserID, Status: model.VehicleAvailable}
	if err := apply(v, req); err != nil {
		return nil, err
	}
	if req.Status != "" {
		st, err := parseStatus(string(req.Status))
		if err != nil {
			return nil, err
		}
		if st == model.VehicleRented {
			return nil, errRentedIsDerived
		}
		v.Status = st
	}
	if err := s.vehicles.Create(ctx, s.tx.Q(), v); err != nil {
		return nil, plateTaken(err)
	}
	s.log.InfoContext(ctx, "vehicle created", "vehicle_id", v.ID, "plate", v.PlateNumber, "by", who.UserID)
	return v, nil
}

func (s *service) Update(ctx context.Context, who model.Identity, id int64, req model.VehicleRequest) (*model.Vehicle, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	var v *model.Vehicle
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		var err error
		v, err = s.vehicles.LockByID(ctx, q, id)
		if err != nil {
			return notFound(err, id)
		}
		if err := apply(v, req); err != nil {
			return err
		}
		if req.Status != "" {
			if v.Status, err = s.nextStatus(ctx, q, v, string(req.Status)); err != nil {
				return err
			}
		}
		if err := s.vehicles.Update(ctx, q, v); err != nil {
			return plateTaken(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete refuses while a blocking booking still holds the vehicle.
func (s *service) Delete(ctx context.Context, who model.Identity, id int64) error {
	if !who.Privileged() {
		return svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		if _, err := s.vehicles.LockByID(ctx, q, id); err != nil {
			return notFound(err, id)
		}
		n, err := s.bookings.CountBlocking(ctx, q, id, 0)
		if err != nil {
			return err
		}
		if n > 0 {
			return svcerr.New(svcerr.ErrConflict, "vehicle has %d open bookings", n)
		}
		return s.vehicles.Delete(ctx, q, id)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "vehicle deleted", "vehicle_id", id, "by", who.UserID)
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	v, err := s.vehicles.ByID(ctx, s.tx.Q(), id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return v, nil
}

func (s *service) List(ctx context.Context, status string, availableOnly bool) ([]model.Vehicle, error) {
	var f vehiclerepo.Filter
	if availableOnly {
		st := model.VehicleAvailable
		f.Status = &st
	} else if status = strings.TrimSpace(status); status != "" {
		st := model.VehicleStatus(strings.ToUpper(status))
		if !st.Valid() {
			return nil, svcerr.New(svcerr.ErrInvalidInput, "unknown vehicle status %q", status)
		}
		f.Status = &st
	}
	return s.vehicles.List(ctx, s.tx.Q(), f)
}

func (s *service) SetStatus(ctx context.Context, who model.Identity, id int64, status string) (*model.Vehicle, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	if _, err := parseStatus(status); err != nil {
		return nil, err
	}
	var v *model.Vehicle
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		var err error
		v, err = s.vehicles.LockByID(ctx, q, id)
		if err != nil {
			return notFound(err, id)
		}
		st, err := s.nextStatus(ctx, q, v, status)
		if err != nil {
			return err
		}
		if st == v.Status {
			return nil
		}
		if err := s.vehicles.SetStatus(ctx, q, id, st); err != nil {
			return err
		}
		v.Status = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "vehicle status changed", "vehicle_id", id, "status", v.Status, "by", who.UserID)
	return v, nil
}

var errRentedIsDerived = svcerr.New(svcerr.ErrInvalidInput, "RENTED is set by bookings and cannot be set by hand")

func parseStatus(raw string) (model.VehicleStatus, error) {
	st := model.VehicleStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", svcerr.New(svcerr.ErrInvalidInput, "unknown vehicle status %q", raw)
	}
	return st, nil
}

// nextStatus resolves a manual status request on a locked vehicle. Managers
// only move a vehicle into or out of MAINTENANCE; leaving MAINTENANCE lands on
// RENTED while open bookings still hold the calendar.
func (s *service) nextStatus(ctx context.Context, q database.Querier, v *model.Vehicle, raw string) (model.VehicleStatus, error) {
	st, err := parseStatus(raw)
	if err != nil {
		return "", err
	}
	switch {
	case st == v.Status:
		return st, nil
	case st == model.VehicleMaintenance:
		return st, nil
	case st == model.VehicleRented:
		return "", errRentedIsDerived
	case v.Status != model.VehicleMaintenance:
		return "", svcerr.New(svcerr.ErrInvalidState, "vehicle %d is %s; only MAINTENANCE can be switched by hand", v.ID, v.Status)
	}
	n, err := s.bookings.CountBlocking(ctx, q, v.ID, 0)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return model.VehicleRented, nil
	}
	return model.VehicleAvailable, nil
}

func (s *service) SetImage(ctx context.Context, who model.Identity, id int64, data []byte) (*model.VehicleImage, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	if len(data) == 0 {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "image is empty")
	}
	if len(data) > MaxImageSize {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "image exceeds %d bytes", MaxImageSize)
	}
	ct := http.DetectContentType(data)
	if !allowedImageTypes[ct] {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unsupported image type %s", ct)
	}
	img := model.VehicleImage{VehicleID: id, ContentType: ct, Size: int64(len(data)), Data: data}
	if err := s.vehicles.SetImage(ctx, s.tx.Q(), img); err != nil {
		return nil, notFound(err, id)
	}
	return &img, nil
}

func (s *service) Image(ctx context.Context, id int64) (*model.VehicleImage, error) {
	img, err := s.vehicles.Image(ctx, s.tx.Q(), id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, svcerr.New(svcerr.ErrNotFound, "vehicle %d has no image", id)
		}
		return nil, err
	}
	return img, nil
}

func apply(v *model.Vehicle, req model.VehicleRequest) error {
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	brand := strings.TrimSpace(req.Brand)
	mdl := strings.TrimSpace(req.Model)
	if plate == "" || brand == "" || mdl == "" {
		return svcerr.New(svcerr.ErrInvalidInput, "plate number, brand and model are required")
	}
	if req.Year < 1886 {
		return svcerr.New(svcerr.ErrInvalidInput, "year must be 1886 or later")
	}
	if req.Capacity < 1 {
		return svcerr.New(svcerr.ErrInvalidInput, "capacity must be at least 1")
	}
	if !req.FuelType.Valid() {
		return svcerr.New(svcerr.ErrInvalidInput, "unknown fuel type %q", req.FuelType)
	}
	if !req.Transmission.Valid() {
		return svcerr.New(svcerr.ErrInvalidInput, "unknown transmission %q", req.Transmission)
	}
	if !req.RatePerDay.IsPositive() {
		return svcerr.New(svcerr.ErrInvalidInput, "rate per day must be positive")
	}
	if !req.RatePerDay.Equal(req.RatePerDay.Round(2)) {
		return svcerr.New(svcerr.ErrInvalidInput, "rate per day has more than 2 decimals")
	}
	v.PlateNumber = plate
	v.Brand = brand
	v.Model = mdl
	v.Year = req.Year
	v.Capacity = req.Capacity
	v.FuelType = req.FuelType
	v.Transmission = req.Transmission
	v.RatePerDay = req.RatePerDay
	v.Description = nil
	if d := strings.TrimSpace(req.Description); d != "" {
		v.Description = &d
	}
	return nil
}

func plateTaken(err error) error {
	if name, ok := database.UniqueViolation(err); ok && strings.Contains(name, "plate") {
		return svcerr.Wrap(svcerr.ErrConflict, err, "vehicle with this plate number already exists")
	}
	return err
}

func notFound(err error, id int64) error {
	if database.IsNotFound(err) {
		return svcerr.New(svcerr.ErrNotFound, "vehicle %d not found", id)
	}
	return err
}

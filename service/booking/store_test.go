package bookingsvc

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	paymentrepo "github.com/wayddd1/VanEaseRentalSystem/repository/payment"
	vehiclerepo "github.com/wayddd1/VanEaseRentalSystem/repository/vehicle"
	"github.com/wayddd1/VanEaseRentalSystem/service/pricing"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

// memStore is an in-memory database: InTx runs one closure at a time and
// restores the previous state when the closure fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID   int64
	vehicles map[int64]model.Vehicle
	bookings map[int64]model.Booking
	payments map[int64]model.Payment
}

func newMemStore() *memStore {
	return &memStore{
		vehicles: map[int64]model.Vehicle{},
		bookings: map[int64]model.Booking{},
		payments: map[int64]model.Payment{},
	}
}

var _ database.Transactor = (*memStore)(nil)

func (s *memStore) Q() database.Querier { return nil }

func (s *memStore) InTx(ctx context.Context, fn func(q database.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	vs, bs, ps, id := clone(s.vehicles), clone(s.bookings), clone(s.payments), s.nextID
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.vehicles, s.bookings, s.payments, s.nextID = vs, bs, ps, id
		s.mu.Unlock()
		return err
	}
	return nil
}

func clone[T any](m map[int64]T) map[int64]T {
	out := make(map[int64]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// overlaps reports whether two inclusive day ranges share at least one day.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return !pricing.Day(s1).After(pricing.Day(e2)) && !pricing.Day(s2).After(pricing.Day(e1))
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addVehicle(rate string, status model.VehicleStatus) model.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := model.Vehicle{
		ID:          s.id(),
		PlateNumber: fmt.Sprintf("VAN-%d", s.nextID),
		Brand:       "Toyota",
		Model:       "Hiace",
		RatePerDay:  mustDec(rate),
		Status:      status,
	}
	s.vehicles[v.ID] = v
	return v
}

func (s *memStore) addBooking(vehicleID, userID int64, start, end string, status model.BookingStatus) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, _ := pricing.ParseDay(start)
	ed, _ := pricing.ParseDay(end)
	b := model.Booking{ID: s.id(), VehicleID: vehicleID, UserID: userID, StartDate: sd, EndDate: ed, Status: status}
	s.bookings[b.ID] = b
	return b
}

func (s *memStore) addPayment(bookingID int64, status model.PaymentStatus) model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Payment{ID: s.id(), BookingID: bookingID, Amount: mustDec("100.00"), Method: model.MethodCashOnHand, Status: status}
	s.payments[p.ID] = p
	return p
}

func (s *memStore) vehicle(id int64) model.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicles[id]
}

func (s *memStore) booking(id int64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *memStore) payment(id int64) (model.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	return p, ok
}

func notFoundErr(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, pgx.ErrNoRows)
}

// bookings

type memBookings struct{ *memStore }

var _ bookingrepo.Repo = memBookings{}

func (r memBookings) Insert(ctx context.Context, q database.Querier, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = *b
	return nil
}

func (r memBookings) ByID(ctx context.Context, q database.Querier, id int64) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, notFoundErr("booking", id)
	}
	return &b, nil
}

func (r memBookings) LockByID(ctx context.Context, q database.Querier, id int64) (*model.Booking, error) {
	return r.ByID(ctx, q, id)
}

func (r memBookings) UpdateStatus(ctx context.Context, q database.Querier, id int64, status model.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return notFoundErr("booking", id)
	}
	b.Status = status
	r.bookings[id] = b
	return nil
}

func (r memBookings) Delete(ctx context.Context, q database.Querier, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return notFoundErr("booking", id)
	}
	delete(r.bookings, id)
	for pid, p := range r.payments {
		if p.BookingID == id {
			delete(r.payments, pid)
		}
	}
	return nil
}

func (r memBookings) FindActiveForVehicleInRange(ctx context.Context, q database.Querier, vehicleID int64, start, end time.Time) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Booking{}
	for _, b := range r.bookings {
		if b.VehicleID == vehicleID && b.Status.Blocks() && overlaps(b.StartDate, b.EndDate, start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBookings) CountBlocking(ctx context.Context, q database.Querier, vehicleID, excludeID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.VehicleID == vehicleID && b.ID != excludeID && b.Status.Blocks() {
			n++
		}
	}
	return n, nil
}

func (r memBookings) List(ctx context.Context, q database.Querier, f model.BookingFilter) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Booking{}
	for _, b := range r.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.VehicleID != nil && b.VehicleID != *f.VehicleID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, b.Status) {
			continue
		}
		if f.EndFrom != nil && b.EndDate.Before(*f.EndFrom) {
			continue
		}
		if f.EndBefore != nil && !b.EndDate.Before(*f.EndBefore) {
			continue
		}
		if f.CreatedBefore != nil && !b.CreatedAt.Before(*f.CreatedBefore) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hasStatus(ss []model.BookingStatus, s model.BookingStatus) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// vehicles

type memVehicles struct{ *memStore }

var _ vehiclerepo.Repo = memVehicles{}

func (r memVehicles) Create(ctx context.Context, q database.Querier, v *model.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = r.id()
	r.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) Update(ctx context.Context, q database.Querier, v *model.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.ID]; !ok {
		return notFoundErr("vehicle", v.ID)
	}
	r.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) Delete(ctx context.Context, q database.Querier, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[id]; !ok {
		return notFoundErr("vehicle", id)
	}
	delete(r.vehicles, id)
	return nil
}

func (r memVehicles) ByID(ctx context.Context, q database.Querier, id int64) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, notFoundErr("vehicle", id)
	}
	return &v, nil
}

func (r memVehicles) LockByID(ctx context.Context, q database.Querier, id int64) (*model.Vehicle, error) {
	return r.ByID(ctx, q, id)
}

func (r memVehicles) SetStatus(ctx context.Context, q database.Querier, id int64, status model.VehicleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return notFoundErr("vehicle", id)
	}
	v.Status = status
	r.vehicles[id] = v
	return nil
}

func (r memVehicles) List(ctx context.Context, q database.Querier, f vehiclerepo.Filter) ([]model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Vehicle{}
	for _, v := range r.vehicles {
		if f.Status == nil || v.Status == *f.Status {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memVehicles) SetImage(ctx context.Context, q database.Querier, img model.VehicleImage) error {
	return nil
}

func (r memVehicles) Image(ctx context.Context, q database.Querier, id int64) (*model.VehicleImage, error) {
	return nil, notFoundErr("vehicle image", id)
}

// payments

type memPayments struct{ *memStore }

var _ paymentrepo.Repo = memPayments{}

func (r memPayments) Insert(ctx context.Context, q database.Querier, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	r.payments[p.ID] = *p
	return nil
}

func (r memPayments) ByID(ctx context.Context, q database.Querier, id int64) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, notFoundErr("payment", id)
	}
	return &p, nil
}

func (r memPayments) LockByID(ctx context.Context, q database.Querier, id int64) (*model.Payment, error) {
	return r.ByID(ctx, q, id)
}

func (r memPayments) ByBookingID(ctx context.Context, q database.Querier, bookingID int64) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, notFoundErr("payment for booking", bookingID)
}

func (r memPayments) UpdateStatus(ctx context.Context, q database.Querier, id int64, status model.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return notFoundErr("payment", id)
	}
	p.Status = status
	r.payments[id] = p
	return nil
}

func (r memPayments) List(ctx context.Context, q database.Querier, f paymentrepo.Filter) ([]model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Payment{}
	for _, p := range r.payments {
		if f.BookingID == nil || p.BookingID == *f.BookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

// events

type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) Publish(ctx context.Context, ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

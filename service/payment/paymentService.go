package paymentsvc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	"github.com/wayddd1/VanEaseRentalSystem/repository/events"
	paymentrepo "github.com/wayddd1/VanEaseRentalSystem/repository/payment"
	paypalrepo "github.com/wayddd1/VanEaseRentalSystem/repository/paypal"
	bookingsvc "github.com/wayddd1/VanEaseRentalSystem/service/booking"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

type Service interface {
	Create(ctx context.Context, who model.Identity, req model.PaymentRequest) (*model.Payment, error)
	Refund(ctx context.Context, who model.Identity, paymentID int64) (*model.Payment, error)
	UpdateStatus(ctx context.Context, who model.Identity, paymentID int64, status string) (*model.Payment, error)

	Get(ctx context.Context, who model.Identity, paymentID int64) (*model.Payment, error)
	ListByBooking(ctx context.Context, who model.Identity, bookingID int64) ([]model.Payment, error)
	ListByStatus(ctx context.Context, who model.Identity, status string) ([]model.Payment, error)
	ListByMethod(ctx context.Context, who model.Identity, method string) ([]model.Payment, error)
}

type service struct {
	tx       database.Transactor
	payments paymentrepo.Repo
	bookings bookingrepo.Repo
	machine  bookingsvc.Transitioner
	paypal   paypalrepo.Repo
	timeout  time.Duration
	pub      events.Publisher
	log      *slog.Logger
}

type Deps struct {
	Tx       database.Transactor
	Payments paymentrepo.Repo
	Bookings bookingrepo.Repo
	Machine  bookingsvc.Transitioner
	PayPal   paypalrepo.Repo
	Timeout  time.Duration
	Pub      events.Publisher
	Log      *slog.Logger
}

func New(d Deps) Service {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	return &service{
		tx:       d.Tx,
		payments: d.Payments,
		bookings: d.Bookings,
		machine:  d.Machine,
		paypal:   d.PayPal,
		timeout:  d.Timeout,
		pub:      d.Pub,
		log:      d.Log,
	}
}

func (s *service) Create(ctx context.Context, who model.Identity, req model.PaymentRequest) (*model.Payment, error) {
	b, err := s.bookings.ByID(ctx, s.tx.Q(), req.BookingID)
	if err != nil {
		return nil, bookingNotFound(err, req.BookingID)
	}
	if !who.CanAccess(b.UserID) {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "not your booking")
	}
	if err := s.noPaymentYet(ctx, s.tx.Q(), b.ID); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "amount must be greater than zero")
	}
	if !b.Status.IsActive() {
		return nil, svcerr.New(svcerr.ErrInvalidState, "booking %d is %s and cannot be paid", b.ID, b.Status)
	}

	p := &model.Payment{
		BookingID: b.ID,
		Amount:    req.Amount.Round(2),
		Method:    model.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.Method)))),
		Status:    model.PaymentPending,
	}
	txID := strings.TrimSpace(req.TransactionID)
	proof := strings.TrimSpace(req.ProofURL)
	if txID != "" {
		p.TransactionID = &txID
	}
	if proof != "" {
		p.ProofURL = &proof
	}

	switch p.Method {
	case model.MethodCashOnHand:
	case model.MethodGCash:
		if proof == "" {
			return nil, svcerr.New(svcerr.ErrInvalidInput, "proof url is required for GCash payments")
		}
	case model.MethodPayPal:
		if txID == "" {
			return nil, svcerr.New(svcerr.ErrInvalidInput, "transaction id is required for PayPal payments")
		}
		p.Status = s.verifyPayPal(ctx, b.ID, txID)
	default:
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unsupported payment method %q", req.Method)
	}

	confirmed := false
	err = s.tx.InTx(ctx, func(q database.Querier) error {
		b, err = s.bookings.LockByID(ctx, q, b.ID)
		if err != nil {
			return bookingNotFound(err, req.BookingID)
		}
		if err := s.noPaymentYet(ctx, q, b.ID); err != nil {
			return err
		}
		if !b.Status.IsActive() {
			return svcerr.New(svcerr.ErrInvalidState, "booking %d is %s and cannot be paid", b.ID, b.Status)
		}
		if err := s.payments.Insert(ctx, q, p); err != nil {
			return duplicateErr(err)
		}
		if p.Status == model.PaymentSuccess && b.Status == model.BookingPending {
			confirmed = true
			return s.machine.Apply(ctx, q, b, model.EventConfirm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "payment created",
		"payment_id", p.ID, "booking_id", p.BookingID, "method", p.Method, "status", p.Status)
	events.Emit(ctx, s.pub, s.log, model.Event{
		Type:      model.EvPaymentCreated,
		PaymentID: p.ID,
		BookingID: p.BookingID,
		UserID:    b.UserID,
		Status:    string(p.Status),
	})
	if confirmed {
		s.bookingChanged(ctx, b)
	}
	return p, nil
}

// verifyPayPal never fails the request: gateway errors and timeouts yield FAILED.
func (s *service) verifyPayPal(ctx context.Context, bookingID int64, txID string) model.PaymentStatus {
	if s.paypal == nil {
		s.log.WarnContext(ctx, "paypal gateway not configured", "booking_id", bookingID)
		return model.PaymentFailed
	}
	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.paypal.Verify(vctx, txID)
	if err != nil {
		s.log.WarnContext(ctx, "paypal verification failed",
			"booking_id", bookingID, "transaction_id", txID, "err", err)
		return model.PaymentFailed
	}
	if !ok {
		s.log.InfoContext(ctx, "paypal order not completed", "booking_id", bookingID, "transaction_id", txID)
		return model.PaymentFailed
	}
	return model.PaymentSuccess
}

func (s *service) Refund(ctx context.Context, who model.Identity, paymentID int64) (*model.Payment, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	var (
		p *model.Payment
		b *model.Booking
	)
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		var err error
		p, b, err = s.refund(ctx, q, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.paymentChanged(ctx, p, b)
	return p, nil
}

// lockPair locks the payment's booking and then the payment itself. Every
// path that writes both rows takes them in this order.
func (s *service) lockPair(ctx context.Context, q database.Querier, paymentID int64) (*model.Payment, *model.Booking, error) {
	peek, err := s.payments.ByID(ctx, q, paymentID)
	if err != nil {
		return nil, nil, paymentNotFound(err, paymentID)
	}
	b, err := s.bookings.LockByID(ctx, q, peek.BookingID)
	if err != nil {
		return nil, nil, bookingNotFound(err, peek.BookingID)
	}
	p, err := s.payments.LockByID(ctx, q, paymentID)
	if err != nil {
		return nil, nil, paymentNotFound(err, paymentID)
	}
	return p, b, nil
}

func (s *service) refund(ctx context.Context, q database.Querier, paymentID int64) (*model.Payment, *model.Booking, error) {
	p, b, err := s.lockPair(ctx, q, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if p.Status != model.PaymentSuccess {
		return nil, nil, svcerr.New(svcerr.ErrInvalidState, "only successful payments can be refunded, payment is %s", p.Status)
	}
	if err := s.payments.UpdateStatus(ctx, q, p.ID, model.PaymentRefunded); err != nil {
		return nil, nil, err
	}
	p.Status = model.PaymentRefunded

	if !b.Status.IsCancellable() {
		return p, nil, nil
	}
	if err := s.machine.Apply(ctx, q, b, model.EventCancel); err != nil {
		return nil, nil, err
	}
	return p, b, nil
}

func (s *service) UpdateStatus(ctx context.Context, who model.Identity, paymentID int64, status string) (*model.Payment, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	to, ok := model.ParsePaymentStatus(status)
	if !ok {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unknown payment status %q", status)
	}
	if to == model.PaymentRefunded {
		return s.Refund(ctx, who, paymentID)
	}

	var (
		p *model.Payment
		b *model.Booking
	)
	err := s.tx.InTx(ctx, func(q database.Querier) error {
		var (
			locked *model.Booking
			err    error
		)
		p, locked, err = s.lockPair(ctx, q, paymentID)
		if err != nil {
			return err
		}
		if p.Status == to {
			return nil
		}
		if p.Status == model.PaymentRefunded {
			return svcerr.New(svcerr.ErrInvalidState, "payment %d is already refunded", p.ID)
		}
		if err := s.payments.UpdateStatus(ctx, q, p.ID, to); err != nil {
			return duplicateErr(err)
		}
		p.Status = to

		if to != model.PaymentSuccess || locked.Status != model.BookingPending {
			return nil
		}
		if err := s.machine.Apply(ctx, q, locked, model.EventConfirm); err != nil {
			return err
		}
		b = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.paymentChanged(ctx, p, b)
	return p, nil
}

func (s *service) Get(ctx context.Context, who model.Identity, paymentID int64) (*model.Payment, error) {
	p, err := s.payments.ByID(ctx, s.tx.Q(), paymentID)
	if err != nil {
		return nil, paymentNotFound(err, paymentID)
	}
	if !who.Privileged() {
		b, err := s.bookings.ByID(ctx, s.tx.Q(), p.BookingID)
		if err != nil {
			return nil, bookingNotFound(err, p.BookingID)
		}
		if !who.CanAccess(b.UserID) {
			return nil, svcerr.New(svcerr.ErrUnauthorized, "not your payment")
		}
	}
	return p, nil
}

func (s *service) ListByBooking(ctx context.Context, who model.Identity, bookingID int64) ([]model.Payment, error) {
	b, err := s.bookings.ByID(ctx, s.tx.Q(), bookingID)
	if err != nil {
		return nil, bookingNotFound(err, bookingID)
	}
	if !who.CanAccess(b.UserID) {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "not your booking")
	}
	return s.payments.List(ctx, s.tx.Q(), paymentrepo.Filter{BookingID: &bookingID})
}

func (s *service) ListByStatus(ctx context.Context, who model.Identity, status string) ([]model.Payment, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	st, ok := model.ParsePaymentStatus(status)
	if !ok {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unknown payment status %q", status)
	}
	return s.payments.List(ctx, s.tx.Q(), paymentrepo.Filter{Status: &st})
}

func (s *service) ListByMethod(ctx context.Context, who model.Identity, method string) ([]model.Payment, error) {
	if !who.Privileged() {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
	}
	m := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(method)))
	if !m.Valid() {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unsupported payment method %q", method)
	}
	return s.payments.List(ctx, s.tx.Q(), paymentrepo.Filter{Method: &m})
}

const txnConstraint = "payments_paypal_transaction_id_key"

func duplicateErr(err error) error {
	cn, ok := database.UniqueViolation(err)
	switch {
	case !ok:
		return err
	case cn == txnConstraint:
		return svcerr.Wrap(svcerr.ErrConflict, err, "paypal transaction already used for another payment")
	default:
		return svcerr.Wrap(svcerr.ErrConflict, err, "duplicate payment")
	}
}

func (s *service) noPaymentYet(ctx context.Context, q database.Querier, bookingID int64) error {
	_, err := s.payments.ByBookingID(ctx, q, bookingID)
	switch {
	case err == nil:
		return svcerr.New(svcerr.ErrConflict, "duplicate payment")
	case database.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func (s *service) paymentChanged(ctx context.Context, p *model.Payment, b *model.Booking) {
	s.log.InfoContext(ctx, "payment status changed", "payment_id", p.ID, "status", p.Status)
	events.Emit(ctx, s.pub, s.log, model.Event{
		Type:      model.EvPaymentStatusChanged,
		PaymentID: p.ID,
		BookingID: p.BookingID,
		Status:    string(p.Status),
	})
	if b != nil {
		s.bookingChanged(ctx, b)
	}
}

func (s *service) bookingChanged(ctx context.Context, b *model.Booking) {
	events.Emit(ctx, s.pub, s.log, model.Event{
		Type:      model.EvBookingStatusChanged,
		BookingID: b.ID,
		VehicleID: b.VehicleID,
		UserID:    b.UserID,
		Status:    string(b.Status),
	})
}

func bookingNotFound(err error, id int64) error {
	if database.IsNotFound(err) {
		return svcerr.New(svcerr.ErrNotFound, "booking %d not found", id)
	}
	return err
}

func paymentNotFound(err error, id int64) error {
	if database.IsNotFound(err) {
		return svcerr.New(svcerr.ErrNotFound, "payment %d not found", id)
	}
	return err
}

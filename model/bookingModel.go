// model/booking.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending       BookingStatus = "PENDING"
	BookingConfirmed     BookingStatus = "CONFIRMED"
	BookingActive        BookingStatus = "ACTIVE"
	BookingCompleted     BookingStatus = "COMPLETED"
	BookingCancelled     BookingStatus = "CANCELLED"
	BookingRejected      BookingStatus = "REJECTED"
	BookingPaymentFailed BookingStatus = "PAYMENT_FAILED"
)

// BlockingStatuses occupy the vehicle calendar for the booked range.
var BlockingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingActive}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive, BookingCompleted,
		BookingCancelled, BookingRejected, BookingPaymentFailed:
		return true
	}
	return false
}

// IsActive is true while the booking still awaits use: PENDING or CONFIRMED.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) IsCancellable() bool { return s.IsActive() }

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingRejected, BookingPaymentFailed:
		return true
	}
	return false
}

func (s BookingStatus) Blocks() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

type BookingEvent string

const (
	EventConfirm     BookingEvent = "confirm"
	EventCancel      BookingEvent = "cancel"
	EventStart       BookingEvent = "start"
	EventComplete    BookingEvent = "complete"
	EventReject      BookingEvent = "reject"
	EventFailPayment BookingEvent = "fail_payment"
)

// Next returns the status reached from s on ev, or false if the transition is illegal.
func (s BookingStatus) Next(ev BookingEvent) (BookingStatus, bool) {
	switch ev {
	case EventConfirm:
		if s == BookingPending {
			return BookingConfirmed, true
		}
	case EventCancel:
		if s.IsCancellable() {
			return BookingCancelled, true
		}
	case EventStart:
		if s == BookingConfirmed {
			return BookingActive, true
		}
	case EventComplete:
		if s == BookingConfirmed || s == BookingActive {
			return BookingCompleted, true
		}
	case EventReject:
		if !s.IsTerminal() {
			return BookingRejected, true
		}
	case EventFailPayment:
		if s == BookingPending {
			return BookingPaymentFailed, true
		}
	}
	return s, false
}

// ReleasesVehicle reports whether entering s frees the vehicle calendar.
func (s BookingStatus) ReleasesVehicle() bool { return s.IsTerminal() }

// EventFor maps a requested target status onto the event that reaches it.
func EventFor(target BookingStatus) (BookingEvent, bool) {
	switch target {
	case BookingConfirmed:
		return EventConfirm, true
	case BookingCancelled:
		return EventCancel, true
	case BookingActive:
		return EventStart, true
	case BookingCompleted:
		return EventComplete, true
	case BookingRejected:
		return EventReject, true
	case BookingPaymentFailed:
		return EventFailPayment, true
	}
	return "", false
}

type Booking struct {
	ID              int64           `json:"id"`
	VehicleID       int64           `json:"vehicle_id"`
	UserID          int64           `json:"user_id"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	PickupLocation  string          `json:"pickup_location"`
	DropoffLocation string          `json:"dropoff_location"`
	Status          BookingStatus   `json:"status"`
	TotalDays       int64           `json:"total_days"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type BookingFilter struct {
	UserID        *int64
	VehicleID     *int64
	Statuses      []BookingStatus
	EndFrom       *time.Time // end_date >= EndFrom
	EndBefore     *time.Time // end_date < EndBefore
	CreatedBefore *time.Time
}

// BookingRequest is the create-booking payload
// swagger:model BookingRequest
type BookingRequest struct {
	VehicleID       int64  `json:"vehicle_id" validate:"required,gt=0"`
	StartDate       string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string `json:"end_date" validate:"required,datetime=2006-01-02"`
	PickupLocation  string `json:"pickup_location" validate:"required"`
	DropoffLocation string `json:"dropoff_location" validate:"required"`
}

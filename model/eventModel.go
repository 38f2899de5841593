package model

import "time"

type EventType string

const (
	EvBookingCreated       EventType = "booking.created"
	EvBookingStatusChanged EventType = "booking.status_changed"
	EvBookingDeleted       EventType = "booking.deleted"
	EvPaymentCreated       EventType = "payment.created"
	EvPaymentStatusChanged EventType = "payment.status_changed"
)

// Event is published after the change that produced it has committed.
type Event struct {
	Type       EventType `json:"type"`
	BookingID  int64     `json:"booking_id,omitempty"`
	PaymentID  int64     `json:"payment_id,omitempty"`
	VehicleID  int64     `json:"vehicle_id,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

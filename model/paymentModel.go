// model/payment.go
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCashOnHand PaymentMethod = "CASH_ON_HAND"
	MethodGCash      PaymentMethod = "GCASH"
	MethodPayPal     PaymentMethod = "PAYPAL"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCashOnHand, MethodGCash, MethodPayPal:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus accepts the canonical names plus the legacy COMPLETED alias.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case PaymentPending, PaymentSuccess, PaymentFailed, PaymentRefunded:
		return st, true
	case "COMPLETED":
		return PaymentSuccess, true
	}
	return "", false
}

type Payment struct {
	ID            int64           `json:"id"`
	BookingID     int64           `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"payment_method"`
	Status        PaymentStatus   `json:"payment_status"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	ProofURL      *string         `json:"proof_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentRequest is the create-payment payload
// swagger:model PaymentRequest
type PaymentRequest struct {
	BookingID     int64           `json:"booking_id" validate:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"payment_method" validate:"required"`
	TransactionID string          `json:"transaction_id"`
	ProofURL      string          `json:"proof_url"`
}

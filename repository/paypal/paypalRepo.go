package paypalrepo

import "context"

// OrderCompleted is the checkout order status that counts as paid.
const OrderCompleted = "COMPLETED"

type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Repo interface {
	// Verify reports whether the order behind transactionID is COMPLETED.
	Verify(ctx context.Context, transactionID string) (bool, error)
}

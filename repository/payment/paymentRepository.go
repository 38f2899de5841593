package paymentrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

type Filter struct {
	BookingID *int64
	Status    *model.PaymentStatus
	Method    *model.PaymentMethod
}

type Repo interface {
	Insert(ctx context.Context, q database.Querier, p *model.Payment) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Payment, error)
	LockByID(ctx context.Context, q database.Querier, id int64) (*model.Payment, error)
	ByBookingID(ctx context.Context, q database.Querier, bookingID int64) (*model.Payment, error)
	UpdateStatus(ctx context.Context, q database.Querier, id int64, status model.PaymentStatus) error
	List(ctx context.Context, q database.Querier, f Filter) ([]model.Payment, error)
}

type repo struct{}

func New() Repo { return &repo{} }

const cols = `id, booking_id, amount, payment_method, payment_status, transaction_id, proof_url,
	created_at, updated_at`

func scan(row pgx.Row, p *model.Payment) error {
	return row.Scan(
		&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status,
		&p.TransactionID, &p.ProofURL, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *repo) Insert(ctx context.Context, q database.Querier, p *model.Payment) error {
	const ins = `
INSERT INTO payments (booking_id, amount, payment_method, payment_status, transaction_id, proof_url)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, ins,
		p.BookingID, p.Amount, p.Method, p.Status, p.TransactionID, p.ProofURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Payment, error) {
	var p model.Payment
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM payments WHERE id=$1`, id), &p); err != nil {
		return nil, fmt.Errorf("payment %d: %w", id, err)
	}
	return &p, nil
}

func (r *repo) LockByID(ctx context.Context, q database.Querier, id int64) (*model.Payment, error) {
	var p model.Payment
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM payments WHERE id=$1 FOR UPDATE`, id), &p); err != nil {
		return nil, fmt.Errorf("lock payment %d: %w", id, err)
	}
	return &p, nil
}

func (r *repo) ByBookingID(ctx context.Context, q database.Querier, bookingID int64) (*model.Payment, error) {
	var p model.Payment
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM payments WHERE booking_id=$1`, bookingID), &p); err != nil {
		return nil, fmt.Errorf("payment for booking %d: %w", bookingID, err)
	}
	return &p, nil
}

func (r *repo) UpdateStatus(ctx context.Context, q database.Querier, id int64, status model.PaymentStatus) error {
	tag, err := q.Exec(ctx, `UPDATE payments SET payment_status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) List(ctx context.Context, q database.Querier, f Filter) ([]model.Payment, error) {
	sel := `SELECT ` + cols + ` FROM payments WHERE TRUE`
	var args []any
	if f.BookingID != nil {
		args = append(args, *f.BookingID)
		sel += fmt.Sprintf(" AND booking_id=$%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		sel += fmt.Sprintf(" AND payment_status=$%d", len(args))
	}
	if f.Method != nil {
		args = append(args, *f.Method)
		sel += fmt.Sprintf(" AND payment_method=$%d", len(args))
	}
	sel += ` ORDER BY created_at DESC, id DESC`

	rows, err := q.Query(ctx, sel, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := scan(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

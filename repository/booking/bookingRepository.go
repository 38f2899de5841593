// repository/booking/repo.go
package bookingrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

type Repo interface {
	Insert(ctx context.Context, q database.Querier, b *model.Booking) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Booking, error)
	LockByID(ctx context.Context, q database.Querier, id int64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, q database.Querier, id int64, status model.BookingStatus) error
	Delete(ctx context.Context, q database.Querier, id int64) error

	// Overlap
	FindActiveForVehicleInRange(ctx context.Context, q database.Querier, vehicleID int64, start, end time.Time) ([]model.Booking, error)
	CountBlocking(ctx context.Context, q database.Querier, vehicleID, excludeID int64) (int64, error)

	List(ctx context.Context, q database.Querier, f model.BookingFilter) ([]model.Booking, error)
}

type repo struct{}

func New() Repo { return &repo{} }

const cols = `id, vehicle_id, user_id, start_date, end_date, pickup_location, dropoff_location,
	status, total_days, total_price, created_at, updated_at`

func scan(row pgx.Row, b *model.Booking) error {
	return row.Scan(
		&b.ID, &b.VehicleID, &b.UserID, &b.StartDate, &b.EndDate,
		&b.PickupLocation, &b.DropoffLocation, &b.Status,
		&b.TotalDays, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt,
	)
}

func (r *repo) Insert(ctx context.Context, q database.Querier, b *model.Booking) error {
	const ins = `
		INSERT INTO bookings (vehicle_id, user_id, start_date, end_date, pickup_location,
			dropoff_location, status, total_days, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, ins,
		b.VehicleID, b.UserID, b.StartDate, b.EndDate, b.PickupLocation,
		b.DropoffLocation, b.Status, b.TotalDays, b.TotalPrice,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Booking, error) {
	var b model.Booking
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM bookings WHERE id = $1`, id), &b); err != nil {
		return nil, fmt.Errorf("booking %d: %w", id, err)
	}
	return &b, nil
}

func (r *repo) LockByID(ctx context.Context, q database.Querier, id int64) (*model.Booking, error) {
	var b model.Booking
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM bookings WHERE id = $1 FOR UPDATE`, id), &b); err != nil {
		return nil, fmt.Errorf("lock booking %d: %w", id, err)
	}
	return &b, nil
}

func (r *repo) UpdateStatus(ctx context.Context, q database.Querier, id int64, status model.BookingStatus) error {
	const upd = `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1`
	tag, err := q.Exec(ctx, upd, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, q database.Querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// FindActiveForVehicleInRange returns blocking bookings whose inclusive range
// intersects [start, end].
func (r *repo) FindActiveForVehicleInRange(ctx context.Context, q database.Querier, vehicleID int64, start, end time.Time) ([]model.Booking, error) {
	const sel = `
		SELECT ` + cols + `
		FROM bookings
		WHERE vehicle_id = $1
		AND start_date <= $3
		AND end_date >= $2
		AND status = ANY($4)
		ORDER BY start_date`
	return r.query(ctx, q, sel, vehicleID, start, end, statusStrings(model.BlockingStatuses))
}

func (r *repo) CountBlocking(ctx context.Context, q database.Querier, vehicleID, excludeID int64) (int64, error) {
	const sel = `
		SELECT COUNT(*)
		FROM bookings
		WHERE vehicle_id = $1
		AND id <> $2
		AND status = ANY($3)`
	var n int64
	if err := q.QueryRow(ctx, sel, vehicleID, excludeID, statusStrings(model.BlockingStatuses)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blocking bookings: %w", err)
	}
	return n, nil
}

func (r *repo) List(ctx context.Context, q database.Querier, f model.BookingFilter) ([]model.Booking, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.VehicleID != nil {
		add("vehicle_id = $%d", *f.VehicleID)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", statusStrings(f.Statuses))
	}
	if f.EndFrom != nil {
		add("end_date >= $%d", *f.EndFrom)
	}
	if f.EndBefore != nil {
		add("end_date < $%d", *f.EndBefore)
	}
	if f.CreatedBefore != nil {
		add("created_at < $%d", *f.CreatedBefore)
	}

	sel := `SELECT ` + cols + ` FROM bookings`
	if len(where) > 0 {
		sel += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.EndBefore != nil {
		sel += ` ORDER BY end_date DESC, id DESC`
	} else if f.EndFrom != nil {
		sel += ` ORDER BY start_date ASC, id ASC`
	} else {
		sel += ` ORDER BY created_at DESC, id DESC`
	}
	return r.query(ctx, q, sel, args...)
}

func (r *repo) query(ctx context.Context, q database.Querier, sql string, args ...any) ([]model.Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		var b model.Booking
		if err := scan(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func statusStrings(ss []model.BookingStatus) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

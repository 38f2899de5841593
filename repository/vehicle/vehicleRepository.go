package vehiclerepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

type Filter struct {
	Status    *model.VehicleStatus
	Search    string
	ManagerID *int64
}

type Repo interface {
	Create(ctx context.Context, q database.Querier, v *model.Vehicle) error
	Update(ctx context.Context, q database.Querier, v *model.Vehicle) error
	Delete(ctx context.Context, q database.Querier, id int64) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Vehicle, error)
	LockByID(ctx context.Context, q database.Querier, id int64) (*model.Vehicle, error)
	SetStatus(ctx context.Context, q database.Querier, id int64, status model.VehicleStatus) error
	List(ctx context.Context, q database.Querier, f Filter) ([]model.Vehicle, error)

	SetImage(ctx context.Context, q database.Querier, img model.VehicleImage) error
	Image(ctx context.Context, q database.Querier, id int64) (*model.VehicleImage, error)
}

type repo struct{}

func New() Repo { return &repo{} }

const cols = `id, plate_number, brand, model, year, capacity, fuel_type, transmission,
	rate_per_day, status, description, manager_id, image IS NOT NULL, created_at, updated_at`

func scan(row pgx.Row, v *model.Vehicle) error {
	return row.Scan(
		&v.ID, &v.PlateNumber, &v.Brand, &v.Model, &v.Year, &v.Capacity,
		&v.FuelType, &v.Transmission, &v.RatePerDay, &v.Status, &v.Description,
		&v.ManagerID, &v.HasImage, &v.CreatedAt, &v.UpdatedAt,
	)
}

func (r *repo) Create(ctx context.Context, q database.Querier, v *model.Vehicle) error {
	const ins = `
INSERT INTO vehicles (plate_number, brand, model, year, capacity, fuel_type, transmission,
	rate_per_day, status, description, manager_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, ins,
		v.PlateNumber, v.Brand, v.Model, v.Year, v.Capacity, v.FuelType, v.Transmission,
		v.RatePerDay, v.Status, v.Description, v.ManagerID,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (r *repo) Update(ctx context.Context, q database.Querier, v *model.Vehicle) error {
	const upd = `
UPDATE vehicles
SET plate_number=$2, brand=$3, model=$4, year=$5, capacity=$6, fuel_type=$7,
	transmission=$8, rate_per_day=$9, status=$10, description=$11, updated_at=NOW()
WHERE id=$1
RETURNING updated_at`
	err := q.QueryRow(ctx, upd,
		v.ID, v.PlateNumber, v.Brand, v.Model, v.Year, v.Capacity, v.FuelType,
		v.Transmission, v.RatePerDay, v.Status, v.Description,
	).Scan(&v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update vehicle %d: %w", v.ID, err)
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, q database.Querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM vehicles WHERE id=$1`, id), &v); err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", id, err)
	}
	return &v, nil
}

// LockByID takes the row lock that serialises booking writers for one vehicle.
func (r *repo) LockByID(ctx context.Context, q database.Querier, id int64) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := scan(q.QueryRow(ctx, `SELECT `+cols+` FROM vehicles WHERE id=$1 FOR UPDATE`, id), &v); err != nil {
		return nil, fmt.Errorf("lock vehicle %d: %w", id, err)
	}
	return &v, nil
}

func (r *repo) SetStatus(ctx context.Context, q database.Querier, id int64, status model.VehicleStatus) error {
	tag, err := q.Exec(ctx, `UPDATE vehicles SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("set vehicle status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) List(ctx context.Context, q database.Querier, f Filter) ([]model.Vehicle, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(brand ILIKE $%[1]d OR model ILIKE $%[1]d)", len(args)))
	}
	if f.ManagerID != nil {
		args = append(args, *f.ManagerID)
		where = append(where, fmt.Sprintf("manager_id=$%d", len(args)))
	}

	sel := `SELECT ` + cols + ` FROM vehicles`
	if len(where) > 0 {
		sel += ` WHERE ` + strings.Join(where, " AND ")
	}
	sel += ` ORDER BY id DESC`

	rows, err := q.Query(ctx, sel, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	out := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := scan(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repo) SetImage(ctx context.Context, q database.Querier, img model.VehicleImage) error {
	const upd = `
UPDATE vehicles
SET image=$2, image_content_type=$3, image_size=$4, updated_at=NOW()
WHERE id=$1`
	var data any
	var ct, size any
	if img.Data != nil {
		data, ct, size = img.Data, img.ContentType, img.Size
	}
	tag, err := q.Exec(ctx, upd, img.VehicleID, data, ct, size)
	if err != nil {
		return fmt.Errorf("set vehicle image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %d: %w", img.VehicleID, pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) Image(ctx context.Context, q database.Querier, id int64) (*model.VehicleImage, error) {
	const sel = `
SELECT image, image_content_type, image_size
FROM vehicles
WHERE id=$1 AND image IS NOT NULL`
	img := &model.VehicleImage{VehicleID: id}
	if err := q.QueryRow(ctx, sel, id).Scan(&img.Data, &img.ContentType, &img.Size); err != nil {
		return nil, fmt.Errorf("vehicle %d image: %w", id, err)
	}
	return img, nil
}

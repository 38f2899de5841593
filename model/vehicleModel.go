// model/vehicle.go
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleRented      VehicleStatus = "RENTED"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleRented, VehicleMaintenance:
		return true
	}
	return false
}

type FuelType string

const (
	FuelGasoline FuelType = "GASOLINE"
	FuelDiesel   FuelType = "DIESEL"
	FuelElectric FuelType = "ELECTRIC"
	FuelHybrid   FuelType = "HYBRID"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelGasoline, FuelDiesel, FuelElectric, FuelHybrid:
		return true
	}
	return false
}

type Transmission string

const (
	TransmissionManual    Transmission = "MANUAL"
	TransmissionAutomatic Transmission = "AUTOMATIC"
)

func (t Transmission) Valid() bool { return t == TransmissionManual || t == TransmissionAutomatic }

type Vehicle struct {
	ID           int64           `json:"id"`
	PlateNumber  string          `json:"plate_number"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Capacity     int             `json:"capacity"`
	FuelType     FuelType        `json:"fuel_type"`
	Transmission Transmission    `json:"transmission"`
	RatePerDay   decimal.Decimal `json:"rate_per_day"`
	Status       VehicleStatus   `json:"status"`
	Description  *string         `json:"description,omitempty"`
	ManagerID    int64           `json:"manager_id"`
	HasImage     bool            `json:"has_image"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsBookable is the single source of truth for the legacy availability flag.
func (v Vehicle) IsBookable() bool { return v.Status == VehicleAvailable }

// MarshalJSON adds the derived availability flag clients still read.
func (v Vehicle) MarshalJSON() ([]byte, error) {
	type plain Vehicle
	return json.Marshal(struct {
		plain
		Availability bool `json:"availability"`
	}{plain(v), v.IsBookable()})
}

type VehicleImage struct {
	VehicleID   int64
	ContentType string
	Size        int64
	Data        []byte
}

// VehicleRequest is the create/update vehicle payload
// swagger:model VehicleRequest
type VehicleRequest struct {
	PlateNumber  string          `json:"plate_number" validate:"required"`
	Brand        string          `json:"brand" validate:"required"`
	Model        string          `json:"model" validate:"required"`
	Year         int             `json:"year" validate:"required,gte=1886"`
	Capacity     int             `json:"capacity" validate:"required,gte=1"`
	FuelType     FuelType        `json:"fuel_type" validate:"required"`
	Transmission Transmission    `json:"transmission" validate:"required"`
	RatePerDay   decimal.Decimal `json:"rate_per_day" validate:"money"`
	Status       VehicleStatus   `json:"status"`
	Description  string          `json:"description" validate:"max=500"`
}

package booking

import (
	"time"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	"github.com/wayddd1/VanEaseRentalSystem/service/pricing"
)

type QuoteReq struct {
	VehicleID int64  `json:"vehicle_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type StatusReq struct {
	Status string `json:"status" validate:"required"`
}

// BookingResp renders calendar dates as YYYY-MM-DD.
type BookingResp struct {
	ID              int64               `json:"id"`
	VehicleID       int64               `json:"vehicle_id"`
	UserID          int64               `json:"user_id"`
	StartDate       string              `json:"start_date"`
	EndDate         string              `json:"end_date"`
	PickupLocation  string              `json:"pickup_location"`
	DropoffLocation string              `json:"dropoff_location"`
	Status          model.BookingStatus `json:"status"`
	TotalDays       int64               `json:"total_days"`
	TotalPrice      string              `json:"total_price"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toResp(b *model.Booking) BookingResp {
	return BookingResp{
		ID:              b.ID,
		VehicleID:       b.VehicleID,
		UserID:          b.UserID,
		StartDate:       b.StartDate.Format(pricing.DateLayout),
		EndDate:         b.EndDate.Format(pricing.DateLayout),
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		Status:          b.Status,
		TotalDays:       b.TotalDays,
		TotalPrice:      b.TotalPrice.StringFixed(2),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toList(bs []model.Booking) []BookingResp {
	out := make([]BookingResp, 0, len(bs))
	for i := range bs {
		out = append(out, toResp(&bs[i]))
	}
	return out
}

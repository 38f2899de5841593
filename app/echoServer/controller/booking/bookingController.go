package booking

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/jwtx"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/respond"
	"github.com/wayddd1/VanEaseRentalSystem/model"
	bookingsvc "github.com/wayddd1/VanEaseRentalSystem/service/booking"
)

type Controller struct {
	Svc bookingsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/bookings
// @Summary      Book a vehicle
// @Description  Creates a PENDING booking for an inclusive date range; overlapping ranges are rejected
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  model.BookingRequest  true  "Booking payload"
// @Success      201  {object}  BookingResp
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any "vehicle not found"
// @Failure      409  {object}  map[string]any "vehicle already booked"
// @Router       /v1/bookings [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.BookingRequest
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	b, err := h.Svc.Create(c.Request().Context(), jwtx.Identity(c), req)
	if err != nil {
		return respond.Err(c, h.Log, "booking create", err)
	}
	return c.JSON(http.StatusCreated, toResp(b))
}

// POST /v1/bookings/quote
// @Summary      Price a date range
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  QuoteReq  true  "Quote payload"
// @Success      200  {object}  map[string]any
// @Router       /v1/bookings/quote [post]
func (h *Controller) Quote(c echo.Context) error {
	var req QuoteReq
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	q, err := h.Svc.Quote(c.Request().Context(), req.VehicleID, req.StartDate, req.EndDate)
	if err != nil {
		return respond.Err(c, h.Log, "booking quote", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"vehicle_id":  q.VehicleID,
		"start_date":  q.StartDate,
		"end_date":    q.EndDate,
		"available":   q.Available,
		"total_days":  q.TotalDays,
		"total_price": q.TotalPrice.StringFixed(2),
	})
}

// GET /v1/bookings/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	b, err := h.Svc.Get(c.Request().Context(), jwtx.Identity(c), id)
	if err != nil {
		return respond.Err(c, h.Log, "booking detail", err)
	}
	return c.JSON(http.StatusOK, toResp(b))
}

// GET /v1/bookings  (manager, admin)
func (h *Controller) List(c echo.Context) error {
	return h.list(c, "booking list", h.Svc.ListAll)
}

// GET /v1/bookings/my
func (h *Controller) Mine(c echo.Context) error {
	return h.list(c, "booking mine", h.Svc.ListMine)
}

// GET /v1/bookings/my/upcoming
func (h *Controller) Upcoming(c echo.Context) error {
	return h.list(c, "booking upcoming", h.Svc.Upcoming)
}

// GET /v1/bookings/my/past
func (h *Controller) Past(c echo.Context) error {
	return h.list(c, "booking past", h.Svc.Past)
}

// GET /v1/bookings/active
func (h *Controller) Active(c echo.Context) error {
	return h.list(c, "booking active", h.Svc.ListActive)
}

// GET /v1/bookings/status/:status
func (h *Controller) ByStatus(c echo.Context) error {
	rows, err := h.Svc.ListByStatus(c.Request().Context(), jwtx.Identity(c), c.Param("status"))
	if err != nil {
		return respond.Err(c, h.Log, "booking by status", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toList(rows)})
}

// GET /v1/bookings/vehicle/:vehicleId  (manager, admin)
func (h *Controller) ByVehicle(c echo.Context) error {
	vid, ok, err := respond.ID(c, "vehicleId")
	if !ok {
		return err
	}
	rows, err := h.Svc.ListByVehicle(c.Request().Context(), jwtx.Identity(c), vid)
	if err != nil {
		return respond.Err(c, h.Log, "booking by vehicle", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toList(rows)})
}

// PATCH /v1/bookings/:id/status
// @Summary      Move a booking through its lifecycle
// @Description  Customers may only cancel their own bookings; managers and admins may confirm, start, complete, reject or cancel
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  StatusReq  true  "Target status"
// @Success      200  {object}  BookingResp
// @Failure      403  {object}  map[string]any
// @Failure      409  {object}  map[string]any "illegal transition"
// @Router       /v1/bookings/{id}/status [patch]
func (h *Controller) UpdateStatus(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	var req StatusReq
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	b, err := h.Svc.UpdateStatus(c.Request().Context(), jwtx.Identity(c), id, req.Status)
	if err != nil {
		return respond.Err(c, h.Log, "booking status", err)
	}
	return c.JSON(http.StatusOK, toResp(b))
}

// DELETE /v1/bookings/:id
func (h *Controller) Delete(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), jwtx.Identity(c), id); err != nil {
		return respond.Err(c, h.Log, "booking delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type listFn func(ctx context.Context, who model.Identity) ([]model.Booking, error)

func (h *Controller) list(c echo.Context, op string, fn listFn) error {
	rows, err := fn(c.Request().Context(), jwtx.Identity(c))
	if err != nil {
		return respond.Err(c, h.Log, op, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toList(rows)})
}

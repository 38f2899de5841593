package payment

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/jwtx"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/respond"
	"github.com/wayddd1/VanEaseRentalSystem/model"
	paymentsvc "github.com/wayddd1/VanEaseRentalSystem/service/payment"
)

type Controller struct {
	Svc paymentsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type StatusReq struct {
	Status string `json:"status" validate:"required"`
}

// POST /v1/payments
// @Summary      Pay for a booking
// @Description  CASH_ON_HAND stays PENDING, GCASH needs proof_url, PAYPAL is verified against the PayPal order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  model.PaymentRequest  true  "Payment payload"
// @Success      201  {object}  model.Payment
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "booking already paid or not payable"
// @Router       /v1/payments [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.PaymentRequest
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	p, err := h.Svc.Create(c.Request().Context(), jwtx.Identity(c), req)
	if err != nil {
		return respond.Err(c, h.Log, "payment create", err)
	}
	return c.JSON(http.StatusCreated, p)
}

// GET /v1/payments/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	p, err := h.Svc.Get(c.Request().Context(), jwtx.Identity(c), id)
	if err != nil {
		return respond.Err(c, h.Log, "payment detail", err)
	}
	return c.JSON(http.StatusOK, p)
}

// GET /v1/payments/booking/:bookingId
func (h *Controller) ByBooking(c echo.Context) error {
	bid, ok, err := respond.ID(c, "bookingId")
	if !ok {
		return err
	}
	rows, err := h.Svc.ListByBooking(c.Request().Context(), jwtx.Identity(c), bid)
	if err != nil {
		return respond.Err(c, h.Log, "payment by booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/payments/status/:status  (manager, admin)
func (h *Controller) ByStatus(c echo.Context) error {
	rows, err := h.Svc.ListByStatus(c.Request().Context(), jwtx.Identity(c), c.Param("status"))
	if err != nil {
		return respond.Err(c, h.Log, "payment by status", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/payments/method/:method  (manager, admin)
func (h *Controller) ByMethod(c echo.Context) error {
	rows, err := h.Svc.ListByMethod(c.Request().Context(), jwtx.Identity(c), c.Param("method"))
	if err != nil {
		return respond.Err(c, h.Log, "payment by method", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// PATCH /v1/payments/:id/status  (manager, admin)
func (h *Controller) UpdateStatus(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	var req StatusReq
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	p, err := h.Svc.UpdateStatus(c.Request().Context(), jwtx.Identity(c), id, req.Status)
	if err != nil {
		return respond.Err(c, h.Log, "payment status", err)
	}
	return c.JSON(http.StatusOK, p)
}

// POST /v1/payments/:id/refund  (manager, admin)
// @Summary      Refund a payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Payment
// @Failure      403  {object}  map[string]any
// @Failure      409  {object}  map[string]any "payment is not refundable"
// @Router       /v1/payments/{id}/refund [post]
func (h *Controller) Refund(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	p, err := h.Svc.Refund(c.Request().Context(), jwtx.Identity(c), id)
	if err != nil {
		return respond.Err(c, h.Log, "payment refund", err)
	}
	return c.JSON(http.StatusOK, p)
}

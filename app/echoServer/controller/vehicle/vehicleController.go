package vehicle

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/jwtx"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/respond"
	"github.com/wayddd1/VanEaseRentalSystem/model"
	vehiclesvc "github.com/wayddd1/VanEaseRentalSystem/service/vehicle"
)

type Controller struct {
	Svc vehiclesvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type StatusReq struct {
	Status string `json:"status" validate:"required"`
}

// GET /v1/vehicles?status=&available=
// @Summary      List vehicles
// @Tags         vehicles
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "AVAILABLE, RENTED or MAINTENANCE"
// @Param        available  query  bool    false  "only bookable vehicles"
// @Success      200  {object}  map[string]any
// @Router       /v1/vehicles [get]
func (h *Controller) List(c echo.Context) error {
	available, _ := strconv.ParseBool(c.QueryParam("available"))
	rows, err := h.Svc.List(c.Request().Context(), c.QueryParam("status"), available)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/vehicles/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	v, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle detail", err)
	}
	return c.JSON(http.StatusOK, v)
}

// POST /v1/vehicles  (manager, admin)
// @Summary      Create vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  model.VehicleRequest  true  "Vehicle payload"
// @Success      201  {object}  model.Vehicle
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      409  {object}  map[string]any "plate number taken"
// @Router       /v1/vehicles [post]
func (h *Controller) Create(c echo.Context) error {
	var req model.VehicleRequest
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	v, err := h.Svc.Create(c.Request().Context(), jwtx.Identity(c), req)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle create", err)
	}
	return c.JSON(http.StatusCreated, v)
}

// PUT /v1/vehicles/:id  (manager, admin)
func (h *Controller) Update(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	var req model.VehicleRequest
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	v, err := h.Svc.Update(c.Request().Context(), jwtx.Identity(c), id, req)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle update", err)
	}
	return c.JSON(http.StatusOK, v)
}

// PATCH /v1/vehicles/:id/status  (manager, admin)
func (h *Controller) SetStatus(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	var req StatusReq
	if ok, err := respond.Bind(c, h.V, h.Log, &req); !ok {
		return err
	}
	v, err := h.Svc.SetStatus(c.Request().Context(), jwtx.Identity(c), id, req.Status)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle status", err)
	}
	return c.JSON(http.StatusOK, v)
}

// DELETE /v1/vehicles/:id  (manager, admin)
func (h *Controller) Delete(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), jwtx.Identity(c), id); err != nil {
		return respond.Err(c, h.Log, "vehicle delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PUT /v1/vehicles/:id/image  (manager, admin)
// Accepts multipart form field "image" or the raw image as the request body.
// @Summary      Upload vehicle image
// @Tags         vehicles
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "jpeg, png or gif up to 5 MB"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/vehicles/{id}/image [put]
func (h *Controller) UploadImage(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}

	var src io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "image file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot read image"})
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(io.LimitReader(src, vehiclesvc.MaxImageSize+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot read image"})
	}

	img, err := h.Svc.SetImage(c.Request().Context(), jwtx.Identity(c), id, data)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle image upload", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"vehicle_id":   img.VehicleID,
		"content_type": img.ContentType,
		"size":         img.Size,
	})
}

// GET /v1/vehicles/:id/image
func (h *Controller) Image(c echo.Context) error {
	id, ok, err := respond.ID(c, "id")
	if !ok {
		return err
	}
	img, err := h.Svc.Image(c.Request().Context(), id)
	if err != nil {
		return respond.Err(c, h.Log, "vehicle image", err)
	}
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}

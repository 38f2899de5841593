// Package respond turns service results into echo responses.
package respond

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/validation"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
)

// Status maps a service error code onto its HTTP status.
func Status(code svcerr.ErrCode) int {
	switch code {
	case svcerr.ErrNotFound:
		return http.StatusNotFound
	case svcerr.ErrConflict, svcerr.ErrInvalidState:
		return http.StatusConflict
	case svcerr.ErrInvalidInput:
		return http.StatusBadRequest
	case svcerr.ErrUnauthorized:
		return http.StatusForbidden
	case svcerr.ErrUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Err writes err as {"message": ...}. Uncoded errors are logged with the
// request id and hidden behind a generic message.
func Err(c echo.Context, log *slog.Logger, op string, err error) error {
	code := svcerr.Code(err)
	status := Status(code)
	if status == http.StatusInternalServerError {
		if log == nil {
			log = slog.Default()
		}
		log.Error(op+" failed",
			"err", err,
			"req_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"path", c.Path(),
			"method", c.Request().Method,
		)
		return c.JSON(status, echo.Map{"message": "internal error"})
	}
	return c.JSON(status, echo.Map{"message": svcerr.Message(err), "code": code})
}

// Bind decodes the body into dst and validates it.
// ok is false when a 400 has already been written.
func Bind(c echo.Context, v *validator.Validate, log *slog.Logger, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		if log != nil {
			log.Warn("bind failed", "path", c.Path(), "err", err)
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	var err error
	if v != nil {
		err = v.Struct(dst)
	} else {
		err = c.Validate(dst)
	}
	if err != nil {
		if log != nil {
			log.Warn("validation failed", "path", c.Path(), "err", err)
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	return true, nil
}

// ID parses a positive int64 path parameter.
// ok is false when a 400 has already been written.
func ID(c echo.Context, name string) (int64, bool, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid " + name})
	}
	return id, true, nil
}

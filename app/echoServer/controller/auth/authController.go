// app/echoServer/controller/auth/authController.go
package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/jwtx"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/respond"
	"github.com/wayddd1/VanEaseRentalSystem/model"
	authsvc "github.com/wayddd1/VanEaseRentalSystem/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Register a new user
// @Summary      Register user
// @Description  Register a customer account; email must be unique. Staff accounts are created by an admin.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RegisterReq  true  "Register payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email already registered"
// @Failure      500  {object}  map[string]any "internal server error"
// @Router       /v1/users/register [post]
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if ok, err := respond.Bind(c, ct.V, ct.Log, &req); !ok {
		return err
	}

	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return respond.Err(c, ct.Log, "register", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"user":    u,
		"token":   token,
	})
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns JWT
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if ok, err := respond.Bind(c, ct.V, ct.Log, &req); !ok {
		return err
	}

	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return respond.Err(c, ct.Log, "login", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login success",
		"token":   token,
		"user":    u,
	})
}

// Me
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.User
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/users/me [get]
func (ct *Controller) Me(c echo.Context) error {
	who := jwtx.Identity(c)
	u, err := ct.Svc.Me(c.Request().Context(), who.UserID)
	if err != nil {
		return respond.Err(c, ct.Log, "me", err)
	}
	return c.JSON(http.StatusOK, u)
}

// CreateUser (admin)
// @Summary      Create account with a role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  model.CreateUserReq  true  "Account payload"
// @Success      201  {object}  model.User
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email already registered"
// @Router       /v1/users [post]
func (ct *Controller) CreateUser(c echo.Context) error {
	var req model.CreateUserReq
	if ok, err := respond.Bind(c, ct.V, ct.Log, &req); !ok {
		return err
	}
	u, err := ct.Svc.CreateUser(c.Request().Context(), jwtx.Identity(c), req)
	if err != nil {
		return respond.Err(c, ct.Log, "create user", err)
	}
	ct.Log.Info("user created", "id", u.ID, "role", u.Role, "by", jwtx.Identity(c).UserID)
	return c.JSON(http.StatusCreated, u)
}

package echoServer

import (
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/auth"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/booking"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/payment"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/vehicle"
)

type C struct {
	Auth      *auth.Controller
	Vehicle   *vehicle.Controller
	Booking   *booking.Controller
	Payment   *payment.Controller
	JWTSecret string
	Log       *slog.Logger
}

func Register(e *echo.Echo, c C) {
	if c.Log == nil {
		c.Log = slog.Default()
	}

	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		SigningMethod: "HS256",
		NewClaimsFunc: func(echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
		ErrorHandler: func(ctx echo.Context, err error) error {
			c.Log.Warn("[AUTH] jwt rejected", "err", err, "req_id", ctx.Response().Header().Get(echo.HeaderXRequestID), "ip", ctx.RealIP())
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		},
	}))
	auth.Use(Identity(c.Log))

	auth.GET("/users/me", c.Auth.Me)
	auth.POST("/users", c.Auth.CreateUser)

	// Vehicles
	auth.GET("/vehicles", c.Vehicle.List)
	auth.GET("/vehicles/:id", c.Vehicle.Detail)
	auth.GET("/vehicles/:id/image", c.Vehicle.Image)
	auth.POST("/vehicles", c.Vehicle.Create)
	auth.PUT("/vehicles/:id", c.Vehicle.Update)
	auth.PATCH("/vehicles/:id/status", c.Vehicle.SetStatus)
	auth.PUT("/vehicles/:id/image", c.Vehicle.UploadImage)
	auth.DELETE("/vehicles/:id", c.Vehicle.Delete)

	// Bookings
	auth.POST("/bookings", c.Booking.Create)
	auth.POST("/bookings/quote", c.Booking.Quote)
	auth.GET("/bookings", c.Booking.List)
	auth.GET("/bookings/my", c.Booking.Mine)
	auth.GET("/bookings/my/upcoming", c.Booking.Upcoming)
	auth.GET("/bookings/my/past", c.Booking.Past)
	auth.GET("/bookings/active", c.Booking.Active)
	auth.GET("/bookings/status/:status", c.Booking.ByStatus)
	auth.GET("/bookings/vehicle/:vehicleId", c.Booking.ByVehicle)
	auth.GET("/bookings/:id", c.Booking.Detail)
	auth.PATCH("/bookings/:id/status", c.Booking.UpdateStatus)
	auth.DELETE("/bookings/:id", c.Booking.Delete)

	// Payments
	auth.POST("/payments", c.Payment.Create)
	auth.GET("/payments/:id", c.Payment.Detail)
	auth.GET("/payments/booking/:bookingId", c.Payment.ByBooking)
	auth.GET("/payments/status/:status", c.Payment.ByStatus)
	auth.GET("/payments/method/:method", c.Payment.ByMethod)
	auth.PATCH("/payments/:id/status", c.Payment.UpdateStatus)
	auth.POST("/payments/:id/refund", c.Payment.Refund)
}

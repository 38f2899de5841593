// Package main VanEase API.
//
// @title           VanEase Rental API
// @version         1.0
// @description     Van rental backend (vehicles, bookings, payments, users).
// @contact.name    VanEase Team
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer"
	authctrl "github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/auth"
	bookingctrl "github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/booking"
	paymentctrl "github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/payment"
	vehiclectrl "github.com/wayddd1/VanEaseRentalSystem/app/echoServer/controller/vehicle"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/validation"
	"github.com/wayddd1/VanEaseRentalSystem/config"
	authrepo "github.com/wayddd1/VanEaseRentalSystem/repository/auth"
	bookingrepo "github.com/wayddd1/VanEaseRentalSystem/repository/booking"
	"github.com/wayddd1/VanEaseRentalSystem/repository/events"
	paymentrepo "github.com/wayddd1/VanEaseRentalSystem/repository/payment"
	paypalrepo "github.com/wayddd1/VanEaseRentalSystem/repository/paypal"
	vehiclerepo "github.com/wayddd1/VanEaseRentalSystem/repository/vehicle"
	authsvc "github.com/wayddd1/VanEaseRentalSystem/service/auth"
	bookingsvc "github.com/wayddd1/VanEaseRentalSystem/service/booking"
	paymentsvc "github.com/wayddd1/VanEaseRentalSystem/service/payment"
	vehiclesvc "github.com/wayddd1/VanEaseRentalSystem/service/vehicle"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	// DB: pgx pool
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			log.Error("migrate failed", "err", err)
			os.Exit(1)
		}
	}

	// events
	var pub events.Publisher
	if cfg.AMQPURL != "" {
		pub, err = events.NewAMQP(cfg.AMQPURL, log)
		if err != nil {
			log.Error("amqp connect failed", "err", err)
			os.Exit(1)
		}
	} else {
		pub = events.NewLog(log)
	}
	defer pub.Close()

	// repos
	ar := authrepo.New(db.Q())
	vr := vehiclerepo.New()
	br := bookingrepo.New()
	pr := paymentrepo.New()
	pp := paypalrepo.NewHTTP(cfg.PayPal.BaseURL, cfg.PayPal.ClientID, cfg.PayPal.Secret, cfg.PayPal.Timeout)

	// services
	machine := &bookingsvc.Machine{Bookings: br, Vehicles: vr, Payments: pr}
	as := authsvc.New(ar, cfg.JWTSecret, cfg.JWTTTLHours)
	vs := vehiclesvc.New(db, vr, br, log)
	bs := bookingsvc.New(db, br, vr, pr, pub, log)
	ps := paymentsvc.New(paymentsvc.Deps{
		Tx:       db,
		Payments: pr,
		Bookings: br,
		Machine:  machine,
		PayPal:   pp,
		Timeout:  cfg.PayPal.Timeout,
		Pub:      pub,
		Log:      log,
	})

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		created, err := as.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Error("bootstrap admin failed", "err", err)
			os.Exit(1)
		}
		if created {
			log.Info("bootstrap admin created", "email", cfg.Admin.Email)
		}
	}

	// workers
	if cfg.PendingTTL > 0 && cfg.ExpiryInterval > 0 {
		expirer := &bookingsvc.Expirer{
			Tx:       db,
			Bookings: br,
			Payments: pr,
			Machine:  machine,
			Pub:      pub,
			Log:      log,
			TTL:      cfg.PendingTTL,
		}
		go expirer.Run(ctx, cfg.ExpiryInterval)
	}

	// controllers
	v := validation.Engine()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	vehicleC := &vehiclectrl.Controller{Svc: vs, V: v, Log: log}
	bookingC := &bookingctrl.Controller{Svc: bs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, V: v, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	echoServer.RegisterMiddlewares(e, echoServer.MiddlewareOpts{
		Log:            log,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":  "degraded",
				"message": "database unreachable",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Vehicle: vehicleC,
		Booking: bookingC,
		Payment: paymentC,

		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port, "env", cfg.Env)

	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", "grace", cfg.ShutdownGrace)

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}

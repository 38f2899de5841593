package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the process environment; a .env file in the working directory,
// if present, fills keys that are not already set.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env failed", "err", err)
	}

	cfg := App{
		Port:           getenv("APP_PORT", "8080"),
		DatabaseURL:    must("DATABASE_URL"),
		DBMaxConns:     int32(getint("DB_MAX_CONNS", 20)),
		MigrateOnStart: getbool("MIGRATE_ON_START", true),
		JWTSecret:      getenv("JWT_SECRET", "local_dev_secret"),
		JWTTTLHours:    getint("JWT_TTL_HOURS", 24),
		Env:            getenv("APP_ENV", "dev"),
		LogLevel:       getenv("LOG_LEVEL", "INFO"),
		PayPal: PayPal{
			BaseURL:  strings.TrimRight(getenv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"), "/"),
			ClientID: os.Getenv("PAYPAL_CLIENT_ID"),
			Secret:   os.Getenv("PAYPAL_SECRET"),
			Timeout:  getduration("PAYPAL_TIMEOUT", 10*time.Second),
		},
		AMQPURL:        os.Getenv("AMQP_URL"),
		RateLimitRPS:   getfloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getint("RATE_LIMIT_BURST", 20),
		ShutdownGrace:  getduration("SHUTDOWN_GRACE", 10*time.Second),
		PendingTTL:     getduration("PENDING_BOOKING_TTL", 24*time.Hour),
		ExpiryInterval: getduration("EXPIRY_INTERVAL", 10*time.Minute),
		Admin: Admin{
			Name:     getenv("ADMIN_NAME", "Administrator"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "local_dev_secret" {
		slog.Error("JWT_SECRET must be set outside dev", "env", cfg.Env)
		panic("missing env JWT_SECRET")
	}
	return cfg
}

// SlogLevel maps LOG_LEVEL onto slog levels; unknown values mean INFO.
func (a App) SlogLevel() slog.Level {
	switch strings.ToUpper(strings.TrimSpace(a.LogLevel)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if n, err := strconv.Atoi(getenv(k, "")); err == nil {
		return n
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getenv(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getbool(k string, def bool) bool {
	if b, err := strconv.ParseBool(getenv(k, "")); err == nil {
		return b
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getenv(k, "")); err == nil {
		return d
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

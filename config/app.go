package config

import "time"

type App struct {
	Port           string        `env:"APP_PORT" default:"8080"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	DBMaxConns     int32         `env:"DB_MAX_CONNS" default:"20"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" default:"true"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	JWTTTLHours    int           `env:"JWT_TTL_HOURS" default:"24"`
	Env            string        `env:"APP_ENV" default:"dev"`
	LogLevel       string        `env:"LOG_LEVEL" default:"INFO"`
	PayPal         PayPal        `env:"PAYPAL"`
	AMQPURL        string        `env:"AMQP_URL"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" default:"20"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" default:"10s"`
	PendingTTL     time.Duration `env:"PENDING_BOOKING_TTL" default:"24h"`
	ExpiryInterval time.Duration `env:"EXPIRY_INTERVAL" default:"10m"`
	Admin          Admin         `env:"ADMIN"`
}

// Admin is the bootstrap account created at startup when both fields are set.
type Admin struct {
	Name     string `env:"ADMIN_NAME" default:"Administrator"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

type PayPal struct {
	BaseURL  string        `env:"PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID string        `env:"PAYPAL_CLIENT_ID"`
	Secret   string        `env:"PAYPAL_SECRET"`
	Timeout  time.Duration `env:"PAYPAL_TIMEOUT" default:"10s"`
}

package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"surgepark/internal/engine"
	"surgepark/internal/places"
	"surgepark/internal/weather"
)

type Config struct {
	Port string `env:"PORT" env-default:"8080"`

	// DatabaseURL is a lib/pq connection string. When empty the server runs
	// on the in-memory store, which is only meant for local development.
	DatabaseURL string `env:"DATABASE_URL"`
	Migrate     bool   `env:"DB_MIGRATE" env-default:"false"`

	// AdminEmail and AdminPassword seed the first admin at boot when no
	// admin with that email exists yet.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTTTL     time.Duration `env:"JWT_TTL" env-default:"1h"`
	CORSOrigin []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Pricing engine.PricingConfig
	Weather weather.Config
	Places  places.Config

	Stripe   Stripe
	SendGrid SendGrid
	Twilio   Twilio
	AMQP     AMQP
	Jobs     Jobs

	// ViolationEmail receives parking violation reports.
	ViolationEmail string `env:"VIOLATION_REPORT_EMAIL"`
	// Timezone anchors request dates and clock times, and formats times in
	// notifications. Weekday and working-hour surge rules follow it.
	Timezone string `env:"TIMEZONE" env-default:"Europe/Rome"`
}

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `env:"STRIPE_CURRENCY" env-default:"eur"`
	SuccessURL    string `env:"STRIPE_SUCCESS_URL" env-default:"http://localhost:3000/en/reservations/create/confirmation/?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL     string `env:"STRIPE_CANCEL_URL" env-default:"http://localhost:3000/en/reservations/create/failed/?session_id={CHECKOUT_SESSION_ID}"`
}

type SendGrid struct {
	APIKey    string `env:"SENDGRID_API_KEY"`
	FromEmail string `env:"SENDGRID_FROM_EMAIL"`
	FromName  string `env:"SENDGRID_FROM_NAME" env-default:"SurgePark"`
}

type Twilio struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
}

type AMQP struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE" env-default:"surgepark.reservations"`
}

type Jobs struct {
	// SweepSchedule is a robfig/cron spec.
	SweepSchedule     string        `env:"SWEEP_SCHEDULE" env-default:"@every 5m"`
	PendingPaymentTTL time.Duration `env:"PENDING_PAYMENT_TTL" env-default:"30m"`
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// a missing .env is fine, the environment alone may be enough
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Pricing.Validate(); err != nil {
		return fmt.Errorf("pricing config: %w", err)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.Jobs.PendingPaymentTTL <= 0 {
		return fmt.Errorf("PENDING_PAYMENT_TTL must be positive")
	}
	return nil
}

// Location is the parsed Timezone; Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Description lists every variable with its description, for --help output.
func Description() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	// APIBaseURL is the booking API origin (bearer-token authenticated).
	APIBaseURL string

	// CRMBaseURL is the notification service origin. Separate deployment,
	// unauthenticated, best-effort only.
	CRMBaseURL string

	// StateDir holds the local state database (session record, payment
	// journal). Created on first use.
	StateDir string

	Payment PaymentConfig
}

type PaymentConfig struct {
	// CallbackAddr is the local listen address for the checkout callback
	// server. Port 0 picks a free port.
	CallbackAddr string

	// BrowserCommand overrides the platform default used to open the
	// checkout page (useful on headless machines).
	BrowserCommand string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	return Config{
		AppEnv:     env("APP_ENV", "dev"),
		APIBaseURL: env("BOOKING_API_URL", "http://localhost:5000"),
		CRMBaseURL: env("CRM_SERVICE_URL", "http://localhost:5001"),
		StateDir:   env("BOOKING_STATE_DIR", defaultStateDir()),
		Payment: PaymentConfig{
			CallbackAddr:   env("PAYMENT_CALLBACK_ADDR", "127.0.0.1:0"),
			BrowserCommand: os.Getenv("PAYMENT_BROWSER_COMMAND"),
		},
	}
}

func (c Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.db")
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bookingctl")
	}
	return ".bookingctl"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

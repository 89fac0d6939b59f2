package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `envconfig:"APP_NAME" default:"TRN Portal"`
	AppEnv         string        `envconfig:"APP_ENV" default:"development"`
	Port           string        `envconfig:"PORT" default:"8080"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	ShutdownPeriod time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	OTPTTL            time.Duration `envconfig:"OTP_TTL" default:"5m"`
	OTPResendCooldown time.Duration `envconfig:"OTP_RESEND_COOLDOWN" default:"0s"`
	OTPMaxAttempts    int           `envconfig:"OTP_MAX_ATTEMPTS" default:"0"`
	OTPSweepInterval  time.Duration `envconfig:"OTP_SWEEP_INTERVAL" default:"1m"`

	PhonePrefix     string `envconfig:"PHONE_PREFIX" default:"09"`
	AdminRosterFile string `envconfig:"ADMIN_ROSTER_FILE"`

	DefaultPositions []string `envconfig:"DEFAULT_POSITIONS" default:"Encoder,Supervisor,Registration Officer"`
	DefaultProvinces []string `envconfig:"DEFAULT_PROVINCES" default:"Abra,Cebu,Davao del Sur,Ilocos Norte,Metro Manila"`
	DefaultStatuses  []string `envconfig:"DEFAULT_STATUSES" default:"For Recapture,Recaptured,Cancelled"`

	// ProxyHeader names the client-IP header set by a reverse proxy. It is
	// honoured only for requests arriving from TrustedProxies.
	ProxyHeader    string   `envconfig:"PROXY_HEADER"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	LoginRateLimit        int `envconfig:"LOGIN_RATE_LIMIT" default:"5"`
	OTPRateLimitPerSecond int `envconfig:"OTP_RATE_LIMIT_PER_SECOND" default:"1"`
	OTPRateLimitBurst     int `envconfig:"OTP_RATE_LIMIT_BURST" default:"5"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.OTPTTL <= 0 {
		return Config{}, fmt.Errorf("OTP_TTL must be positive")
	}
	if cfg.OTPMaxAttempts < 0 {
		return Config{}, fmt.Errorf("OTP_MAX_ATTEMPTS must not be negative")
	}
	if !twoDigits(cfg.PhonePrefix) {
		return Config{}, fmt.Errorf("PHONE_PREFIX must be two digits, got %q", cfg.PhonePrefix)
	}
	if cfg.ProxyHeader != "" && len(cfg.TrustedProxies) == 0 {
		return Config{}, fmt.Errorf("TRUSTED_PROXIES must be set when PROXY_HEADER is")
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local/dev environment where
// Postgres and Redis may be replaced by in-memory backends.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

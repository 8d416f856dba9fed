package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/layer-3/walletauth/adapters/tokenizer"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// MinSigningSecretLength is the shortest HS256 secret accepted, in bytes
const MinSigningSecretLength = 32

// Config is the service configuration, read from WALLETAUTH_* variables
type Config struct {
	Addr            string        `env:"WALLETAUTH_ADDR"             envDefault:":9000"`
	SigningSecret   string        `env:"WALLETAUTH_SIGNING_SECRET,required,notEmpty"`
	AccessValidity  time.Duration `env:"WALLETAUTH_ACCESS_VALIDITY"  envDefault:"5m"`
	RefreshValidity time.Duration `env:"WALLETAUTH_REFRESH_VALIDITY" envDefault:"120h"`
	Store           string        `env:"WALLETAUTH_STORE"            envDefault:"memory"`
	RedisURL        string        `env:"WALLETAUTH_REDIS_URL"`
	SQLitePath      string        `env:"WALLETAUTH_SQLITE_PATH"      envDefault:"walletauth.db"`
	LogLevel        string        `env:"WALLETAUTH_LOG_LEVEL"        envDefault:"info"`
	Development     bool          `env:"WALLETAUTH_DEVELOPMENT"`
	EventsTopic     string        `env:"WALLETAUTH_EVENTS_TOPIC"     envDefault:"auth.login"`
	ShutdownTimeout time.Duration `env:"WALLETAUTH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings env tags cannot express
func (c Config) Validate() error {
	var errs []error

	if len(c.SigningSecret) < MinSigningSecretLength {
		errs = append(errs, fmt.Errorf("WALLETAUTH_SIGNING_SECRET must be at least %d bytes", MinSigningSecretLength))
	}

	if c.AccessValidity <= 0 {
		errs = append(errs, errors.New("WALLETAUTH_ACCESS_VALIDITY must be positive"))
	}
	if c.RefreshValidity <= 0 {
		errs = append(errs, errors.New("WALLETAUTH_REFRESH_VALIDITY must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("WALLETAUTH_SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.EventsTopic == "" {
		errs = append(errs, errors.New("WALLETAUTH_EVENTS_TOPIC must not be empty"))
	}

	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("WALLETAUTH_REDIS_URL is required for the redis store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("WALLETAUTH_SQLITE_PATH is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown WALLETAUTH_STORE %q", c.Store))
	}

	return errors.Join(errs...)
}

// Tokenizer returns the token settings
func (c Config) Tokenizer() tokenizer.Config {
	return tokenizer.Config{
		Secret:          []byte(c.SigningSecret),
		AccessValidity:  c.AccessValidity,
		RefreshValidity: c.RefreshValidity,
	}
}

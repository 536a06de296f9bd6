package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS,required,notEmpty" envSeparator:","`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16"`
	PostgresURL       string        `env:"POSTGRES_URL,required,notEmpty"`
	Port              int           `env:"PORT" envDefault:"5000"`
	Debug             bool          `env:"DEBUG"`
	CountdownDuration time.Duration `env:"COUNTDOWN_DURATION" envDefault:"3s"`
	PersistTimeout    time.Duration `env:"PERSIST_TIMEOUT" envDefault:"2s"`
	ClientRateLimit   float64       `env:"CLIENT_RATE_LIMIT" envDefault:"10"`
	ClientRateBurst   int           `env:"CLIENT_RATE_BURST" envDefault:"20"`
	PingInterval      time.Duration `env:"PING_INTERVAL" envDefault:"30s"`
	MaxCodeAttempts   int           `env:"MAX_CODE_ATTEMPTS" envDefault:"64"`
}

// Load reads the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

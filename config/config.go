package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Tontine   TontineConfig
	Reconcile ReconcileConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	Env          string        `env:"APP_ENV" envDefault:"development"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_DSN" envDefault:"chama:chama@tcp(localhost:3306)/chama?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

type JWTConfig struct {
	AccessSecret string        `env:"JWT_ACCESS_SECRET" envDefault:"change-me-in-production"`
	AccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	Issuer       string        `env:"JWT_ISSUER" envDefault:"chama"`
}

// PaymentConfig covers the inbound reconciliation webhook. When WebhookSecret
// is empty signature verification is skipped (local development only).
type PaymentConfig struct {
	WebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
}

type TontineConfig struct {
	DefaultMinMembers int           `env:"TONTINE_MIN_MEMBERS" envDefault:"2"`
	DefaultMaxMembers int           `env:"TONTINE_MAX_MEMBERS" envDefault:"30"`
	InviteTTL         time.Duration `env:"TONTINE_INVITE_TTL" envDefault:"168h"`
}

type ReconcileConfig struct {
	SweepInterval time.Duration `env:"RECONCILE_SWEEP_INTERVAL" envDefault:"10m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

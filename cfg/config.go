package cfg

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration, parsed from GOALPACT_*
// environment variables after an optional .env file is loaded.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	Postgres      PostgresConfig
	Redis         RedisConfig
	Observability ObservabilityConfig
	Outbox        OutboxConfig
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"goalpact"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"goalpact"`
	DBName   string `envconfig:"POSTGRES_DB" default:"goalpact"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

type RedisConfig struct {
	Host string `envconfig:"REDIS_HOST" default:"localhost"`
	Port string `envconfig:"REDIS_PORT" default:"6379"`
}

type ObservabilityConfig struct {
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"goalpact"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

type OutboxConfig struct {
	BatchSize int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	Interval  time.Duration `envconfig:"OUTBOX_INTERVAL" default:"2s"`
}

// Load reads configuration from the environment. A missing .env file is
// not an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var config Config
	if err := envconfig.Process("GOALPACT", &config); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return &config, nil
}

// DSN renders the Postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

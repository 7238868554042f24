// Package config loads process settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendBadger = "badger"
)

// Config is the configuration of cmd/server.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR,default=:8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	StoreBackend string `env:"STORE_BACKEND,default=sqlite" validate:"oneof=memory sqlite mysql badger"`
	SQLitePath   string `env:"SQLITE_PATH,default=restaurant.db" validate:"required_if=StoreBackend sqlite"`
	MySQLDSN     string `env:"MYSQL_DSN" validate:"required_if=StoreBackend mysql"`
	// BadgerPath empty keeps the badger log in memory.
	BadgerPath string `env:"BADGER_PATH"`

	// RedisAddr empty publishes through the in-process broker and disables
	// the product cache.
	RedisAddr       string        `env:"REDIS_ADDR"`
	ProductCacheTTL time.Duration `env:"PRODUCT_CACHE_TTL,default=5m" validate:"gt=0"`

	// CatalogAddr empty serves product lookups from CatalogFile.
	CatalogAddr        string        `env:"CATALOG_ADDR"`
	CatalogFile        string        `env:"CATALOG_FILE,default=config/catalog.yaml"`
	InquiryTimeout     time.Duration `env:"INQUIRY_TIMEOUT,default=2s" validate:"gt=0"`
	InquiryConcurrency int           `env:"INQUIRY_CONCURRENCY,default=8" validate:"gt=0"`

	MailboxSize     int           `env:"MAILBOX_SIZE,default=16" validate:"gt=0"`
	PublishRetry    time.Duration `env:"PUBLISH_RETRY_INTERVAL,default=500ms" validate:"gt=0"`
	BrokerBuffer    int           `env:"BROKER_BUFFER,default=64" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" validate:"omitempty,url"`
}

// CatalogConfig is the configuration of cmd/catalog.
type CatalogConfig struct {
	ListenAddr  string `env:"CATALOG_LISTEN_ADDR,default=:50051" validate:"required"`
	CatalogFile string `env:"CATALOG_FILE,default=config/catalog.yaml" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
}

func Load() (Config, error) {
	var cfg Config
	err := load(&cfg)
	return cfg, err
}

func LoadCatalog() (CatalogConfig, error) {
	var cfg CatalogConfig
	err := load(&cfg)
	return cfg, err
}

var validate = validator.New()

func load(dst any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}
	if _, err := env.UnmarshalFromEnviron(dst); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

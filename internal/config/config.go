// Package config loads the import service settings from environment variables.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the full process configuration. Every field is read from the
// variable named in its env tag.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`
	// Zero disables the write deadline; large imports answer only once
	// every row has been written.
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP and
	// X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// Store backends accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend string `env:"STORE_BACKEND" default:"postgres"`
}

// DatabaseConfig is the Postgres pool. URL is only required for the
// postgres backend.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// MongoConfig is the MongoDB connection used by the mongo backend.
type MongoConfig struct {
	URI            string        `env:"MONGO_URI" envAlt:"MONGODB_URI"`
	Database       string        `env:"MONGO_DATABASE" default:"catalog"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// ImportConfig bounds uploads and import concurrency.
type ImportConfig struct {
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800"` // bytes

	// MaxConcurrent imports run at once; further requests wait up to
	// MaxWaitTime for a slot.
	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// Workers writes rows of one import concurrently. Rows sharing a natural
	// key stay in file order; 1 keeps every row in file order.
	Workers int `env:"IMPORT_WORKERS" default:"1"`
}

// LoggingConfig selects the slog level (debug, info, warn, error) and
// handler format (text, json).
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr joins Host and Port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an explicit variable source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	d := decoder{lookup: lookup}
	if err := d.decode(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

var durationType = reflect.TypeOf(time.Duration(0))

// decoder fills tagged struct fields:
//
//	env      primary variable name
//	envAlt   fallback variable name
//	default  value used when neither variable is set
//	required fail when no value is found
type decoder struct {
	lookup LookupFunc
}

func (d decoder) decode(v reflect.Value) error {
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := d.decode(fv); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, found := d.value(name, sf.Tag.Get("envAlt"))
		if !found {
			if sf.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := assign(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// value returns the first non-empty variable among names.
func (d decoder) value(names ...string) (string, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v, ok := d.lookup(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		dur, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(dur))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type().Elem())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string
	problems = append(problems, c.Store.validate(c.Database, c.Mongo)...)
	problems = append(problems, c.Server.validate()...)
	problems = append(problems, c.Import.validate()...)
	problems = append(problems, c.Logging.validate()...)

	if len(problems) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (s StoreConfig) validate(db DatabaseConfig, mg MongoConfig) []string {
	var p []string
	switch strings.ToLower(s.Backend) {
	case BackendPostgres:
		if db.URL == "" {
			p = append(p, "DATABASE_URL is required when STORE_BACKEND=postgres")
		}
		if db.MaxConns <= 0 {
			p = append(p, "DB_MAX_CONNS must be positive")
		}
		if db.MinConns < 0 {
			p = append(p, "DB_MIN_CONNS must be non-negative")
		}
		if db.MaxConns < db.MinConns {
			p = append(p, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns))
		}
	case BackendMongo:
		if mg.URI == "" {
			p = append(p, "MONGO_URI is required when STORE_BACKEND=mongo")
		}
		if mg.Database == "" {
			p = append(p, "MONGO_DATABASE must not be empty")
		}
		if mg.ConnectTimeout <= 0 {
			p = append(p, "MONGO_CONNECT_TIMEOUT must be positive")
		}
	case BackendMemory:
	default:
		p = append(p, fmt.Sprintf("STORE_BACKEND (%q) must be one of: postgres, mongo, memory", s.Backend))
	}
	return p
}

func (s ServerConfig) validate() []string {
	var p []string
	if s.Port <= 0 || s.Port > 65535 {
		p = append(p, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		p = append(p, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		p = append(p, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return p
}

func (i ImportConfig) validate() []string {
	var p []string
	if i.MaxFileSize <= 0 {
		p = append(p, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if i.MaxConcurrent <= 0 {
		p = append(p, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if i.MaxWaitTime <= 0 {
		p = append(p, "IMPORT_MAX_WAIT_TIME must be positive")
	}
	if i.Timeout <= 0 {
		p = append(p, "IMPORT_TIMEOUT must be positive")
	}
	if i.Workers < 1 || i.Workers > 64 {
		p = append(p, fmt.Sprintf("IMPORT_WORKERS (%d) must be 1-64", i.Workers))
	}
	return p
}

func (l LoggingConfig) validate() []string {
	var p []string
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		p = append(p, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		p = append(p, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return p
}

// String renders the config for logging with connection strings masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %s}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Store: {Backend: %q}, ", c.Store.Backend)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		mask(c.Database.URL), c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Mongo: {URI: %s, Database: %q}, ", mask(c.Mongo.URI), c.Mongo.Database)
	fmt.Fprintf(&b, "Import: {MaxFileSize: %d, MaxConcurrent: %d, Workers: %d, Timeout: %s}, ",
		c.Import.MaxFileSize, c.Import.MaxConcurrent, c.Import.Workers, c.Import.Timeout)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}}", c.Logging.Level, c.Logging.Format)
	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}

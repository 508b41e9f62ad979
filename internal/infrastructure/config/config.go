package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Inventory InventoryConfig
	HTTP      HTTPConfig
	Log       LogConfig
}

// AppConfig identifies the service and the environment it runs in.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend  string // database, file
	FilePath string // batch document location when backend=file
}

// DatabaseConfig holds connection and pool settings.
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

// InventoryConfig holds batch identity and merge behavior settings.
type InventoryConfig struct {
	IdentityModel  string // name-strength-expiry, name-only
	ConflictPolicy string // reject, merge (name-only model)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load reads configuration with the following precedence, highest first:
// environment variables with the PHARMSTOCK_ prefix (e.g.
// PHARMSTOCK_DATABASE_PASSWORD), then config.toml, then built-in defaults.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App:       appConfig(v),
		Store:     storeConfig(v),
		Database:  databaseConfig(v),
		Inventory: inventoryConfig(v),
		HTTP:      httpConfig(v),
		Log:       logConfig(v),
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/pharmstock")
	v.AddConfigPath("/app")

	// A missing config file is fine; defaults and env vars cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("PHARMSTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

func appConfig(v *viper.Viper) AppConfig {
	return AppConfig{
		Name: v.GetString("app.name"),
		Env:  v.GetString("app.env"),
		Port: v.GetString("app.port"),
	}
}

func storeConfig(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Backend:  v.GetString("store.backend"),
		FilePath: v.GetString("store.file_path"),
	}
}

func databaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Driver:          v.GetString("database.driver"),
		Host:            v.GetString("database.host"),
		Port:            v.GetInt("database.port"),
		User:            v.GetString("database.user"),
		Password:        v.GetString("database.password"),
		DBName:          v.GetString("database.dbname"),
		SSLMode:         v.GetString("database.sslmode"),
		SQLitePath:      v.GetString("database.sqlite_path"),
		MaxOpenConns:    v.GetInt("database.max_open_conns"),
		MaxIdleConns:    v.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
	}
}

func inventoryConfig(v *viper.Viper) InventoryConfig {
	return InventoryConfig{
		IdentityModel:  v.GetString("inventory.identity_model"),
		ConflictPolicy: v.GetString("inventory.conflict_policy"),
	}
}

func httpConfig(v *viper.Viper) HTTPConfig {
	return HTTPConfig{
		ReadTimeout:      v.GetDuration("http.read_timeout"),
		WriteTimeout:     v.GetDuration("http.write_timeout"),
		IdleTimeout:      v.GetDuration("http.idle_timeout"),
		MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
		MaxBodySize:      v.GetInt64("http.max_body_size"),
		CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
		CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
	}
}

func logConfig(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: v.GetString("log.output"),
	}
}

func defaultString(target *string, fallback string) {
	if *target == "" {
		*target = fallback
	}
}

func defaultInt(target *int, fallback int) {
	if *target == 0 {
		*target = fallback
	}
}

func defaultDuration(target *time.Duration, fallback time.Duration) {
	if *target == 0 {
		*target = fallback
	}
}

// applyDefaults fills every field the file and environment left unset.
func applyDefaults(cfg *Config) {
	defaultString(&cfg.App.Name, "pharmstock-backend")
	defaultString(&cfg.App.Env, "development")
	defaultString(&cfg.App.Port, "8080")

	defaultString(&cfg.Store.Backend, "database")
	defaultString(&cfg.Store.FilePath, "data/inventory.json")

	defaultString(&cfg.Database.Driver, "postgres")
	defaultString(&cfg.Database.Host, "localhost")
	defaultInt(&cfg.Database.Port, 5432)
	defaultString(&cfg.Database.User, "postgres")
	defaultString(&cfg.Database.DBName, "pharmstock")
	defaultString(&cfg.Database.SSLMode, "disable")
	defaultString(&cfg.Database.SQLitePath, "data/pharmstock.db")
	defaultInt(&cfg.Database.MaxOpenConns, 25)
	defaultInt(&cfg.Database.MaxIdleConns, 5)
	defaultInt(&cfg.Database.ConnMaxLifetime, 60)
	defaultInt(&cfg.Database.ConnMaxIdleTime, 30)

	defaultString(&cfg.Inventory.IdentityModel, "name-strength-expiry")
	defaultString(&cfg.Inventory.ConflictPolicy, "reject")

	defaultDuration(&cfg.HTTP.ReadTimeout, 15*time.Second)
	defaultDuration(&cfg.HTTP.WriteTimeout, 15*time.Second)
	defaultDuration(&cfg.HTTP.IdleTimeout, 60*time.Second)
	defaultInt(&cfg.HTTP.MaxHeaderBytes, 1<<20)
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // payloads here are small
	}
	// CORS origins get no fallback on purpose: an empty list rejects all
	// cross-origin requests until origins are configured explicitly.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	defaultString(&cfg.Log.Level, "info")
	defaultString(&cfg.Log.Format, "console")
	defaultString(&cfg.Log.Output, "stdout")
}

func (c *Config) validate() error {
	enums := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"store.backend", c.Store.Backend, []string{"database", "file"}},
		{"database.driver", c.Database.Driver, []string{"postgres", "sqlite"}},
		{"inventory.identity_model", c.Inventory.IdentityModel, []string{"name-strength-expiry", "name-only"}},
		{"inventory.conflict_policy", c.Inventory.ConflictPolicy, []string{"reject", "merge"}},
	}
	for _, e := range enums {
		if !slices.Contains(e.allowed, e.value) {
			return fmt.Errorf("%s must be one of %s, got %q",
				e.field, strings.Join(e.allowed, ", "), e.value)
		}
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must not be negative, got %d", c.Database.MaxIdleConns)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) exceeds database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

// validateProduction enforces the settings a production deployment must not
// run without.
func (c *Config) validateProduction() error {
	if c.Store.Backend == "database" && c.Database.Driver == "postgres" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password must be set in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode 'disable' is not allowed in production")
		}
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
	}
	return nil
}

// DSN returns the postgres connection URL, escaping credentials that carry
// reserved characters.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

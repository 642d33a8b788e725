package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix          = "CHESSFORGE"
	defaultHTTPAddress = "0.0.0.0:8080"
	defaultLogLevel    = "info"

	// DriverSQLite selects the embedded file-backed store.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the external relational store.
	DriverPostgres = "postgres"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress string
	LogLevel    string
	Database    DatabaseConfig
}

// DatabaseConfig describes the relational store connection and pool behavior.
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	Name     string
	User     string
	Password string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	RetryMaxAttempts       int
	RetryBaseDelay         time.Duration
	RetryBackoffMultiplier float64
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("log.level", defaultLogLevel)

	configViper.SetDefault("database.driver", DriverSQLite)
	configViper.SetDefault("database.path", "chessforge.db")
	configViper.SetDefault("database.host", "localhost")
	configViper.SetDefault("database.port", 5432)
	configViper.SetDefault("database.name", "chessforge")
	configViper.SetDefault("database.user", "")
	configViper.SetDefault("database.password", "")

	configViper.SetDefault("database.max_open_conns", 20)
	configViper.SetDefault("database.max_idle_conns", 5)
	configViper.SetDefault("database.conn_max_idle_seconds", 300)
	configViper.SetDefault("database.conn_max_life_seconds", 1800)

	configViper.SetDefault("database.retry_max_attempts", 5)
	configViper.SetDefault("database.retry_base_delay_ms", 500)
	configViper.SetDefault("database.retry_backoff_multiplier", 2.0)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress: configViper.GetString("http.address"),
		LogLevel:    configViper.GetString("log.level"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
			Path:     configViper.GetString("database.path"),
			Host:     configViper.GetString("database.host"),
			Port:     configViper.GetInt("database.port"),
			Name:     configViper.GetString("database.name"),
			User:     configViper.GetString("database.user"),
			Password: configViper.GetString("database.password"),

			MaxOpenConns:    configViper.GetInt("database.max_open_conns"),
			MaxIdleConns:    configViper.GetInt("database.max_idle_conns"),
			ConnMaxIdleTime: time.Duration(configViper.GetInt("database.conn_max_idle_seconds")) * time.Second,
			ConnMaxLifetime: time.Duration(configViper.GetInt("database.conn_max_life_seconds")) * time.Second,

			RetryMaxAttempts:       configViper.GetInt("database.retry_max_attempts"),
			RetryBaseDelay:         time.Duration(configViper.GetInt("database.retry_base_delay_ms")) * time.Millisecond,
			RetryBackoffMultiplier: configViper.GetFloat64("database.retry_backoff_multiplier"),
		},
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.Host) == "" {
			return fmt.Errorf("database.host is required for the postgres driver")
		}
		if strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("database.name is required for the postgres driver")
		}
		if strings.TrimSpace(c.Database.User) == "" {
			return fmt.Errorf("database.user is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.RetryMaxAttempts < 1 {
		return fmt.Errorf("database.retry_max_attempts must be at least 1")
	}
	if c.Database.RetryBackoffMultiplier < 1 {
		return fmt.Errorf("database.retry_backoff_multiplier must be at least 1")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

var ErrUnknownDriver = errors.New("unknown storage driver")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env     string  `mapstructure:"env"`     // current application environment (local, dev, production etc)
	Storage Storage `mapstructure:"storage"` // remote store and question source
	Catalog Catalog `mapstructure:"catalog"` // certification metadata and quiz catalog
	Sync    Sync    `mapstructure:"sync"`    // background sync queue
}

// Storage selects and configures the remote store.
type Storage struct {
	Driver     string `mapstructure:"driver"`      // postgres or sqlite
	SQLitePath string `mapstructure:"sqlite_path"` // database file used by the sqlite driver
	DB         DB     `mapstructure:"database"`    // postgres pool settings
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Catalog configures the certification registry and catalog building.
type Catalog struct {
	MetadataPath      string `mapstructure:"metadata_path"`      // YAML file with certification metadata
	LookupConcurrency int    `mapstructure:"lookup_concurrency"` // parallel question-count lookups
	UnlockPolicy      string `mapstructure:"unlock_policy"`      // open or sequential
}

// Sync configures retries of remote writes and sign-out behaviour.
type Sync struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	InitialWait   time.Duration `mapstructure:"initial_wait"`
	MaxWait       time.Duration `mapstructure:"max_wait"`
	Multiplier    float64       `mapstructure:"multiplier"`
	FlushTimeout  time.Duration `mapstructure:"flush_timeout"`  // how long sign-out waits for pending writes
	ReconcileSpec string        `mapstructure:"reconcile_spec"` // cron spec, empty disables the reconciler
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom is Load with an explicit directory to search for config.yaml.
func LoadFrom(dir string) (*Config, error) {
	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.sqlite_path", "data/certprep.db")
	v.SetDefault("storage.database.max_connections", 20)
	v.SetDefault("storage.database.max_conn_lifetime", "30s")
	v.SetDefault("catalog.metadata_path", "assets/certifications.yaml")
	v.SetDefault("catalog.lookup_concurrency", 8)
	v.SetDefault("catalog.unlock_policy", "open")
	v.SetDefault("sync.max_attempts", 4)
	v.SetDefault("sync.initial_wait", "500ms")
	v.SetDefault("sync.max_wait", "10s")
	v.SetDefault("sync.multiplier", 2.0)
	v.SetDefault("sync.flush_timeout", "5s")
	v.SetDefault("sync.reconcile_spec", "@every 1m")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Storage.DB.URL = v.GetString("database_url")

	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.Storage.DB.URL == "" {
			return nil, ErrMissingEnvironmentVariables
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}

	return &cfg, nil
}

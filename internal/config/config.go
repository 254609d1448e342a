package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported values for Config.StoreBackend.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port         int    `envconfig:"PORT" default:"8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`
	DatabaseURL  string `envconfig:"DATABASE_URL" default:""`
	SQLitePath   string `envconfig:"SQLITE_PATH" default:"blueprints.db"`
	Version      string `envconfig:"VERSION" default:"dev"`
	APIKeyHash   string `envconfig:"API_KEY_HASH" default:""`
}

// Load reads the given dotenv files, when present, and then the environment
// into a Config struct. Variables already set in the environment take
// precedence over dotenv values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_BACKEND is sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (supported: postgres, sqlite)", c.StoreBackend)
	}
	return nil
}

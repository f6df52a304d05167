package database

import (
	"errors"
	"strings"
	"time"
)

const (
	// DriverPGX selects the pgx standard library adapter.
	DriverPGX Driver = "pgx"
	// DriverPostgres selects lib/pq.
	DriverPostgres Driver = "postgres"
	// DriverSQLite selects the pure Go SQLite driver.
	DriverSQLite Driver = "sqlite"

	postgresDefaultSchemaConstant = "public"
	sqliteDefaultSchemaConstant   = "main"
	defaultConnectTimeoutConstant = 15 * time.Second

	missingDatabaseURLMessageConstant = "database URL is not configured; set DATABASE_URL, DBSCRIPTS_DATABASE_URL, database.url, or --database-url"
	negativeTimeoutMessageConstant    = "database connect timeout must not be negative"
)

// ErrMissingURL reports that no connection string was injected.
var ErrMissingURL = errors.New(missingDatabaseURLMessageConstant)

// Driver identifies a registered database/sql driver.
type Driver string

// SupportedDrivers lists accepted driver identifiers in display order.
func SupportedDrivers() []string {
	return []string{string(DriverPGX), string(DriverPostgres), string(DriverSQLite)}
}

// Configuration captures how to reach the database.
type Configuration struct {
	URL            string        `mapstructure:"url"`
	Driver         string        `mapstructure:"driver"`
	Schema         string        `mapstructure:"schema"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DefaultConfiguration returns baseline values. The URL is intentionally empty:
// it must always come from the environment, a configuration file, or a flag.
// The schema stays empty so Sanitize can pick the default of the chosen driver.
func DefaultConfiguration() Configuration {
	return Configuration{
		Driver:         string(DriverPGX),
		ConnectTimeout: defaultConnectTimeoutConstant,
	}
}

// DefaultConfigurationValues exposes the defaults keyed for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + ".url":             defaults.URL,
		prefix + ".driver":          defaults.Driver,
		prefix + ".schema":          defaults.Schema,
		prefix + ".connect_timeout": defaults.ConnectTimeout.String(),
	}
}

// Sanitize trims values and fills in the driver and its default schema.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.URL = strings.TrimSpace(configuration.URL)
	sanitized.Driver = strings.ToLower(strings.TrimSpace(configuration.Driver))
	sanitized.Schema = strings.TrimSpace(configuration.Schema)

	if len(sanitized.Driver) == 0 {
		sanitized.Driver = string(DriverPGX)
	}

	if len(sanitized.Schema) == 0 {
		sanitized.Schema = postgresDefaultSchemaConstant
		if Driver(sanitized.Driver) == DriverSQLite {
			sanitized.Schema = sqliteDefaultSchemaConstant
		}
	}

	return sanitized
}

// Validate reports configuration problems detectable before connecting.
func (configuration Configuration) Validate() error {
	if len(configuration.URL) == 0 {
		return ErrMissingURL
	}
	if configuration.ConnectTimeout < 0 {
		return errors.New(negativeTimeoutMessageConstant)
	}
	if _, dialectError := newDialect(Driver(configuration.Driver), configuration.Schema); dialectError != nil {
		return dialectError
	}
	return nil
}

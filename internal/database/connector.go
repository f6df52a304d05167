package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	// Registered drivers selectable through Configuration.Driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	invalidConfigurationTemplateConstant = "invalid database configuration: %w"
	singleConnectionLimitConstant        = 1

	logMessageConnectingConstant = "Connecting to database"
	logMessageConnectedConstant  = "Database connection established"
	logMessageConnectFailed      = "Database connection failed"
	logFieldDriverConstant       = "driver"
	logFieldSchemaConstant       = "schema"
	logFieldTimeoutConstant      = "connect_timeout"
)

// Connector opens sessions against the configured database.
type Connector struct {
	configuration Configuration
	dialect       dialect
	logger        *zap.Logger
}

// NewConnector validates the configuration and prepares a connector.
func NewConnector(configuration Configuration, logger *zap.Logger) (*Connector, error) {
	sanitized := configuration.Sanitize()
	if validationError := sanitized.Validate(); validationError != nil {
		return nil, fmt.Errorf(invalidConfigurationTemplateConstant, validationError)
	}

	selectedDialect, dialectError := newDialect(Driver(sanitized.Driver), sanitized.Schema)
	if dialectError != nil {
		return nil, fmt.Errorf(invalidConfigurationTemplateConstant, dialectError)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Connector{configuration: sanitized, dialect: selectedDialect, logger: logger}, nil
}

// Open establishes exactly one pinned connection and verifies it with a ping.
// Every failure is reported as a *ConnectionError and leaves nothing open.
func (connector *Connector) Open(executionContext context.Context) (*Session, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	connector.logger.Debug(
		logMessageConnectingConstant,
		zap.String(logFieldDriverConstant, connector.configuration.Driver),
		zap.String(logFieldSchemaConstant, connector.configuration.Schema),
		zap.Duration(logFieldTimeoutConstant, connector.configuration.ConnectTimeout),
	)

	connectContext := executionContext
	if connector.configuration.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectContext, cancel = context.WithTimeout(executionContext, connector.configuration.ConnectTimeout)
		defer cancel()
	}

	pool, openError := sqlx.Open(connector.dialect.driverName, connector.configuration.URL)
	if openError != nil {
		return nil, connector.connectionFailure(openError)
	}
	pool.SetMaxOpenConns(singleConnectionLimitConstant)
	pool.SetMaxIdleConns(singleConnectionLimitConstant)

	connection, connectError := pool.Connx(connectContext)
	if connectError != nil {
		_ = pool.Close()
		return nil, connector.connectionFailure(connectError)
	}

	if pingError := connection.PingContext(connectContext); pingError != nil {
		_ = connection.Close()
		_ = pool.Close()
		return nil, connector.connectionFailure(pingError)
	}

	connector.logger.Debug(logMessageConnectedConstant, zap.String(logFieldDriverConstant, connector.configuration.Driver))

	return newSession(pool, connection, connector.dialect, connector.logger), nil
}

func (connector *Connector) connectionFailure(cause error) error {
	connectionError := &ConnectionError{Driver: connector.configuration.Driver, Err: cause}
	connector.logger.Warn(logMessageConnectFailed, zap.String(logFieldDriverConstant, connector.configuration.Driver), zap.Error(cause))
	return connectionError
}

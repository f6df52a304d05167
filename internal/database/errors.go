package database

import "fmt"

const (
	connectionErrorTemplateConstant = "unable to connect to database using driver %s: %v"
	queryErrorTemplateConstant      = "%s %s failed: %v"
)

// ConnectionError reports that no usable connection could be established.
// The connection string is never included because it carries credentials.
type ConnectionError struct {
	Driver string
	Err    error
}

func (connectionError *ConnectionError) Error() string {
	return fmt.Sprintf(connectionErrorTemplateConstant, connectionError.Driver, connectionError.Err)
}

// Unwrap exposes the driver error.
func (connectionError *ConnectionError) Unwrap() error {
	return connectionError.Err
}

// QueryError reports a failed statement against a named table.
type QueryError struct {
	Operation string
	Table     string
	Err       error
}

func (queryError *QueryError) Error() string {
	return fmt.Sprintf(queryErrorTemplateConstant, queryError.Operation, queryError.Table, queryError.Err)
}

// Unwrap exposes the driver error.
func (queryError *QueryError) Unwrap() error {
	return queryError.Err
}

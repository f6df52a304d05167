package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	operationTableExistsConstant        = "table lookup for"
	operationColumnTypeConstant         = "column lookup for"
	operationCountRowsConstant          = "row count of"
	operationDropTableConstant          = "drop of"
	operationRecentUsersConstant        = "listing of"
	operationRecentTransactionsConstant = "joined listing of"

	logMessageStatementConstant    = "Executing statement"
	logMessageTableDroppedConstant = "Table dropped"
	logMessageSessionClosed        = "Database session closed"
	logFieldStatementConstant      = "statement"
	logFieldTableConstant          = "table"
	logFieldColumnConstant         = "column"
)

// Session owns the single pinned connection and its pool. Statements run
// strictly one after another; Close releases both exactly once.
type Session struct {
	pool       *sqlx.DB
	connection *sqlx.Conn
	dialect    dialect
	logger     *zap.Logger
	closeGuard sync.Once
	closeError error
}

func newSession(pool *sqlx.DB, connection *sqlx.Conn, sessionDialect dialect, logger *zap.Logger) *Session {
	return &Session{pool: pool, connection: connection, dialect: sessionDialect, logger: logger}
}

// TableExists performs a catalog lookup for the table in the configured schema.
func (session *Session) TableExists(executionContext context.Context, table string) (bool, error) {
	arguments, bindingError := session.dialect.tableExistsBinding(session.dialect.schema, table)
	if bindingError != nil {
		return false, &QueryError{Operation: operationTableExistsConstant, Table: table, Err: bindingError}
	}

	var matches int64
	statement := session.connection.Rebind(session.dialect.tableExistsQuery)
	session.logStatement(statement, table)
	if queryError := session.connection.GetContext(executionContext, &matches, statement, arguments...); queryError != nil {
		return false, &QueryError{Operation: operationTableExistsConstant, Table: table, Err: queryError}
	}
	return matches > 0, nil
}

// ColumnType returns the normalized data type of table.column. The boolean is
// false when the column does not exist.
func (session *Session) ColumnType(executionContext context.Context, table string, column string) (string, bool, error) {
	if _, columnError := quoteIdentifier(column); columnError != nil {
		return "", false, &QueryError{Operation: operationColumnTypeConstant, Table: table, Err: columnError}
	}

	var dataType string
	statement := session.connection.Rebind(session.dialect.columnTypeQuery)
	session.logStatement(statement, table, zap.String(logFieldColumnConstant, column))
	queryError := session.connection.GetContext(
		executionContext,
		&dataType,
		statement,
		session.dialect.columnTypeBinding(session.dialect.schema, table, column)...,
	)
	if errors.Is(queryError, sql.ErrNoRows) {
		return "", false, nil
	}
	if queryError != nil {
		return "", false, &QueryError{Operation: operationColumnTypeConstant, Table: table, Err: queryError}
	}
	return normalizeDataType(dataType), true, nil
}

// CountRows returns the number of rows in the table.
func (session *Session) CountRows(executionContext context.Context, table string) (int64, error) {
	statement, statementError := session.dialect.countRowsStatement(table)
	if statementError != nil {
		return 0, &QueryError{Operation: operationCountRowsConstant, Table: table, Err: statementError}
	}

	var rowCount int64
	session.logStatement(statement, table)
	if queryError := session.connection.GetContext(executionContext, &rowCount, statement); queryError != nil {
		return 0, &QueryError{Operation: operationCountRowsConstant, Table: table, Err: queryError}
	}
	return rowCount, nil
}

// DropTableCascade drops the table together with dependent objects. SQLite
// has no CASCADE clause, so a plain DROP TABLE is issued there.
func (session *Session) DropTableCascade(executionContext context.Context, table string) error {
	statement, statementError := session.dialect.dropTableStatement(table)
	if statementError != nil {
		return &QueryError{Operation: operationDropTableConstant, Table: table, Err: statementError}
	}

	session.logStatement(statement, table)
	if _, executionError := session.connection.ExecContext(executionContext, statement); executionError != nil {
		return &QueryError{Operation: operationDropTableConstant, Table: table, Err: executionError}
	}

	session.logger.Info(logMessageTableDroppedConstant, zap.String(logFieldTableConstant, table))
	return nil
}

// RecentUsers lists users ordered by descending identifier.
func (session *Session) RecentUsers(executionContext context.Context, limit int) ([]User, error) {
	statement, statementError := session.dialect.recentUsersStatement(UsersTable)
	if statementError != nil {
		return nil, &QueryError{Operation: operationRecentUsersConstant, Table: UsersTable, Err: statementError}
	}

	users := []User{}
	statement = session.connection.Rebind(statement)
	session.logStatement(statement, UsersTable)
	if queryError := session.connection.SelectContext(executionContext, &users, statement, limit); queryError != nil {
		return nil, &QueryError{Operation: operationRecentUsersConstant, Table: UsersTable, Err: queryError}
	}
	return users, nil
}

// RecentTransactions lists transactions joined to their owners, newest first.
func (session *Session) RecentTransactions(executionContext context.Context, limit int) ([]TransactionSummary, error) {
	statement, statementError := session.dialect.recentTransactionsStatement(TransactionsTable, UsersTable)
	if statementError != nil {
		return nil, &QueryError{Operation: operationRecentTransactionsConstant, Table: TransactionsTable, Err: statementError}
	}

	transactions := []TransactionSummary{}
	statement = session.connection.Rebind(statement)
	session.logStatement(statement, TransactionsTable)
	if queryError := session.connection.SelectContext(executionContext, &transactions, statement, limit); queryError != nil {
		return nil, &QueryError{Operation: operationRecentTransactionsConstant, Table: TransactionsTable, Err: queryError}
	}
	return transactions, nil
}

// Close releases the pinned connection and the pool. Repeated calls return
// the result of the first one.
func (session *Session) Close() error {
	session.closeGuard.Do(func() {
		connectionError := session.connection.Close()
		poolError := session.pool.Close()
		session.closeError = errors.Join(connectionError, poolError)
		session.logger.Debug(logMessageSessionClosed)
	})
	return session.closeError
}

func (session *Session) logStatement(statement string, table string, fields ...zap.Field) {
	logFields := append([]zap.Field{zap.String(logFieldStatementConstant, statement), zap.String(logFieldTableConstant, table)}, fields...)
	session.logger.Debug(logMessageStatementConstant, logFields...)
}

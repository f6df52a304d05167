package database

import (
	"fmt"
	"strings"
)

const (
	unsupportedDriverTemplateConstant = "unsupported database driver %q"

	postgresTableExistsQueryConstant = "SELECT CASE WHEN to_regclass(?) IS NULL THEN 0 ELSE 1 END"
	postgresColumnTypeQueryConstant  = "SELECT data_type FROM information_schema.columns WHERE table_schema = ? AND table_name = ? AND column_name = ?"
	postgresDropTableTemplate        = "DROP TABLE %s CASCADE"

	sqliteTableExistsQueryTemplate = "SELECT COUNT(*) FROM %s.sqlite_master WHERE type = 'table' AND name = ?"
	sqliteColumnTypeQueryConstant  = "SELECT type FROM pragma_table_info(?, ?) WHERE name = ?"
	sqliteDropTableTemplate        = "DROP TABLE %s"

	countRowsQueryTemplate          = "SELECT COUNT(*) FROM %s"
	recentUsersQueryTemplate        = "SELECT id, telegram_id, first_name, username FROM %s ORDER BY id DESC LIMIT ?"
	recentTransactionsQueryTemplate = "SELECT t.id, t.user_id, t.amount, t.type, u.first_name FROM %s AS t JOIN %s AS u ON t.user_id = u.id ORDER BY t.created_at DESC LIMIT ?"
)

// dialect holds the catalog statements that differ between PostgreSQL and SQLite.
// Statements use "?" placeholders and are rebound for the active driver.
type dialect struct {
	driver             Driver
	driverName         string
	schema             string
	tableExistsQuery   string
	columnTypeQuery    string
	dropTableTemplate  string
	tableExistsBinding func(schema string, table string) ([]any, error)
	columnTypeBinding  func(schema string, table string, column string) []any
}

func newDialect(driver Driver, schema string) (dialect, error) {
	quotedSchema, schemaError := quoteIdentifier(schema)
	if schemaError != nil {
		return dialect{}, schemaError
	}

	switch driver {
	case DriverPGX, DriverPostgres:
		return dialect{
			driver:            driver,
			driverName:        string(driver),
			schema:            schema,
			tableExistsQuery:  postgresTableExistsQueryConstant,
			columnTypeQuery:   postgresColumnTypeQueryConstant,
			dropTableTemplate: postgresDropTableTemplate,
			tableExistsBinding: func(schema string, table string) ([]any, error) {
				regclass, nameError := qualifiedName(schema, table)
				if nameError != nil {
					return nil, nameError
				}
				return []any{regclass}, nil
			},
			columnTypeBinding: func(schema string, table string, column string) []any {
				return []any{schema, table, column}
			},
		}, nil
	case DriverSQLite:
		return dialect{
			driver:            driver,
			driverName:        string(driver),
			schema:            schema,
			tableExistsQuery:  fmt.Sprintf(sqliteTableExistsQueryTemplate, quotedSchema),
			columnTypeQuery:   sqliteColumnTypeQueryConstant,
			dropTableTemplate: sqliteDropTableTemplate,
			tableExistsBinding: func(schema string, table string) ([]any, error) {
				if _, tableError := quoteIdentifier(table); tableError != nil {
					return nil, tableError
				}
				return []any{table}, nil
			},
			columnTypeBinding: func(schema string, table string, column string) []any {
				return []any{table, schema, column}
			},
		}, nil
	default:
		return dialect{}, fmt.Errorf(unsupportedDriverTemplateConstant, string(driver))
	}
}

func (currentDialect dialect) qualify(table string) (string, error) {
	return qualifiedName(currentDialect.schema, table)
}

func (currentDialect dialect) dropTableStatement(table string) (string, error) {
	qualifiedTable, nameError := currentDialect.qualify(table)
	if nameError != nil {
		return "", nameError
	}
	return fmt.Sprintf(currentDialect.dropTableTemplate, qualifiedTable), nil
}

func (currentDialect dialect) countRowsStatement(table string) (string, error) {
	qualifiedTable, nameError := currentDialect.qualify(table)
	if nameError != nil {
		return "", nameError
	}
	return fmt.Sprintf(countRowsQueryTemplate, qualifiedTable), nil
}

func (currentDialect dialect) recentUsersStatement(usersTable string) (string, error) {
	qualifiedUsers, nameError := currentDialect.qualify(usersTable)
	if nameError != nil {
		return "", nameError
	}
	return fmt.Sprintf(recentUsersQueryTemplate, qualifiedUsers), nil
}

func (currentDialect dialect) recentTransactionsStatement(transactionsTable string, usersTable string) (string, error) {
	qualifiedTransactions, transactionsError := currentDialect.qualify(transactionsTable)
	if transactionsError != nil {
		return "", transactionsError
	}
	qualifiedUsers, usersError := currentDialect.qualify(usersTable)
	if usersError != nil {
		return "", usersError
	}
	return fmt.Sprintf(recentTransactionsQueryTemplate, qualifiedTransactions, qualifiedUsers), nil
}

// normalizeDataType lower-cases reported types so PostgreSQL's "uuid" and a
// SQLite column declared as "UUID" compare equal.
func normalizeDataType(dataType string) string {
	return strings.ToLower(strings.TrimSpace(dataType))
}

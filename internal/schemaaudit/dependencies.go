package schemaaudit

import "context"

// SchemaSession exposes the catalog operations and the single mutation used by the audit.
type SchemaSession interface {
	TableExists(executionContext context.Context, table string) (bool, error)
	ColumnType(executionContext context.Context, table string, column string) (string, bool, error)
	CountRows(executionContext context.Context, table string) (int64, error)
	DropTableCascade(executionContext context.Context, table string) error
	Close() error
}

// SessionOpener establishes the session for one audit run.
type SessionOpener func(executionContext context.Context) (SchemaSession, error)

// ConfirmationPrompter asks the operator to approve the repair.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

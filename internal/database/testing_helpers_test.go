package database_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const (
	testDatabaseFileNameConstant = "diagnostics.db"
	sqliteDriverNameConstant     = "sqlite"
)

func createSQLiteDatabase(testInstance *testing.T, statements ...string) string {
	testInstance.Helper()

	databasePath := filepath.Join(testInstance.TempDir(), testDatabaseFileNameConstant)
	seedConnection, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	require.NoError(testInstance, openError)
	defer seedConnection.Close()

	for _, statement := range statements {
		_, executionError := seedConnection.Exec(statement)
		require.NoError(testInstance, executionError, statement)
	}
	return databasePath
}

package datainspect_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/datainspect"
)

const (
	sqliteDriverNameConstant    = "sqlite"
	inspectDatabaseFileName     = "inspect.db"
	createUsersStatement        = "CREATE TABLE users (id INTEGER PRIMARY KEY, telegram_id BIGINT, first_name TEXT, username TEXT)"
	createTransactionsStatement = "CREATE TABLE transactions (id INTEGER PRIMARY KEY, user_id INTEGER, amount TEXT, type TEXT, created_at TIMESTAMP)"
	insertUsersStatement        = "INSERT INTO users (id, telegram_id, first_name, username) VALUES (1, 1001, 'Dana', 'dana'), (2, 1002, 'Erlan', 'erlan'), (3, 1003, 'Zhanna', NULL)"
	insertNullAmountStatement   = "INSERT INTO transactions (id, user_id, amount, type, created_at) VALUES (4, 1, NULL, 'expense', '2026-01-04 10:00:00')"
	insertTransactionsStatement = "INSERT INTO transactions (id, user_id, amount, type, created_at) VALUES (1, 1, '100.00', 'income', '2026-01-01 10:00:00'), (2, 2, '25.50', 'expense', '2026-01-03 10:00:00'), (3, 3, '7.00', 'expense', '2026-01-02 10:00:00')"
)

func seedInspectDatabase(testInstance *testing.T) string {
	testInstance.Helper()

	databasePath := filepath.Join(testInstance.TempDir(), inspectDatabaseFileName)
	seedConnection, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	require.NoError(testInstance, openError)
	defer seedConnection.Close()

	for _, statement := range []string{createUsersStatement, createTransactionsStatement, insertUsersStatement, insertTransactionsStatement} {
		_, executionError := seedConnection.Exec(statement)
		require.NoError(testInstance, executionError, statement)
	}
	return databasePath
}

func buildInspectCommand(testInstance *testing.T, databaseURL string, arguments ...string) (*strings.Builder, error) {
	testInstance.Helper()

	builder := &datainspect.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: datainspect.DefaultCommandConfiguration,
		DatabaseConfigurationProvider: func() database.Configuration {
			return database.Configuration{URL: databaseURL, Driver: string(database.DriverSQLite)}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &strings.Builder{}
	command.SetContext(context.Background())
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs(arguments)

	return outputBuffer, command.Execute()
}

func TestCommandListsRecentActivity(testInstance *testing.T) {
	databasePath := seedInspectDatabase(testInstance)

	outputBuffer, executionError := buildInspectCommand(testInstance, databasePath, "--users-limit", "2", "--transactions-limit", "2")
	require.NoError(testInstance, executionError)

	expectedOutput := "Connected to DB ✅\n" +
		"\n--- Users (Last 2) ---\n" +
		"ID: 3 | TG: 1003 | Name: Zhanna (@-)\n" +
		"ID: 2 | TG: 1002 | Name: Erlan (@erlan)\n" +
		"\n--- Transactions (Last 2) ---\n" +
		"TX: 2 | User: Erlan | expense 25.50\n" +
		"TX: 3 | User: Zhanna | expense 7.00\n"
	require.Equal(testInstance, expectedOutput, outputBuffer.String())
}

func TestCommandListsTransactionWithoutAmount(testInstance *testing.T) {
	databasePath := seedInspectDatabase(testInstance)

	seedConnection, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	require.NoError(testInstance, openError)
	_, insertError := seedConnection.Exec(insertNullAmountStatement)
	require.NoError(testInstance, insertError)
	require.NoError(testInstance, seedConnection.Close())

	outputBuffer, executionError := buildInspectCommand(testInstance, databasePath, "--users-limit", "1")
	require.NoError(testInstance, executionError)

	expectedTransactions := "\n--- Transactions (Last 5) ---\n" +
		"TX: 4 | User: Dana | expense -\n" +
		"TX: 2 | User: Erlan | expense 25.50\n" +
		"TX: 3 | User: Zhanna | expense 7.00\n" +
		"TX: 1 | User: Dana | income 100.00\n"
	require.True(testInstance, strings.HasSuffix(outputBuffer.String(), expectedTransactions), outputBuffer.String())
	require.NotContains(testInstance, outputBuffer.String(), "Error:")
}

func TestCommandRejectsInvalidInvocations(testInstance *testing.T) {
	databasePath := seedInspectDatabase(testInstance)

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "zero_users_limit", arguments: []string{"--users-limit", "0"}},
		{name: "negative_transactions_limit", arguments: []string{"--transactions-limit", "-3"}},
		{name: "positional_argument", arguments: []string{"extra"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputBuffer, executionError := buildInspectCommand(testInstance, databasePath, testCase.arguments...)
			require.Error(testInstance, executionError)
			require.NotContains(testInstance, outputBuffer.String(), "Connected to DB")
		})
	}
}

func TestCommandRequiresDatabaseURL(testInstance *testing.T) {
	outputBuffer, executionError := buildInspectCommand(testInstance, "")
	require.ErrorIs(testInstance, executionError, database.ErrMissingURL)
	require.Empty(testInstance, outputBuffer.String())
}

package datainspect_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/datainspect"
)

type stubActivitySession struct {
	users              []database.User
	transactions       []database.TransactionSummary
	usersError         error
	transactionsError  error
	closeError         error
	requestedLimits    []int
	transactionQueries int
	closeCalls         int
}

func (session *stubActivitySession) RecentUsers(executionContext context.Context, limit int) ([]database.User, error) {
	session.requestedLimits = append(session.requestedLimits, limit)
	if session.usersError != nil {
		return nil, session.usersError
	}
	return session.users, nil
}

func (session *stubActivitySession) RecentTransactions(executionContext context.Context, limit int) ([]database.TransactionSummary, error) {
	session.requestedLimits = append(session.requestedLimits, limit)
	session.transactionQueries++
	if session.transactionsError != nil {
		return nil, session.transactionsError
	}
	return session.transactions, nil
}

func (session *stubActivitySession) Close() error {
	session.closeCalls++
	return session.closeError
}

func openerFor(session *stubActivitySession) datainspect.SessionOpener {
	return func(context.Context) (datainspect.ActivitySession, error) {
		return session, nil
	}
}

func defaultOptions() datainspect.CommandOptions {
	defaults := datainspect.DefaultCommandConfiguration()
	return datainspect.CommandOptions{UsersLimit: defaults.UsersLimit, TransactionsLimit: defaults.TransactionsLimit}
}

func TestServiceRunPrintsUsersAndTransactions(testInstance *testing.T) {
	session := &stubActivitySession{
		users: []database.User{
			{
				ID:         2,
				TelegramID: sql.NullInt64{Int64: 555001, Valid: true},
				FirstName:  sql.NullString{String: "Aigerim", Valid: true},
				Username:   sql.NullString{String: "aigerim", Valid: true},
			},
			{ID: 1},
		},
		transactions: []database.TransactionSummary{
			{
				ID:        "17",
				UserID:    "2",
				Amount:    sql.NullString{String: "1500.00", Valid: true},
				Type:      sql.NullString{String: "expense", Valid: true},
				FirstName: sql.NullString{String: "Aigerim", Valid: true},
			},
		},
	}

	outputBuffer := &bytes.Buffer{}
	service := datainspect.NewService(openerFor(session), nil, outputBuffer)

	report, runError := service.Run(context.Background(), defaultOptions())
	require.NoError(testInstance, runError)
	require.Len(testInstance, report.Users, 2)
	require.Len(testInstance, report.Transactions, 1)
	require.Equal(testInstance, []int{10, 5}, session.requestedLimits)
	require.Equal(testInstance, 1, session.closeCalls)

	expectedOutput := "Connected to DB ✅\n" +
		"\n--- Users (Last 10) ---\n" +
		"ID: 2 | TG: 555001 | Name: Aigerim (@aigerim)\n" +
		"ID: 1 | TG: - | Name: - (@-)\n" +
		"\n--- Transactions (Last 5) ---\n" +
		"TX: 17 | User: Aigerim | expense 1500.00\n"
	require.Equal(testInstance, expectedOutput, outputBuffer.String())
}

func TestServiceRunEmptyTablesPrintHeadersOnly(testInstance *testing.T) {
	session := &stubActivitySession{}
	outputBuffer := &bytes.Buffer{}
	service := datainspect.NewService(openerFor(session), nil, outputBuffer)

	report, runError := service.Run(context.Background(), datainspect.CommandOptions{UsersLimit: 3, TransactionsLimit: 2})
	require.NoError(testInstance, runError)
	require.Empty(testInstance, report.Users)
	require.Empty(testInstance, report.Transactions)
	require.Equal(testInstance, "Connected to DB ✅\n\n--- Users (Last 3) ---\n\n--- Transactions (Last 2) ---\n", outputBuffer.String())
	require.Equal(testInstance, 1, session.closeCalls)
}

func TestServiceRunQueryFailures(testInstance *testing.T) {
	usersFailure := errors.New("relation \"users\" does not exist")
	transactionsFailure := errors.New("column t.created_at does not exist")

	testCases := []struct {
		name                       string
		session                    *stubActivitySession
		expectedError              error
		expectedOutputSuffix       string
		expectedTransactionQueries int
	}{
		{
			name:                       "users_query_failure",
			session:                    &stubActivitySession{usersError: usersFailure},
			expectedError:              usersFailure,
			expectedOutputSuffix:       "\n--- Users (Last 10) ---\nError: relation \"users\" does not exist\n",
			expectedTransactionQueries: 0,
		},
		{
			name:                       "transactions_query_failure",
			session:                    &stubActivitySession{transactionsError: transactionsFailure},
			expectedError:              transactionsFailure,
			expectedOutputSuffix:       "\n--- Transactions (Last 5) ---\nError: column t.created_at does not exist\n",
			expectedTransactionQueries: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			service := datainspect.NewService(openerFor(testCase.session), nil, outputBuffer)

			_, runError := service.Run(context.Background(), defaultOptions())
			require.ErrorIs(testInstance, runError, testCase.expectedError)
			require.True(testInstance, bytes.HasSuffix(outputBuffer.Bytes(), []byte(testCase.expectedOutputSuffix)), outputBuffer.String())
			require.Equal(testInstance, testCase.expectedTransactionQueries, testCase.session.transactionQueries)
			require.Equal(testInstance, 1, testCase.session.closeCalls)
		})
	}
}

func TestServiceRunConnectionFailure(testInstance *testing.T) {
	connectionFailure := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	outputBuffer := &bytes.Buffer{}
	service := datainspect.NewService(func(context.Context) (datainspect.ActivitySession, error) {
		return nil, connectionFailure
	}, nil, outputBuffer)

	_, runError := service.Run(context.Background(), defaultOptions())
	require.ErrorIs(testInstance, runError, connectionFailure)
	require.Equal(testInstance, "Connection failed: dial tcp 127.0.0.1:5432: connect: connection refused\n", outputBuffer.String())
}

func TestServiceRunReportsCloseFailure(testInstance *testing.T) {
	closeFailure := errors.New("connection already closed")
	session := &stubActivitySession{closeError: closeFailure}
	service := datainspect.NewService(openerFor(session), nil, &bytes.Buffer{})

	_, runError := service.Run(context.Background(), defaultOptions())
	require.ErrorIs(testInstance, runError, closeFailure)
	require.Equal(testInstance, 1, session.closeCalls)
}

func TestServiceRunRejectsNonPositiveLimits(testInstance *testing.T) {
	testCases := []struct {
		name    string
		options datainspect.CommandOptions
	}{
		{name: "zero_users", options: datainspect.CommandOptions{UsersLimit: 0, TransactionsLimit: 5}},
		{name: "negative_transactions", options: datainspect.CommandOptions{UsersLimit: 10, TransactionsLimit: -1}},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			opened := false
			outputBuffer := &bytes.Buffer{}
			service := datainspect.NewService(func(context.Context) (datainspect.ActivitySession, error) {
				opened = true
				return &stubActivitySession{}, nil
			}, nil, outputBuffer)

			_, runError := service.Run(context.Background(), testCase.options)
			require.Error(testInstance, runError)
			require.False(testInstance, opened)
			require.Empty(testInstance, outputBuffer.String())
		})
	}
}

package datainspect

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/utils"
)

const (
	connectedMessageConstant           = "Connected to DB ✅"
	connectionFailedTemplateConstant   = "Connection failed: %v"
	queryFailedTemplateConstant        = "Error: %v"
	usersHeaderTemplateConstant        = "\n--- Users (Last %d) ---"
	userLineTemplateConstant           = "ID: %d | TG: %s | Name: %s (@%s)"
	transactionsHeaderTemplateConstant = "\n--- Transactions (Last %d) ---"
	transactionLineTemplateConstant    = "TX: %s | User: %s | %s %s"
	nullDisplayConstant                = "-"

	logMessageInspectionCompleted    = "Data inspection completed"
	logMessageCloseFailed            = "Database session close failed"
	logFieldUserCountConstant        = "users"
	logFieldTransactionCountConstant = "transactions"
)

// Report holds the rows printed by the inspector.
type Report struct {
	Users        []database.User
	Transactions []database.TransactionSummary
}

// Service prints recent users and transactions.
type Service struct {
	openSession SessionOpener
	logger      *zap.Logger
	output      *utils.FlushingWriter
}

// NewService constructs a Service.
func NewService(openSession SessionOpener, logger *zap.Logger, outputWriter io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{openSession: openSession, logger: logger, output: utils.NewFlushingWriter(outputWriter)}
}

// Run connects once, prints both listings, and releases the session on every
// path. A failed listing is printed and returned; listings already printed stay.
func (service *Service) Run(executionContext context.Context, options CommandOptions) (report Report, runError error) {
	if validationError := options.Validate(); validationError != nil {
		return Report{}, validationError
	}

	session, openError := service.openSession(executionContext)
	if openError != nil {
		service.output.Linef(connectionFailedTemplateConstant, openError)
		return Report{}, openError
	}
	service.output.Line(connectedMessageConstant)

	defer func() {
		if closeError := session.Close(); closeError != nil {
			service.logger.Warn(logMessageCloseFailed, zap.Error(closeError))
			runError = errors.Join(runError, closeError)
		}
	}()

	service.output.Linef(usersHeaderTemplateConstant, options.UsersLimit)
	users, usersError := session.RecentUsers(executionContext, options.UsersLimit)
	if usersError != nil {
		service.output.Linef(queryFailedTemplateConstant, usersError)
		return report, usersError
	}
	report.Users = users
	for _, user := range users {
		service.output.Linef(userLineTemplateConstant, user.ID, displayInteger(user.TelegramID), displayText(user.FirstName), displayText(user.Username))
	}

	service.output.Linef(transactionsHeaderTemplateConstant, options.TransactionsLimit)
	transactions, transactionsError := session.RecentTransactions(executionContext, options.TransactionsLimit)
	if transactionsError != nil {
		service.output.Linef(queryFailedTemplateConstant, transactionsError)
		return report, transactionsError
	}
	report.Transactions = transactions
	for _, transaction := range transactions {
		service.output.Linef(transactionLineTemplateConstant, transaction.ID, displayText(transaction.FirstName), displayText(transaction.Type), displayText(transaction.Amount))
	}

	service.logger.Info(
		logMessageInspectionCompleted,
		zap.Int(logFieldUserCountConstant, len(report.Users)),
		zap.Int(logFieldTransactionCountConstant, len(report.Transactions)),
	)

	return report, nil
}

func displayText(value sql.NullString) string {
	if !value.Valid {
		return nullDisplayConstant
	}
	return value.String
}

func displayInteger(value sql.NullInt64) string {
	if !value.Valid {
		return nullDisplayConstant
	}
	return strconv.FormatInt(value.Int64, 10)
}

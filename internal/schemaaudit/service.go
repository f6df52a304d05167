package schemaaudit

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/utils"
)

const (
	usersIdentifierColumnConstant       = "id"
	transactionsReferenceColumnConstant = "user_id"
	profilesLinkageColumnConstant       = "telegram_id"
	missingColumnTypeConstant           = "(missing)"

	connectingMessageConstant        = "Connecting to database..."
	connectedMessageConstant         = "Connected successfully! ✅"
	connectionFailedTemplateConstant = "Connection failed: %v"
	checkFailedTemplateConstant      = "Error checking '%s': %v"
	doneMessageConstant              = "\nDone."

	usersHeaderConstant          = "\n--- Checking 'users' table ---"
	usersExistsTemplateConstant  = "Table 'users' exists. ID Type: %s. Row Count: %d"
	usersMissingMessageConstant  = "Table 'users' DOES NOT EXIST! ❌ (Bot hasn't created it yet)"
	transactionsHeaderConstant   = "\n--- Checking 'transactions' table ---"
	transactionsExistsTemplate   = "Table 'transactions' exists. user_id Type: %s. Row Count: %d"
	transactionsMissingMessage   = "Table 'transactions' DOES NOT EXIST. Bot will create it on next startup."
	referenceColumnMissingLine   = "   Column 'user_id' MISSING! ❌ The Bot cannot store transactions in this table."
	referenceCompatibleLine      = "   Schema is correct (INTEGER user_id). Sync should work."
	referenceUnexpectedTemplate  = "   Unexpected user_id type '%s'. No automatic repair is defined for it."
	conflictHeadlineLine         = "\n⚠️  CONFLICT DETECTED: 'transactions.user_id' is UUID!"
	conflictExplanationLine      = "   The Telegram Bot uses INTEGER IDs. This table prevents the bot from saving data."
	profilesHeaderConstant       = "\n--- Checking 'profiles' table (App Users) ---"
	profilesExistsTemplate       = "Table 'profiles' exists. Row Count: %d"
	profilesMissingMessage       = "Table 'profiles' DOES NOT EXIST."
	linkageAvailableLine         = "   Column 'telegram_id' exists. Linkage is possible. ✅"
	linkageMissingLine           = "   Column 'telegram_id' MISSING! ❌"
	repairHeaderConstant         = "\n--- Repairing 'transactions' table ---"
	repairDryRunLine             = "   Dry run: table 'transactions' would be dropped with CASCADE. Re-run without --dry-run to apply."
	repairPromptConstant         = "   Drop table 'transactions' with CASCADE so the Bot can recreate it? [y/N]: "
	repairDeclinedLine           = "   Drop skipped. Table 'transactions' left unchanged."
	repairActionLine             = "   Action: Dropping table 'transactions' so the Bot can recreate it correctly..."
	repairSucceededLine          = "   Table DROPPED successfully. ✅"
	repairFailedTemplate         = "   Drop failed: %v"
	repairConfirmationErrorText  = "unable to read repair confirmation: %w"
	repairVerificationErrorText  = "unable to verify drop of table %s: %w"
	tableSurvivedDropTemplate    = "table %s still exists after drop"
	confirmationUnavailableError = "repair requires confirmation; re-run interactively or pass --yes"

	logMessageConflictDetected = "Reference column type conflicts with bot schema"
	logMessageCheckFailed      = "Table check failed"
	logMessageTableInspected   = "Table inspected"
	logMessageRepairSkipped    = "Schema repair skipped"
	logMessageAuditCompleted   = "Schema audit completed"
	logMessageCloseFailed      = "Database session close failed"
	logFieldTableConstant      = "table"
	logFieldColumnTypeConstant = "column_type"
	logFieldRowCountConstant   = "row_count"
	logFieldOutcomeConstant    = "repair_outcome"
	logFieldReferenceConstant  = "reference_compatibility"
)

// Service coordinates the diagnosis and repair phases of the schema audit.
type Service struct {
	openSession SessionOpener
	prompter    ConfirmationPrompter
	logger      *zap.Logger
	output      *utils.FlushingWriter
}

// NewService constructs a Service. A nil prompter makes every unconfirmed repair fail.
func NewService(openSession SessionOpener, prompter ConfirmationPrompter, logger *zap.Logger, outputWriter io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		openSession: openSession,
		prompter:    prompter,
		logger:      logger,
		output:      utils.NewFlushingWriter(outputWriter),
	}
}

// Run connects once, diagnoses every table, applies the repair when warranted,
// and releases the session on every path. A connection failure stops the run
// before any query; check and repair failures are returned joined.
func (service *Service) Run(executionContext context.Context, options CommandOptions) (result Result, runError error) {
	service.output.Line(connectingMessageConstant)
	session, openError := service.openSession(executionContext)
	if openError != nil {
		service.output.Linef(connectionFailedTemplateConstant, openError)
		return Result{Repair: RepairOutcomeNotRequired}, openError
	}
	service.output.Line(connectedMessageConstant)

	defer func() {
		if closeError := session.Close(); closeError != nil {
			service.logger.Warn(logMessageCloseFailed, zap.Error(closeError))
			runError = errors.Join(runError, closeError)
		}
		service.output.Line(doneMessageConstant)
	}()

	diagnosis := service.Diagnose(executionContext, session)
	repairOutcome, repairError := service.Repair(executionContext, session, diagnosis, options)

	service.logger.Info(
		logMessageAuditCompleted,
		zap.String(logFieldReferenceConstant, string(diagnosis.Reference)),
		zap.String(logFieldOutcomeConstant, string(repairOutcome)),
	)

	return Result{Diagnosis: diagnosis, Repair: repairOutcome}, errors.Join(diagnosis.Failure(), repairError)
}

// Diagnose runs the read-only checks in order and reports each table as soon
// as its check finishes. Each check is guarded on its own, so a failing check
// never hides the tables after it.
func (service *Service) Diagnose(executionContext context.Context, session SchemaSession) Diagnosis {
	diagnosis := Diagnosis{Reference: ReferenceCompatibilityUnknown}

	service.output.Line(usersHeaderConstant)
	diagnosis.Users = service.inspectTable(executionContext, session, database.UsersTable, usersIdentifierColumnConstant)
	service.reportUsers(diagnosis.Users)

	service.output.Line(transactionsHeaderConstant)
	diagnosis.Transactions = service.inspectTable(executionContext, session, database.TransactionsTable, transactionsReferenceColumnConstant)
	diagnosis.Reference = service.reportTransactions(diagnosis.Transactions)

	service.output.Line(profilesHeaderConstant)
	diagnosis.Profiles = service.inspectTable(executionContext, session, database.ProfilesTable, profilesLinkageColumnConstant)
	service.reportProfiles(diagnosis.Profiles)

	return diagnosis
}

// Repair drops the transactions table when the diagnosis carries the UUID
// conflict and the operator confirmed it. The drop is issued at most once and
// verified with a fresh catalog lookup.
func (service *Service) Repair(executionContext context.Context, session SchemaSession, diagnosis Diagnosis, options CommandOptions) (RepairOutcome, error) {
	if !diagnosis.RequiresRepair() {
		return RepairOutcomeNotRequired, nil
	}
	service.output.Line(repairHeaderConstant)

	if options.DryRun {
		service.output.Line(repairDryRunLine)
		service.logger.Info(logMessageRepairSkipped, zap.String(logFieldOutcomeConstant, string(RepairOutcomeDryRun)))
		return RepairOutcomeDryRun, nil
	}

	if !options.AssumeYes {
		if service.prompter == nil {
			return RepairOutcomeDeclined, errors.New(confirmationUnavailableError)
		}
		confirmed, confirmationError := service.prompter.Confirm(repairPromptConstant)
		if confirmationError != nil {
			return RepairOutcomeDeclined, fmt.Errorf(repairConfirmationErrorText, confirmationError)
		}
		if !confirmed {
			service.output.Line(repairDeclinedLine)
			service.logger.Info(logMessageRepairSkipped, zap.String(logFieldOutcomeConstant, string(RepairOutcomeDeclined)))
			return RepairOutcomeDeclined, nil
		}
	}

	service.output.Line(repairActionLine)
	if dropError := session.DropTableCascade(executionContext, database.TransactionsTable); dropError != nil {
		service.output.Linef(repairFailedTemplate, dropError)
		return RepairOutcomeFailed, dropError
	}

	stillExists, verificationError := session.TableExists(executionContext, database.TransactionsTable)
	if verificationError != nil {
		return RepairOutcomeFailed, fmt.Errorf(repairVerificationErrorText, database.TransactionsTable, verificationError)
	}
	if stillExists {
		survivedError := fmt.Errorf(tableSurvivedDropTemplate, database.TransactionsTable)
		service.output.Linef(repairFailedTemplate, survivedError)
		return RepairOutcomeFailed, survivedError
	}

	service.output.Line(repairSucceededLine)
	return RepairOutcomeDropped, nil
}

// inspectTable never queries columns or rows of a table the catalog does not list.
func (service *Service) inspectTable(executionContext context.Context, session SchemaSession, table string, column string) TableReport {
	report := TableReport{Table: table, Column: column}

	exists, existsError := session.TableExists(executionContext, table)
	if existsError != nil {
		return service.recordFailure(report, existsError)
	}
	report.Exists = exists
	if !exists {
		return report
	}

	columnType, columnFound, columnError := session.ColumnType(executionContext, table, column)
	if columnError != nil {
		return service.recordFailure(report, columnError)
	}
	report.ColumnType = columnType
	report.ColumnFound = columnFound

	rowCount, countError := session.CountRows(executionContext, table)
	if countError != nil {
		return service.recordFailure(report, countError)
	}
	report.RowCount = rowCount

	service.logger.Debug(
		logMessageTableInspected,
		zap.String(logFieldTableConstant, table),
		zap.String(logFieldColumnTypeConstant, columnType),
		zap.Int64(logFieldRowCountConstant, rowCount),
	)

	return report
}

func (service *Service) recordFailure(report TableReport, failure error) TableReport {
	report.Failure = failure
	service.output.Linef(checkFailedTemplateConstant, report.Table, failure)
	service.logger.Warn(logMessageCheckFailed, zap.String(logFieldTableConstant, report.Table), zap.Error(failure))
	return report
}

func (service *Service) reportUsers(report TableReport) {
	if report.Failure != nil {
		return
	}
	if !report.Exists {
		service.output.Line(usersMissingMessageConstant)
		return
	}
	service.output.Linef(usersExistsTemplateConstant, displayColumnType(report), report.RowCount)
}

func (service *Service) reportTransactions(report TableReport) ReferenceCompatibility {
	if report.Failure != nil {
		return ReferenceCompatibilityUnknown
	}
	if !report.Exists {
		service.output.Line(transactionsMissingMessage)
		return ReferenceCompatibilityUnknown
	}

	service.output.Linef(transactionsExistsTemplate, displayColumnType(report), report.RowCount)
	if !report.ColumnFound {
		service.output.Line(referenceColumnMissingLine)
		return ReferenceCompatibilityUnknown
	}

	compatibility := classifyReferenceType(report.ColumnType)
	switch compatibility {
	case ReferenceCompatibilityConflict:
		service.output.Line(conflictHeadlineLine)
		service.output.Line(conflictExplanationLine)
		service.logger.Warn(
			logMessageConflictDetected,
			zap.String(logFieldTableConstant, report.Table),
			zap.String(logFieldColumnTypeConstant, report.ColumnType),
			zap.Int64(logFieldRowCountConstant, report.RowCount),
		)
	case ReferenceCompatibilityCompatible:
		service.output.Line(referenceCompatibleLine)
	default:
		service.output.Linef(referenceUnexpectedTemplate, report.ColumnType)
	}
	return compatibility
}

func (service *Service) reportProfiles(report TableReport) {
	if report.Failure != nil {
		return
	}
	if !report.Exists {
		service.output.Line(profilesMissingMessage)
		return
	}
	service.output.Linef(profilesExistsTemplate, report.RowCount)
	if report.ColumnFound {
		service.output.Line(linkageAvailableLine)
		return
	}
	service.output.Line(linkageMissingLine)
}

func displayColumnType(report TableReport) string {
	if !report.ColumnFound {
		return missingColumnTypeConstant
	}
	return report.ColumnType
}

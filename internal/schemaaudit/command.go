package schemaaudit

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/utils"
	"github.com/temirov/dbscripts/internal/utils/flags"
)

const (
	commandUseConstant              = "schema-audit"
	commandShortDescriptionConstant = "Audit bot tables and repair the transactions.user_id type conflict"
	commandLongDescriptionConstant  = "schema-audit reports existence, key column types, and row counts for the users, transactions, and profiles tables. When transactions.user_id is a UUID it offers to drop the table with CASCADE so the bot recreates it with INTEGER identifiers. The drop always requires confirmation unless --yes is given; --dry-run never mutates."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the schema-audit Cobra command.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConfigurationProvider         func() CommandConfiguration
	DatabaseConfigurationProvider func() database.Configuration
	SessionOpener                 SessionOpener
	Prompter                      ConfirmationPrompter
}

// Build constructs the schema-audit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	flags.BindExecutionFlags(command, flags.ExecutionDefaults{})

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command)
	logger := builder.resolveLogger()
	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())

	sessionOpener, openerError := builder.resolveSessionOpener(logger)
	if openerError != nil {
		return openerError
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = NewIOConfirmationPrompter(command.InOrStdin(), outputWriter)
	}

	service := NewService(sessionOpener, prompter, logger, outputWriter)
	_, runError := service.Run(command.Context(), options)
	return runError
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) CommandOptions {
	configuration := builder.resolveConfiguration()
	options := CommandOptions{
		DryRun:    configuration.DryRun,
		AssumeYes: configuration.AssumeYes,
	}

	executionFlags := flags.ResolveExecutionFlags(command)
	if executionFlags.DryRunSet {
		options.DryRun = executionFlags.DryRun
	}
	if executionFlags.AssumeYesSet {
		options.AssumeYes = executionFlags.AssumeYes
	}

	return options
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveSessionOpener(logger *zap.Logger) (SessionOpener, error) {
	if builder.SessionOpener != nil {
		return builder.SessionOpener, nil
	}

	databaseConfiguration := database.DefaultConfiguration()
	if builder.DatabaseConfigurationProvider != nil {
		databaseConfiguration = builder.DatabaseConfigurationProvider()
	}

	connector, connectorError := database.NewConnector(databaseConfiguration, logger)
	if connectorError != nil {
		return nil, connectorError
	}

	return func(executionContext context.Context) (SchemaSession, error) {
		session, openError := connector.Open(executionContext)
		if openError != nil {
			return nil, openError
		}
		return session, nil
	}, nil
}

package datainspect

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/utils"
)

const (
	commandUseConstant                 = "data-inspect"
	commandShortDescriptionConstant    = "List the most recent users and transactions"
	commandLongDescriptionConstant     = "data-inspect prints the most recent users ordered by identifier and the most recent transactions joined to their owners. It never modifies the database."
	usersLimitFlagNameConstant         = "users-limit"
	usersLimitFlagUsageConstant        = "Number of users to list"
	transactionsLimitFlagNameConstant  = "transactions-limit"
	transactionsLimitFlagUsageConstant = "Number of transactions to list"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the data-inspect Cobra command.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConfigurationProvider         func() CommandConfiguration
	DatabaseConfigurationProvider func() database.Configuration
	SessionOpener                 SessionOpener
}

// Build constructs the data-inspect command.
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

	defaults := DefaultCommandConfiguration()
	command.Flags().Int(usersLimitFlagNameConstant, defaults.UsersLimit, usersLimitFlagUsageConstant)
	command.Flags().Int(transactionsLimitFlagNameConstant, defaults.TransactionsLimit, transactionsLimitFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	sessionOpener, openerError := builder.resolveSessionOpener(logger)
	if openerError != nil {
		return openerError
	}

	service := NewService(sessionOpener, logger, utils.NewFlushingWriter(command.OutOrStdout()))
	_, runError := service.Run(command.Context(), options)
	return runError
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (CommandOptions, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	options := CommandOptions{
		UsersLimit:        configuration.UsersLimit,
		TransactionsLimit: configuration.TransactionsLimit,
	}

	if command.Flags().Changed(usersLimitFlagNameConstant) {
		usersLimit, flagError := command.Flags().GetInt(usersLimitFlagNameConstant)
		if flagError != nil {
			return CommandOptions{}, flagError
		}
		options.UsersLimit = usersLimit
	}
	if command.Flags().Changed(transactionsLimitFlagNameConstant) {
		transactionsLimit, flagError := command.Flags().GetInt(transactionsLimitFlagNameConstant)
		if flagError != nil {
			return CommandOptions{}, flagError
		}
		options.TransactionsLimit = transactionsLimit
	}

	return options, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if logger := builder.LoggerProvider(); logger != nil {
		return logger
	}
	return zap.NewNop()
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

	return func(executionContext context.Context) (ActivitySession, error) {
		session, openError := connector.Open(executionContext)
		if openError != nil {
			return nil, openError
		}
		return session, nil
	}, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dbscripts/internal/database"
	"github.com/temirov/dbscripts/internal/datainspect"
	"github.com/temirov/dbscripts/internal/schemaaudit"
	"github.com/temirov/dbscripts/internal/utils"
	"github.com/temirov/dbscripts/internal/utils/flags"
	pathutils "github.com/temirov/dbscripts/internal/utils/path"
)

const (
	applicationNameConstant                 = "db-scripts"
	applicationShortDescriptionConstant     = "Operator diagnostics for the finance bot database"
	applicationLongDescriptionConstant      = "db-scripts audits the schema shared by the finance bot and the web application, repairs the transactions.user_id type conflict after confirmation, and lists recent activity."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	databaseURLFlagNameConstant             = "database-url"
	databaseURLFlagUsageConstant            = "Database connection string; overrides DATABASE_URL and configuration files."
	driverFlagNameConstant                  = "driver"
	driverFlagUsageConstant                 = "Database driver."
	driverChoiceSubjectConstant             = "database driver"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	databaseConfigurationKeyConstant        = "database"
	databaseURLConfigurationKeyConstant     = databaseConfigurationKeyConstant + ".url"
	databaseURLEnvironmentAliasConstant     = "DATABASE_URL"
	toolsConfigurationKeyConstant           = "tools"
	schemaAuditConfigurationKeyConstant     = toolsConfigurationKeyConstant + ".schema_audit"
	dataInspectConfigurationKeyConstant     = toolsConfigurationKeyConstant + ".data_inspect"
	environmentPrefixConstant               = "DBSCRIPTS"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	dotEnvFileNameConstant                  = ".env"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationDotEnvFieldConstant        = "dotenv_files"
	configurationDriverFieldConstant        = "driver"
	runIdentifierFieldConstant              = "run_id"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common"`
	Database database.Configuration         `mapstructure:"database"`
	Tools    ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for the subcommands.
type ApplicationToolsConfiguration struct {
	SchemaAudit schemaaudit.CommandConfiguration `mapstructure:"schema_audit"`
	DataInspect datainspect.CommandConfiguration `mapstructure:"data_inspect"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	homeExpander          *pathutils.HomeExpander
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	databaseURLFlagValue  string
	driverFlagValue       string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetEnvironmentAliases(map[string][]string{
		databaseURLConfigurationKeyConstant: {databaseURLEnvironmentAliasConstant},
	})
	configurationLoader.SetDotEnvFiles([]string{dotEnvFileNameConstant})

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		homeExpander:        pathutils.NewHomeExpander(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatConsole), utils.SupportedLogFormats(), logFormatFlagUsageConstant))
	persistentFlags.StringVar(&application.databaseURLFlagValue, databaseURLFlagNameConstant, "", databaseURLFlagUsageConstant)
	persistentFlags.StringVar(&application.driverFlagValue, driverFlagNameConstant, "", flags.FormatChoiceUsage(string(database.DriverPGX), database.SupportedDrivers(), driverFlagUsageConstant))

	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	databaseConfigurationProvider := func() database.Configuration {
		return application.configuration.Database
	}

	schemaAuditBuilder := schemaaudit.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() schemaaudit.CommandConfiguration {
			return application.configuration.Tools.SchemaAudit
		},
		DatabaseConfigurationProvider: databaseConfigurationProvider,
	}
	schemaAuditCommand, schemaAuditBuildError := schemaAuditBuilder.Build()
	if schemaAuditBuildError == nil {
		cobraCommand.AddCommand(schemaAuditCommand)
	}

	dataInspectBuilder := datainspect.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() datainspect.CommandConfiguration {
			return application.configuration.Tools.DataInspect
		},
		DatabaseConfigurationProvider: databaseConfigurationProvider,
	}
	dataInspectCommand, dataInspectBuildError := dataInspectBuilder.Build()
	if dataInspectBuildError == nil {
		cobraCommand.AddCommand(dataInspectCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// SetArguments replaces the arguments parsed by Execute.
func (application *Application) SetArguments(arguments []string) {
	application.rootCommand.SetArgs(arguments)
}

// SetStreams redirects the report output and the interactive input.
func (application *Application) SetStreams(input io.Reader, output io.Writer, errorOutput io.Writer) {
	application.rootCommand.SetIn(input)
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(errorOutput)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for key, value := range database.DefaultConfigurationValues(databaseConfigurationKeyConstant) {
		defaultValues[key] = value
	}
	for key, value := range schemaaudit.DefaultConfigurationValues(schemaAuditConfigurationKeyConstant) {
		defaultValues[key] = value
	}
	for key, value := range datainspect.DefaultConfigurationValues(dataInspectConfigurationKeyConstant) {
		defaultValues[key] = value
	}

	configurationFilePath := application.homeExpander.Expand(application.configurationFilePath)
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, databaseURLFlagNameConstant) {
		application.configuration.Database.URL = application.databaseURLFlagValue
	}
	if application.persistentFlagChanged(command, driverFlagNameConstant) {
		application.configuration.Database.Driver = application.driverFlagValue
	}

	if len(application.configuration.Database.Driver) > 0 {
		normalizedDriver, driverError := flags.NormalizeChoice(driverChoiceSubjectConstant, application.configuration.Database.Driver, database.SupportedDrivers())
		if driverError != nil {
			return driverError
		}
		application.configuration.Database.Driver = normalizedDriver
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		map[string]any{runIdentifierFieldConstant: uuid.NewString()},
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(configurationDotEnvFieldConstant, application.configurationMetadata.DotEnvFilesUsed),
		zap.String(configurationDriverFieldConstant, application.configuration.Database.Driver),
	)

	return nil
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	if flag := command.Flags().Lookup(flagName); flag != nil && flag.Changed {
		return true
	}
	if flag := command.InheritedFlags().Lookup(flagName); flag != nil && flag.Changed {
		return true
	}
	return application.rootCommand.PersistentFlags().Changed(flagName)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

// Execute runs the db-scripts command hierarchy with process arguments.
func Execute() error {
	return NewApplication().Execute()
}

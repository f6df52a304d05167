package schemaaudit

const (
	dryRunConfigurationKeyConstant    = "dry_run"
	assumeYesConfigurationKeyConstant = "assume_yes"
)

// CommandConfiguration captures persistent settings for the schema-audit command.
type CommandConfiguration struct {
	DryRun    bool `mapstructure:"dry_run"`
	AssumeYes bool `mapstructure:"assume_yes"`
}

// DefaultCommandConfiguration returns baseline configuration values.
// Repairs are always confirmed interactively unless configured otherwise.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{DryRun: false, AssumeYes: false}
}

// DefaultConfigurationValues exposes the defaults keyed beneath prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + "." + dryRunConfigurationKeyConstant:    defaults.DryRun,
		prefix + "." + assumeYesConfigurationKeyConstant: defaults.AssumeYes,
	}
}

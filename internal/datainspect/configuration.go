package datainspect

import "fmt"

const (
	defaultUsersLimitConstant        = 10
	defaultTransactionsLimitConstant = 5

	usersLimitConfigurationKeyConstant        = "users_limit"
	transactionsLimitConfigurationKeyConstant = "transactions_limit"
	nonPositiveLimitTemplateConstant          = "%s must be positive, got %d"
	usersLimitSubjectConstant                 = "users limit"
	transactionsLimitSubjectConstant          = "transactions limit"
)

// CommandConfiguration captures persistent settings for the data-inspect command.
type CommandConfiguration struct {
	UsersLimit        int `mapstructure:"users_limit"`
	TransactionsLimit int `mapstructure:"transactions_limit"`
}

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		UsersLimit:        defaultUsersLimitConstant,
		TransactionsLimit: defaultTransactionsLimitConstant,
	}
}

// DefaultConfigurationValues exposes the defaults keyed beneath prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + "." + usersLimitConfigurationKeyConstant:        defaults.UsersLimit,
		prefix + "." + transactionsLimitConfigurationKeyConstant: defaults.TransactionsLimit,
	}
}

// CommandOptions captures the parameters of a single inspection.
type CommandOptions struct {
	UsersLimit        int
	TransactionsLimit int
}

// Validate rejects limits that would produce an empty or invalid listing.
func (options CommandOptions) Validate() error {
	if options.UsersLimit <= 0 {
		return fmt.Errorf(nonPositiveLimitTemplateConstant, usersLimitSubjectConstant, options.UsersLimit)
	}
	if options.TransactionsLimit <= 0 {
		return fmt.Errorf(nonPositiveLimitTemplateConstant, transactionsLimitSubjectConstant, options.TransactionsLimit)
	}
	return nil
}

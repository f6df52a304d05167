// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DryRunFlagName reports planned mutations without executing them.
	DryRunFlagName = "dry-run"
	// AssumeYesFlagName skips interactive confirmation of mutations.
	AssumeYesFlagName = "yes"

	dryRunFlagUsageConstant    = "Report planned schema repairs without executing them."
	assumeYesFlagUsageConstant = "Execute schema repairs without prompting for confirmation."
	assumeYesShorthandConstant = "y"
)

// ExecutionDefaults describes default flag values shared across mutating commands.
type ExecutionDefaults struct {
	DryRun    bool
	AssumeYes bool
}

// ExecutionFlags captures the resolved execution flag values.
type ExecutionFlags struct {
	DryRun       bool
	DryRunSet    bool
	AssumeYes    bool
	AssumeYesSet bool
}

// BindExecutionFlags attaches the --dry-run and --yes flags to the provided command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults) {
	if command == nil {
		return
	}

	flagSet := command.Flags()
	flagSet.Bool(DryRunFlagName, defaults.DryRun, dryRunFlagUsageConstant)
	flagSet.BoolP(AssumeYesFlagName, assumeYesShorthandConstant, defaults.AssumeYes, assumeYesFlagUsageConstant)
}

// ResolveExecutionFlags reads execution flag values and whether the operator set them explicitly.
func ResolveExecutionFlags(command *cobra.Command) ExecutionFlags {
	if command == nil {
		return ExecutionFlags{}
	}

	flagSet := command.Flags()
	dryRun, dryRunSet := lookupBool(flagSet, DryRunFlagName)
	assumeYes, assumeYesSet := lookupBool(flagSet, AssumeYesFlagName)

	return ExecutionFlags{
		DryRun:       dryRun,
		DryRunSet:    dryRunSet,
		AssumeYes:    assumeYes,
		AssumeYesSet: assumeYesSet,
	}
}

func lookupBool(flagSet *pflag.FlagSet, flagName string) (bool, bool) {
	if flagSet == nil || flagSet.Lookup(flagName) == nil {
		return false, false
	}
	value, valueError := flagSet.GetBool(flagName)
	if valueError != nil {
		return false, false
	}
	return value, flagSet.Changed(flagName)
}

package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "pgx",
			choices:        []string{"pgx", "postgres", "sqlite"},
			description:    "Database driver.",
			expectedOutput: "`<PGX|postgres|sqlite>` Database driver.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Log format.",
			expectedOutput: "`<structured|CONSOLE>` Log format.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "sqlite",
			choices:        []string{"pgx", "sqlite"},
			description:    "",
			expectedOutput: "`<pgx|SQLITE>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "postgres",
			choices:        []string{"postgres", "Postgres", "pgx"},
			description:    "Database driver.",
			expectedOutput: "`<POSTGRES|pgx>` Database driver.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}

func TestNormalizeChoice(t *testing.T) {
	choices := []string{"pgx", "postgres", "sqlite"}

	normalized, normalizeError := NormalizeChoice("driver", "  SQLite ", choices)
	require.NoError(t, normalizeError)
	require.Equal(t, "sqlite", normalized)

	_, unsupportedError := NormalizeChoice("driver", "mysql", choices)
	require.EqualError(t, unsupportedError, `unsupported driver "mysql" (expected one of pgx, postgres, sqlite)`)
}

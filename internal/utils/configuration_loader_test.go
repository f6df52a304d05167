package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dbscripts/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTDBSCRIPTS"
	testDatabaseURLKeyConstant                     = "database.url"
	testPrefixedURLEnvironmentConstant             = "TESTDBSCRIPTS_DATABASE_URL"
	testAliasURLEnvironmentConstant                = "TESTDBSCRIPTS_ALIAS_DATABASE_URL"
	testEmbeddedConfigurationConstant              = "database:\n  url: \"\"\n  connect_timeout: 15s\ncommon:\n  log_level: info\n"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "database:\n  url: %s\n  connect_timeout: 3s\n"
	testDotEnvFileNameConstant                     = ".env"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	testFileURLConstant                            = "postgres://file@localhost:5432/app"
	testPrefixedURLConstant                        = "postgres://prefixed@localhost:5432/app"
	testAliasURLConstant                           = "postgres://alias@localhost:5432/app"
	testDotEnvURLConstant                          = "postgres://dotenv@localhost:5432/app"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
)

type configurationFixture struct {
	Common   configurationCommonFixture   `mapstructure:"common"`
	Database configurationDatabaseFixture `mapstructure:"database"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationDatabaseFixture struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name            string
		fileURL         string
		prefixedURL     string
		aliasURL        string
		expectedURL     string
		expectedTimeout time.Duration
	}{
		{
			name:            "embedded_defaults",
			expectedURL:     "",
			expectedTimeout: 15 * time.Second,
		},
		{
			name:            "file_overrides_embedded",
			fileURL:         testFileURLConstant,
			expectedURL:     testFileURLConstant,
			expectedTimeout: 3 * time.Second,
		},
		{
			name:            "alias_overrides_file",
			fileURL:         testFileURLConstant,
			aliasURL:        testAliasURLConstant,
			expectedURL:     testAliasURLConstant,
			expectedTimeout: 3 * time.Second,
		},
		{
			name:            "prefixed_environment_wins",
			fileURL:         testFileURLConstant,
			prefixedURL:     testPrefixedURLConstant,
			aliasURL:        testAliasURLConstant,
			expectedURL:     testPrefixedURLConstant,
			expectedTimeout: 3 * time.Second,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileURL) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				fileContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileURL)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fileContent), 0o600))
			}
			if len(testCase.prefixedURL) > 0 {
				testInstance.Setenv(testPrefixedURLEnvironmentConstant, testCase.prefixedURL)
			}
			if len(testCase.aliasURL) > 0 {
				testInstance.Setenv(testAliasURLEnvironmentConstant, testCase.aliasURL)
			}

			loader := newTestConfigurationLoader(tempDirectory)

			var configuration configurationFixture
			loadedConfiguration, loadError := loader.LoadConfiguration(configurationFilePath, nil, &configuration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedURL, configuration.Database.URL)
			require.Equal(testInstance, testCase.expectedTimeout, configuration.Database.ConnectTimeout)
			require.Equal(testInstance, "info", configuration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, loadedConfiguration.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderImportsDotEnvFile(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	dotEnvPath := filepath.Join(tempDirectory, testDotEnvFileNameConstant)
	require.NoError(testInstance, os.WriteFile(dotEnvPath, []byte(testAliasURLEnvironmentConstant+"="+testDotEnvURLConstant+"\n"), 0o600))
	testInstance.Cleanup(func() {
		os.Unsetenv(testAliasURLEnvironmentConstant)
	})

	loader := newTestConfigurationLoader(tempDirectory)
	loader.SetDotEnvFiles([]string{filepath.Join(tempDirectory, "missing.env"), dotEnvPath})

	var configuration configurationFixture
	loadedConfiguration, loadError := loader.LoadConfiguration("", nil, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testDotEnvURLConstant, configuration.Database.URL)
	require.Equal(testInstance, []string{dotEnvPath}, loadedConfiguration.DotEnvFilesUsed)
}

func TestConfigurationLoaderDotEnvDoesNotOverrideEnvironment(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	dotEnvPath := filepath.Join(tempDirectory, testDotEnvFileNameConstant)
	require.NoError(testInstance, os.WriteFile(dotEnvPath, []byte(testPrefixedURLEnvironmentConstant+"="+testDotEnvURLConstant+"\n"), 0o600))
	testInstance.Setenv(testPrefixedURLEnvironmentConstant, testPrefixedURLConstant)

	loader := newTestConfigurationLoader(tempDirectory)
	loader.SetDotEnvFiles([]string{dotEnvPath})

	var configuration configurationFixture
	_, loadError := loader.LoadConfiguration("", nil, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testPrefixedURLConstant, configuration.Database.URL)
}

func TestConfigurationLoaderRejectsMalformedFile(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(tempDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("database: [unterminated\n"), 0o600))

	loader := newTestConfigurationLoader(tempDirectory)

	var configuration configurationFixture
	_, loadError := loader.LoadConfiguration(configurationFilePath, nil, &configuration)
	require.Error(testInstance, loadError)
	require.Contains(testInstance, loadError.Error(), "failed to read configuration")
}

func newTestConfigurationLoader(searchPath string) *utils.ConfigurationLoader {
	loader := utils.NewConfigurationLoader(
		testConfigurationNameConstant,
		testConfigurationTypeConstant,
		testEnvironmentPrefixConstant,
		[]string{searchPath},
	)
	loader.SetEmbeddedConfiguration([]byte(testEmbeddedConfigurationConstant), testConfigurationTypeConstant)
	loader.SetEnvironmentAliases(map[string][]string{
		testDatabaseURLKeyConstant: {testAliasURLEnvironmentConstant},
	})
	return loader
}

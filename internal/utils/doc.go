// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader, LoggerFactory, and FlushingWriter, which
// integrate Viper, dotenv files, environment variables, and zap logging for
// the CLI.
package utils

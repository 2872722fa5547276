// Package utils exposes reusable helpers consumed by the command line layer.
//
// ConfigurationLoader layers embedded defaults, configuration files and
// environment variables through Viper. LoggerFactory builds zap loggers that
// stay off standard output so the refresh report remains clean.
package utils

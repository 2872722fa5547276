// Package cli constructs the repo-batch-refresh command-line interface. It
// wires the refresh command as the Cobra root, layers embedded defaults,
// configuration files and REPOREFRESH_* environment variables through Viper,
// and builds the zap logger used for diagnostics on standard error.
package cli

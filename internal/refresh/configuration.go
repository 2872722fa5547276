package refresh

import (
	"strings"

	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	// DefaultWorkerCountConstant is the pool size used when none is configured.
	DefaultWorkerCountConstant = 20

	configurationKeySeparatorConstant           = "."
	configurationBatchKeyConstant               = "batch"
	configurationDebugKeyConstant               = "debug"
	configurationRemoteKeyConstant              = "remote"
	configurationFallbackBranchKeyConstant      = "fallback_branch"
	configurationIgnoreMarkerKeyConstant        = "ignore_marker"
	configurationExcludedDirectoriesKeyConstant = "excluded_directories"
)

// CommandConfiguration captures configuration values for the refresh command.
type CommandConfiguration struct {
	WorkerCount            int      `mapstructure:"batch"`
	Debug                  bool     `mapstructure:"debug"`
	RemoteName             string   `mapstructure:"remote"`
	FallbackBranchName     string   `mapstructure:"fallback_branch"`
	IgnoreMarkerFileName   string   `mapstructure:"ignore_marker"`
	ExcludedDirectoryNames []string `mapstructure:"excluded_directories"`
}

// DefaultCommandConfiguration provides baseline configuration values for the refresh command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		WorkerCount:            DefaultWorkerCountConstant,
		Debug:                  false,
		RemoteName:             shared.OriginRemoteNameConstant,
		FallbackBranchName:     shared.FallbackBranchNameConstant,
		IgnoreMarkerFileName:   shared.IgnoreMarkerFileNameConstant,
		ExcludedDirectoryNames: shared.DefaultExcludedDirectoryNames(),
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationBatchKeyConstant:               defaults.WorkerCount,
		rootKey + configurationKeySeparatorConstant + configurationDebugKeyConstant:               defaults.Debug,
		rootKey + configurationKeySeparatorConstant + configurationRemoteKeyConstant:              defaults.RemoteName,
		rootKey + configurationKeySeparatorConstant + configurationFallbackBranchKeyConstant:      defaults.FallbackBranchName,
		rootKey + configurationKeySeparatorConstant + configurationIgnoreMarkerKeyConstant:        defaults.IgnoreMarkerFileName,
		rootKey + configurationKeySeparatorConstant + configurationExcludedDirectoriesKeyConstant: defaults.ExcludedDirectoryNames,
	}
}

// Sanitize trims values and restores defaults for blank names. The worker count
// is left untouched so that invalid values are rejected rather than replaced.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.RemoteName = firstNonBlank(configuration.RemoteName, defaults.RemoteName)
	sanitized.FallbackBranchName = firstNonBlank(configuration.FallbackBranchName, defaults.FallbackBranchName)
	sanitized.IgnoreMarkerFileName = firstNonBlank(configuration.IgnoreMarkerFileName, defaults.IgnoreMarkerFileName)

	if configuration.ExcludedDirectoryNames != nil {
		excludedDirectoryNames := make([]string, 0, len(configuration.ExcludedDirectoryNames))
		for _, excludedDirectoryName := range configuration.ExcludedDirectoryNames {
			trimmedName := strings.TrimSpace(excludedDirectoryName)
			if len(trimmedName) == 0 {
				continue
			}
			excludedDirectoryNames = append(excludedDirectoryNames, trimmedName)
		}
		sanitized.ExcludedDirectoryNames = excludedDirectoryNames
	}

	return sanitized
}

func firstNonBlank(candidate string, fallback string) string {
	trimmedCandidate := strings.TrimSpace(candidate)
	if len(trimmedCandidate) == 0 {
		return fallback
	}
	return trimmedCandidate
}

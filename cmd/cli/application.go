package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cxbig/repo-batch-refresh/internal/refresh"
	"github.com/cxbig/repo-batch-refresh/internal/utils"
	flagutils "github.com/cxbig/repo-batch-refresh/internal/utils/flags"
)

const (
	applicationNameConstant                  = "repo-batch-refresh"
	configFileFlagNameConstant               = "config"
	configFileFlagUsageConstant              = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                 = "log-level"
	logLevelFlagUsageConstant                = "Override the configured log level."
	logFormatFlagNameConstant                = "log-format"
	logFormatFlagUsageConstant               = "Override the configured log format."
	commonConfigurationKeyConstant           = "common"
	commonLogLevelConfigKeyConstant          = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant         = commonConfigurationKeyConstant + ".log_format"
	refreshConfigurationKeyConstant          = "refresh"
	environmentPrefixConstant                = "REPOREFRESH"
	configurationNameConstant                = "config"
	configurationTypeConstant                = "yaml"
	configurationInitializedMessageConstant  = "configuration initialized"
	configurationLogLevelFieldConstant       = "log_level"
	configurationLogFormatFieldConstant      = "log_format"
	configurationFileFieldConstant           = "config_file"
	configurationLoadErrorTemplateConstant   = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant      = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant          = "unable to flush logger: %w"
	refreshCommandBuildErrorTemplateConstant = "unable to build refresh command: %w"
	defaultConfigurationSearchPathConstant   = "."
	versionTemplateConstant                  = applicationNameConstant + " version: {{.Version}}\n"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration `mapstructure:"common"`
	Refresh refresh.CommandConfiguration   `mapstructure:"refresh"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	refreshBuilder        *refresh.CommandBuilder
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		configuration:       defaultApplicationConfiguration(),
	}

	application.refreshBuilder = &refresh.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() refresh.CommandConfiguration {
			return application.configuration.Refresh
		},
	}

	cobraCommand, buildError := application.refreshBuilder.Build()
	if buildError != nil {
		return nil, fmt.Errorf(refreshCommandBuildErrorTemplateConstant, buildError)
	}

	cobraCommand.Version = ResolveVersion()
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.SilenceUsage = true
	cobraCommand.SilenceErrors = true
	cobraCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}

	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(cobraCommand.PersistentFlags(), &application.logLevelFlagValue, logLevelFlagNameConstant, "", utils.SupportedLogLevels(), logLevelFlagUsageConstant)
	flagutils.AddChoiceFlag(cobraCommand.PersistentFlags(), &application.logFormatFlagValue, logFormatFlagNameConstant, "", utils.SupportedLogFormats(), logFormatFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application, nil
}

// Execute runs the root command and ensures logger flushing. An interrupt
// cancels in-flight git processes.
func (application *Application) Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	executionError := application.rootCommand.ExecuteContext(signalContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	application, creationError := NewApplication()
	if creationError != nil {
		return creationError
	}
	return application.Execute()
}

func defaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{
			LogLevel:  string(utils.LogLevelError),
			LogFormat: string(utils.LogFormatStructured),
		},
		Refresh: refresh.DefaultCommandConfiguration(),
	}
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range refresh.DefaultConfigurationValues(refreshConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration := ApplicationConfiguration{}
	metadata, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &loadedConfiguration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configuration = loadedConfiguration
	application.configurationMetadata = metadata

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
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
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{command.PersistentFlags(), command.InheritedFlags()}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

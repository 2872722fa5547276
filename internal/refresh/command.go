package refresh

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cxbig/repo-batch-refresh/internal/report"
	"github.com/cxbig/repo-batch-refresh/internal/repos/dependencies"
	"github.com/cxbig/repo-batch-refresh/internal/repos/discovery"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
	"github.com/cxbig/repo-batch-refresh/internal/utils"
	"github.com/cxbig/repo-batch-refresh/internal/utils/flags"
	pathutils "github.com/cxbig/repo-batch-refresh/internal/utils/path"
)

const (
	commandUseConstant                    = "repo-batch-refresh ROOT_DIR"
	commandShortDescriptionConstant       = "Refresh every git repository below a directory"
	commandLongDescriptionConstant        = "repo-batch-refresh discovers git repositories below ROOT_DIR and refreshes them concurrently. A repository whose checked-out branch is the remote default branch is fast-forwarded; any other repository only has its local default branch updated through a fetch. Repositories holding an ignore marker file are reported as skipped."
	commandExampleConstant                = "repo-batch-refresh ~/src --batch 8 --debug"
	batchFlagNameConstant                 = "batch"
	batchFlagUsageConstant                = "Number of repositories refreshed concurrently."
	debugFlagNameConstant                 = "debug"
	debugFlagUsageConstant                = "Print branch decisions and captured git output for every repository."
	remoteFlagNameConstant                = "remote"
	remoteFlagUsageConstant               = "Remote used for identity, default branch detection and refresh."
	fallbackBranchFlagNameConstant        = "fallback-branch"
	fallbackBranchFlagUsageConstant       = "Branch assumed when the remote default branch cannot be detected."
	rootDirectoryArgumentIndexConstant    = 0
	requiredPositionalArgumentsConstant   = 1
	rootDirectoryResolvedMessageConstant  = "root directory resolved"
	logFieldRequestedRootConstant         = "requested_root"
	logFieldResolvedRootConstant          = "resolved_root"
	logFieldConfiguredWorkerCountConstant = "batch"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// RootDirectoryResolver turns the ROOT_DIR argument into an absolute path.
type RootDirectoryResolver interface {
	Resolve(candidatePath string) (string, error)
}

// CommandBuilder assembles the repo-batch-refresh command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	GitRepositoryManager         shared.GitRepositoryManager
	IdentityResolver             shared.RepositoryIdentityResolver
	RepositoryDiscoverer         shared.RepositoryDiscoverer
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	RootDirectoryResolver        RootDirectoryResolver
	Clock                        Clock
}

type commandFlagValues struct {
	debug bool
}

// Build constructs the repo-batch-refresh command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	flagValues := &commandFlagValues{}

	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.ExactArgs(requiredPositionalArgumentsConstant),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, flagValues)
		},
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().Int(batchFlagNameConstant, defaults.WorkerCount, batchFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &flagValues.debug, debugFlagNameConstant, defaults.Debug, debugFlagUsageConstant)
	command.Flags().String(remoteFlagNameConstant, defaults.RemoteName, remoteFlagUsageConstant)
	command.Flags().String(fallbackBranchFlagNameConstant, defaults.FallbackBranchName, fallbackBranchFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, flagValues *commandFlagValues) error {
	configuration, configurationError := builder.resolveConfiguration(command, flagValues)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()

	rootDirectory, rootError := builder.resolveRootDirectoryResolver().Resolve(arguments[rootDirectoryArgumentIndexConstant])
	if rootError != nil {
		return rootError
	}
	logger.Debug(
		rootDirectoryResolvedMessageConstant,
		zap.String(logFieldRequestedRootConstant, arguments[rootDirectoryArgumentIndexConstant]),
		zap.String(logFieldResolvedRootConstant, rootDirectory),
		zap.Int(logFieldConfiguredWorkerCountConstant, configuration.WorkerCount),
	)

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := dependencies.ResolveGitRepositoryManager(builder.GitRepositoryManager, gitExecutor)
	if managerError != nil {
		return managerError
	}

	identityResolver := dependencies.ResolveIdentityResolver(builder.IdentityResolver, repositoryManager, configuration.RemoteName)
	repositoryDiscoverer := dependencies.ResolveRepositoryDiscoverer(builder.RepositoryDiscoverer, discovery.Options{
		IgnoreMarkerFileName:   configuration.IgnoreMarkerFileName,
		ExcludedDirectoryNames: configuration.ExcludedDirectoryNames,
		IdentityResolver:       identityResolver,
	})

	engine, engineError := NewEngine(
		Dependencies{GitExecutor: gitExecutor, RepositoryManager: repositoryManager},
		EngineOptions{RemoteName: configuration.RemoteName, FallbackBranchName: configuration.FallbackBranchName},
	)
	if engineError != nil {
		return engineError
	}

	outputWriter := command.OutOrStdout()
	reporter := report.NewReporter(utils.NewFlushingWriter(outputWriter), report.Options{
		Verbose:  configuration.Debug,
		Colorize: colorizationEnabled(outputWriter),
	})

	runner, runnerError := NewRunner(RunnerDependencies{
		Discoverer: repositoryDiscoverer,
		Refresher:  engine,
		Reporter:   reporter,
		Logger:     logger,
		Clock:      builder.Clock,
	})
	if runnerError != nil {
		return runnerError
	}

	_, runError := runner.Run(command.Context(), RunOptions{
		RootPath:    rootDirectory,
		WorkerCount: configuration.WorkerCount,
	})
	return runError
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command, flagValues *commandFlagValues) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(batchFlagNameConstant) {
		workerCount, workerCountError := commandFlags.GetInt(batchFlagNameConstant)
		if workerCountError != nil {
			return CommandConfiguration{}, workerCountError
		}
		configuration.WorkerCount = workerCount
	}
	if commandFlags.Changed(debugFlagNameConstant) {
		configuration.Debug = flagValues.debug
	}
	if commandFlags.Changed(remoteFlagNameConstant) {
		remoteName, remoteError := commandFlags.GetString(remoteFlagNameConstant)
		if remoteError != nil {
			return CommandConfiguration{}, remoteError
		}
		configuration.RemoteName = remoteName
	}
	if commandFlags.Changed(fallbackBranchFlagNameConstant) {
		fallbackBranchName, fallbackError := commandFlags.GetString(fallbackBranchFlagNameConstant)
		if fallbackError != nil {
			return CommandConfiguration{}, fallbackError
		}
		configuration.FallbackBranchName = fallbackBranchName
	}

	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) resolveRootDirectoryResolver() RootDirectoryResolver {
	if builder.RootDirectoryResolver == nil {
		return pathutils.NewRootDirectoryResolver()
	}
	return builder.RootDirectoryResolver
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// colorizationEnabled reports whether status colours should be emitted. Only
// the process standard output qualifies, and fatih/color already accounts for
// NO_COLOR and non-terminal output.
func colorizationEnabled(writer io.Writer) bool {
	outputFile, isFile := writer.(*os.File)
	if !isFile || outputFile != os.Stdout {
		return false
	}
	return !color.NoColor
}

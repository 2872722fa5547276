package dependencies

import (
	"go.uber.org/zap"

	"github.com/cxbig/repo-batch-refresh/internal/execshell"
	"github.com/cxbig/repo-batch-refresh/internal/gitrepo"
	"github.com/cxbig/repo-batch-refresh/internal/repos/discovery"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
	"github.com/cxbig/repo-batch-refresh/internal/ui"
)

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveRepositoryDiscoverer(existing shared.RepositoryDiscoverer, options discovery.Options) shared.RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemRepositoryDiscoverer(options)
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
// Human-readable logging attaches a console observer that narrates each git command.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	var shellExecutor *execshell.ShellExecutor
	var creationError error
	if humanReadableLogging {
		shellExecutor, creationError = execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	} else {
		shellExecutor, creationError = execshell.NewShellExecutor(logger, commandRunner)
	}
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.GitExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	repositoryManager, creationError := gitrepo.NewRepositoryManager(executor)
	if creationError != nil {
		return nil, creationError
	}
	return repositoryManager, nil
}

// ResolveIdentityResolver returns the provided resolver or one that reads remoteName through the repository manager.
func ResolveIdentityResolver(existing shared.RepositoryIdentityResolver, manager shared.GitRepositoryManager, remoteName string) shared.RepositoryIdentityResolver {
	if existing != nil {
		return existing
	}
	return gitrepo.NewIdentityResolver(manager, remoteName)
}

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cxbig/repo-batch-refresh/internal/execshell"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	gitRevParseSubcommandConstant          = "rev-parse"
	gitAbbrevRefFlagConstant               = "--abbrev-ref"
	gitHeadReferenceConstant               = "HEAD"
	gitSymbolicRefSubcommandConstant       = "symbolic-ref"
	gitQuietFlagConstant                   = "--quiet"
	gitShortFlagConstant                   = "--short"
	gitRemoteHeadReferenceTemplateConstant = "refs/remotes/%s/HEAD"
	gitRemoteSubcommandConstant            = "remote"
	gitGetURLSubcommandConstant            = "get-url"
	remoteBranchPrefixTemplateConstant     = "%s/"
	executorMissingMessageConstant         = "git executor not configured"
	detachedHeadMessageConstant            = "repository is in a detached HEAD state"
	emptyRemoteURLMessageConstant          = "remote url is empty"
	defaultBranchUnparseableTemplate       = "default branch pointer %q does not belong to remote %q"
	currentBranchErrorTemplateConstant     = "unable to determine current branch: %w"
	defaultBranchErrorTemplateConstant     = "unable to determine default branch: %w"
	remoteURLErrorTemplateConstant         = "unable to read remote %q: %w"
)

// ErrGitExecutorNotConfigured indicates the repository manager was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrDetachedHead indicates HEAD does not point at a branch.
var ErrDetachedHead = errors.New(detachedHeadMessageConstant)

// ErrEmptyRemoteURL indicates the remote exists but reported no URL.
var ErrEmptyRemoteURL = errors.New(emptyRemoteURLMessageConstant)

// DefaultBranchParseError reports a remote HEAD pointer outside the expected remote namespace.
type DefaultBranchParseError struct {
	Pointer    string
	RemoteName string
}

// Error describes the unexpected pointer.
func (parseError DefaultBranchParseError) Error() string {
	return fmt.Sprintf(defaultBranchUnparseableTemplate, parseError.Pointer, parseError.RemoteName)
}

// RepositoryManager runs git queries against working copies.
type RepositoryManager struct {
	executor shared.GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around executor.
func NewRepositoryManager(executor shared.GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// GetRemoteURL returns the configured URL of remoteName.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	output, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitGetURLSubcommandConstant, remoteName)
	if executionError != nil {
		return "", fmt.Errorf(remoteURLErrorTemplateConstant, remoteName, executionError)
	}
	if len(output) == 0 {
		return "", fmt.Errorf(remoteURLErrorTemplateConstant, remoteName, ErrEmptyRemoteURL)
	}
	return output, nil
}

// GetCurrentBranch returns the short name of the checked-out branch.
//
// A detached HEAD is reported as ErrDetachedHead.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	output, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", fmt.Errorf(currentBranchErrorTemplateConstant, executionError)
	}
	if len(output) == 0 || output == gitHeadReferenceConstant {
		return "", ErrDetachedHead
	}
	return output, nil
}

// GetDefaultBranch resolves the branch the remote's symbolic HEAD points at.
func (manager *RepositoryManager) GetDefaultBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	remoteHeadReference := fmt.Sprintf(gitRemoteHeadReferenceTemplateConstant, remoteName)
	output, executionError := manager.run(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, remoteHeadReference)
	if executionError != nil {
		return "", fmt.Errorf(defaultBranchErrorTemplateConstant, executionError)
	}

	branchName, hasRemotePrefix := strings.CutPrefix(output, fmt.Sprintf(remoteBranchPrefixTemplateConstant, remoteName))
	if !hasRemotePrefix || len(branchName) == 0 {
		return "", DefaultBranchParseError{Pointer: output, RemoteName: remoteName}
	}
	return branchName, nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	details := shared.WithPromptsDisabled(execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, details)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

package shared

import (
	"context"

	"github.com/cxbig/repo-batch-refresh/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the remote consulted when none is configured.
	OriginRemoteNameConstant = "origin"
	// GitMetadataDirectoryNameConstant is the directory whose parent is a repository root.
	GitMetadataDirectoryNameConstant = ".git"
	// IgnoreMarkerFileNameConstant marks a repository root that must be skipped.
	IgnoreMarkerFileNameConstant = ".ignore"
	// FallbackBranchNameConstant is used when the remote default branch cannot be detected.
	FallbackBranchNameConstant = "main"
	// GitTerminalPromptEnvironmentNameConstant disables interactive credential prompts.
	GitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	// GitTerminalPromptDisabledValueConstant is the value that disables prompts.
	GitTerminalPromptDisabledValueConstant = "0"
)

// DefaultExcludedDirectoryNames lists directories that never contain repositories worth refreshing.
func DefaultExcludedDirectoryNames() []string {
	return []string{".venv", "node_modules", ".idea"}
}

// RepositoryJob describes a discovered repository scheduled for refresh.
type RepositoryJob struct {
	Root     string
	Identity string
}

// SkippedJob describes a discovered repository carrying the ignore marker.
type SkippedJob struct {
	Identity string
}

// Discovery holds the ordered results of walking a directory tree.
type Discovery struct {
	Jobs    []RepositoryJob
	Skipped []SkippedJob
}

// Total reports the number of repositories represented by the discovery.
func (discovery Discovery) Total() int {
	return len(discovery.Jobs) + len(discovery.Skipped)
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes repository-level git queries.
type GitRepositoryManager interface {
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetDefaultBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// RepositoryIdentityResolver derives a credential-free display identity for a repository root.
type RepositoryIdentityResolver interface {
	ResolveIdentity(executionContext context.Context, repositoryPath string) (string, bool)
}

// RepositoryDiscoverer locates repositories for a refresh sweep.
type RepositoryDiscoverer interface {
	Discover(executionContext context.Context, rootPath string) (Discovery, error)
}

// WithPromptsDisabled returns a copy of details that forbids interactive git prompts.
func WithPromptsDisabled(details execshell.CommandDetails) execshell.CommandDetails {
	environment := make(map[string]string, len(details.EnvironmentVariables)+1)
	for environmentKey, environmentValue := range details.EnvironmentVariables {
		environment[environmentKey] = environmentValue
	}
	environment[GitTerminalPromptEnvironmentNameConstant] = GitTerminalPromptDisabledValueConstant
	details.EnvironmentVariables = environment
	return details
}

package refresh_test

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxbig/repo-batch-refresh/internal/execshell"
	"github.com/cxbig/repo-batch-refresh/internal/refresh"
	"github.com/cxbig/repo-batch-refresh/internal/report"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	testRepositoryRootConstant     = "/srv/repos/project"
	testRepositoryIdentityConstant = "owner/project"
)

type recordingGitExecutor struct {
	mutex            sync.Mutex
	result           execshell.ExecutionResult
	failure          error
	recordedCommands []execshell.CommandDetails
}

func (executor *recordingGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.failure != nil {
		return execshell.ExecutionResult{}, executor.failure
	}
	return executor.result, nil
}

type stubBranchManager struct {
	mutex               sync.Mutex
	defaultBranch       string
	defaultBranchError  error
	currentBranch       string
	currentBranchError  error
	requestedRemoteName string
}

func (manager *stubBranchManager) GetRemoteURL(context.Context, string, string) (string, error) {
	return "", errors.New("not used")
}

func (manager *stubBranchManager) GetCurrentBranch(context.Context, string) (string, error) {
	return manager.currentBranch, manager.currentBranchError
}

func (manager *stubBranchManager) GetDefaultBranch(_ context.Context, _ string, remoteName string) (string, error) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	manager.requestedRemoteName = remoteName
	return manager.defaultBranch, manager.defaultBranchError
}

func TestNewEngineRequiresCollaborators(testInstance *testing.T) {
	engine, creationError := refresh.NewEngine(refresh.Dependencies{RepositoryManager: &stubBranchManager{}}, refresh.EngineOptions{})
	require.Nil(testInstance, engine)
	require.ErrorIs(testInstance, creationError, refresh.ErrGitExecutorNotConfigured)

	engine, creationError = refresh.NewEngine(refresh.Dependencies{GitExecutor: &recordingGitExecutor{}}, refresh.EngineOptions{})
	require.Nil(testInstance, engine)
	require.ErrorIs(testInstance, creationError, refresh.ErrRepositoryManagerNotConfigured)
}

func TestEngineRefreshSelectsStrategy(testInstance *testing.T) {
	testCases := []struct {
		name                string
		manager             *stubBranchManager
		options             refresh.EngineOptions
		expectedArguments   []string
		expectedStrategy    refresh.Strategy
		expectedDebugSuffix string
		expectedRemoteName  string
	}{
		{
			name:                "default_branch_checked_out_pulls",
			manager:             &stubBranchManager{defaultBranch: "main", currentBranch: "main"},
			expectedArguments:   []string{"pull", "--ff-only", "-q", "origin", "main"},
			expectedStrategy:    refresh.StrategyFastForwardPull,
			expectedDebugSuffix: "current=main default=main",
			expectedRemoteName:  "origin",
		},
		{
			name:                "feature_branch_checked_out_fetches",
			manager:             &stubBranchManager{defaultBranch: "develop", currentBranch: "feature/login"},
			expectedArguments:   []string{"fetch", "origin", "develop:develop", "--prune"},
			expectedStrategy:    refresh.StrategyFetchReference,
			expectedDebugSuffix: "current=feature/login default=develop",
			expectedRemoteName:  "origin",
		},
		{
			name:                "missing_default_pointer_falls_back_to_main",
			manager:             &stubBranchManager{defaultBranchError: errors.New("no symbolic ref"), currentBranch: "main"},
			expectedArguments:   []string{"pull", "--ff-only", "-q", "origin", "main"},
			expectedStrategy:    refresh.StrategyFastForwardPull,
			expectedDebugSuffix: "current=main default=main",
			expectedRemoteName:  "origin",
		},
		{
			name:                "detached_head_fetches",
			manager:             &stubBranchManager{defaultBranch: "main", currentBranchError: errors.New("detached")},
			expectedArguments:   []string{"fetch", "origin", "main:main", "--prune"},
			expectedStrategy:    refresh.StrategyFetchReference,
			expectedDebugSuffix: "current=none default=main",
			expectedRemoteName:  "origin",
		},
		{
			name:                "configured_remote_and_fallback",
			manager:             &stubBranchManager{defaultBranchError: errors.New("no symbolic ref"), currentBranch: "trunk"},
			options:             refresh.EngineOptions{RemoteName: "upstream", FallbackBranchName: "trunk"},
			expectedArguments:   []string{"pull", "--ff-only", "-q", "upstream", "trunk"},
			expectedStrategy:    refresh.StrategyFastForwardPull,
			expectedDebugSuffix: "current=trunk default=trunk",
			expectedRemoteName:  "upstream",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingGitExecutor{}
			engine, creationError := refresh.NewEngine(refresh.Dependencies{GitExecutor: executor, RepositoryManager: testCase.manager}, testCase.options)
			require.NoError(testInstance, creationError)

			outcome, refreshError := engine.Refresh(context.Background(), shared.RepositoryJob{Root: testRepositoryRootConstant, Identity: testRepositoryIdentityConstant})
			require.NoError(testInstance, refreshError)
			require.True(testInstance, outcome.Succeeded())
			require.Equal(testInstance, testCase.expectedStrategy, outcome.Decision.Strategy)
			require.Equal(testInstance, testCase.expectedDebugSuffix, outcome.DebugSuffix)
			require.Empty(testInstance, outcome.ErrorLines)
			require.Equal(testInstance, testCase.expectedRemoteName, testCase.manager.requestedRemoteName)

			require.Len(testInstance, executor.recordedCommands, 1)
			recordedCommand := executor.recordedCommands[0]
			require.Equal(testInstance, testCase.expectedArguments, recordedCommand.Arguments)
			require.Equal(testInstance, testRepositoryRootConstant, recordedCommand.WorkingDirectory)
			require.Equal(testInstance, shared.GitTerminalPromptDisabledValueConstant, recordedCommand.EnvironmentVariables[shared.GitTerminalPromptEnvironmentNameConstant])
		})
	}
}

func TestEngineRefreshReportsCommandFailure(testInstance *testing.T) {
	executor := &recordingGitExecutor{
		failure: execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit},
			Result: execshell.ExecutionResult{
				StandardError: "hint: Diverging branches can't be fast-forwarded\r\n\nfatal: Not possible to fast-forward, aborting.\n",
				ExitCode:      128,
			},
		},
	}
	engine, creationError := refresh.NewEngine(refresh.Dependencies{
		GitExecutor:       executor,
		RepositoryManager: &stubBranchManager{defaultBranch: "main", currentBranch: "main"},
	}, refresh.EngineOptions{})
	require.NoError(testInstance, creationError)

	outcome, refreshError := engine.Refresh(context.Background(), shared.RepositoryJob{Root: testRepositoryRootConstant})
	require.NoError(testInstance, refreshError)
	require.False(testInstance, outcome.Succeeded())
	require.Equal(testInstance, report.StatusFailure, outcome.Status)
	require.Equal(testInstance, "current=main default=main", outcome.DebugSuffix)
	require.Equal(testInstance, []string{
		"hint: Diverging branches can't be fast-forwarded",
		"fatal: Not possible to fast-forward, aborting.",
	}, outcome.ErrorLines)
}

func TestEngineRefreshReturnsLaunchFailure(testInstance *testing.T) {
	launchFailure := execshell.CommandExecutionError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Cause:   exec.ErrNotFound,
	}
	engine, creationError := refresh.NewEngine(refresh.Dependencies{
		GitExecutor:       &recordingGitExecutor{failure: launchFailure},
		RepositoryManager: &stubBranchManager{defaultBranch: "main"},
	}, refresh.EngineOptions{})
	require.NoError(testInstance, creationError)

	outcome, refreshError := engine.Refresh(context.Background(), shared.RepositoryJob{Root: testRepositoryRootConstant})
	require.ErrorIs(testInstance, refreshError, exec.ErrNotFound)
	require.False(testInstance, outcome.Succeeded())

	unexpectedOutcome := refresh.NewUnexpectedOutcome(refreshError)
	require.Equal(testInstance, report.StatusFailure, unexpectedOutcome.Status)
	require.Len(testInstance, unexpectedOutcome.ErrorLines, 1)
	require.Contains(testInstance, unexpectedOutcome.ErrorLines[0], "unexpected error: ")
	require.Empty(testInstance, unexpectedOutcome.DebugSuffix)
}

func TestDecideStrategy(testInstance *testing.T) {
	testCases := []struct {
		name             string
		decision         refresh.Decision
		expectedStrategy refresh.Strategy
	}{
		{name: "matching_branch", decision: refresh.Decision{DefaultBranch: "main", CurrentBranch: "main", HasCurrentBranch: true}, expectedStrategy: refresh.StrategyFastForwardPull},
		{name: "different_branch", decision: refresh.Decision{DefaultBranch: "main", CurrentBranch: "dev", HasCurrentBranch: true}, expectedStrategy: refresh.StrategyFetchReference},
		{name: "no_current_branch", decision: refresh.Decision{DefaultBranch: "main"}, expectedStrategy: refresh.StrategyFetchReference},
		{name: "case_sensitive_comparison", decision: refresh.Decision{DefaultBranch: "main", CurrentBranch: "Main", HasCurrentBranch: true}, expectedStrategy: refresh.StrategyFetchReference},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedStrategy, refresh.DecideStrategy(testCase.decision))
		})
	}
}

func TestClassifyExecution(testInstance *testing.T) {
	decision := refresh.Decision{DefaultBranch: "main", CurrentBranch: "main", HasCurrentBranch: true}

	successOutcome := refresh.ClassifyExecution(decision, nil)
	require.True(testInstance, successOutcome.Succeeded())
	require.Equal(testInstance, decision, successOutcome.Decision)

	silentFailure := refresh.ClassifyExecution(decision, execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 1}})
	require.False(testInstance, silentFailure.Succeeded())
	require.Empty(testInstance, silentFailure.ErrorLines)

	combinedFailure := refresh.ClassifyExecution(decision, execshell.CommandFailedError{Result: execshell.ExecutionResult{
		StandardOutput: "From github.com:owner/project",
		StandardError:  "fatal: refusing to fetch into branch",
		ExitCode:       1,
	}})
	require.Equal(testInstance, []string{"From github.com:owner/project", "fatal: refusing to fetch into branch"}, combinedFailure.ErrorLines)

	genericFailure := refresh.ClassifyExecution(decision, errors.New("context canceled"))
	require.Equal(testInstance, []string{"context canceled"}, genericFailure.ErrorLines)
}

func TestStrategyString(testInstance *testing.T) {
	require.Equal(testInstance, "fast-forward-pull", refresh.StrategyFastForwardPull.String())
	require.Equal(testInstance, "fetch-reference", refresh.StrategyFetchReference.String())
}

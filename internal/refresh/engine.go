package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cxbig/repo-batch-refresh/internal/execshell"
	"github.com/cxbig/repo-batch-refresh/internal/report"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	gitExecutorMissingMessageConstant       = "git executor not configured"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	unknownStateTemplateConstant            = "refresh state %d is not defined"
	gitPullSubcommandConstant               = "pull"
	gitPullFastForwardFlagConstant          = "--ff-only"
	gitQuietFlagConstant                    = "-q"
	gitFetchSubcommandConstant              = "fetch"
	gitFetchPruneFlagConstant               = "--prune"
	gitReferenceMappingTemplateConstant     = "%s:%s"
)

// ErrGitExecutorNotConfigured indicates the engine was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the engine was built without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// Dependencies enumerates external collaborators required by the engine.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
}

// EngineOptions configures branch policy.
type EngineOptions struct {
	RemoteName         string
	FallbackBranchName string
}

// Engine refreshes a single repository.
type Engine struct {
	executor           shared.GitExecutor
	repositoryManager  shared.GitRepositoryManager
	remoteName         string
	fallbackBranchName string
}

type refreshState int

const (
	refreshStateDetectDefaultBranch refreshState = iota
	refreshStateDetectCurrentBranch
	refreshStateDecide
	refreshStateExecute
	refreshStateClassify
	refreshStateFinished
)

type refreshRun struct {
	job            shared.RepositoryJob
	decision       Decision
	executionError error
	outcome        Outcome
}

// NewEngine constructs an Engine. Blank options fall back to origin and main.
func NewEngine(dependencies Dependencies, options EngineOptions) (*Engine, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = shared.OriginRemoteNameConstant
	}
	fallbackBranchName := strings.TrimSpace(options.FallbackBranchName)
	if len(fallbackBranchName) == 0 {
		fallbackBranchName = shared.FallbackBranchNameConstant
	}

	return &Engine{
		executor:           dependencies.GitExecutor,
		repositoryManager:  dependencies.RepositoryManager,
		remoteName:         remoteName,
		fallbackBranchName: fallbackBranchName,
	}, nil
}

// Refresh runs the per-repository state machine:
// detect default branch, detect current branch, decide, execute, classify.
//
// A git process that exits non-zero yields a failed Outcome. An error is
// returned only when the git process could not be started at all.
func (engine *Engine) Refresh(executionContext context.Context, job shared.RepositoryJob) (Outcome, error) {
	run := &refreshRun{job: job}
	state := refreshStateDetectDefaultBranch
	for state != refreshStateFinished {
		nextState, stepError := engine.step(executionContext, run, state)
		if stepError != nil {
			return Outcome{Status: report.StatusFailure, Decision: run.decision}, stepError
		}
		state = nextState
	}
	return run.outcome, nil
}

func (engine *Engine) step(executionContext context.Context, run *refreshRun, state refreshState) (refreshState, error) {
	switch state {
	case refreshStateDetectDefaultBranch:
		run.decision.DefaultBranch = engine.detectDefaultBranch(executionContext, run.job.Root)
		return refreshStateDetectCurrentBranch, nil
	case refreshStateDetectCurrentBranch:
		run.decision.CurrentBranch, run.decision.HasCurrentBranch = engine.detectCurrentBranch(executionContext, run.job.Root)
		return refreshStateDecide, nil
	case refreshStateDecide:
		run.decision.Strategy = DecideStrategy(run.decision)
		return refreshStateExecute, nil
	case refreshStateExecute:
		_, executionError := engine.executor.ExecuteGit(executionContext, engine.buildCommand(run.job.Root, run.decision))
		var launchFailure execshell.CommandExecutionError
		if errors.As(executionError, &launchFailure) {
			return refreshStateFinished, executionError
		}
		run.executionError = executionError
		return refreshStateClassify, nil
	case refreshStateClassify:
		run.outcome = ClassifyExecution(run.decision, run.executionError)
		return refreshStateFinished, nil
	default:
		return refreshStateFinished, fmt.Errorf(unknownStateTemplateConstant, state)
	}
}

func (engine *Engine) detectDefaultBranch(executionContext context.Context, repositoryRoot string) string {
	defaultBranch, detectionError := engine.repositoryManager.GetDefaultBranch(executionContext, repositoryRoot, engine.remoteName)
	if detectionError != nil || len(strings.TrimSpace(defaultBranch)) == 0 {
		return engine.fallbackBranchName
	}
	return strings.TrimSpace(defaultBranch)
}

func (engine *Engine) detectCurrentBranch(executionContext context.Context, repositoryRoot string) (string, bool) {
	currentBranch, detectionError := engine.repositoryManager.GetCurrentBranch(executionContext, repositoryRoot)
	if detectionError != nil || len(strings.TrimSpace(currentBranch)) == 0 {
		return "", false
	}
	return strings.TrimSpace(currentBranch), true
}

func (engine *Engine) buildCommand(repositoryRoot string, decision Decision) execshell.CommandDetails {
	var arguments []string
	switch decision.Strategy {
	case StrategyFastForwardPull:
		arguments = []string{gitPullSubcommandConstant, gitPullFastForwardFlagConstant, gitQuietFlagConstant, engine.remoteName, decision.DefaultBranch}
	default:
		referenceMapping := fmt.Sprintf(gitReferenceMappingTemplateConstant, decision.DefaultBranch, decision.DefaultBranch)
		arguments = []string{gitFetchSubcommandConstant, engine.remoteName, referenceMapping, gitFetchPruneFlagConstant}
	}
	return shared.WithPromptsDisabled(execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryRoot,
	})
}

// DecideStrategy pulls when the default branch is checked out and otherwise
// fetches straight into the local default branch ref.
func DecideStrategy(decision Decision) Strategy {
	if decision.HasCurrentBranch && decision.CurrentBranch == decision.DefaultBranch {
		return StrategyFastForwardPull
	}
	return StrategyFetchReference
}

// ClassifyExecution maps the result of the git command to an Outcome.
func ClassifyExecution(decision Decision, executionError error) Outcome {
	outcome := Outcome{Status: report.StatusSuccess, Decision: decision, DebugSuffix: decision.DebugSuffix()}
	if executionError == nil {
		return outcome
	}

	outcome.Status = report.StatusFailure
	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		outcome.ErrorLines = report.DisplayLines(commandFailure.Result.CombinedOutput())
		return outcome
	}
	outcome.ErrorLines = report.DisplayLines(executionError.Error())
	return outcome
}

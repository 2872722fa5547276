package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	detachedHeadOutputConstant              = "HEAD"
)

const (
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitAbbrevRefFlagConstant              = "--abbrev-ref"
	gitSymbolicRefSubcommandNameConstant  = "symbolic-ref"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitPullSubcommandNameConstant         = "pull"
	gitFetchSubcommandNameConstant        = "fetch"
	gitFlagPrefixConstant                 = "-"
)

const (
	gitCurrentBranchStartTemplateConstant            = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant          = "Current branch in %s is %s"
	gitCurrentBranchDetachedSuccessTemplateConstant  = "%s is in a detached HEAD state"
	gitCurrentBranchFailureTemplateConstant          = "Failed to identify current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplateConstant = "Unable to identify current branch in %s: %s"
	gitSymbolicRefStartTemplateConstant              = "Resolving %s in %s"
	gitSymbolicRefSuccessTemplateConstant            = "%s in %s points to %s"
	gitSymbolicRefFailureTemplateConstant            = "Failed to resolve %s in %s (exit code %d%s)"
	gitSymbolicRefExecutionFailureTemplateConstant   = "Unable to resolve %s in %s: %s"
	gitRemoteLookupStartTemplateConstant             = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant           = "Read %s remote for %s"
	gitRemoteLookupFailureTemplateConstant           = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplateConstant  = "Unable to read %s remote for %s: %s"
	gitPullStartTemplateConstant                     = "Fast-forwarding %s from %s in %s"
	gitPullSuccessTemplateConstant                   = "Fast-forwarded %s from %s in %s"
	gitPullFailureTemplateConstant                   = "Failed to fast-forward %s from %s in %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant          = "Unable to fast-forward %s from %s in %s: %s"
	gitFetchStartTemplateConstant                    = "Fetching %s from %s in %s"
	gitFetchSuccessTemplateConstant                  = "Fetched %s from %s in %s"
	gitFetchFailureTemplateConstant                  = "Failed to fetch %s from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant         = "Unable to fetch %s from %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildCompletionMessage formats the success message using the captured output where it is informative.
func (formatter CommandMessageFormatter) BuildCompletionMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(command.Details.Arguments[0]) {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitAbbrevRefFlagConstant) {
			return formatter.describeGitCurrentBranchMessage(command, result, failure, stage)
		}
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.describeGitSymbolicRefMessage(command, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		if formatter.argumentAtIndex(command.Details.Arguments, 1) == gitRemoteGetURLSubcommandNameConstant {
			return formatter.describeGitRemoteLookupMessage(command, result, failure, stage)
		}
	case gitPullSubcommandNameConstant:
		return formatter.describeGitPullMessage(command, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		return formatter.describeGitFetchMessage(command, result, failure, stage)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitCurrentBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCurrentBranchStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		branchName := strings.TrimSpace(result.StandardOutput)
		if branchName == detachedHeadOutputConstant {
			return fmt.Sprintf(gitCurrentBranchDetachedSuccessTemplateConstant, workingDirectory)
		}
		return fmt.Sprintf(gitCurrentBranchSuccessTemplateConstant, workingDirectory, formatter.ensureValue(branchName))
	case messageStageFailure:
		return fmt.Sprintf(gitCurrentBranchFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCurrentBranchExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitSymbolicRefMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	reference := formatter.ensureValue(formatter.lastNonFlagArgument(command.Details.Arguments[1:]))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitSymbolicRefStartTemplateConstant, reference, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitSymbolicRefSuccessTemplateConstant, reference, workingDirectory, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
	case messageStageFailure:
		return fmt.Sprintf(gitSymbolicRefFailureTemplateConstant, reference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitSymbolicRefExecutionFailureTemplateConstant, reference, workingDirectory, formatter.describeFailure(failure))
	}
}

// describeGitRemoteLookupMessage never includes the remote URL because it may embed credentials.
func (formatter CommandMessageFormatter) describeGitRemoteLookupMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(command.Details.Arguments, 2))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRemoteLookupStartTemplateConstant, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitRemoteLookupSuccessTemplateConstant, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitRemoteLookupFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitRemoteLookupExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitPullMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName, references := formatter.extractRemoteAndReferences(command.Details.Arguments[1:])
	trimmedRemote := formatter.ensureValue(remoteName)
	joinedReferences := formatter.ensureValue(strings.Join(references, ", "))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPullStartTemplateConstant, joinedReferences, trimmedRemote, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPullSuccessTemplateConstant, joinedReferences, trimmedRemote, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPullFailureTemplateConstant, joinedReferences, trimmedRemote, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitPullExecutionFailureTemplateConstant, joinedReferences, trimmedRemote, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitFetchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName, references := formatter.extractRemoteAndReferences(command.Details.Arguments[1:])
	trimmedRemote := formatter.ensureValue(remoteName)
	joinedReferences := formatter.ensureValue(strings.Join(references, ", "))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitFetchStartTemplateConstant, joinedReferences, trimmedRemote, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitFetchSuccessTemplateConstant, joinedReferences, trimmedRemote, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitFetchFailureTemplateConstant, joinedReferences, trimmedRemote, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitFetchExecutionFailureTemplateConstant, joinedReferences, trimmedRemote, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatCommandLabel(command) + formatter.formatWorkingDirectorySuffix(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string) string {
	for argumentIndex := len(arguments) - 1; argumentIndex >= 0; argumentIndex-- {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if len(trimmedArgument) > 0 && !strings.HasPrefix(trimmedArgument, gitFlagPrefixConstant) {
			return trimmedArgument
		}
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractRemoteAndReferences(arguments []string) (string, []string) {
	var remoteName string
	var references []string
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 || strings.HasPrefix(trimmedArgument, gitFlagPrefixConstant) {
			continue
		}
		if len(remoteName) == 0 {
			remoteName = trimmedArgument
			continue
		}
		references = append(references, trimmedArgument)
	}
	return remoteName, references
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

package execshell

import (
	"context"
	"fmt"
	"strings"
)

const (
	commandNameGitConstant                   = "git"
	commandFailedErrorTemplateConstant       = "%s exited with code %d"
	commandFailedErrorOutputTemplateConstant = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant    = "%s could not be executed: %v"
	commandLabelArgumentsTemplateConstant    = "%s %s"
)

// CommandName identifies an executable known to the executor.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName(commandNameGitConstant)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a completed process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CombinedOutput returns standard output followed by standard error, starting
// standard error on its own line.
func (result ExecutionResult) CombinedOutput() string {
	if len(result.StandardOutput) == 0 || len(result.StandardError) == 0 || strings.HasSuffix(result.StandardOutput, "\n") {
		return result.StandardOutput + result.StandardError
	}
	return result.StandardOutput + "\n" + result.StandardError
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a process that ran and exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, formatCommandLabel(failure.Command), failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedErrorOutputTemplateConstant, formatCommandLabel(failure.Command), failure.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, formatCommandLabel(failure.Command), failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

func formatCommandLabel(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return fmt.Sprintf(commandLabelArgumentsTemplateConstant, command.Name, strings.Join(command.Details.Arguments, " "))
}

package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner executes commands as operating system processes.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command, waits for it and captures both output streams.
//
// A process that exits with a non-zero code is reported through ExecutionResult.ExitCode;
// the returned error is reserved for processes that could not be run at all.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), append([]string{}, command.Details.Arguments...)...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	process.Stdout = &standardOutputBuffer
	process.Stderr = &standardErrorBuffer

	runError := process.Run()
	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}
	if runError == nil {
		return executionResult, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		executionResult.ExitCode = exitError.ExitCode()
		return executionResult, nil
	}
	return ExecutionResult{}, runError
}

func mergeEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	overrideKeys := make([]string, 0, len(overrides))
	for overrideKey := range overrides {
		overrideKeys = append(overrideKeys, overrideKey)
	}
	sort.Strings(overrideKeys)

	mergedEnvironment := append([]string{}, baseEnvironment...)
	for _, overrideKey := range overrideKeys {
		mergedEnvironment = append(mergedEnvironment, overrideKey+environmentAssignmentSeparatorConstant+overrides[overrideKey])
	}
	return mergedEnvironment
}

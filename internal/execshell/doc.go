// Package execshell provides structured helpers for invoking the git executable.
//
// ShellExecutor wraps a CommandRunner with zap logging and command event
// observers, and classifies every invocation as a success, a non-zero exit
// (CommandFailedError) or a failure to launch the process at all
// (CommandExecutionError). OSCommandRunner is the default os/exec backed runner.
package execshell

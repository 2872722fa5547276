package execshell

// CommandEventObserver is notified around every git invocation. Observers must
// be safe for concurrent use because refresh workers share one executor.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	CommandExecutionFailed(command ShellCommand, failure error)
}

type discardingCommandEventObserver struct{}

func (discardingCommandEventObserver) CommandStarted(ShellCommand) {}

func (discardingCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (discardingCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

func observerOrDiscard(observer CommandEventObserver) CommandEventObserver {
	if observer == nil {
		return discardingCommandEventObserver{}
	}
	return observer
}

package refresh

import (
	"fmt"

	"github.com/cxbig/repo-batch-refresh/internal/report"
)

const (
	debugSuffixTemplateConstant        = "current=%s default=%s"
	unknownCurrentBranchConstant       = "none"
	unexpectedErrorTemplateConstant    = "unexpected error: %v"
	fastForwardStrategyNameConstant    = "fast-forward-pull"
	fetchReferenceStrategyNameConstant = "fetch-reference"
)

// Strategy names the git operation chosen for a repository.
type Strategy int

const (
	// StrategyFastForwardPull advances the checked-out default branch with pull --ff-only.
	StrategyFastForwardPull Strategy = iota
	// StrategyFetchReference updates the local default branch ref without touching the worktree.
	StrategyFetchReference
)

// String returns the strategy name used in logs.
func (strategy Strategy) String() string {
	if strategy == StrategyFastForwardPull {
		return fastForwardStrategyNameConstant
	}
	return fetchReferenceStrategyNameConstant
}

// Decision records what the engine learned about a repository and what it chose to do.
type Decision struct {
	DefaultBranch    string
	CurrentBranch    string
	HasCurrentBranch bool
	Strategy         Strategy
}

// DebugSuffix renders the branch diagnostics appended to verbose report lines.
func (decision Decision) DebugSuffix() string {
	currentBranch := unknownCurrentBranchConstant
	if decision.HasCurrentBranch {
		currentBranch = decision.CurrentBranch
	}
	return fmt.Sprintf(debugSuffixTemplateConstant, currentBranch, decision.DefaultBranch)
}

// Outcome is the single result of refreshing one repository.
type Outcome struct {
	Status      report.Status
	Decision    Decision
	DebugSuffix string
	ErrorLines  []string
}

// Succeeded reports whether the refresh completed cleanly.
func (outcome Outcome) Succeeded() bool {
	return outcome.Status == report.StatusSuccess
}

// Entry converts the outcome into a report entry for identity.
func (outcome Outcome) Entry(identity string) report.Entry {
	return report.Entry{
		Identity:    identity,
		Status:      outcome.Status,
		DebugSuffix: outcome.DebugSuffix,
		ErrorLines:  outcome.ErrorLines,
	}
}

// NewUnexpectedOutcome describes a job whose git command could not be run at all.
func NewUnexpectedOutcome(failure error) Outcome {
	return Outcome{
		Status:     report.StatusFailure,
		ErrorLines: []string{fmt.Sprintf(unexpectedErrorTemplateConstant, failure)},
	}
}

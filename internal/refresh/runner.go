package refresh

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cxbig/repo-batch-refresh/internal/report"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	discovererMissingMessageConstant       = "repository discoverer not configured"
	refresherMissingMessageConstant        = "repository refresher not configured"
	reporterMissingMessageConstant         = "result reporter not configured"
	discoveryCompletedMessageConstant      = "discovery completed"
	refreshCompletedMessageConstant        = "refresh completed"
	repositoryRefreshedMessageConstant     = "repository refreshed"
	repositoryRefreshFailedMessageConstant = "repository refresh failed"
	unexpectedFailureMessageConstant       = "git could not be executed"
	logFieldRootConstant                   = "root"
	logFieldJobsConstant                   = "jobs"
	logFieldSkippedConstant                = "skipped"
	logFieldWorkersConstant                = "workers"
	logFieldRepositoryConstant             = "repository"
	logFieldIdentityConstant               = "identity"
	logFieldStrategyConstant               = "strategy"
	logFieldDefaultBranchConstant          = "default_branch"
	logFieldCurrentBranchConstant          = "current_branch"
	logFieldTotalConstant                  = "total"
	logFieldOKConstant                     = "ok"
	logFieldNOKConstant                    = "nok"
	logFieldSkipConstant                   = "skip"
	logFieldElapsedConstant                = "elapsed"
)

// ErrDiscovererNotConfigured indicates the runner was built without a discoverer.
var ErrDiscovererNotConfigured = errors.New(discovererMissingMessageConstant)

// ErrRefresherNotConfigured indicates the runner was built without a refresher.
var ErrRefresherNotConfigured = errors.New(refresherMissingMessageConstant)

// ErrReporterNotConfigured indicates the runner was built without a reporter.
var ErrReporterNotConfigured = errors.New(reporterMissingMessageConstant)

// RepositoryRefresher refreshes one repository.
type RepositoryRefresher interface {
	Refresh(executionContext context.Context, job shared.RepositoryJob) (Outcome, error)
}

// ResultReporter renders skips, outcomes and the final summary.
type ResultReporter interface {
	ReportSkip(identity string)
	ReportOutcome(entry report.Entry)
	ReportSummary(summary report.Summary)
}

// Clock returns the current time.
type Clock func() time.Time

// RunnerDependencies enumerates the collaborators of a refresh sweep.
type RunnerDependencies struct {
	Discoverer shared.RepositoryDiscoverer
	Refresher  RepositoryRefresher
	Reporter   ResultReporter
	Logger     *zap.Logger
	Clock      Clock
}

// RunOptions configures one sweep.
type RunOptions struct {
	RootPath    string
	WorkerCount int
}

// Runner performs a complete sweep: discover, report skips, refresh, summarize.
type Runner struct {
	discoverer shared.RepositoryDiscoverer
	refresher  RepositoryRefresher
	reporter   ResultReporter
	logger     *zap.Logger
	clock      Clock
}

// NewRunner constructs a Runner. A nil logger or clock falls back to a no-op logger and time.Now.
func NewRunner(dependencies RunnerDependencies) (*Runner, error) {
	if dependencies.Discoverer == nil {
		return nil, ErrDiscovererNotConfigured
	}
	if dependencies.Refresher == nil {
		return nil, ErrRefresherNotConfigured
	}
	if dependencies.Reporter == nil {
		return nil, ErrReporterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Runner{
		discoverer: dependencies.Discoverer,
		refresher:  dependencies.Refresher,
		reporter:   dependencies.Reporter,
		logger:     logger,
		clock:      clock,
	}, nil
}

// Run executes the sweep and returns its summary.
//
// Only an invalid worker count or a discovery failure returns an error; every
// per-repository problem is reported as a failed job.
func (runner *Runner) Run(executionContext context.Context, options RunOptions) (report.Summary, error) {
	startedAt := runner.clock()

	scheduler, schedulerError := NewScheduler(options.WorkerCount)
	if schedulerError != nil {
		return report.Summary{}, schedulerError
	}

	discovery, discoveryError := runner.discoverer.Discover(executionContext, options.RootPath)
	if discoveryError != nil {
		return report.Summary{}, discoveryError
	}

	runner.logger.Info(
		discoveryCompletedMessageConstant,
		zap.String(logFieldRootConstant, options.RootPath),
		zap.Int(logFieldJobsConstant, len(discovery.Jobs)),
		zap.Int(logFieldSkippedConstant, len(discovery.Skipped)),
		zap.Int(logFieldWorkersConstant, scheduler.WorkerCount()),
	)

	counters := report.NewCounters(len(discovery.Jobs), len(discovery.Skipped))
	for _, skippedJob := range discovery.Skipped {
		runner.reporter.ReportSkip(skippedJob.Identity)
	}

	scheduler.Run(executionContext, discovery.Jobs, func(jobContext context.Context, job shared.RepositoryJob) {
		outcome := runner.refreshJob(jobContext, job)
		if outcome.Succeeded() {
			counters.RecordSuccess()
		} else {
			counters.RecordFailure()
		}
		runner.reporter.ReportOutcome(outcome.Entry(job.Identity))
	})

	summary := counters.Summarize(runner.clock().Sub(startedAt))
	runner.reporter.ReportSummary(summary)

	runner.logger.Info(
		refreshCompletedMessageConstant,
		zap.Int(logFieldTotalConstant, summary.Total),
		zap.Int(logFieldOKConstant, summary.OK),
		zap.Int(logFieldNOKConstant, summary.NOK),
		zap.Int(logFieldSkipConstant, summary.Skip),
		zap.Duration(logFieldElapsedConstant, summary.Elapsed),
	)

	return summary, nil
}

func (runner *Runner) refreshJob(executionContext context.Context, job shared.RepositoryJob) Outcome {
	outcome, refreshError := runner.refresher.Refresh(executionContext, job)
	if refreshError != nil {
		runner.logger.Warn(
			unexpectedFailureMessageConstant,
			zap.String(logFieldRepositoryConstant, job.Root),
			zap.String(logFieldIdentityConstant, job.Identity),
			zap.Error(refreshError),
		)
		return NewUnexpectedOutcome(refreshError)
	}

	jobFields := []zap.Field{
		zap.String(logFieldRepositoryConstant, job.Root),
		zap.String(logFieldIdentityConstant, job.Identity),
		zap.Stringer(logFieldStrategyConstant, outcome.Decision.Strategy),
		zap.String(logFieldDefaultBranchConstant, outcome.Decision.DefaultBranch),
		zap.String(logFieldCurrentBranchConstant, outcome.Decision.CurrentBranch),
	}
	if outcome.Succeeded() {
		runner.logger.Debug(repositoryRefreshedMessageConstant, jobFields...)
	} else {
		runner.logger.Info(repositoryRefreshFailedMessageConstant, jobFields...)
	}
	return outcome
}

package refresh_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cxbig/repo-batch-refresh/internal/execshell"
	"github.com/cxbig/repo-batch-refresh/internal/refresh"
	"github.com/cxbig/repo-batch-refresh/internal/report"
	"github.com/cxbig/repo-batch-refresh/internal/repos/discovery"
	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	reportEventSkipTemplateConstant    = "skip:%s"
	reportEventOutcomeTemplateConstant = "outcome:%s"
	reportEventSummaryConstant         = "summary"
)

type stubDiscoverer struct {
	discovery      shared.Discovery
	discoveryError error
	requestedRoots []string
}

func (discoverer *stubDiscoverer) Discover(_ context.Context, rootPath string) (shared.Discovery, error) {
	discoverer.requestedRoots = append(discoverer.requestedRoots, rootPath)
	return discoverer.discovery, discoverer.discoveryError
}

type scriptedRefresher struct {
	outcomes map[string]refresh.Outcome
	failures map[string]error
}

func (refresher *scriptedRefresher) Refresh(_ context.Context, job shared.RepositoryJob) (refresh.Outcome, error) {
	if failure, exists := refresher.failures[job.Root]; exists {
		return refresh.Outcome{Status: report.StatusFailure}, failure
	}
	return refresher.outcomes[job.Root], nil
}

type recordingReporter struct {
	mutex    sync.Mutex
	events   []string
	entries  map[string]report.Entry
	summary  report.Summary
	finished bool
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{entries: map[string]report.Entry{}}
}

func (reporter *recordingReporter) ReportSkip(identity string) {
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	reporter.events = append(reporter.events, fmt.Sprintf(reportEventSkipTemplateConstant, identity))
}

func (reporter *recordingReporter) ReportOutcome(entry report.Entry) {
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	reporter.events = append(reporter.events, fmt.Sprintf(reportEventOutcomeTemplateConstant, entry.Identity))
	reporter.entries[entry.Identity] = entry
}

func (reporter *recordingReporter) ReportSummary(summary report.Summary) {
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	reporter.events = append(reporter.events, reportEventSummaryConstant)
	reporter.summary = summary
	reporter.finished = true
}

func newSteppingClock(start time.Time, step time.Duration) refresh.Clock {
	var mutex sync.Mutex
	current := start
	return func() time.Time {
		mutex.Lock()
		defer mutex.Unlock()
		observed := current
		current = current.Add(step)
		return observed
	}
}

func TestNewRunnerRequiresCollaborators(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependencies  refresh.RunnerDependencies
		expectedError error
	}{
		{name: "missing_discoverer", dependencies: refresh.RunnerDependencies{Refresher: &scriptedRefresher{}, Reporter: newRecordingReporter()}, expectedError: refresh.ErrDiscovererNotConfigured},
		{name: "missing_refresher", dependencies: refresh.RunnerDependencies{Discoverer: &stubDiscoverer{}, Reporter: newRecordingReporter()}, expectedError: refresh.ErrRefresherNotConfigured},
		{name: "missing_reporter", dependencies: refresh.RunnerDependencies{Discoverer: &stubDiscoverer{}, Refresher: &scriptedRefresher{}}, expectedError: refresh.ErrReporterNotConfigured},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner, creationError := refresh.NewRunner(testCase.dependencies)
			require.Nil(testInstance, runner)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestRunnerRunAggregatesOutcomes(testInstance *testing.T) {
	discoverer := &stubDiscoverer{discovery: shared.Discovery{
		Jobs: []shared.RepositoryJob{
			{Root: "/srv/repos/alpha", Identity: "owner/alpha"},
			{Root: "/srv/repos/beta", Identity: "owner/beta"},
			{Root: "/srv/repos/gamma", Identity: "owner/gamma"},
		},
		Skipped: []shared.SkippedJob{{Identity: "owner/archived"}, {Identity: "owner/frozen"}},
	}}
	refresher := &scriptedRefresher{
		outcomes: map[string]refresh.Outcome{
			"/srv/repos/alpha": {Status: report.StatusSuccess, DebugSuffix: "current=main default=main"},
			"/srv/repos/beta":  {Status: report.StatusFailure, DebugSuffix: "current=dev default=main", ErrorLines: []string{"fatal: refusing"}},
		},
		failures: map[string]error{
			"/srv/repos/gamma": execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGit}, Cause: errors.New("executable file not found")},
		},
	}
	reporter := newRecordingReporter()
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)

	runner, creationError := refresh.NewRunner(refresh.RunnerDependencies{
		Discoverer: discoverer,
		Refresher:  refresher,
		Reporter:   reporter,
		Logger:     zap.New(observerCore),
		Clock:      newSteppingClock(time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC), 1500*time.Millisecond),
	})
	require.NoError(testInstance, creationError)

	summary, runError := runner.Run(context.Background(), refresh.RunOptions{RootPath: "/srv/repos", WorkerCount: 2})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, report.Summary{Total: 5, OK: 1, NOK: 2, Skip: 2, Elapsed: 1500 * time.Millisecond}, summary)
	require.Equal(testInstance, summary, reporter.summary)
	require.Equal(testInstance, summary.Total, summary.OK+summary.NOK+summary.Skip)
	require.Equal(testInstance, []string{"/srv/repos"}, discoverer.requestedRoots)

	require.Len(testInstance, reporter.events, 6)
	require.Equal(testInstance, []string{"skip:owner/archived", "skip:owner/frozen"}, reporter.events[:2])
	outcomeEvents := append([]string(nil), reporter.events[2:5]...)
	sort.Strings(outcomeEvents)
	require.Equal(testInstance, []string{"outcome:owner/alpha", "outcome:owner/beta", "outcome:owner/gamma"}, outcomeEvents)
	require.Equal(testInstance, reportEventSummaryConstant, reporter.events[5])

	require.Equal(testInstance, report.StatusSuccess, reporter.entries["owner/alpha"].Status)
	require.Equal(testInstance, []string{"fatal: refusing"}, reporter.entries["owner/beta"].ErrorLines)
	gammaEntry := reporter.entries["owner/gamma"]
	require.Equal(testInstance, report.StatusFailure, gammaEntry.Status)
	require.Empty(testInstance, gammaEntry.DebugSuffix)
	require.Len(testInstance, gammaEntry.ErrorLines, 1)
	require.Contains(testInstance, gammaEntry.ErrorLines[0], "unexpected error: ")

	require.Equal(testInstance, 1, observedLogs.FilterMessage("discovery completed").Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("refresh completed").Len())
	launchFailureLogs := observedLogs.FilterMessage("git could not be executed").All()
	require.Len(testInstance, launchFailureLogs, 1)
	require.Equal(testInstance, zapcore.WarnLevel, launchFailureLogs[0].Level)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("repository refresh failed").Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("repository refreshed").Len())
}

func TestRunnerRunPropagatesDiscoveryFailure(testInstance *testing.T) {
	discoveryFailure := fmt.Errorf("%w: /missing: %w", discovery.ErrRootUnreadable, errors.New("no such file or directory"))
	reporter := newRecordingReporter()

	runner, creationError := refresh.NewRunner(refresh.RunnerDependencies{
		Discoverer: &stubDiscoverer{discoveryError: discoveryFailure},
		Refresher:  &scriptedRefresher{},
		Reporter:   reporter,
	})
	require.NoError(testInstance, creationError)

	_, runError := runner.Run(context.Background(), refresh.RunOptions{RootPath: "/missing", WorkerCount: 4})
	require.ErrorIs(testInstance, runError, discovery.ErrRootUnreadable)
	require.Empty(testInstance, reporter.events)
	require.False(testInstance, reporter.finished)
}

func TestRunnerRunRejectsInvalidWorkerCount(testInstance *testing.T) {
	discoverer := &stubDiscoverer{}
	runner, creationError := refresh.NewRunner(refresh.RunnerDependencies{
		Discoverer: discoverer,
		Refresher:  &scriptedRefresher{},
		Reporter:   newRecordingReporter(),
	})
	require.NoError(testInstance, creationError)

	_, runError := runner.Run(context.Background(), refresh.RunOptions{RootPath: "/srv/repos", WorkerCount: 0})
	var invalidCount refresh.InvalidWorkerCountError
	require.ErrorAs(testInstance, runError, &invalidCount)
	require.Empty(testInstance, discoverer.requestedRoots)
}

func TestRunnerRunWithEmptyTree(testInstance *testing.T) {
	reporter := newRecordingReporter()
	runner, creationError := refresh.NewRunner(refresh.RunnerDependencies{
		Discoverer: &stubDiscoverer{},
		Refresher:  &scriptedRefresher{},
		Reporter:   reporter,
		Clock:      newSteppingClock(time.Unix(0, 0), 950*time.Millisecond),
	})
	require.NoError(testInstance, creationError)

	summary, runError := runner.Run(context.Background(), refresh.RunOptions{RootPath: "/srv/empty", WorkerCount: 20})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{reportEventSummaryConstant}, reporter.events)
	require.Equal(testInstance, "Processed 0 projects: OK 0, NOK 0, SKIP 0. Total time 0.950.", summary.Line())
}

package report_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxbig/repo-batch-refresh/internal/report"
)

const (
	testIdentityConstant    = "group/project"
	testDebugSuffixConstant = "current=feature default=main"
	testDelimiterLine       = "     | ----------------------------------------"
)

func TestReporterRendersLineProtocol(testInstance *testing.T) {
	testCases := []struct {
		name     string
		verbose  bool
		render   func(*report.Reporter)
		expected string
	}{
		{
			name:     "skip_line",
			render:   func(reporter *report.Reporter) { reporter.ReportSkip(testIdentityConstant) },
			expected: "SKIP | group/project\n",
		},
		{
			name: "success_without_debug",
			render: func(reporter *report.Reporter) {
				reporter.ReportOutcome(report.Entry{Identity: testIdentityConstant, Status: report.StatusSuccess, DebugSuffix: testDebugSuffixConstant})
			},
			expected: "  OK | group/project\n",
		},
		{
			name:    "success_with_debug",
			verbose: true,
			render: func(reporter *report.Reporter) {
				reporter.ReportOutcome(report.Entry{Identity: testIdentityConstant, Status: report.StatusSuccess, DebugSuffix: testDebugSuffixConstant})
			},
			expected: "  OK | group/project | current=feature default=main\n",
		},
		{
			name: "failure_without_debug_suppresses_block",
			render: func(reporter *report.Reporter) {
				reporter.ReportOutcome(report.Entry{Identity: testIdentityConstant, Status: report.StatusFailure, ErrorLines: []string{"fatal: boom"}})
			},
			expected: " NOK | group/project\n",
		},
		{
			name:    "failure_with_debug",
			verbose: true,
			render: func(reporter *report.Reporter) {
				reporter.ReportOutcome(report.Entry{
					Identity:    testIdentityConstant,
					Status:      report.StatusFailure,
					DebugSuffix: testDebugSuffixConstant,
					ErrorLines:  []string{"", "fatal: Not possible to fast-forward, aborting.", "   "},
				})
			},
			expected: strings.Join([]string{
				" NOK | group/project | current=feature default=main",
				testDelimiterLine,
				"     | fatal: Not possible to fast-forward, aborting.",
				testDelimiterLine,
				"",
			}, "\n"),
		},
		{
			name:    "failure_with_empty_output",
			verbose: true,
			render: func(reporter *report.Reporter) {
				reporter.ReportOutcome(report.Entry{Identity: testIdentityConstant, Status: report.StatusFailure})
			},
			expected: strings.Join([]string{
				" NOK | group/project",
				testDelimiterLine,
				"     | (no error output)",
				testDelimiterLine,
				"",
			}, "\n"),
		},
		{
			name: "summary_line",
			render: func(reporter *report.Reporter) {
				reporter.ReportSummary(report.Summary{Total: 3, OK: 1, NOK: 1, Skip: 1, Elapsed: 950 * time.Millisecond})
			},
			expected: "Processed 3 projects: OK 1, NOK 1, SKIP 1. Total time 0.950.\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			reporter := report.NewReporter(outputBuffer, report.Options{Verbose: testCase.verbose})
			testCase.render(reporter)
			require.Equal(testInstance, testCase.expected, outputBuffer.String())
		})
	}
}

func TestReporterTruncatesErrorBlock(testInstance *testing.T) {
	errorLines := make([]string, 0, 25)
	for lineIndex := 1; lineIndex <= 25; lineIndex++ {
		errorLines = append(errorLines, fmt.Sprintf("line %02d", lineIndex), "")
	}

	outputBuffer := &bytes.Buffer{}
	reporter := report.NewReporter(outputBuffer, report.Options{Verbose: true})
	reporter.ReportOutcome(report.Entry{Identity: testIdentityConstant, Status: report.StatusFailure, ErrorLines: errorLines})

	renderedLines := strings.Split(strings.TrimSuffix(outputBuffer.String(), "\n"), "\n")
	require.Len(testInstance, renderedLines, 1+2+report.MaximumErrorLinesConstant)
	require.Equal(testInstance, "     | line 01", renderedLines[2])
	require.Equal(testInstance, "     | line 10", renderedLines[11])
}

func TestReporterColorizesWhenEnabled(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	reporter := report.NewReporter(outputBuffer, report.Options{Colorize: true})
	reporter.ReportSkip(testIdentityConstant)

	require.Contains(testInstance, outputBuffer.String(), "\x1b[33m")
	require.Contains(testInstance, outputBuffer.String(), "SKIP | group/project")
}

type lockedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
	writes int
}

func (writer *lockedBuffer) Write(payload []byte) (int, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	writer.writes++
	return writer.buffer.Write(payload)
}

func TestReporterKeepsConcurrentBlocksContiguous(testInstance *testing.T) {
	const workerCount = 16

	outputWriter := &lockedBuffer{}
	reporter := report.NewReporter(outputWriter, report.Options{Verbose: true})

	var waitGroup sync.WaitGroup
	for workerIndex := 0; workerIndex < workerCount; workerIndex++ {
		waitGroup.Add(1)
		go func(workerIndex int) {
			defer waitGroup.Done()
			reporter.ReportOutcome(report.Entry{
				Identity:   fmt.Sprintf("group/project-%02d", workerIndex),
				Status:     report.StatusFailure,
				ErrorLines: []string{fmt.Sprintf("error from %02d", workerIndex)},
			})
		}(workerIndex)
	}
	waitGroup.Wait()

	require.Equal(testInstance, workerCount, outputWriter.writes)
	renderedLines := strings.Split(strings.TrimSuffix(outputWriter.buffer.String(), "\n"), "\n")
	require.Len(testInstance, renderedLines, workerCount*4)
	for blockStart := 0; blockStart < len(renderedLines); blockStart += 4 {
		header := renderedLines[blockStart]
		require.True(testInstance, strings.HasPrefix(header, " NOK | group/project-"))
		workerSuffix := strings.TrimPrefix(header, " NOK | group/project-")
		require.Equal(testInstance, "     | error from "+workerSuffix, renderedLines[blockStart+2])
	}
}

func TestDisplayLines(testInstance *testing.T) {
	require.Nil(testInstance, report.DisplayLines("  \n\n "))
	require.Equal(testInstance, []string{"first", "  indented"}, report.DisplayLines("\nfirst\r\n\n  indented\n"))
}

package report

import (
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const (
	successPrefixConstant            = "  OK | "
	failurePrefixConstant            = " NOK | "
	skipPrefixConstant               = "SKIP | "
	continuationPrefixConstant       = "     | "
	debugSuffixSeparatorConstant     = " | "
	errorBlockDelimiterConstant      = "----------------------------------------"
	noErrorOutputPlaceholderConstant = "(no error output)"
	lineTerminatorConstant           = "\n"
	carriageReturnConstant           = "\r"

	// MaximumErrorLinesConstant bounds the error block printed for a failed job.
	MaximumErrorLinesConstant = 10
)

// Status classifies a job result.
type Status int

const (
	// StatusSuccess marks a job whose git command exited cleanly.
	StatusSuccess Status = iota
	// StatusFailure marks a job whose git command failed or could not run.
	StatusFailure
)

// Entry is one job result ready for rendering.
type Entry struct {
	Identity    string
	Status      Status
	DebugSuffix string
	ErrorLines  []string
}

// Options configures a Reporter.
type Options struct {
	Verbose  bool
	Colorize bool
}

// Reporter writes report lines. Each entry is written under one lock so that
// concurrent workers never interleave partial lines or error blocks.
type Reporter struct {
	mutex        sync.Mutex
	writer       io.Writer
	verbose      bool
	successColor *color.Color
	failureColor *color.Color
	skipColor    *color.Color
}

// NewReporter constructs a Reporter writing to writer.
func NewReporter(writer io.Writer, options Options) *Reporter {
	if writer == nil {
		writer = io.Discard
	}
	return &Reporter{
		writer:       writer,
		verbose:      options.Verbose,
		successColor: newPaletteColor(color.FgGreen, options.Colorize),
		failureColor: newPaletteColor(color.FgRed, options.Colorize),
		skipColor:    newPaletteColor(color.FgYellow, options.Colorize),
	}
}

// ReportSkip writes the line for a repository carrying the ignore marker.
func (reporter *Reporter) ReportSkip(identity string) {
	reporter.writeLines(reporter.skipColor, []string{skipPrefixConstant + identity})
}

// ReportOutcome writes the line for a finished job, followed by the error block
// for failures when verbose output is enabled.
func (reporter *Reporter) ReportOutcome(entry Entry) {
	if entry.Status == StatusSuccess {
		reporter.writeLines(reporter.successColor, []string{reporter.headerLine(successPrefixConstant, entry)})
		return
	}

	lines := []string{reporter.headerLine(failurePrefixConstant, entry)}
	if reporter.verbose {
		lines = append(lines, continuationPrefixConstant+errorBlockDelimiterConstant)
		errorLines := DisplayLines(strings.Join(entry.ErrorLines, lineTerminatorConstant))
		if len(errorLines) == 0 {
			errorLines = []string{noErrorOutputPlaceholderConstant}
		}
		for _, errorLine := range errorLines {
			lines = append(lines, continuationPrefixConstant+errorLine)
		}
		lines = append(lines, continuationPrefixConstant+errorBlockDelimiterConstant)
	}
	reporter.writeLines(reporter.failureColor, lines)
}

// ReportSummary writes the final line.
func (reporter *Reporter) ReportSummary(summary Summary) {
	reporter.writeLines(reporter.successColor, []string{summary.Line()})
}

func (reporter *Reporter) headerLine(prefix string, entry Entry) string {
	header := prefix + entry.Identity
	if reporter.verbose && len(entry.DebugSuffix) > 0 {
		header += debugSuffixSeparatorConstant + entry.DebugSuffix
	}
	return header
}

func (reporter *Reporter) writeLines(lineColor *color.Color, lines []string) {
	var builder strings.Builder
	for _, line := range lines {
		builder.WriteString(lineColor.Sprint(line))
		builder.WriteString(lineTerminatorConstant)
	}

	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	_, _ = io.WriteString(reporter.writer, builder.String())
}

// DisplayLines trims output and keeps at most MaximumErrorLinesConstant non-blank lines.
func DisplayLines(output string) []string {
	var displayLines []string
	for _, line := range strings.Split(strings.TrimSpace(output), lineTerminatorConstant) {
		line = strings.TrimRight(line, carriageReturnConstant)
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		displayLines = append(displayLines, line)
		if len(displayLines) == MaximumErrorLinesConstant {
			break
		}
	}
	return displayLines
}

func newPaletteColor(attribute color.Attribute, enabled bool) *color.Color {
	paletteColor := color.New(attribute)
	if enabled {
		paletteColor.EnableColor()
	} else {
		paletteColor.DisableColor()
	}
	return paletteColor
}

package report

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	millisecondsPerSecondConstant      = 1000
	millisecondsPerMinuteConstant      = 60 * millisecondsPerSecondConstant
	millisecondsPerHourConstant        = 60 * millisecondsPerMinuteConstant
	hoursElapsedTemplateConstant       = "%d:%02d:%02d.%03d"
	minutesElapsedTemplateConstant     = "%d:%02d.%03d"
	secondsElapsedTemplateConstant     = "%d.%03d"
	summaryLineTemplateConstant        = "Processed %d projects: OK %d, NOK %d, SKIP %d. Total time %s."
	negativeElapsedReplacementConstant = 0
)

// Summary captures the totals of one refresh sweep.
type Summary struct {
	Total   int
	OK      int
	NOK     int
	Skip    int
	Elapsed time.Duration
}

// Line renders the final report line.
func (summary Summary) Line() string {
	return fmt.Sprintf(summaryLineTemplateConstant, summary.Total, summary.OK, summary.NOK, summary.Skip, FormatElapsed(summary.Elapsed))
}

// Counters accumulates job results across workers.
//
// The total is fixed at construction; only the ok and nok counters move, and
// each is an independent atomic.
type Counters struct {
	total int
	skip  int
	ok    atomic.Int64
	nok   atomic.Int64
}

// NewCounters prepares counters for jobCount refresh jobs and skipCount skipped repositories.
func NewCounters(jobCount int, skipCount int) *Counters {
	return &Counters{total: jobCount + skipCount, skip: skipCount}
}

// RecordSuccess counts one successful job.
func (counters *Counters) RecordSuccess() {
	counters.ok.Add(1)
}

// RecordFailure counts one failed job.
func (counters *Counters) RecordFailure() {
	counters.nok.Add(1)
}

// Summarize reads the counters into a Summary.
func (counters *Counters) Summarize(elapsed time.Duration) Summary {
	return Summary{
		Total:   counters.total,
		OK:      int(counters.ok.Load()),
		NOK:     int(counters.nok.Load()),
		Skip:    counters.skip,
		Elapsed: elapsed,
	}
}

// FormatElapsed renders a duration as [[H:]MM:]SS.mmm with leading zero units omitted.
func FormatElapsed(elapsed time.Duration) string {
	totalMilliseconds := elapsed.Milliseconds()
	if totalMilliseconds < 0 {
		totalMilliseconds = negativeElapsedReplacementConstant
	}
	hours := totalMilliseconds / millisecondsPerHourConstant
	minutes := (totalMilliseconds % millisecondsPerHourConstant) / millisecondsPerMinuteConstant
	seconds := (totalMilliseconds % millisecondsPerMinuteConstant) / millisecondsPerSecondConstant
	milliseconds := totalMilliseconds % millisecondsPerSecondConstant

	switch {
	case hours > 0:
		return fmt.Sprintf(hoursElapsedTemplateConstant, hours, minutes, seconds, milliseconds)
	case minutes > 0:
		return fmt.Sprintf(minutesElapsedTemplateConstant, minutes, seconds, milliseconds)
	default:
		return fmt.Sprintf(secondsElapsedTemplateConstant, seconds, milliseconds)
	}
}

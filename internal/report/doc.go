// Package report renders refresh results using the line protocol shared by
// humans and grep, and aggregates the run summary.
package report

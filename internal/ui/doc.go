// Package ui renders git command events as human-readable console log lines.
//
// It is used when the console log format is selected; structured logs keep
// flowing through the shell executor's own debug fields.
package ui

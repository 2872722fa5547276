// Package refresh decides how each discovered repository is brought up to date,
// runs the git command for that decision across a fixed pool of workers, and
// reports every result exactly once.
package refresh

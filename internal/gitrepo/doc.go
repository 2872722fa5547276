// Package gitrepo interrogates git working copies.
//
// RepositoryManager answers the branch and remote queries a refresh needs,
// and IdentityResolver turns the configured remote URL into a redacted
// project path suitable for display.
package gitrepo

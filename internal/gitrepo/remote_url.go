package gitrepo

import (
	"strings"
)

const (
	gitSuffixConstant              = ".git"
	schemeDelimiterConstant        = "//"
	userDelimiterConstant          = "@"
	scpPathDelimiterConstant       = ":"
	pathSeparatorConstant          = "/"
	scpPathDelimiterLengthConstant = 1
)

// ParseProjectIdentity extracts the namespace/name path from a remote URL.
//
// Supported shapes are SCP-like remotes (git@host:group/name) and scheme URLs
// (ssh://, https://, with or without user:token@ credentials). The returned
// identity never contains credentials; anything ambiguous yields false.
func ParseProjectIdentity(remoteURL string) (string, bool) {
	candidate := strings.TrimSpace(remoteURL)
	candidate = strings.TrimSuffix(candidate, gitSuffixConstant)
	if len(candidate) == 0 {
		return "", false
	}

	if identity, matched := parseSCPLikeRemote(candidate); matched {
		return acceptIdentity(identity)
	}

	if identity, matched := parseSchemeRemote(candidate); matched {
		return acceptIdentity(identity)
	}

	return "", false
}

func parseSCPLikeRemote(remote string) (string, bool) {
	if strings.Contains(remote, schemeDelimiterConstant) {
		return "", false
	}
	delimiterIndex := strings.Index(remote, scpPathDelimiterConstant)
	if delimiterIndex < 0 {
		return "", false
	}
	if !strings.Contains(remote[:delimiterIndex], userDelimiterConstant) {
		return "", false
	}
	return remote[delimiterIndex+scpPathDelimiterLengthConstant:], true
}

func parseSchemeRemote(remote string) (string, bool) {
	schemeIndex := strings.Index(remote, schemeDelimiterConstant)
	if schemeIndex < 0 {
		return "", false
	}
	authorityAndPath := remote[schemeIndex+len(schemeDelimiterConstant):]
	if credentialIndex := strings.LastIndex(authorityAndPath, userDelimiterConstant); credentialIndex >= 0 {
		authorityAndPath = authorityAndPath[credentialIndex+len(userDelimiterConstant):]
	}
	_, projectPath, found := strings.Cut(authorityAndPath, pathSeparatorConstant)
	if !found {
		return "", false
	}
	return projectPath, true
}

// acceptIdentity rejects empty paths and anything that could still carry a user or token.
func acceptIdentity(identity string) (string, bool) {
	if len(identity) == 0 {
		return "", false
	}
	if strings.Contains(identity, userDelimiterConstant) {
		return "", false
	}
	return identity, true
}

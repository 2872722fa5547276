package gitrepo

import (
	"context"
	"strings"

	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

// IdentityResolver derives project identities from a named remote.
type IdentityResolver struct {
	manager    shared.GitRepositoryManager
	remoteName string
}

// NewIdentityResolver constructs a resolver that reads remoteName, defaulting to origin.
func NewIdentityResolver(manager shared.GitRepositoryManager, remoteName string) *IdentityResolver {
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		trimmedRemoteName = shared.OriginRemoteNameConstant
	}
	return &IdentityResolver{manager: manager, remoteName: trimmedRemoteName}
}

// ResolveIdentity returns the redacted project path for the repository, or false when none is derivable.
func (resolver *IdentityResolver) ResolveIdentity(executionContext context.Context, repositoryPath string) (string, bool) {
	if resolver == nil || resolver.manager == nil {
		return "", false
	}
	remoteURL, remoteError := resolver.manager.GetRemoteURL(executionContext, repositoryPath, resolver.remoteName)
	if remoteError != nil {
		return "", false
	}
	return ParseProjectIdentity(remoteURL)
}

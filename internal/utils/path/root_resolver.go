package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant                = "~"
	tildeForwardSlashPrefixConstant    = "~/"
	emptyRootMessageConstant           = "root directory must be provided"
	homeDirectoryErrorTemplateConstant = "unable to expand %q: %w"
	absolutePathErrorTemplateConstant  = "unable to resolve %q: %w"
)

// ErrRootDirectoryRequired indicates a blank root directory argument.
var ErrRootDirectoryRequired = errors.New(emptyRootMessageConstant)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RootDirectoryResolver turns a user-supplied directory argument into a clean absolute path.
type RootDirectoryResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewRootDirectoryResolver constructs a resolver using the operating system home lookup.
func NewRootDirectoryResolver() *RootDirectoryResolver {
	return NewRootDirectoryResolverWithProvider(os.UserHomeDir)
}

// NewRootDirectoryResolverWithProvider constructs a resolver with a custom home directory provider.
func NewRootDirectoryResolverWithProvider(provider HomeDirectoryProvider) *RootDirectoryResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &RootDirectoryResolver{homeDirectoryProvider: provider}
}

// Resolve trims candidatePath, expands a leading ~ and returns the absolute, cleaned path.
// Forms such as ~otheruser are left unexpanded.
func (resolver *RootDirectoryResolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return "", ErrRootDirectoryRequired
	}

	expandedPath, expansionError := resolver.expandHome(trimmedPath)
	if expansionError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, trimmedPath, expansionError)
	}

	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, trimmedPath, absoluteError)
	}
	return absolutePath, nil
}

func (resolver *RootDirectoryResolver) expandHome(candidatePath string) (string, error) {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath, nil
	}

	var relativePath string
	switch {
	case candidatePath == tildeSymbolConstant:
		relativePath = ""
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		relativePath = strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant)
	case strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix):
		relativePath = strings.TrimPrefix(candidatePath, tildeWithPathSeparatorPrefix)
	default:
		return candidatePath, nil
	}

	homeDirectory, homeError := resolver.resolveHomeDirectory()
	if homeError != nil {
		return "", homeError
	}
	return filepath.Join(homeDirectory, relativePath), nil
}

func (resolver *RootDirectoryResolver) resolveHomeDirectory() (string, error) {
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	return resolver.homeDirectory, resolver.homeDirectoryError
}

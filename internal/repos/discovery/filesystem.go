package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const (
	rootUnreadableMessageConstant       = "root directory cannot be read"
	rootUnreadableErrorTemplateConstant = "%w: %s: %w"
	rootNotDirectoryMessageConstant     = "not a directory"
	currentDirectoryDisplayConstant     = "."
)

// ErrRootUnreadable indicates the search root could not be listed, which aborts the sweep.
var ErrRootUnreadable = errors.New(rootUnreadableMessageConstant)

var errRootNotDirectory = errors.New(rootNotDirectoryMessageConstant)

// Options configures repository discovery.
type Options struct {
	IgnoreMarkerFileName   string
	ExcludedDirectoryNames []string
	IdentityResolver       shared.RepositoryIdentityResolver
}

// FilesystemRepositoryDiscoverer locates git repositories on disk.
type FilesystemRepositoryDiscoverer struct {
	ignoreMarkerFileName   string
	excludedDirectoryNames map[string]struct{}
	identityResolver       shared.RepositoryIdentityResolver
}

// NewFilesystemRepositoryDiscoverer constructs a repository discoverer backed by filepath.WalkDir.
// Empty option values fall back to the .ignore marker and the default junk directory list.
func NewFilesystemRepositoryDiscoverer(options Options) *FilesystemRepositoryDiscoverer {
	ignoreMarkerFileName := strings.TrimSpace(options.IgnoreMarkerFileName)
	if len(ignoreMarkerFileName) == 0 {
		ignoreMarkerFileName = shared.IgnoreMarkerFileNameConstant
	}

	excludedDirectoryNames := options.ExcludedDirectoryNames
	if excludedDirectoryNames == nil {
		excludedDirectoryNames = shared.DefaultExcludedDirectoryNames()
	}
	excludedDirectorySet := make(map[string]struct{}, len(excludedDirectoryNames))
	for _, excludedDirectoryName := range excludedDirectoryNames {
		trimmedName := strings.TrimSpace(excludedDirectoryName)
		if len(trimmedName) == 0 {
			continue
		}
		excludedDirectorySet[trimmedName] = struct{}{}
	}

	return &FilesystemRepositoryDiscoverer{
		ignoreMarkerFileName:   ignoreMarkerFileName,
		excludedDirectoryNames: excludedDirectorySet,
		identityResolver:       options.IdentityResolver,
	}
}

// CandidateRoots lazily yields the parent of every .git directory under rootPath.
//
// Symbolic links are not followed, .git directories are never entered, and any
// root whose path contains an excluded directory name is dropped before it is
// yielded. Unreadable entries are ignored. Each iteration walks the tree anew.
func (discoverer *FilesystemRepositoryDiscoverer) CandidateRoots(rootPath string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(rootPath, func(path string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil || directoryEntry == nil {
				return nil
			}
			if !directoryEntry.IsDir() {
				return nil
			}

			if directoryEntry.Name() != shared.GitMetadataDirectoryNameConstant {
				if path != rootPath && discoverer.isExcludedName(directoryEntry.Name()) {
					return fs.SkipDir
				}
				return nil
			}

			repositoryRoot := filepath.Dir(path)
			if discoverer.isExcludedPath(repositoryRoot) {
				return fs.SkipDir
			}
			if !yield(repositoryRoot) {
				return fs.SkipAll
			}
			return fs.SkipDir
		})
	}
}

// Discover walks rootPath and classifies each repository as a refresh job or a skip.
//
// Jobs are deduplicated and sorted by root path component by component; skips are sorted by identity.
// Only an unreadable root produces an error.
func (discoverer *FilesystemRepositoryDiscoverer) Discover(executionContext context.Context, rootPath string) (shared.Discovery, error) {
	if readError := ensureReadableDirectory(rootPath); readError != nil {
		return shared.Discovery{}, fmt.Errorf(rootUnreadableErrorTemplateConstant, ErrRootUnreadable, rootPath, readError)
	}

	walkRoot := resolveRootLink(rootPath)
	seenRoots := make(map[string]struct{})
	discovery := shared.Discovery{}

	for repositoryRoot := range discoverer.CandidateRoots(walkRoot) {
		cleanRoot := filepath.Clean(repositoryRoot)
		if _, alreadySeen := seenRoots[cleanRoot]; alreadySeen {
			continue
		}
		seenRoots[cleanRoot] = struct{}{}

		identity := discoverer.resolveIdentity(executionContext, walkRoot, cleanRoot)
		if discoverer.hasIgnoreMarker(cleanRoot) {
			discovery.Skipped = append(discovery.Skipped, shared.SkippedJob{Identity: identity})
			continue
		}
		discovery.Jobs = append(discovery.Jobs, shared.RepositoryJob{Root: cleanRoot, Identity: identity})
	}

	sort.Slice(discovery.Jobs, func(leftIndex int, rightIndex int) bool {
		return comparePathComponents(discovery.Jobs[leftIndex].Root, discovery.Jobs[rightIndex].Root) < 0
	})
	sort.SliceStable(discovery.Skipped, func(leftIndex int, rightIndex int) bool {
		return discovery.Skipped[leftIndex].Identity < discovery.Skipped[rightIndex].Identity
	})

	return discovery, nil
}

func (discoverer *FilesystemRepositoryDiscoverer) resolveIdentity(executionContext context.Context, searchRoot string, repositoryRoot string) string {
	if discoverer.identityResolver != nil {
		if identity, resolved := discoverer.identityResolver.ResolveIdentity(executionContext, repositoryRoot); resolved {
			return identity
		}
	}
	return FallbackDisplayPath(searchRoot, repositoryRoot)
}

func (discoverer *FilesystemRepositoryDiscoverer) hasIgnoreMarker(repositoryRoot string) bool {
	_, statError := os.Stat(filepath.Join(repositoryRoot, discoverer.ignoreMarkerFileName))
	return statError == nil
}

func (discoverer *FilesystemRepositoryDiscoverer) isExcludedName(directoryName string) bool {
	_, excluded := discoverer.excludedDirectoryNames[directoryName]
	return excluded
}

func (discoverer *FilesystemRepositoryDiscoverer) isExcludedPath(repositoryRoot string) bool {
	for _, pathComponent := range strings.Split(filepath.ToSlash(repositoryRoot), "/") {
		if discoverer.isExcludedName(pathComponent) {
			return true
		}
	}
	return false
}

// FallbackDisplayPath renders repositoryRoot relative to searchRoot, or absolute when no relative form exists.
func FallbackDisplayPath(searchRoot string, repositoryRoot string) string {
	relativePath, relativeError := filepath.Rel(searchRoot, repositoryRoot)
	if relativeError != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return repositoryRoot
	}
	if relativePath == currentDirectoryDisplayConstant {
		return currentDirectoryDisplayConstant
	}
	return filepath.ToSlash(relativePath)
}

// comparePathComponents orders paths by their separator-delimited components, so a/b sorts before a-b.
func comparePathComponents(leftPath string, rightPath string) int {
	return slices.Compare(
		strings.Split(filepath.Clean(leftPath), string(filepath.Separator)),
		strings.Split(filepath.Clean(rightPath), string(filepath.Separator)),
	)
}

// resolveRootLink follows the search root when it is itself a symbolic link; links below it are never followed.
func resolveRootLink(rootPath string) string {
	rootInfo, lstatError := os.Lstat(rootPath)
	if lstatError != nil || rootInfo.Mode()&fs.ModeSymlink == 0 {
		return rootPath
	}
	resolvedRoot, resolveError := filepath.EvalSymlinks(rootPath)
	if resolveError != nil {
		return rootPath
	}
	return resolvedRoot
}

func ensureReadableDirectory(rootPath string) error {
	rootInfo, statError := os.Stat(rootPath)
	if statError != nil {
		return statError
	}
	if !rootInfo.IsDir() {
		return errRootNotDirectory
	}
	rootHandle, openError := os.Open(rootPath)
	if openError != nil {
		return openError
	}
	defer rootHandle.Close()
	_, readError := rootHandle.ReadDir(1)
	if readError != nil && !errors.Is(readError, io.EOF) {
		return readError
	}
	return nil
}

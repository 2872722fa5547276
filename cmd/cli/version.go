package cli

import (
	"runtime/debug"
	"strings"
)

const developmentVersionConstant = "dev"

// Version is injected at build time with -ldflags "-X .../cmd/cli.Version=v1.2.3".
var Version string

// ResolveVersion returns the injected version, then the module version recorded
// by go install, then "dev".
func ResolveVersion() string {
	if trimmedVersion := strings.TrimSpace(Version); len(trimmedVersion) > 0 {
		return trimmedVersion
	}
	if buildInformation, available := debug.ReadBuildInfo(); available {
		moduleVersion := strings.TrimSpace(buildInformation.Main.Version)
		if len(moduleVersion) > 0 && moduleVersion != "(devel)" {
			return moduleVersion
		}
	}
	return developmentVersionConstant
}

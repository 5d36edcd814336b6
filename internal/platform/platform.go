// Package platform reports what the bridge is running on. The update
// mechanism itself only works on macOS, where the OS-level updater speaks
// the two-endpoint feed protocol.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Target is the only operating system the bridge drives an OS updater on.
const Target = "darwin"

// Platform represents the current OS and architecture.
type Platform struct {
	OS   string
	Arch string
}

// Detect returns the current OS and architecture.
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// IsTarget reports whether this platform can drive the OS updater.
func (p Platform) IsTarget() bool {
	return p.OS == Target
}

// AssetTag returns the substring release assets for this platform are
// expected to carry in their file name, e.g. "darwin-arm64".
func (p Platform) AssetTag() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// MatchAsset picks the asset name that best fits this platform: an exact
// platform-tagged name wins, otherwise the first zip archive. Returns -1
// when nothing fits.
func (p Platform) MatchAsset(names []string) int {
	tag := p.AssetTag()
	for i, name := range names {
		if strings.Contains(name, tag) {
			return i
		}
	}
	for i, name := range names {
		if strings.HasSuffix(name, ".zip") {
			return i
		}
	}
	return -1
}

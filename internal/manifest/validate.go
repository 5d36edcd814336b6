package manifest

import (
	"log/slog"

	"github.com/Masterminds/semver/v3"
)

// IsSelectionValid decides whether a selected entry may be served to the OS
// updater. Rules, in order:
//
//  1. A nil selection is invalid.
//  2. When supportedOS is set, the local OS version must parse and satisfy
//     the range. Parse failure of either side fails closed.
//  3. The selected version must be strictly greater than currentVersion.
//
// Every rejection reason is logged on the supplied logger.
func IsSelectionValid(selected *ReleaseEntry, currentVersion, osVersion string, logger *slog.Logger) bool {
	if selected == nil {
		logger.Info("no release selected")

		return false
	}

	if selected.SupportedOS != "" {
		supported, err := semver.NewConstraint(selected.SupportedOS)
		if err != nil {
			logger.Warn("invalid supportedOS range in manifest",
				"supported_os", selected.SupportedOS, "error", err)

			return false
		}

		local, err := semver.NewVersion(osVersion)
		if err != nil {
			logger.Warn("cannot parse local os version",
				"os_version", osVersion, "error", err)

			return false
		}

		if !supported.Check(local) {
			logger.Info("release does not support local os version",
				"supported_os", selected.SupportedOS, "os_version", osVersion)

			return false
		}
	}

	candidate, err := semver.NewVersion(selected.Version)
	if err != nil {
		logger.Warn("selected release has unparseable version",
			"version", selected.Version, "error", err)

		return false
	}

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		logger.Warn("cannot parse current version",
			"version", currentVersion, "error", err)

		return false
	}

	if !candidate.GreaterThan(current) {
		logger.Info("selected release is not newer than current version",
			"selected", selected.Version, "current", currentVersion)

		return false
	}

	return true
}

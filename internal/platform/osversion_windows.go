//go:build windows

package platform

import "errors"

// OSVersion is not implemented on Windows; the bridge never drives an OS
// updater there.
func OSVersion() (string, error) {
	return "", errors.New("os version detection not supported on windows")
}

//go:build unix

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// OSVersion returns the kernel release string, e.g. "23.1.0" on macOS 14.
// This is the value manifest supportedOS ranges are interpreted against.
func OSVersion() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}

	return unix.ByteSliceToString(uts.Release[:]), nil
}

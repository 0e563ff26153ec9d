//go:build windows

package privilege

import "golang.org/x/sys/windows"

// DefaultCommand is unused on Windows; elevation goes through the shell's
// "runas" verb rather than an external binary.
const DefaultCommand = "runas"

// IsElevated reports whether the process token carries elevated
// (administrator) privileges.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// Available always reports true on Windows: elevation is requested through
// ShellExecuteEx and UAC, which need no probeable external program.
func Available(string) bool {
	return true
}

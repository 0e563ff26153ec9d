//go:build !windows

package privilege

import (
	"io"
	"os"
	"os/exec"
)

// DefaultCommand is the elevation command used when none is configured.
const DefaultCommand = "sudo"

// IsElevated reports whether the process is already running with root
// privileges.
func IsElevated() bool {
	return os.Geteuid() == 0
}

// Available reports whether the elevation command can be started on this
// host. It runs the command with a version-query argument and observes
// only whether the process starts: a missing or unusable binary folds to
// false. The result is computed fresh on every call, never cached.
func Available(command string) bool {
	if command == "" {
		command = DefaultCommand
	}
	cmd := exec.Command(command, "--version")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return false
	}
	// The probe process is abandoned; reap it in the background so it
	// does not linger as a zombie.
	go cmd.Wait() //nolint:errcheck // exit status is irrelevant
	return true
}

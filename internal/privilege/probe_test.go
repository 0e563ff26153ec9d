//go:build !windows

package privilege

import "testing"

func TestAvailable(t *testing.T) {
	t.Parallel()

	// "true" ignores --version and exits zero; starting is what counts.
	if !Available("true") {
		t.Error(`Available("true") = false, want true`)
	}

	if Available("liftfs-no-such-elevation-command") {
		t.Error("Available() = true for a missing binary, want false")
	}
}

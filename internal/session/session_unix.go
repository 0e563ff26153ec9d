//go:build !windows

package session

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// create validates that the elevation command yields a genuinely elevated
// context before the session is handed out. The -n flag makes the command
// fail instead of prompting; session creation must never block on a
// password prompt.
func (m *Manager) create(ctx context.Context) (*Session, error) {
	out, err := m.run.Output(ctx, m.command, "-n", "id", "-u")
	if err != nil {
		return nil, fmt.Errorf("%w: running %q: %v", ErrNoElevation, m.command, err)
	}
	if got := strings.TrimSpace(string(out)); got != "0" {
		return nil, fmt.Errorf("%w: id -u reported %q", ErrNotElevated, got)
	}
	return &Session{command: m.command}, nil
}

// StartHelper spawns the helper binary through the session's elevation
// command. The helper deliberately outlives the launch that started it:
// its lifetime is bound to its connection, not to a context.
func (s *Session) StartHelper(path string, args ...string) (Helper, error) {
	argv := append([]string{"-n", "--", path}, args...)
	cmd := exec.Command(s.command, argv...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting helper: %w", err)
	}
	return &unixHelper{cmd: cmd}, nil
}

type unixHelper struct {
	cmd *exec.Cmd
}

func (h *unixHelper) Wait() error {
	return h.cmd.Wait()
}

func (h *unixHelper) Stop() {
	// Kills the elevation command, not necessarily the root-owned helper
	// behind it; the helper itself exits when its connection closes.
	_ = h.cmd.Process.Kill()
}

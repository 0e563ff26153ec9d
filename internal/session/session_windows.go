//go:build windows

package session

import (
	"context"
	"fmt"

	"github.com/liftfs/liftfs/internal/winexec"
)

// create on Windows has nothing to establish up front: elevation happens
// per spawn through UAC, so the session is a capability marker. Whether
// the helper really came up elevated is verified from its handshake.
func (m *Manager) create(context.Context) (*Session, error) {
	return &Session{command: m.command}, nil
}

// StartHelper spawns the helper binary elevated via the shell's "runas"
// verb, prompting through UAC.
func (s *Session) StartHelper(path string, args ...string) (Helper, error) {
	proc, err := winexec.RunAs(path, "", args)
	if err != nil {
		return nil, fmt.Errorf("starting helper: %w", err)
	}
	return winHelper{proc: proc}, nil
}

type winHelper struct {
	proc *winexec.Process
}

func (h winHelper) Wait() error {
	return h.proc.Wait()
}

func (h winHelper) Stop() {
	h.proc.Kill()
}

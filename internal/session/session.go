// Package session owns the process-wide privileged execution session. The
// session is created lazily on first use and then reused by every later
// caller; a creation failure is terminal and reported, never retried
// silently.
package session

import (
	"context"
	"errors"
	"os/exec"
	"sync"

	"github.com/caarlos0/log"
	"github.com/liftfs/liftfs/internal/privilege"
)

var (
	// ErrNoElevation means the elevation command could not be used at
	// all: missing binary, refused credentials, or a prompt that would
	// have blocked.
	ErrNoElevation = errors.New("privilege elevation is unavailable")

	// ErrNotElevated means the elevation command ran but did not produce
	// an elevated context. A session like that is refused outright
	// rather than silently treated as privileged.
	ErrNotElevated = errors.New("elevation command produced a non-elevated session")
)

// Session is the established privileged execution context. It persists
// for the process lifetime; there is at most one per process.
type Session struct {
	command string
}

// Helper is a privileged helper process started through the session.
type Helper interface {
	// Wait blocks until the helper exits.
	Wait() error
	// Stop terminates the helper. Best effort; the helper also exits on
	// its own when its connection closes.
	Stop()
}

// commandRunner runs a program to completion and returns its stdout.
// It exists so tests can stand in for the real elevation command.
type commandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Manager guards the singleton session.
type Manager struct {
	command string
	logger  *log.Logger
	run     commandRunner

	mu      sync.Mutex
	created bool
	sess    *Session
	err     error
}

func NewManager(command string, logger *log.Logger) *Manager {
	if command == "" {
		command = privilege.DefaultCommand
	}
	return &Manager{command: command, logger: logger, run: execRunner{}}
}

// Ensure returns the process-wide session, creating it on the first call.
// Later callers observe the already-created session, or the original
// creation error, which is sticky.
func (m *Manager) Ensure(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.created {
		return m.sess, m.err
	}
	m.logger.WithField("command", m.command).Debug("creating elevation session")
	m.sess, m.err = m.create(ctx)
	m.created = true
	if m.err != nil {
		m.logger.WithError(m.err).Debug("elevation session creation failed")
	}
	return m.sess, m.err
}

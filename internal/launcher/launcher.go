// Package launcher establishes the connection to the privileged helper
// process. A launch runs probe → session → bind as one strictly serialized
// sequence under a shared deadline; the result is a live remote.Client
// owned by the caller.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/log"
	"github.com/google/uuid"
	"github.com/liftfs/liftfs/internal/privilege"
	"github.com/liftfs/liftfs/internal/remote"
	"github.com/liftfs/liftfs/internal/session"
)

// DefaultTimeout bounds the whole probe→session→bind sequence. Remote
// call sites conventionally share the same value for individual
// operations.
const DefaultTimeout = 15 * time.Second

// Launch stages, reported on LaunchError.
const (
	StageProbe   = "availability probe"
	StageSession = "session creation"
	StageBind    = "helper binding"
)

var (
	// ErrElevationUnavailable means the host has no usable elevation
	// mechanism. Reported immediately by the probe, not retried.
	ErrElevationUnavailable = errors.New("privilege elevation is not available on this host")

	// ErrLaunchTimeout means the launch sequence did not complete within
	// the deadline.
	ErrLaunchTimeout = errors.New("helper launch deadline exceeded")

	// ErrLaunchInterrupted means the waiting caller was cancelled before
	// the deadline.
	ErrLaunchInterrupted = errors.New("helper launch interrupted")
)

// BindReason says which binding-failure signal arrived.
type BindReason string

const (
	// BindDisconnected: the helper connected but the connection dropped
	// before the handshake completed.
	BindDisconnected BindReason = "disconnected"
	// BindDied: the helper process exited, or could not be started,
	// before a connection was established.
	BindDied BindReason = "bind-died"
	// BindNull: the helper connected but identified no usable service.
	BindNull BindReason = "null-binding"
)

// BindError reports a failed helper binding with the signal that caused
// it.
type BindError struct {
	Reason BindReason
	Err    error
}

func (e *BindError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("helper binding failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("helper binding failed (%s)", e.Reason)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// LaunchError is the single failure surface callers see: whatever stage
// failed, the original cause is carried underneath.
type LaunchError struct {
	Stage string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("helper launch failed during %s: %v", e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// helperSession is the slice of session.Session the launcher needs;
// tests substitute it.
type helperSession interface {
	StartHelper(path string, args ...string) (session.Helper, error)
}

// Config controls where the helper comes from and how it is reached.
type Config struct {
	// HelperPath is the binary spawned as the helper. Empty means the
	// current executable (the helper is a hidden subcommand of it).
	HelperPath string
	// SocketDir holds the per-launch bind sockets. Empty means the
	// system temp directory.
	SocketDir string
	// ElevationCommand overrides the default elevation command.
	ElevationCommand string
	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
}

// Launcher serializes helper launches process-wide. The zero value is not
// usable; construct with New.
type Launcher struct {
	cfg     Config
	logger  *log.Logger
	timeout time.Duration

	available func() bool
	ensure    func(ctx context.Context) (helperSession, error)

	// mu spans the entire probe→session→bind sequence: no two launch
	// attempts ever interleave their side effects.
	mu sync.Mutex

	loopOnce sync.Once
	bindq    chan func()
}

func New(cfg Config, logger *log.Logger) *Launcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	mgr := session.NewManager(cfg.ElevationCommand, logger)
	return &Launcher{
		cfg:     cfg,
		logger:  logger,
		timeout: timeout,
		available: func() bool {
			return privilege.Available(cfg.ElevationCommand)
		},
		ensure: func(ctx context.Context) (helperSession, error) {
			sess, err := mgr.Ensure(ctx)
			if err != nil {
				return nil, err
			}
			return sess, nil
		},
	}
}

// Launch runs the full launch sequence and returns a connected helper
// client. Concurrent callers block until the in-flight attempt finishes
// and then run the sequence themselves; results are not shared. The
// caller owns the returned client and is expected to cache it.
func (l *Launcher) Launch(ctx context.Context) (*remote.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	logger := l.logger.WithField("attempt", uuid.NewString()[:8])

	logger.Debug("probing elevation availability")
	if !l.available() {
		// The binding backend never signals completion when elevation is
		// absent; failing here beats waiting out the full deadline.
		return nil, &LaunchError{Stage: StageProbe, Err: ErrElevationUnavailable}
	}

	sess, err := l.ensure(ctx)
	if err != nil {
		return nil, &LaunchError{Stage: StageSession, Err: err}
	}

	client, err := l.bind(ctx, sess, logger)
	if err != nil {
		return nil, &LaunchError{Stage: StageBind, Err: err}
	}
	logger.WithField("helper_pid", client.Hello().PID).Debug("helper bound")
	return client, nil
}

func (l *Launcher) bind(ctx context.Context, sess helperSession, logger *log.Entry) (*remote.Client, error) {
	// Launch always sets a deadline; it doubles as the handshake bound.
	deadline, _ := ctx.Deadline()

	b := &binding{
		logger: logger,
		socket: filepath.Join(l.socketDir(), fmt.Sprintf("liftfs-%d-%s.sock", os.Getpid(), uuid.NewString()[:8])),
	}
	done := make(chan bindOutcome, 1)

	// Bind requests are issued from the coordination goroutine, never
	// from the caller's.
	helperPath := l.helperPath()
	l.schedule(func() {
		b.start(sess, helperPath, deadline, l.timeout, done)
	})

	select {
	case out := <-done:
		if out.err != nil {
			l.schedule(b.unwind)
			return nil, out.err
		}
		return out.client, nil
	case <-ctx.Done():
		// A cancelled or expired waiter must not leak a bound-but-
		// abandoned connection; the unbind runs on the same goroutine
		// that issued the bind.
		l.schedule(b.unwind)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrLaunchTimeout
		}
		return nil, ErrLaunchInterrupted
	}
}

// schedule runs fn on the launcher's single coordination goroutine, the
// designated context for bind and unbind requests.
func (l *Launcher) schedule(fn func()) {
	l.loopOnce.Do(func() {
		l.bindq = make(chan func(), 8)
		go func() {
			for fn := range l.bindq {
				fn()
			}
		}()
	})
	l.bindq <- fn
}

func (l *Launcher) socketDir() string {
	if l.cfg.SocketDir != "" {
		return l.cfg.SocketDir
	}
	return os.TempDir()
}

func (l *Launcher) helperPath() string {
	if l.cfg.HelperPath != "" {
		return l.cfg.HelperPath
	}
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return os.Args[0]
}

type bindOutcome struct {
	client *remote.Client
	err    error
}

// deliver is a single-shot send: the first outcome wins, later ones are
// dropped so no producer ever blocks.
func deliver(done chan<- bindOutcome, out bindOutcome) {
	select {
	case done <- out:
	default:
	}
}

// binding tracks the resources of one in-flight bind so an unwind can
// release exactly what was acquired, no matter how far the bind got.
type binding struct {
	logger *log.Entry
	socket string

	mu      sync.Mutex
	ln      net.Listener
	conn    net.Conn
	helper  session.Helper
	unwound bool

	unwindOnce sync.Once
}

func (b *binding) start(sess helperSession, helperPath string, deadline time.Time, callTimeout time.Duration, done chan<- bindOutcome) {
	if dir := filepath.Dir(b.socket); dir != "" {
		_ = os.MkdirAll(dir, 0o700)
	}
	ln, err := net.Listen("unix", b.socket)
	if err != nil {
		deliver(done, bindOutcome{err: &BindError{Reason: BindDied, Err: fmt.Errorf("listening on %s: %w", b.socket, err)}})
		return
	}
	if !b.adoptListener(ln) {
		return
	}

	// The helper dials back; the accept result is the connection signal.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed by an unwind; the waiter is already gone.
			return
		}
		ln.Close() //nolint:errcheck // single-connection listener

		client, err := remote.NewClient(conn, deadline, callTimeout)
		if err != nil {
			conn.Close() //nolint:errcheck // handshake failed
			deliver(done, bindOutcome{err: &BindError{Reason: BindDisconnected, Err: err}})
			return
		}
		hello := client.Hello()
		switch {
		case hello.Service == "":
			conn.Close() //nolint:errcheck // rejected binding
			deliver(done, bindOutcome{err: &BindError{Reason: BindNull, Err: errors.New("helper sent no service identifier")}})
		case hello.Service != remote.ServiceName:
			conn.Close() //nolint:errcheck // rejected binding
			deliver(done, bindOutcome{err: &BindError{Reason: BindNull, Err: fmt.Errorf("unexpected service %q", hello.Service)}})
		case !hello.Elevated:
			conn.Close() //nolint:errcheck // rejected binding
			deliver(done, bindOutcome{err: fmt.Errorf("helper came up without privileges: %w", session.ErrNotElevated)})
		default:
			if !b.adoptConn(conn) {
				// Unwound while the handshake ran; nobody is waiting.
				client.Close() //nolint:errcheck // abandoned binding
				return
			}
			deliver(done, bindOutcome{client: client})
		}
	}()

	helper, err := sess.StartHelper(helperPath, "helper", "--connect", b.socket)
	if err != nil {
		ln.Close() //nolint:errcheck // bind failed before spawn
		deliver(done, bindOutcome{err: &BindError{Reason: BindDied, Err: err}})
		return
	}
	if !b.adoptHelper(helper) {
		return
	}
	b.logger.WithField("socket", b.socket).Debug("bind requested")

	// A helper that exits before the connection signal is a dead
	// binding. After a successful bind this send is dropped.
	go func() {
		err := helper.Wait()
		if err == nil {
			err = errors.New("helper exited before binding")
		}
		deliver(done, bindOutcome{err: &BindError{Reason: BindDied, Err: err}})
	}()
}

func (b *binding) adoptListener(ln net.Listener) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unwound {
		ln.Close() //nolint:errcheck // unwound before adoption
		return false
	}
	b.ln = ln
	return true
}

func (b *binding) adoptConn(conn net.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unwound {
		return false
	}
	b.conn = conn
	return true
}

func (b *binding) adoptHelper(helper session.Helper) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unwound {
		helper.Stop()
		return false
	}
	b.helper = helper
	return true
}

// unwind releases the in-flight bind: close the listener, stop the
// helper. Idempotent; runs on the coordination goroutine.
func (b *binding) unwind() {
	b.unwindOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.unwound = true
		if b.ln != nil {
			b.ln.Close() //nolint:errcheck // teardown
		}
		if b.conn != nil {
			b.conn.Close() //nolint:errcheck // teardown
		}
		if b.helper != nil {
			b.helper.Stop()
		}
		b.logger.Debug("bind request unwound")
	})
}

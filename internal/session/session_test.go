//go:build !windows

package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/caarlos0/log"
)

type fakeRunner struct {
	out   []byte
	err   error
	calls int
}

func (r *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls++
	return r.out, r.err
}

func newTestManager(run commandRunner) *Manager {
	return &Manager{command: "sudo", logger: log.New(io.Discard), run: run}
}

func TestEnsureCreatesSession(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{out: []byte("0\n")}
	m := newTestManager(run)

	sess, err := m.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if sess == nil {
		t.Fatal("Ensure() returned a nil session")
	}
}

func TestEnsureRejectsUnelevatedOutput(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{out: []byte("1000\n")}
	m := newTestManager(run)

	_, err := m.Ensure(context.Background())
	if !errors.Is(err, ErrNotElevated) {
		t.Fatalf("Ensure() error = %v, want %v", err, ErrNotElevated)
	}
}

func TestEnsureMapsCommandFailure(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{err: errors.New("exit status 1")}
	m := newTestManager(run)

	_, err := m.Ensure(context.Background())
	if !errors.Is(err, ErrNoElevation) {
		t.Fatalf("Ensure() error = %v, want %v", err, ErrNoElevation)
	}
}

func TestEnsureCreatesOnce(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{out: []byte("0\n")}
	m := newTestManager(run)

	first, err := m.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	second, err := m.Ensure(context.Background())
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if first != second {
		t.Error("Ensure() returned different sessions across calls")
	}
	if run.calls != 1 {
		t.Errorf("elevation command ran %d times, want 1", run.calls)
	}
}

func TestEnsureFailureIsSticky(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{err: errors.New("sudo: a password is required")}
	m := newTestManager(run)

	_, first := m.Ensure(context.Background())
	if first == nil {
		t.Fatal("Ensure() succeeded, want failure")
	}

	// Clearing the fault must not matter: the first outcome is final.
	run.err = nil
	run.out = []byte("0\n")

	_, second := m.Ensure(context.Background())
	if !errors.Is(second, ErrNoElevation) {
		t.Fatalf("second Ensure() error = %v, want the original %v", second, ErrNoElevation)
	}
	if run.calls != 1 {
		t.Errorf("elevation command ran %d times, want 1", run.calls)
	}
}

// Package fallback decides, per operation, whether a filesystem operation
// runs against the caller's own privileges or against the privileged
// helper, applying the configured NEVER/AUTOMATIC/ALWAYS strategy.
package fallback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/liftfs/liftfs/internal/fsops"
	"github.com/liftfs/liftfs/internal/privilege"
	"github.com/liftfs/liftfs/internal/sliceutil"
)

// Strategy is the configured elevation policy.
type Strategy int

const (
	// Never runs operations with the caller's own privileges only.
	Never Strategy = iota
	// Automatic tries unprivileged first and retries through the helper
	// only on a permission failure.
	Automatic
	// Always routes every operation through the helper.
	Always
)

func (s Strategy) String() string {
	switch s {
	case Never:
		return "never"
	case Automatic:
		return "automatic"
	case Always:
		return "always"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy reads a configured strategy value.
func ParseStrategy(text string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "never":
		return Never, nil
	case "automatic", "auto":
		return Automatic, nil
	case "always":
		return Always, nil
	}
	return Never, fmt.Errorf("unknown elevation strategy %q", text)
}

// Path is a filesystem path annotated with its elevation eligibility.
type Path struct {
	Name string
	// Elevatable marks paths that support helper-based access at all.
	Elevatable bool
	// AttributeAccess marks metadata-only accesses. Carried through for
	// finer-grained policy; the dispatcher does not act on it.
	AttributeAccess bool
}

// ElevatablePath wraps a path that supports elevation.
func ElevatablePath(name string) Path {
	return Path{Name: name, Elevatable: true}
}

// ErrNotElevatable reports a path that does not support helper-based
// access being passed to the dispatcher.
var ErrNotElevatable = errors.New("path does not support elevation")

// processElevated is swapped in tests.
var processElevated = privilege.IsElevated

// Do runs op against the local or root implementation per the strategy.
//
// Every supplied path must be elevatable, or the call fails before the
// operation runs. When the process itself is already elevated the
// effective strategy is forced to Never: routing through the helper would
// be redundant.
//
// Under Automatic, a local failure classified as permission-denied is
// retried against root. If the retry also fails, the retry's error is
// discarded and the original local failure is returned; the local error
// is the stable, explainable one. Non-permission local failures propagate
// immediately without touching root.
func Do[T any](strategy Strategy, local, root fsops.FileOps, op func(fsops.FileOps) (T, error), paths ...Path) (T, error) {
	var zero T

	bad := sliceutil.Filter(paths, func(p Path) (string, bool) {
		return p.Name, !p.Elevatable
	})
	if len(bad) > 0 {
		return zero, fmt.Errorf("%w: %s", ErrNotElevatable, strings.Join(bad, ", "))
	}

	if processElevated() {
		strategy = Never
	}

	switch strategy {
	case Always:
		return op(root)
	case Never:
		return op(local)
	}

	v, err := op(local)
	if err == nil || !IsPermissionDenied(err) {
		return v, err
	}
	rv, rerr := op(root)
	if rerr != nil {
		return zero, err
	}
	return rv, nil
}

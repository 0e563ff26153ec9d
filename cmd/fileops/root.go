package fileops

import (
	"context"
	"io/fs"
	"sync"
	"time"

	"github.com/caarlos0/log"
	"github.com/liftfs/liftfs/internal/fsops"
	"github.com/liftfs/liftfs/internal/launcher"
	"github.com/liftfs/liftfs/internal/logutil"
	"github.com/liftfs/liftfs/internal/remote"
)

// lazyRoot is the helper-backed FileOps. The helper is launched on first
// use and the resulting handle is cached for the rest of the invocation,
// so a dispatch that never touches root never pays for a launch.
type lazyRoot struct {
	launcher *launcher.Launcher
	logger   *log.Logger

	mu     sync.Mutex
	client *remote.Client
}

var _ fsops.FileOps = (*lazyRoot)(nil)

func newLazyRoot(l *launcher.Launcher, logger *log.Logger) *lazyRoot {
	return &lazyRoot{launcher: l, logger: logger}
}

func (r *lazyRoot) ops(ctx context.Context) (fsops.FileOps, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}

	start := time.Now()
	r.logger.Info("launching privileged helper")
	client, err := r.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	logutil.LogDuration(r.logger, start)

	r.client = client
	return client, nil
}

// Close shuts down the cached helper handle, if any.
func (r *lazyRoot) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		_ = r.client.Close()
		r.client = nil
	}
}

func (r *lazyRoot) ReadFile(ctx context.Context, path string) ([]byte, error) {
	ops, err := r.ops(ctx)
	if err != nil {
		return nil, err
	}
	return ops.ReadFile(ctx, path)
}

func (r *lazyRoot) WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	ops, err := r.ops(ctx)
	if err != nil {
		return err
	}
	return ops.WriteFile(ctx, path, data, perm)
}

func (r *lazyRoot) Stat(ctx context.Context, path string) (fsops.FileInfo, error) {
	ops, err := r.ops(ctx)
	if err != nil {
		return fsops.FileInfo{}, err
	}
	return ops.Stat(ctx, path)
}

func (r *lazyRoot) List(ctx context.Context, path string) ([]fsops.FileInfo, error) {
	ops, err := r.ops(ctx)
	if err != nil {
		return nil, err
	}
	return ops.List(ctx, path)
}

func (r *lazyRoot) Remove(ctx context.Context, path string) error {
	ops, err := r.ops(ctx)
	if err != nil {
		return err
	}
	return ops.Remove(ctx, path)
}

func (r *lazyRoot) Rename(ctx context.Context, oldPath, newPath string) error {
	ops, err := r.ops(ctx)
	if err != nil {
		return err
	}
	return ops.Rename(ctx, oldPath, newPath)
}

func (r *lazyRoot) Chmod(ctx context.Context, path string, perm fs.FileMode) error {
	ops, err := r.ops(ctx)
	if err != nil {
		return err
	}
	return ops.Chmod(ctx, path, perm)
}

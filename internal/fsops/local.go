package fsops

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// Local performs operations directly against the calling process's own
// filesystem view, with whatever privileges the process already has.
type Local struct{}

var _ FileOps = Local{}

// NewLocal returns the unprivileged implementation of FileOps.
func NewLocal() Local {
	return Local{}
}

func (Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (Local) WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

func (Local) Stat(ctx context.Context, path string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return infoFromOS(fi), nil
}

func (Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			// The entry disappeared between ReadDir and Info; skip it.
			continue
		}
		infos = append(infos, infoFromOS(fi))
	}
	return infos, nil
}

func (Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(path)
}

func (Local) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(oldPath, newPath)
}

func (Local) Chmod(ctx context.Context, path string, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

func infoFromOS(fi fs.FileInfo) FileInfo {
	uid, gid := owner(fi)
	return FileInfo{
		Name:    filepath.Base(fi.Name()),
		Size:    fi.Size(),
		Mode:    fi.Mode(),
		ModTime: fi.ModTime().UnixNano(),
		IsDir:   fi.IsDir(),
		UID:     uid,
		GID:     gid,
	}
}

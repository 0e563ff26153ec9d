// Package fsops defines the filesystem capability surface shared by the
// in-process implementation and the privileged helper client. Both expose
// the identical contract so a single operation closure can run against
// either.
package fsops

import (
	"context"
	"io/fs"
	"time"
)

// FileOps is the operation contract dispatched by the fallback layer.
// Implementations: Local (direct os calls) and remote.Client (privileged
// helper over the wire).
type FileOps interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error
	Stat(ctx context.Context, path string) (FileInfo, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Remove(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Chmod(ctx context.Context, path string, perm fs.FileMode) error
}

// FileInfo is a plain value describing a file. It replaces os.FileInfo so
// the same shape can cross the helper wire protocol.
type FileInfo struct {
	Name    string      `cbor:"name"`
	Size    int64       `cbor:"size"`
	Mode    fs.FileMode `cbor:"mode"`
	ModTime int64       `cbor:"mtime"` // unix nanoseconds
	IsDir   bool        `cbor:"is_dir,omitempty"`
	UID     int         `cbor:"uid,omitempty"`
	GID     int         `cbor:"gid,omitempty"`
}

// Modified returns the modification time as a time.Time.
func (fi FileInfo) Modified() time.Time {
	return time.Unix(0, fi.ModTime)
}

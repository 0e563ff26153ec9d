//go:build windows

package fsops

import "io/fs"

// Windows has no numeric file ownership; report the "unknown" sentinel.
func owner(fs.FileInfo) (uid, gid int) {
	return -1, -1
}

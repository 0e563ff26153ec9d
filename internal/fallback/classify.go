package fallback

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"
)

// Messages that identify a permission failure when no structured error
// value survived (for example an error stringified by a foreign layer).
var permissionPhrases = []string{
	"permission denied",
	"operation not permitted",
	"access is denied",
}

// IsPermissionDenied classifies an error as a permission/access-denied
// condition. The structured check comes first; the message heuristic is a
// fallback only. This is the sole classifier the Automatic strategy
// consults; keep any new permission shapes here.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range permissionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

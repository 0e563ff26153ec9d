package fallback

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"
)

func TestIsPermissionDenied(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "fs.ErrPermission", err: fs.ErrPermission, want: true},
		{name: "wrapped fs.ErrPermission", err: fmt.Errorf("stat /etc/shadow: %w", fs.ErrPermission), want: true},
		{name: "EACCES", err: syscall.EACCES, want: true},
		{name: "EPERM", err: syscall.EPERM, want: true},
		{name: "permission denied message", err: errors.New("open /etc/shadow: permission denied"), want: true},
		{name: "windows access denied message", err: errors.New("Access is denied."), want: true},
		{name: "operation not permitted message", err: errors.New("chmod /x: operation not permitted"), want: true},
		{name: "not found", err: fs.ErrNotExist, want: false},
		{name: "unrelated message", err: errors.New("file not found"), want: false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := IsPermissionDenied(tc.err); got != tc.want {
				t.Errorf("IsPermissionDenied(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

package fallback

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/liftfs/liftfs/internal/fsops"
)

// fakeOps scripts ReadFile and counts invocations. The embedded interface
// covers the methods the dispatcher never touches in these tests.
type fakeOps struct {
	fsops.FileOps
	calls int
	data  []byte
	err   error
}

func (f *fakeOps) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func setElevated(t *testing.T, elevated bool) {
	t.Helper()
	orig := processElevated
	processElevated = func() bool { return elevated }
	t.Cleanup(func() { processElevated = orig })
}

func readOp(ctx context.Context) func(fsops.FileOps) ([]byte, error) {
	return func(ops fsops.FileOps) ([]byte, error) {
		return ops.ReadFile(ctx, "/target")
	}
}

func TestDoNever(t *testing.T) {
	setElevated(t, false)
	ctx := context.Background()

	t.Run("runs local only", func(t *testing.T) {
		local := &fakeOps{data: []byte("local")}
		root := &fakeOps{data: []byte("root")}

		got, err := Do(Never, local, root, readOp(ctx), ElevatablePath("/target"))
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if string(got) != "local" {
			t.Errorf("Do() = %q, want %q", got, "local")
		}
		if root.calls != 0 {
			t.Errorf("root invoked %d times, want 0", root.calls)
		}
	})

	t.Run("local failure propagates without touching root", func(t *testing.T) {
		wantErr := fs.ErrPermission
		local := &fakeOps{err: wantErr}
		root := &fakeOps{data: []byte("root")}

		_, err := Do(Never, local, root, readOp(ctx), ElevatablePath("/target"))
		if !errors.Is(err, wantErr) {
			t.Errorf("Do() error = %v, want %v", err, wantErr)
		}
		if root.calls != 0 {
			t.Errorf("root invoked %d times, want 0", root.calls)
		}
	})
}

func TestDoAlways(t *testing.T) {
	setElevated(t, false)
	ctx := context.Background()

	local := &fakeOps{data: []byte("local")}
	root := &fakeOps{data: []byte("root")}

	got, err := Do(Always, local, root, readOp(ctx), ElevatablePath("/target"))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if string(got) != "root" {
		t.Errorf("Do() = %q, want %q", got, "root")
	}
	if local.calls != 0 {
		t.Errorf("local invoked %d times, want 0", local.calls)
	}
}

func TestDoAutomatic(t *testing.T) {
	setElevated(t, false)
	ctx := context.Background()

	t.Run("local success wins", func(t *testing.T) {
		local := &fakeOps{data: []byte("local")}
		root := &fakeOps{data: []byte("root")}

		got, err := Do(Automatic, local, root, readOp(ctx), ElevatablePath("/target"))
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if string(got) != "local" {
			t.Errorf("Do() = %q, want %q", got, "local")
		}
		if root.calls != 0 {
			t.Errorf("root invoked %d times, want 0", root.calls)
		}
	})

	t.Run("non-permission failure propagates unchanged", func(t *testing.T) {
		wantErr := fs.ErrNotExist
		local := &fakeOps{err: wantErr}
		root := &fakeOps{data: []byte("root")}

		_, err := Do(Automatic, local, root, readOp(ctx), ElevatablePath("/target"))
		if !errors.Is(err, wantErr) {
			t.Errorf("Do() error = %v, want %v", err, wantErr)
		}
		if root.calls != 0 {
			t.Errorf("root invoked %d times, want 0", root.calls)
		}
	})

	t.Run("permission failure retried on root", func(t *testing.T) {
		local := &fakeOps{err: fs.ErrPermission}
		root := &fakeOps{data: []byte("root")}

		got, err := Do(Automatic, local, root, readOp(ctx), ElevatablePath("/target"))
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if string(got) != "root" {
			t.Errorf("Do() = %q, want %q", got, "root")
		}
		if local.calls != 1 || root.calls != 1 {
			t.Errorf("local/root invoked %d/%d times, want 1/1", local.calls, root.calls)
		}
	})

	t.Run("double failure keeps the local error", func(t *testing.T) {
		localErr := errors.New("open /target: permission denied")
		rootErr := errors.New("helper launch failed")
		local := &fakeOps{err: localErr}
		root := &fakeOps{err: rootErr}

		_, err := Do(Automatic, local, root, readOp(ctx), ElevatablePath("/target"))
		if !errors.Is(err, localErr) {
			t.Errorf("Do() error = %v, want the local error %v", err, localErr)
		}
		if errors.Is(err, rootErr) {
			t.Errorf("Do() surfaced the root error %v, want it suppressed", rootErr)
		}
	})
}

func TestDoRejectsNonElevatablePaths(t *testing.T) {
	setElevated(t, false)
	ctx := context.Background()

	local := &fakeOps{data: []byte("local")}
	root := &fakeOps{data: []byte("root")}

	_, err := Do(Automatic, local, root, readOp(ctx),
		ElevatablePath("/ok"),
		Path{Name: "/plain"})
	if !errors.Is(err, ErrNotElevatable) {
		t.Fatalf("Do() error = %v, want %v", err, ErrNotElevatable)
	}
	if local.calls != 0 || root.calls != 0 {
		t.Errorf("operation ran despite invalid path: local=%d root=%d", local.calls, root.calls)
	}
}

func TestDoElevatedProcessForcesNever(t *testing.T) {
	setElevated(t, true)
	ctx := context.Background()

	for _, strategy := range []Strategy{Never, Automatic, Always} {
		t.Run(strategy.String(), func(t *testing.T) {
			local := &fakeOps{err: fs.ErrPermission}
			root := &fakeOps{data: []byte("root")}

			_, err := Do(strategy, local, root, readOp(ctx), ElevatablePath("/target"))
			if !errors.Is(err, fs.ErrPermission) {
				t.Errorf("Do() error = %v, want %v", err, fs.ErrPermission)
			}
			if root.calls != 0 {
				t.Errorf("root invoked %d times, want 0", root.calls)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "never", want: Never},
		{in: "automatic", want: Automatic},
		{in: "auto", want: Automatic},
		{in: "always", want: Always},
		{in: " Always ", want: Always},
		{in: "sometimes", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStrategy(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

//go:build windows

// Package winexec starts elevated processes on Windows through
// ShellExecuteEx with the "runas" verb, triggering a UAC prompt.
package winexec

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go exec.go
//sys shellExecuteExW(info *shellExecuteInfoW) (err error) [failretval==0] = shell32.ShellExecuteExW

// shellExecuteInfoW is the input/output struct for ShellExecuteExW.
// See: https://learn.microsoft.com/en-us/windows/win32/api/shellapi/ns-shellapi-shellexecuteinfow
type shellExecuteInfoW struct {
	cbSize         uint32
	fMask          uint32
	hwnd           windows.Handle
	lpVerb         uintptr
	lpFile         uintptr
	lpParameters   uintptr
	lpDirectory    uintptr
	nShow          int
	hInstApp       windows.Handle
	lpIDList       uintptr
	lpClass        uintptr
	hkeyClass      windows.Handle
	dwHotKey       uint32
	hIconOrMonitor windows.Handle
	hProcess       windows.Handle
}

// SEE_MASK_NOCLOSEPROCESS makes hProcess receive the created process
// handle; the caller owns the handle and must close it.
const SEE_MASK_NOCLOSEPROCESS = 0x40

// Process is a handle to an elevated process started by RunAs.
type Process struct {
	handle    windows.Handle
	closeOnce sync.Once
}

// RunAs starts file with elevated privileges via UAC prompt and returns
// without waiting for it to exit.
func RunAs(file, directory string, parameters []string) (*Process, error) {
	lpVerb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return nil, fmt.Errorf("converting verb to ptr: %w", err)
	}
	lpFile, err := windows.UTF16PtrFromString(file)
	if err != nil {
		return nil, fmt.Errorf("converting file to ptr: %w", err)
	}
	lpDirectory, err := windows.UTF16PtrFromString(directory)
	if err != nil {
		return nil, fmt.Errorf("converting directory to ptr: %w", err)
	}
	lpParameters, err := windows.UTF16PtrFromString(strings.Join(parameters, " "))
	if err != nil {
		return nil, fmt.Errorf("converting parameters to ptr: %w", err)
	}

	info := &shellExecuteInfoW{
		fMask:        SEE_MASK_NOCLOSEPROCESS,
		lpVerb:       uintptr(unsafe.Pointer(lpVerb)),
		lpFile:       uintptr(unsafe.Pointer(lpFile)),
		lpParameters: uintptr(unsafe.Pointer(lpParameters)),
		lpDirectory:  uintptr(unsafe.Pointer(lpDirectory)),
		nShow:        windows.SW_NORMAL,
	}
	info.cbSize = uint32(unsafe.Sizeof(*info))

	if err := shellExecuteExW(info); err != nil {
		return nil, fmt.Errorf("calling shellExecuteExW: %w", err)
	}
	if info.hProcess == 0 {
		return nil, fmt.Errorf("unexpected null hProcess handle from shellExecuteExW")
	}
	return &Process{handle: info.hProcess}, nil
}

// Wait blocks until the process exits and returns an error if it exited
// with a non-zero status. The process handle is released afterwards.
func (p *Process) Wait() error {
	defer p.close()

	w, err := windows.WaitForSingleObject(p.handle, windows.INFINITE)
	if err != nil {
		return fmt.Errorf("waiting for elevated process: %w", err)
	}
	if w != windows.WAIT_OBJECT_0 {
		return fmt.Errorf("unexpected wait result: %d", w)
	}

	var code uint32
	if err := windows.GetExitCodeProcess(p.handle, &code); err != nil {
		return fmt.Errorf("getting exit code: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("elevated process exited with code: %d", code)
	}
	return nil
}

// Kill terminates the process. Best effort: termination of an elevated
// process from a non-elevated parent can be refused by the system.
func (p *Process) Kill() {
	_ = windows.TerminateProcess(p.handle, 1)
	p.close()
}

func (p *Process) close() {
	p.closeOnce.Do(func() {
		_ = windows.CloseHandle(p.handle)
	})
}

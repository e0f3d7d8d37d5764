// Package platform exposes the OS capabilities livecap consumes: top-level
// and child window enumeration, window text, window placement and layered
// alpha, the primary display work area, the process table, and the
// accessibility tree.
//
// The Windows implementation talks to user32, kernel32 and UI Automation.
// Every other platform gets stubs that fail with ErrUnsupported so the rest of
// the module builds and tests anywhere.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
)

var (
	// ErrUnsupported is returned by every capability on non-Windows platforms.
	ErrUnsupported = errors.New("platform: not supported on " + runtime.GOOS)
	// ErrInvalidWindow is returned when a WindowRef no longer names a window.
	ErrInvalidWindow = errors.New("platform: window no longer exists")
)

// WindowRef is a non-owning reference to an OS window. The window's lifetime
// belongs to another process, so a ref may go stale at any time.
type WindowRef uintptr

// IsZero reports whether the ref is unset.
func (w WindowRef) IsZero() bool {
	return w == 0
}

func (w WindowRef) String() string {
	return fmt.Sprintf("0x%x", uintptr(w))
}

// WindowInfo describes a top-level window at enumeration time.
type WindowInfo struct {
	Ref   WindowRef
	Title string
	Class string
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Process is one entry of the OS process table.
type Process struct {
	PID  int
	Name string
}

// Supported reports whether the capabilities are implemented on this OS.
func Supported() bool {
	return runtime.GOOS == "windows"
}

// zeroReturnFailed interprets a call whose zero return may also be a valid
// result, such as a previous window style of 0. Only a non-zero last error
// marks failure.
func zeroReturnFailed(ret uintptr, lastErr error) bool {
	if ret != 0 {
		return false
	}
	var errno syscall.Errno
	if errors.As(lastErr, &errno) {
		return errno != 0
	}
	return lastErr != nil
}

//go:build windows

package platform

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const textBufferLen = 1024

const (
	gwChild    = 5
	gwHwndNext = 2

	swpShowWindow = 0x0040
	hwndTopmost   = ^uintptr(0) // (HWND)-1
	hwndNoTopmost = ^uintptr(1) // (HWND)-2

	wsExLayered    = 0x00080000
	lwaAlpha       = 0x00000002
	spiGetWorkArea = 0x0030
)

var gwlExStyle int32 = -20

var (
	user32                        = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows               = user32.NewProc("EnumWindows")
	procGetWindowTextW            = user32.NewProc("GetWindowTextW")
	procGetClassNameW             = user32.NewProc("GetClassNameW")
	procIsWindow                  = user32.NewProc("IsWindow")
	procGetWindow                 = user32.NewProc("GetWindow")
	procSetWindowPos              = user32.NewProc("SetWindowPos")
	procGetWindowLongW            = user32.NewProc("GetWindowLongW")
	procSetWindowLongW            = user32.NewProc("SetWindowLongW")
	procSetLayeredWindowAttribute = user32.NewProc("SetLayeredWindowAttributes")
	procSystemParametersInfoW     = user32.NewProc("SystemParametersInfoW")
)

// EnumWindows callbacks are never freed by the runtime, so one callback is
// shared and guarded by enumMu.
var (
	enumMu       sync.Mutex
	enumFound    []WindowRef
	enumCallback = windows.NewCallback(func(hwnd, _ uintptr) uintptr {
		enumFound = append(enumFound, WindowRef(hwnd))
		return 1
	})
)

// Desktop provides window enumeration, text and styling calls.
type Desktop struct{}

// NewDesktop returns the desktop capability for this OS.
func NewDesktop() *Desktop { return &Desktop{} }

// TopLevelWindows enumerates top-level windows with their titles and classes.
func (d *Desktop) TopLevelWindows() ([]WindowInfo, error) {
	enumMu.Lock()
	enumFound = enumFound[:0]
	r, _, callErr := procEnumWindows.Call(enumCallback, 0)
	refs := append([]WindowRef(nil), enumFound...)
	enumMu.Unlock()
	if r == 0 {
		return nil, fmt.Errorf("enumerate windows: %w", callErr)
	}

	out := make([]WindowInfo, 0, len(refs))
	for _, ref := range refs {
		out = append(out, WindowInfo{
			Ref:   ref,
			Title: readText(procGetWindowTextW, ref),
			Class: readText(procGetClassNameW, ref),
		})
	}
	return out, nil
}

// Valid reports whether ref still names an existing window.
func (d *Desktop) Valid(ref WindowRef) bool {
	if ref.IsZero() {
		return false
	}
	r, _, _ := procIsWindow.Call(uintptr(ref))
	return r != 0
}

// WindowText reads the window's own title/text buffer.
func (d *Desktop) WindowText(ref WindowRef) (string, error) {
	if !d.Valid(ref) {
		return "", ErrInvalidWindow
	}
	return readText(procGetWindowTextW, ref), nil
}

// Children returns the immediate child windows of ref in z-order.
func (d *Desktop) Children(ref WindowRef) ([]WindowRef, error) {
	if !d.Valid(ref) {
		return nil, ErrInvalidWindow
	}
	var out []WindowRef
	child, _, _ := procGetWindow.Call(uintptr(ref), gwChild)
	for child != 0 {
		out = append(out, WindowRef(child))
		child, _, _ = procGetWindow.Call(child, gwHwndNext)
	}
	return out, nil
}

// WorkArea returns the primary display's available area, excluding taskbars.
func (d *Desktop) WorkArea() (Rect, error) {
	var rc windows.Rect
	r, _, callErr := procSystemParametersInfoW.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&rc)), 0)
	if r == 0 {
		return Rect{}, fmt.Errorf("query work area: %w", callErr)
	}
	return Rect{
		X:      int(rc.Left),
		Y:      int(rc.Top),
		Width:  int(rc.Right - rc.Left),
		Height: int(rc.Bottom - rc.Top),
	}, nil
}

// Place moves and resizes the window and sets its z-order.
func (d *Desktop) Place(ref WindowRef, rect Rect, topmost bool) error {
	if !d.Valid(ref) {
		return ErrInvalidWindow
	}
	after := hwndNoTopmost
	if topmost {
		after = hwndTopmost
	}
	r, _, callErr := procSetWindowPos.Call(
		uintptr(ref),
		after,
		uintptr(int32(rect.X)),
		uintptr(int32(rect.Y)),
		uintptr(int32(rect.Width)),
		uintptr(int32(rect.Height)),
		swpShowWindow,
	)
	if r == 0 {
		return fmt.Errorf("set window position: %w", callErr)
	}
	return nil
}

// SetAlpha marks the window layered and applies a whole-window alpha.
func (d *Desktop) SetAlpha(ref WindowRef, alpha uint8) error {
	if !d.Valid(ref) {
		return ErrInvalidWindow
	}
	idx := gwlExStyle
	style, _, _ := procGetWindowLongW.Call(uintptr(ref), uintptr(idx))
	var styleErr error
	if style&wsExLayered == 0 {
		if r, _, callErr := procSetWindowLongW.Call(uintptr(ref), uintptr(idx), style|wsExLayered); zeroReturnFailed(r, callErr) {
			styleErr = fmt.Errorf("set layered style: %w", callErr)
		}
	}
	r, _, callErr := procSetLayeredWindowAttribute.Call(uintptr(ref), 0, uintptr(alpha), lwaAlpha)
	if r == 0 {
		return errors.Join(styleErr, fmt.Errorf("set layered alpha: %w", callErr))
	}
	return styleErr
}

func readText(proc *windows.LazyProc, ref WindowRef) string {
	var buf [textBufferLen]uint16
	n, _, _ := proc.Call(uintptr(ref), uintptr(unsafe.Pointer(&buf[0])), textBufferLen)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

const (
	clsidCUIAutomation = "{FF48DBA4-60EF-4201-AA87-54103EEF594E}"
	iidIUIAutomation   = "{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}"
	iidTextPattern     = "{32EBA289-3583-42C9-9C59-3B6D9A1E9B6A}"
	uiaTextPatternID   = 10014
	hresultSFalse      = 0x00000001
)

// vtable slots, counted from the start of IUnknown.
const (
	slotAutomationElementFromHandle = 6
	slotElementGetCurrentPatternAs  = 14
	slotElementCurrentName          = 23
	slotTextPatternDocumentRange    = 7
	slotTextRangeGetText            = 12
)

// Accessibility reads UI Automation properties. It holds one COM
// initialization and one IUIAutomation instance for its whole lifetime. COM
// is initialized and uninitialized on one OS thread owned by the instance;
// the multithreaded apartment lets other threads make calls meanwhile.
type Accessibility struct {
	automation *ole.IUnknown
	release    chan struct{}
	released   chan struct{}
	closeOnce  sync.Once
}

// OpenAccessibility initializes COM in the multithreaded apartment and
// creates the UI Automation client. Callers must Close it.
func OpenAccessibility() (*Accessibility, error) {
	a := &Accessibility{
		release:  make(chan struct{}),
		released: make(chan struct{}),
	}
	ready := make(chan error, 1)
	go a.own(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return a, nil
}

// own pins COM setup and teardown to a single OS thread.
func (a *Accessibility) own(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(a.released)

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != hresultSFalse {
			ready <- fmt.Errorf("initialize COM: %w", err)
			return
		}
	}
	defer ole.CoUninitialize()

	automation, err := ole.CreateInstance(ole.NewGUID(clsidCUIAutomation), ole.NewGUID(iidIUIAutomation))
	if err != nil {
		ready <- fmt.Errorf("create UI Automation client: %w", err)
		return
	}
	a.automation = automation
	ready <- nil

	<-a.release
	automation.Release()
}

// Close releases the automation client and uninitializes COM. No reads may
// be in flight. Close is idempotent.
func (a *Accessibility) Close() error {
	if a == nil || a.release == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		close(a.release)
		<-a.released
		a.automation = nil
	})
	return nil
}

// ElementName returns the Name property of the element bound to ref.
func (a *Accessibility) ElementName(ref WindowRef) (string, error) {
	elem, err := a.element(ref)
	if err != nil {
		return "", err
	}
	defer elem.Release()

	var bstr *uint16
	if hr := vtblCall(unsafe.Pointer(elem), slotElementCurrentName, uintptr(unsafe.Pointer(&bstr))); hr != 0 {
		return "", fmt.Errorf("read element name: %w", ole.NewError(hr))
	}
	return takeBSTR(bstr), nil
}

// DocumentText returns the full document range of the element's text pattern.
func (a *Accessibility) DocumentText(ref WindowRef) (string, error) {
	elem, err := a.element(ref)
	if err != nil {
		return "", err
	}
	defer elem.Release()

	var pattern *ole.IUnknown
	hr := vtblCall(unsafe.Pointer(elem), slotElementGetCurrentPatternAs,
		uiaTextPatternID,
		uintptr(unsafe.Pointer(ole.NewGUID(iidTextPattern))),
		uintptr(unsafe.Pointer(&pattern)))
	if hr != 0 {
		return "", fmt.Errorf("get text pattern: %w", ole.NewError(hr))
	}
	if pattern == nil {
		return "", nil
	}
	defer pattern.Release()

	var textRange *ole.IUnknown
	if hr := vtblCall(unsafe.Pointer(pattern), slotTextPatternDocumentRange, uintptr(unsafe.Pointer(&textRange))); hr != 0 {
		return "", fmt.Errorf("get document range: %w", ole.NewError(hr))
	}
	if textRange == nil {
		return "", nil
	}
	defer textRange.Release()

	maxLen := int32(-1)
	var bstr *uint16
	if hr := vtblCall(unsafe.Pointer(textRange), slotTextRangeGetText, uintptr(maxLen), uintptr(unsafe.Pointer(&bstr))); hr != 0 {
		return "", fmt.Errorf("read document text: %w", ole.NewError(hr))
	}
	return takeBSTR(bstr), nil
}

func (a *Accessibility) element(ref WindowRef) (*ole.IUnknown, error) {
	if a == nil || a.automation == nil {
		return nil, errors.New("accessibility client closed")
	}
	var elem *ole.IUnknown
	if hr := vtblCall(unsafe.Pointer(a.automation), slotAutomationElementFromHandle, uintptr(ref), uintptr(unsafe.Pointer(&elem))); hr != 0 {
		return nil, fmt.Errorf("element from handle %s: %w", ref, ole.NewError(hr))
	}
	if elem == nil {
		return nil, ErrInvalidWindow
	}
	return elem, nil
}

func vtblCall(obj unsafe.Pointer, slot int, args ...uintptr) uintptr {
	vtbl := *(*unsafe.Pointer)(obj)
	fn := *(*uintptr)(unsafe.Add(vtbl, slot*int(unsafe.Sizeof(uintptr(0)))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(obj)}, args...)...)
	return hr
}

func takeBSTR(bstr *uint16) string {
	if bstr == nil {
		return ""
	}
	s := ole.BstrToString(bstr)
	if err := ole.SysFreeString((*int16)(unsafe.Pointer(bstr))); err != nil {
		// Best-effort BSTR free.
		_ = err
	}
	return s
}

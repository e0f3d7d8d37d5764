//go:build !windows

package platform

import (
	"os/exec"
)

// Desktop provides window enumeration, text and styling calls.
type Desktop struct{}

// NewDesktop returns the desktop capability for this OS.
func NewDesktop() *Desktop { return &Desktop{} }

// TopLevelWindows is unsupported on this OS.
func (d *Desktop) TopLevelWindows() ([]WindowInfo, error) { return nil, ErrUnsupported }

// Valid always reports false on this OS.
func (d *Desktop) Valid(WindowRef) bool { return false }

// WindowText is unsupported on this OS.
func (d *Desktop) WindowText(WindowRef) (string, error) { return "", ErrUnsupported }

// Children is unsupported on this OS.
func (d *Desktop) Children(WindowRef) ([]WindowRef, error) { return nil, ErrUnsupported }

// WorkArea is unsupported on this OS.
func (d *Desktop) WorkArea() (Rect, error) { return Rect{}, ErrUnsupported }

// Place is unsupported on this OS.
func (d *Desktop) Place(WindowRef, Rect, bool) error { return ErrUnsupported }

// SetAlpha is unsupported on this OS.
func (d *Desktop) SetAlpha(WindowRef, uint8) error { return ErrUnsupported }

// Processes provides the process table.
type Processes struct{}

// NewProcesses returns the process capability for this OS.
func NewProcesses() *Processes { return &Processes{} }

// List is unsupported on this OS.
func (p *Processes) List() ([]Process, error) { return nil, ErrUnsupported }

// Kill is unsupported on this OS.
func (p *Processes) Kill(int) error { return ErrUnsupported }

// Spawn starts path detached from livecap.
func (p *Processes) Spawn(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Open is unsupported on this OS.
func (p *Processes) Open(string) error { return ErrUnsupported }

// Accessibility reads UI Automation properties.
type Accessibility struct{}

// OpenAccessibility is unsupported on this OS.
func OpenAccessibility() (*Accessibility, error) { return nil, ErrUnsupported }

// ElementName is unsupported on this OS.
func (a *Accessibility) ElementName(WindowRef) (string, error) { return "", ErrUnsupported }

// DocumentText is unsupported on this OS.
func (a *Accessibility) DocumentText(WindowRef) (string, error) { return "", ErrUnsupported }

// Close is a no-op on this OS.
func (a *Accessibility) Close() error { return nil }

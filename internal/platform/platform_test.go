package platform

import (
	"errors"
	"syscall"
	"testing"
)

func TestWindowRefZero(t *testing.T) {
	var ref WindowRef
	if !ref.IsZero() {
		t.Fatalf("expected zero ref")
	}
	if WindowRef(0x1a2b).String() != "0x1a2b" {
		t.Fatalf("unexpected ref format: %s", WindowRef(0x1a2b))
	}
}

func TestStubsReportUnsupported(t *testing.T) {
	if Supported() {
		t.Skip("native platform")
	}
	d := NewDesktop()
	if _, err := d.TopLevelWindows(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if d.Valid(WindowRef(1)) {
		t.Fatalf("stub must never report a valid window")
	}
	if _, err := NewProcesses().List(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := OpenAccessibility(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestZeroReturnFailed(t *testing.T) {
	cases := []struct {
		name    string
		ret     uintptr
		lastErr error
		want    bool
	}{
		{"non-zero return", 0x80000, syscall.Errno(5), false},
		{"zero with success", 0, syscall.Errno(0), false},
		{"zero without error", 0, nil, false},
		{"zero with last error", 0, syscall.Errno(5), true},
		{"zero with other error", 0, errors.New("boom"), true},
	}
	for _, tc := range cases {
		if got := zeroReturnFailed(tc.ret, tc.lastErr); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

package model

import (
	"errors"
	"testing"
)

func TestOpacityAlphaBoundaries(t *testing.T) {
	cases := []struct {
		pct  Opacity
		want uint8
	}{
		{0, 0},
		{50, 127},
		{80, 204},
		{100, 255},
	}
	for _, tc := range cases {
		if got := tc.pct.Alpha(); got != tc.want {
			t.Fatalf("Alpha(%d) = %d, want %d", tc.pct, got, tc.want)
		}
	}
}

func TestOpacityAlphaMonotonic(t *testing.T) {
	prev := Opacity(0).Alpha()
	for p := 1; p <= 100; p++ {
		cur := Opacity(p).Alpha()
		if cur < prev {
			t.Fatalf("alpha decreased at %d%%: %d < %d", p, cur, prev)
		}
		prev = cur
	}
}

func TestOpacityValidate(t *testing.T) {
	if err := Opacity(100).Validate(); err != nil {
		t.Fatalf("expected 100 to be valid: %v", err)
	}
	for _, bad := range []Opacity{-1, 101} {
		if err := bad.Validate(); !errors.Is(err, ErrInvalidOpacity) {
			t.Fatalf("expected ErrInvalidOpacity for %d, got %v", bad, err)
		}
	}
}

func TestParsePosition(t *testing.T) {
	for _, p := range Positions() {
		got, err := ParsePosition(p.String())
		if err != nil || got != p {
			t.Fatalf("round trip %s: got %v, %v", p, got, err)
		}
	}
	got, err := ParsePosition("Center Bottom")
	if err != nil || got != CenterBottom {
		t.Fatalf("expected CenterBottom, got %v, %v", got, err)
	}
	if _, err := ParsePosition("middle"); !errors.Is(err, ErrUnknownPosition) {
		t.Fatalf("expected ErrUnknownPosition, got %v", err)
	}
}

func TestPositionCycleWraps(t *testing.T) {
	if CenterBottom.Next() != TopLeft {
		t.Fatalf("expected wrap to TopLeft")
	}
	if TopLeft.Prev() != CenterBottom {
		t.Fatalf("expected wrap to CenterBottom")
	}
}

func TestLookupLanguage(t *testing.T) {
	lang, ok := LookupLanguage("german")
	if !ok || lang.Tag != "de-DE" {
		t.Fatalf("expected de-DE, got %+v %v", lang, ok)
	}
	if NextLanguage("ko-KR") != "en-US" {
		t.Fatalf("expected language cycle to wrap")
	}
}

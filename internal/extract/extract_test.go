package extract

import (
	"errors"
	"testing"

	"github.com/verte-zerg/livecap/internal/logging"
	"github.com/verte-zerg/livecap/internal/platform"
)

var chrome = []string{"Live Captions"}

type fakeWindows struct {
	valid    map[platform.WindowRef]bool
	text     map[platform.WindowRef]string
	children map[platform.WindowRef][]platform.WindowRef
}

func (f *fakeWindows) Valid(ref platform.WindowRef) bool { return f.valid[ref] }

func (f *fakeWindows) WindowText(ref platform.WindowRef) (string, error) {
	if !f.valid[ref] {
		return "", platform.ErrInvalidWindow
	}
	return f.text[ref], nil
}

func (f *fakeWindows) Children(ref platform.WindowRef) ([]platform.WindowRef, error) {
	return f.children[ref], nil
}

type fakeAccess struct {
	name    string
	doc     string
	nameErr error
	docErr  error
	docRead bool
}

func (f *fakeAccess) ElementName(platform.WindowRef) (string, error) { return f.name, f.nameErr }

func (f *fakeAccess) DocumentText(platform.WindowRef) (string, error) {
	f.docRead = true
	return f.doc, f.docErr
}

func captionsWindow() *fakeWindows {
	return &fakeWindows{
		valid: map[platform.WindowRef]bool{1: true, 2: true, 3: true, 4: true},
		text: map[platform.WindowRef]string{
			1: "Live Captions",
			2: "Settings",
			3: "Live Captions settings and more",
			4: "the quick brown fox jumps",
		},
		children: map[platform.WindowRef][]platform.WindowRef{1: {2, 3, 4}},
	}
}

func TestAccessibilityNameWins(t *testing.T) {
	access := &fakeAccess{name: "  hello from uia  "}
	e := New(captionsWindow(), access, chrome, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "hello from uia" {
		t.Fatalf("unexpected extraction: %q %v", text, err)
	}
	if access.docRead {
		t.Fatalf("document range must not be read when the name is present")
	}
}

func TestAccessibilityIgnoresWindowTitle(t *testing.T) {
	access := &fakeAccess{name: "Live Captions", doc: "the quick brown fox jumps"}
	e := New(captionsWindow(), access, chrome, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "the quick brown fox jumps" {
		t.Fatalf("expected document text, got %q %v", text, err)
	}
	if !access.docRead {
		t.Fatalf("expected document range to be read when the name is the title")
	}
}

func TestAccessibilityChromeOnlyFallsThroughToWindowText(t *testing.T) {
	w := captionsWindow()
	w.text[4] = "raw child caption text"
	access := &fakeAccess{name: "Live Captions", doc: "live captions"}
	e := New(w, access, chrome, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "raw child caption text" {
		t.Fatalf("expected raw window text, got %q %v", text, err)
	}
}

func TestAccessibilityFallsBackToDocumentRange(t *testing.T) {
	access := &fakeAccess{doc: "document range text"}
	e := New(captionsWindow(), access, chrome, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "document range text" {
		t.Fatalf("unexpected extraction: %q %v", text, err)
	}
}

func TestAccessibilityFailureFallsBackToWindowText(t *testing.T) {
	access := &fakeAccess{nameErr: errors.New("element unavailable")}
	e := New(captionsWindow(), access, chrome, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "the quick brown fox jumps" {
		t.Fatalf("unexpected extraction: %q %v", text, err)
	}
}

func TestRawTextSkipsChromeShortAndLabelChildren(t *testing.T) {
	e := New(captionsWindow(), nil, chrome, logging.NewNop())
	if got := e.Strategies(); len(got) != 1 || got[0] != "window-text" {
		t.Fatalf("expected raw-text-only mode, got %v", got)
	}

	text, err := e.Extract(1)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if text != "the quick brown fox jumps" {
		t.Fatalf("expected caption child text, got %q", text)
	}
}

func TestRawTextUsesOwnTextWhenNotChrome(t *testing.T) {
	w := captionsWindow()
	w.text[1] = "plain caption text"
	e := New(w, nil, chrome, logging.NewNop())

	if text, _ := e.Extract(1); text != "plain caption text" {
		t.Fatalf("expected own text, got %q", text)
	}
}

func TestRawTextMinimumLengthIsExclusive(t *testing.T) {
	w := &fakeWindows{
		valid:    map[platform.WindowRef]bool{1: true, 2: true, 3: true},
		text:     map[platform.WindowRef]string{1: "", 2: "0123456789", 3: "0123456789a"},
		children: map[platform.WindowRef][]platform.WindowRef{1: {2, 3}},
	}
	e := New(w, nil, chrome, logging.NewNop())
	if text, _ := e.Extract(1); text != "0123456789a" {
		t.Fatalf("expected the 11-rune child, got %q", text)
	}
}

func TestExtractEmptyIsNotAnError(t *testing.T) {
	w := &fakeWindows{valid: map[platform.WindowRef]bool{1: true}, text: map[platform.WindowRef]string{1: "Live Captions"}}
	e := New(w, &fakeAccess{}, chrome, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "" {
		t.Fatalf("expected empty text without error, got %q %v", text, err)
	}
}

func TestExtractStaleWindow(t *testing.T) {
	e := New(captionsWindow(), &fakeAccess{name: "x"}, chrome, logging.NewNop())
	if _, err := e.Extract(99); !errors.Is(err, ErrStaleWindow) {
		t.Fatalf("expected ErrStaleWindow, got %v", err)
	}
}

func TestStrategiesRunInOrder(t *testing.T) {
	var calls []string
	tier := func(name, result string) Strategy {
		return Strategy{Name: name, Func: func(platform.WindowRef) (string, error) {
			calls = append(calls, name)
			return result, nil
		}}
	}
	e := NewWithStrategies(captionsWindow(), []Strategy{tier("a", ""), tier("b", "found"), tier("c", "late")}, logging.NewNop())

	text, err := e.Extract(1)
	if err != nil || text != "found" {
		t.Fatalf("unexpected extraction: %q %v", text, err)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

// Package extract reads the caption text currently shown by a window.
//
// Extraction is an ordered list of strategies. Each strategy is a function of
// the window reference; the first non-empty result wins and a strategy error
// falls through to the next tier. The accessibility tier gives structured
// text when UI Automation is available; the raw window-text tier is a
// best-effort heuristic for when it is not.
package extract

import (
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/verte-zerg/livecap/internal/platform"
	"github.com/verte-zerg/livecap/internal/textutil"
)

// MinChildTextLen is the minimum rune count for child window text to count
// as caption text rather than a label or button.
const MinChildTextLen = 10

// ErrStaleWindow means the window behind the reference is gone.
var ErrStaleWindow = errors.New("extract: window reference is stale")

// Strategy is one extraction tier.
type Strategy struct {
	Name string
	Func func(platform.WindowRef) (string, error)
}

// WindowReader is the raw window-text capability.
type WindowReader interface {
	Valid(platform.WindowRef) bool
	WindowText(platform.WindowRef) (string, error)
	Children(platform.WindowRef) ([]platform.WindowRef, error)
}

// AccessibilityReader is the accessibility-tree capability.
type AccessibilityReader interface {
	ElementName(platform.WindowRef) (string, error)
	DocumentText(platform.WindowRef) (string, error)
}

// Extractor runs strategies in order against a window.
type Extractor struct {
	windows    WindowReader
	strategies []Strategy
	logger     *slog.Logger
}

// New builds an Extractor. A nil accessibility reader leaves only the raw
// window-text tier. chrome lists labels of the app's own UI, such as its title.
func New(windows WindowReader, access AccessibilityReader, chrome []string, logger *slog.Logger) *Extractor {
	var strategies []Strategy
	if access != nil {
		strategies = append(strategies, Strategy{Name: "accessibility", Func: AccessibilityText(access, chrome)})
	}
	strategies = append(strategies, Strategy{Name: "window-text", Func: RawWindowText(windows, chrome)})
	return NewWithStrategies(windows, strategies, logger)
}

// NewWithStrategies builds an Extractor from an explicit strategy list.
func NewWithStrategies(windows WindowReader, strategies []Strategy, logger *slog.Logger) *Extractor {
	return &Extractor{
		windows:    windows,
		strategies: strategies,
		logger:     logger.With("component", "extract"),
	}
}

// Strategies returns the tier names in order.
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name
	}
	return names
}

// Extract returns the normalized caption text, or "" when none is shown.
// It fails only with ErrStaleWindow.
func (e *Extractor) Extract(ref platform.WindowRef) (string, error) {
	if !e.windows.Valid(ref) {
		return "", ErrStaleWindow
	}
	for _, s := range e.strategies {
		text, err := s.Func(ref)
		if err != nil {
			if errors.Is(err, platform.ErrInvalidWindow) {
				return "", ErrStaleWindow
			}
			e.logger.Debug("extraction strategy failed", "strategy", s.Name, "window", ref.String(), "error", err)
			continue
		}
		if text = textutil.NormalizeCaption(text); text != "" {
			return text, nil
		}
	}
	return "", nil
}

// AccessibilityText reads the element name, then the text pattern's
// document range when the name is empty. Text containing a chrome label,
// such as the window title, counts as empty.
func AccessibilityText(access AccessibilityReader, chrome []string) func(platform.WindowRef) (string, error) {
	return func(ref platform.WindowRef) (string, error) {
		name, err := access.ElementName(ref)
		if err != nil {
			return "", err
		}
		if isCaption(name, chrome) {
			return name, nil
		}
		doc, err := access.DocumentText(ref)
		if err != nil {
			return "", err
		}
		if isCaption(doc, chrome) {
			return doc, nil
		}
		return "", nil
	}
}

func isCaption(text string, chrome []string) bool {
	text = textutil.NormalizeCaption(text)
	return text != "" && !textutil.ContainsAnyFold(text, chrome)
}

// RawWindowText reads the window's own text and, when that is empty or app
// chrome, the first qualifying child window text in z-order.
func RawWindowText(windows WindowReader, chrome []string) func(platform.WindowRef) (string, error) {
	return func(ref platform.WindowRef) (string, error) {
		own, err := windows.WindowText(ref)
		if err != nil {
			return "", err
		}
		if isCaption(own, chrome) {
			return own, nil
		}
		children, err := windows.Children(ref)
		if err != nil {
			return "", err
		}
		for _, child := range children {
			text, err := windows.WindowText(child)
			if err != nil {
				continue
			}
			text = textutil.NormalizeCaption(text)
			if text == "" || utf8.RuneCountInString(text) <= MinChildTextLen {
				continue
			}
			if textutil.ContainsAnyFold(text, chrome) {
				continue
			}
			return text, nil
		}
		return "", nil
	}
}

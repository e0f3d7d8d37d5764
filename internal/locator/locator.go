// Package locator finds the Live Captions window among top-level windows.
package locator

import (
	"log/slog"

	"github.com/verte-zerg/livecap/internal/platform"
	"github.com/verte-zerg/livecap/internal/textutil"
)

// DefaultTitles are the window titles Live Captions is known to use.
var DefaultTitles = []string{"Live Captions", "Live captions"}

// DefaultHostClasses are window classes that can host the captions surface.
var DefaultHostClasses = []string{"LiveCaptionsDesktopWindow", "ApplicationFrameWindow"}

// DefaultTitleHint is the substring looked for in host-class window titles.
const DefaultTitleHint = "caption"

// WindowLister enumerates top-level windows.
type WindowLister interface {
	TopLevelWindows() ([]platform.WindowInfo, error)
}

// Options configures the match heuristics.
type Options struct {
	Titles      []string
	HostClasses []string
	TitleHint   string
}

// Locator matches windows by title, then by host class and title hint.
type Locator struct {
	windows WindowLister
	opts    Options
	logger  *slog.Logger
}

// New constructs a Locator. Empty options fall back to the defaults.
func New(windows WindowLister, opts Options, logger *slog.Logger) *Locator {
	if len(opts.Titles) == 0 {
		opts.Titles = DefaultTitles
	}
	if len(opts.HostClasses) == 0 {
		opts.HostClasses = DefaultHostClasses
	}
	if opts.TitleHint == "" {
		opts.TitleHint = DefaultTitleHint
	}
	return &Locator{windows: windows, opts: opts, logger: logger.With("component", "locator")}
}

// Find returns the captions window. A miss is normal while the app starts.
func (l *Locator) Find() (platform.WindowRef, bool) {
	list, err := l.windows.TopLevelWindows()
	if err != nil {
		l.logger.Debug("window enumeration failed", "error", err)
		return 0, false
	}
	for _, w := range list {
		if l.titleMatches(w.Title) {
			return w.Ref, true
		}
	}
	for _, w := range list {
		if l.isHostClass(w.Class) && textutil.ContainsFold(w.Title, l.opts.TitleHint) {
			return w.Ref, true
		}
	}
	return 0, false
}

func (l *Locator) titleMatches(title string) bool {
	if title == "" {
		return false
	}
	for _, known := range l.opts.Titles {
		if textutil.EqualFold(title, known) || textutil.HasPrefixFold(title, known) {
			return true
		}
	}
	return false
}

func (l *Locator) isHostClass(class string) bool {
	for _, host := range l.opts.HostClasses {
		if textutil.EqualFold(class, host) {
			return true
		}
	}
	return false
}

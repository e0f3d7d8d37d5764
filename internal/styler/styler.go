// Package styler positions the captions window and sets its opacity.
package styler

import (
	"log/slog"

	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/platform"
)

// Window geometry.
const (
	Width        = 500
	Height       = 150
	Margin       = 10
	BottomMargin = 50
)

// WindowMover applies geometry and alpha to a window.
type WindowMover interface {
	Place(ref platform.WindowRef, rect platform.Rect, topmost bool) error
	SetAlpha(ref platform.WindowRef, alpha uint8) error
}

// Styler applies position and opacity. Failures are logged, never returned.
type Styler struct {
	windows WindowMover
	logger  *slog.Logger
}

// New returns a Styler.
func New(windows WindowMover, logger *slog.Logger) *Styler {
	return &Styler{windows: windows, logger: logger.With("component", "styler")}
}

// Apply places the window and sets its opacity. The two calls are
// independent; one failing does not skip the other.
func (s *Styler) Apply(ref platform.WindowRef, pos model.Position, opacity model.Opacity, bounds platform.Rect) {
	s.ApplyPosition(ref, pos, bounds)
	s.ApplyOpacity(ref, opacity)
}

// ApplyPosition moves the window to pos inside bounds and keeps it topmost.
func (s *Styler) ApplyPosition(ref platform.WindowRef, pos model.Position, bounds platform.Rect) {
	rect := Placement(pos, bounds)
	if err := s.windows.Place(ref, rect, true); err != nil {
		s.logger.Warn("failed to position captions window", "position", pos.String(), "error", err)
	}
}

// ApplyOpacity sets the window's whole-window alpha.
func (s *Styler) ApplyOpacity(ref platform.WindowRef, opacity model.Opacity) {
	if err := s.windows.SetAlpha(ref, opacity.Alpha()); err != nil {
		s.logger.Warn("failed to set captions window opacity", "opacity", int(opacity), "error", err)
	}
}

// Placement computes the window rectangle for pos. The result lies within
// bounds when bounds can hold the window; a smaller work area shrinks it.
func Placement(pos model.Position, bounds platform.Rect) platform.Rect {
	w := min(Width, bounds.Width)
	h := min(Height, bounds.Height)

	left := bounds.X + Margin
	right := bounds.X + bounds.Width - w - Margin
	centerX := bounds.X + (bounds.Width-w)/2
	top := bounds.Y + Margin
	bottom := bounds.Y + bounds.Height - h - BottomMargin

	var x, y int
	switch pos {
	case model.TopLeft:
		x, y = left, top
	case model.TopRight:
		x, y = right, top
	case model.BottomLeft:
		x, y = left, bottom
	case model.BottomRight:
		x, y = right, bottom
	case model.CenterTop:
		x, y = centerX, top
	default:
		x, y = centerX, bottom
	}

	x = clamp(x, bounds.X, bounds.X+bounds.Width-w)
	y = clamp(y, bounds.Y, bounds.Y+bounds.Height-h)
	return platform.Rect{X: x, Y: y, Width: w, Height: h}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

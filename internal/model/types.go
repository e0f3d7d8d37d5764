// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidOpacity reports an opacity outside [0,100].
	ErrInvalidOpacity = errors.New("opacity must be between 0 and 100")
	// ErrUnknownPosition reports an unrecognized position name.
	ErrUnknownPosition = errors.New("unknown position")
)

// Config defines capture settings resolved from flags and the config file.
type Config struct {
	Lang         string
	Position     Position
	Opacity      Opacity
	PollInterval time.Duration
	LaunchGrace  time.Duration
	Record       bool
}

// CaptureState is the capture loop state.
type CaptureState int

const (
	StateIdle CaptureState = iota
	StateSearching
	StateCapturing
)

func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateCapturing:
		return "capturing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CaptionEvent is one transcript entry. It is never mutated after creation.
type CaptionEvent struct {
	SessionID string
	Time      time.Time
	Text      string
}

// Status is a snapshot of the controller published on every state change.
type Status struct {
	SessionID string
	State     CaptureState
	Running   bool
	Language  string
	Position  Position
	Opacity   Opacity
	// Err carries a one-shot failure such as a launch timeout.
	Err error
}

// Label returns the short status text shown to users.
func (s Status) Label() string {
	if !s.Running {
		return "Live Captions stopped"
	}
	switch s.State {
	case StateSearching:
		return "Waiting for Live Captions window"
	case StateCapturing:
		return "Live Captions running"
	default:
		return "Live Captions stopped"
	}
}

// Position is a screen placement for the captions window.
type Position int

const (
	TopLeft Position = iota
	TopRight
	BottomLeft
	BottomRight
	CenterTop
	CenterBottom
)

var positionNames = []string{
	TopLeft:      "top-left",
	TopRight:     "top-right",
	BottomLeft:   "bottom-left",
	BottomRight:  "bottom-right",
	CenterTop:    "center-top",
	CenterBottom: "center-bottom",
}

// Positions lists every placement in display order.
func Positions() []Position {
	return []Position{TopLeft, TopRight, BottomLeft, BottomRight, CenterTop, CenterBottom}
}

func (p Position) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return fmt.Sprintf("position(%d)", int(p))
	}
	return positionNames[p]
}

// Next returns the following placement, wrapping around.
func (p Position) Next() Position {
	return Position((int(p) + 1) % len(positionNames))
}

// Prev returns the preceding placement, wrapping around.
func (p Position) Prev() Position {
	return Position((int(p) + len(positionNames) - 1) % len(positionNames))
}

// ParsePosition accepts names like "bottom-right", "Bottom Right" or "bottom_right".
func ParsePosition(value string) (Position, error) {
	norm := strings.ToLower(strings.TrimSpace(value))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	for i, name := range positionNames {
		if name == norm {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q (available: %s)", ErrUnknownPosition, value, strings.Join(positionNames, ", "))
}

// Opacity is a window opacity percentage.
type Opacity int

// Validate reports whether the opacity is within [0,100].
func (o Opacity) Validate() error {
	if o < 0 || o > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidOpacity, int(o))
	}
	return nil
}

// Alpha maps the percentage to an 8-bit layered-window alpha, truncating.
func (o Opacity) Alpha() uint8 {
	p := int(o)
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return uint8(255 * p / 100)
}

// Step returns the opacity moved by delta and clamped to [0,100].
func (o Opacity) Step(delta int) Opacity {
	v := int(o) + delta
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return Opacity(v)
}

// Language is a caption language choice.
type Language struct {
	Tag  string
	Name string
}

var languages = []Language{
	{Tag: "en-US", Name: "English"},
	{Tag: "es-ES", Name: "Spanish"},
	{Tag: "fr-FR", Name: "French"},
	{Tag: "de-DE", Name: "German"},
	{Tag: "ja-JP", Name: "Japanese"},
	{Tag: "zh-CN", Name: "Chinese"},
	{Tag: "ko-KR", Name: "Korean"},
}

// Languages returns the supported caption languages.
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// LookupLanguage finds a language by tag or display name, case-insensitively.
func LookupLanguage(value string) (Language, bool) {
	value = strings.TrimSpace(value)
	for _, lang := range languages {
		if strings.EqualFold(lang.Tag, value) || strings.EqualFold(lang.Name, value) {
			return lang, true
		}
	}
	return Language{}, false
}

// NextLanguage returns the tag after the given one, wrapping around.
func NextLanguage(tag string) string {
	for i, lang := range languages {
		if strings.EqualFold(lang.Tag, tag) {
			return languages[(i+1)%len(languages)].Tag
		}
	}
	return languages[0].Tag
}

// SessionRecord is a stored capture session.
type SessionRecord struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Language  string
	Captions  int
}

// CaptionRecord is a stored transcript entry.
type CaptionRecord struct {
	ID        int64
	SessionID string
	Time      time.Time
	Text      string
}

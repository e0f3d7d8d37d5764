// Package capture implements the polling state machine that turns repeated
// window reads into a deduplicated caption stream.
//
// The Loop is synchronous: each Tick does one step. A Scheduler decides when
// ticks happen, which lets tests drive the machine without wall-clock waits.
package capture

import (
	"errors"
	"log/slog"
	"time"

	"github.com/verte-zerg/livecap/internal/extract"
	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/platform"
)

// DefaultInterval is the tick period.
const DefaultInterval = 500 * time.Millisecond

// Locator finds the captions window.
type Locator interface {
	Find() (platform.WindowRef, bool)
}

// Extractor reads caption text from a window.
type Extractor interface {
	Extract(platform.WindowRef) (string, error)
}

// Hooks receive loop output. Nil hooks are skipped.
type Hooks struct {
	Caption func(model.CaptionEvent)
	State   func(model.CaptureState)
	Located func(platform.WindowRef)
}

// Loop is the Idle/Searching/Capturing machine.
type Loop struct {
	locator   Locator
	extractor Extractor
	hooks     Hooks
	logger    *slog.Logger

	state     model.CaptureState
	window    platform.WindowRef
	last      string
	sessionID string
}

// NewLoop returns an idle loop.
func NewLoop(locator Locator, extractor Extractor, hooks Hooks, logger *slog.Logger) *Loop {
	return &Loop{
		locator:   locator,
		extractor: extractor,
		hooks:     hooks,
		logger:    logger.With("component", "capture"),
		state:     model.StateIdle,
	}
}

// State returns the current state.
func (l *Loop) State() model.CaptureState { return l.state }

// Window returns the known window, if any.
func (l *Loop) Window() (platform.WindowRef, bool) {
	return l.window, !l.window.IsZero()
}

// LastCaption returns the dedup memory.
func (l *Loop) LastCaption() string { return l.last }

// Begin enters Searching for a new session and forgets any window.
func (l *Loop) Begin(sessionID string) {
	l.sessionID = sessionID
	l.window = 0
	l.setState(model.StateSearching)
}

// Halt returns to Idle and forgets the window. reset also clears the dedup
// memory; without it the last caption survives for history.
func (l *Loop) Halt(reset bool) {
	l.window = 0
	if reset {
		l.last = ""
	}
	l.setState(model.StateIdle)
}

// ResetDedup forgets the last caption so identical text is emitted again.
func (l *Loop) ResetDedup() {
	l.last = ""
}

// Tick performs one polling step.
func (l *Loop) Tick(now time.Time) {
	switch l.state {
	case model.StateSearching:
		ref, ok := l.locator.Find()
		if !ok {
			return
		}
		l.window = ref
		l.logger.Info("captions window located", "window", ref.String())
		l.setState(model.StateCapturing)
		if l.hooks.Located != nil {
			l.hooks.Located(ref)
		}
		l.capture(now)
	case model.StateCapturing:
		l.capture(now)
	}
}

func (l *Loop) capture(now time.Time) {
	text, err := l.extractor.Extract(l.window)
	if err != nil {
		if errors.Is(err, extract.ErrStaleWindow) {
			l.logger.Info("captions window went away", "window", l.window.String())
		} else {
			l.logger.Warn("caption extraction failed", "error", err)
		}
		l.window = 0
		l.setState(model.StateSearching)
		return
	}
	if text == "" || text == l.last {
		return
	}
	l.last = text
	if l.hooks.Caption != nil {
		l.hooks.Caption(model.CaptionEvent{SessionID: l.sessionID, Time: now, Text: text})
	}
}

func (l *Loop) setState(s model.CaptureState) {
	if l.state == s {
		return
	}
	l.state = s
	if l.hooks.State != nil {
		l.hooks.State(s)
	}
}

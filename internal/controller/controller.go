// Package controller owns the capture session: it launches the target when
// needed, drives the capture loop on a schedule, applies styling and fans
// captions and status changes out to subscribers.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/livecap/internal/capture"
	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/platform"
)

// DefaultLaunchGrace is the wait after a successful launch before polling.
const DefaultLaunchGrace = 2 * time.Second

// Supervisor manages the target process.
type Supervisor interface {
	IsTargetRunning() bool
	Launch(ctx context.Context) error
	Terminate()
}

// Display reports the usable screen area.
type Display interface {
	WorkArea() (platform.Rect, error)
}

// Styler applies position and opacity to the captions window.
type Styler interface {
	Apply(ref platform.WindowRef, pos model.Position, opacity model.Opacity, bounds platform.Rect)
}

// Sink receives controller output. Methods run outside the controller lock
// but must not call back into the controller synchronously.
type Sink interface {
	Caption(model.CaptionEvent)
	Status(model.Status)
}

// Funcs adapts plain functions to Sink. Nil fields are skipped.
type Funcs struct {
	OnCaption func(model.CaptionEvent)
	OnStatus  func(model.Status)
}

// Caption implements Sink.
func (f Funcs) Caption(ev model.CaptionEvent) {
	if f.OnCaption != nil {
		f.OnCaption(ev)
	}
}

// Status implements Sink.
func (f Funcs) Status(st model.Status) {
	if f.OnStatus != nil {
		f.OnStatus(st)
	}
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Supervisor Supervisor
	Locator    capture.Locator
	Extractor  capture.Extractor
	Display    Display
	Styler     Styler
	Scheduler  capture.Scheduler
}

type session struct {
	id     string
	cancel func()
}

type notice struct {
	caption *model.CaptionEvent
	status  *model.Status
}

// Controller coordinates one capture session at a time.
type Controller struct {
	deps   Deps
	logger *slog.Logger
	loop   *capture.Loop

	mu       sync.Mutex
	cfg      model.Config
	session  *session
	starting bool
	stopped  bool // Stop arrived while a launch was in flight
	closed   bool
	restyle  bool
	sinks    map[int]Sink
	nextSink int
	pending  []notice

	dispatchMu sync.Mutex
}

// New builds a Controller. Zero durations in cfg fall back to the defaults.
func New(deps Deps, cfg model.Config, logger *slog.Logger) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = capture.DefaultInterval
	}
	if cfg.LaunchGrace < 0 {
		cfg.LaunchGrace = 0
	}
	if cfg.Lang == "" {
		cfg.Lang = model.Languages()[0].Tag
	}
	if deps.Scheduler == nil {
		deps.Scheduler = capture.TickerScheduler{}
	}
	c := &Controller{
		deps:   deps,
		logger: logger.With("component", "controller"),
		cfg:    cfg,
		sinks:  make(map[int]Sink),
	}
	c.loop = capture.NewLoop(deps.Locator, deps.Extractor, capture.Hooks{
		Caption: c.onCaption,
		State:   c.onState,
		Located: c.onLocated,
	}, logger)
	return c
}

// Subscribe registers a sink and returns a function that removes it.
func (c *Controller) Subscribe(s Sink) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSink
	c.nextSink++
	c.sinks[id] = s
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.sinks, id)
		c.mu.Unlock()
	}
}

// Status returns the current snapshot.
func (c *Controller) Status() model.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Start begins a capture session. It is a no-op while a session is running.
// A launch failure is published as a Status with Err; capture still starts
// searching in case the window appears later. Only context cancellation
// during the launch wait is returned.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.session != nil || c.starting || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.starting = true
	c.stopped = false
	c.mu.Unlock()

	var delay time.Duration
	var launchErr error
	if !c.deps.Supervisor.IsTargetRunning() {
		if err := c.deps.Supervisor.Launch(ctx); err != nil {
			launchErr = err
			c.logger.Warn("failed to launch live captions", "error", err)
		} else {
			delay = c.cfg.LaunchGrace
		}
	}

	c.mu.Lock()
	c.starting = false
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}
	if c.closed || c.stopped {
		c.stopped = false
		c.mu.Unlock()
		c.logger.Info("capture start cancelled by stop")
		return nil
	}
	sess := &session{id: uuid.NewString()}
	c.session = sess
	c.loop.Begin(sess.id)
	if launchErr != nil {
		st := c.statusLocked()
		st.Err = launchErr
		c.pending = append(c.pending, notice{status: &st})
	}
	sess.cancel = c.deps.Scheduler.Schedule(delay, c.cfg.PollInterval, func(now time.Time) {
		c.tick(sess, now)
	})
	c.logger.Info("capture started", "session", sess.id, "lang", c.cfg.Lang, "delay", delay)
	c.mu.Unlock()
	c.flush()
	return nil
}

// Stop ends the running session. When confirm is non-nil and returns true the
// target process is terminated as well. A Stop during a pending Start cancels
// that Start. Stop is a no-op when idle.
func (c *Controller) Stop(confirm func() bool) {
	c.mu.Lock()
	sess := c.session
	switch {
	case sess != nil:
		c.endLocked(sess)
	case c.starting:
		c.stopped = true
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.flush()

	if confirm != nil && confirm() {
		c.deps.Supervisor.Terminate()
	}
}

// Close stops capture without terminating the target. Later Starts are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.session != nil {
		c.endLocked(c.session)
	}
	c.mu.Unlock()
	c.flush()
}

// SetPosition stores the placement; it is applied on the next tick while a
// window is known.
func (c *Controller) SetPosition(pos model.Position) {
	c.mu.Lock()
	c.cfg.Position = pos
	c.settingsChangedLocked()
	c.mu.Unlock()
	c.flush()
}

// SetOpacity validates and stores the opacity.
func (c *Controller) SetOpacity(opacity model.Opacity) error {
	if err := opacity.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.cfg.Opacity = opacity
	c.settingsChangedLocked()
	c.mu.Unlock()
	c.flush()
	return nil
}

// SetLanguage stores the caption language by tag or name. Running sessions
// keep the language they started with.
func (c *Controller) SetLanguage(value string) error {
	lang, ok := model.LookupLanguage(value)
	if !ok {
		return fmt.Errorf("unknown language %q", value)
	}
	c.mu.Lock()
	c.cfg.Lang = lang.Tag
	st := c.statusLocked()
	c.pending = append(c.pending, notice{status: &st})
	c.mu.Unlock()
	c.flush()
	return nil
}

// ClearHistory forgets the last caption so identical text is emitted again.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	c.loop.ResetDedup()
	c.mu.Unlock()
}

func (c *Controller) settingsChangedLocked() {
	if c.session != nil {
		c.restyle = true
	}
	st := c.statusLocked()
	c.pending = append(c.pending, notice{status: &st})
}

func (c *Controller) endLocked(sess *session) {
	sess.cancel()
	c.session = nil
	c.restyle = false
	c.loop.Halt(true)
	c.logger.Info("capture stopped", "session", sess.id)
}

func (c *Controller) tick(sess *session, now time.Time) {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return
	}
	c.loop.Tick(now)
	if c.restyle {
		if ref, ok := c.loop.Window(); ok {
			c.applyStyleLocked(ref)
		}
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) applyStyleLocked(ref platform.WindowRef) {
	bounds, err := c.deps.Display.WorkArea()
	if err != nil {
		c.logger.Warn("failed to read work area", "error", err)
		return
	}
	c.deps.Styler.Apply(ref, c.cfg.Position, c.cfg.Opacity, bounds)
	c.restyle = false
}

func (c *Controller) statusLocked() model.Status {
	st := model.Status{
		State:    c.loop.State(),
		Running:  c.session != nil,
		Language: c.cfg.Lang,
		Position: c.cfg.Position,
		Opacity:  c.cfg.Opacity,
	}
	if c.session != nil {
		st.SessionID = c.session.id
	}
	return st
}

// Loop hooks run with c.mu held.

func (c *Controller) onCaption(ev model.CaptionEvent) {
	c.pending = append(c.pending, notice{caption: &ev})
}

func (c *Controller) onState(model.CaptureState) {
	st := c.statusLocked()
	c.pending = append(c.pending, notice{status: &st})
}

func (c *Controller) onLocated(platform.WindowRef) {
	c.restyle = true
}

// flush delivers queued notices in order. dispatchMu is taken before the
// queue is drained so concurrent flushes cannot reorder deliveries.
func (c *Controller) flush() {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	sinks := make([]Sink, 0, len(c.sinks))
	for id := 0; id < c.nextSink; id++ {
		if s, ok := c.sinks[id]; ok {
			sinks = append(sinks, s)
		}
	}
	c.mu.Unlock()

	for _, n := range pending {
		for _, s := range sinks {
			switch {
			case n.caption != nil:
				s.Caption(*n.caption)
			case n.status != nil:
				s.Status(*n.status)
			}
		}
	}
}

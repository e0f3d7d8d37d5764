package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/livecap/internal/capture"
	"github.com/verte-zerg/livecap/internal/logging"
	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/platform"
	"github.com/verte-zerg/livecap/internal/supervisor"
)

type fakeSupervisor struct {
	running    bool
	launchErr  error
	launches   int
	terminates int
	entered    chan struct{} // closed when Launch begins
	release    chan struct{} // Launch waits on it when set
}

func (f *fakeSupervisor) IsTargetRunning() bool { return f.running }

func (f *fakeSupervisor) Launch(context.Context) error {
	f.launches++
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	if f.launchErr != nil {
		return f.launchErr
	}
	f.running = true
	return nil
}

func (f *fakeSupervisor) Terminate() {
	f.terminates++
	f.running = false
}

type fakeLocator struct {
	ref   platform.WindowRef
	found bool
	finds int
}

func (f *fakeLocator) Find() (platform.WindowRef, bool) {
	f.finds++
	return f.ref, f.found
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(platform.WindowRef) (string, error) { return f.text, f.err }

type fakeDisplay struct{}

func (fakeDisplay) WorkArea() (platform.Rect, error) {
	return platform.Rect{Width: 1920, Height: 1040}, nil
}

type styleCall struct {
	ref     platform.WindowRef
	pos     model.Position
	opacity model.Opacity
}

type fakeStyler struct {
	calls []styleCall
}

func (f *fakeStyler) Apply(ref platform.WindowRef, pos model.Position, opacity model.Opacity, _ platform.Rect) {
	f.calls = append(f.calls, styleCall{ref: ref, pos: pos, opacity: opacity})
}

type collector struct {
	mu       sync.Mutex
	captions []model.CaptionEvent
	statuses []model.Status
}

func (c *collector) Caption(ev model.CaptionEvent) {
	c.mu.Lock()
	c.captions = append(c.captions, ev)
	c.mu.Unlock()
}

func (c *collector) Status(st model.Status) {
	c.mu.Lock()
	c.statuses = append(c.statuses, st)
	c.mu.Unlock()
}

func (c *collector) texts() []string {
	out := make([]string, 0, len(c.captions))
	for _, ev := range c.captions {
		out = append(out, ev.Text)
	}
	return out
}

type harness struct {
	sup   *fakeSupervisor
	loc   *fakeLocator
	ext   *fakeExtractor
	style *fakeStyler
	sched *capture.ManualScheduler
	sink  *collector
	ctrl  *Controller
	clock time.Time
}

func newHarness(running bool) *harness {
	h := &harness{
		sup:   &fakeSupervisor{running: running},
		loc:   &fakeLocator{ref: 42},
		ext:   &fakeExtractor{},
		style: &fakeStyler{},
		sched: &capture.ManualScheduler{},
		sink:  &collector{},
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	h.ctrl = New(Deps{
		Supervisor: h.sup,
		Locator:    h.loc,
		Extractor:  h.ext,
		Display:    fakeDisplay{},
		Styler:     h.style,
		Scheduler:  h.sched,
	}, model.Config{Opacity: 80, Position: model.BottomRight, LaunchGrace: DefaultLaunchGrace}, logging.NewNop())
	h.ctrl.Subscribe(h.sink)
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.clock = h.clock.Add(capture.DefaultInterval)
		h.sched.Fire(h.clock)
	}
}

func TestStartLaunchesWhenTargetNotRunning(t *testing.T) {
	h := newHarness(false)
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.sup.launches != 1 {
		t.Fatalf("expected one launch, got %d", h.sup.launches)
	}
	if h.sched.LastDelay() != DefaultLaunchGrace {
		t.Fatalf("expected grace delay, got %s", h.sched.LastDelay())
	}
	st := h.ctrl.Status()
	if !st.Running || st.State != model.StateSearching {
		t.Fatalf("expected running and searching, got %+v", st)
	}

	h.tick(3)
	if len(h.sink.captions) != 0 {
		t.Fatalf("expected no captions before a window is located")
	}
}

func TestStartSkipsLaunchWhenRunning(t *testing.T) {
	h := newHarness(true)
	_ = h.ctrl.Start(context.Background())
	if h.sup.launches != 0 {
		t.Fatalf("expected no launch, got %d", h.sup.launches)
	}
	if h.sched.LastDelay() != 0 {
		t.Fatalf("expected immediate ticking, got %s", h.sched.LastDelay())
	}
}

func TestStartIsIdempotent(t *testing.T) {
	h := newHarness(false)
	_ = h.ctrl.Start(context.Background())
	first := h.ctrl.Status().SessionID
	_ = h.ctrl.Start(context.Background())

	if h.sup.launches != 1 {
		t.Fatalf("expected one launch, got %d", h.sup.launches)
	}
	if h.sched.Active() != 1 {
		t.Fatalf("expected one tick job, got %d", h.sched.Active())
	}
	if h.ctrl.Status().SessionID != first {
		t.Fatalf("expected session to be kept")
	}
}

func TestLaunchFailureIsPublishedAndSearchContinues(t *testing.T) {
	h := newHarness(false)
	h.sup.launchErr = supervisor.ErrLaunchTimeout
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("expected launch failure to be reported via status, got %v", err)
	}

	var sawErr bool
	for _, st := range h.sink.statuses {
		if errors.Is(st.Err, supervisor.ErrLaunchTimeout) {
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatalf("expected a status carrying the launch error")
	}
	if h.sched.LastDelay() != 0 {
		t.Fatalf("expected no grace delay after a failed launch")
	}

	h.loc.found = true
	h.ext.text = "Hello"
	h.tick(1)
	if got := h.sink.texts(); len(got) != 1 || got[0] != "Hello" {
		t.Fatalf("expected capture to proceed, got %v", got)
	}
}

func TestCaptionsAreDeduplicatedAndCarrySession(t *testing.T) {
	h := newHarness(true)
	h.loc.found = true
	h.ext.text = "Hello"
	_ = h.ctrl.Start(context.Background())

	h.tick(3)

	if len(h.sink.captions) != 1 {
		t.Fatalf("expected 1 caption, got %v", h.sink.texts())
	}
	if h.sink.captions[0].SessionID != h.ctrl.Status().SessionID {
		t.Fatalf("expected caption to carry the session id")
	}
}

func TestClearHistoryReemitsIdenticalText(t *testing.T) {
	h := newHarness(true)
	h.loc.found = true
	h.ext.text = "Hello"
	_ = h.ctrl.Start(context.Background())
	h.tick(2)

	h.ctrl.ClearHistory()
	h.tick(2)

	if len(h.sink.captions) != 2 {
		t.Fatalf("expected Hello twice, got %v", h.sink.texts())
	}
}

func TestStopThenStartResetsWindow(t *testing.T) {
	h := newHarness(true)
	h.loc.found = true
	h.ext.text = "Hello"
	_ = h.ctrl.Start(context.Background())
	h.tick(1)
	first := h.ctrl.Status().SessionID

	h.ctrl.Stop(nil)
	if st := h.ctrl.Status(); st.Running || st.State != model.StateIdle {
		t.Fatalf("expected idle after stop, got %+v", st)
	}
	if h.sched.Active() != 0 {
		t.Fatalf("expected ticking to be cancelled")
	}

	h.loc.found = false
	_ = h.ctrl.Start(context.Background())
	st := h.ctrl.Status()
	if st.State != model.StateSearching || st.SessionID == first {
		t.Fatalf("expected a fresh searching session, got %+v", st)
	}

	h.loc.found = true
	h.tick(1)
	if len(h.sink.captions) != 2 {
		t.Fatalf("expected Hello again in the new session, got %v", h.sink.texts())
	}
}

func TestStopDuringLaunchCancelsStart(t *testing.T) {
	h := newHarness(false)
	h.sup.entered = make(chan struct{})
	h.sup.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Start(context.Background()) }()
	<-h.sup.entered

	confirmed := false
	h.ctrl.Stop(func() bool { confirmed = true; return true })
	close(h.sup.release)
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}

	if !confirmed || h.sup.terminates != 1 {
		t.Fatalf("expected the stop to ask and terminate, confirmed=%v terminates=%d", confirmed, h.sup.terminates)
	}
	if st := h.ctrl.Status(); st.Running || st.State != model.StateIdle {
		t.Fatalf("expected capture to stay stopped, got %+v", st)
	}
	if h.sched.Active() != 0 {
		t.Fatalf("expected no tick jobs, got %d", h.sched.Active())
	}

	h.sup.entered, h.sup.release = nil, nil
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !h.ctrl.Status().Running {
		t.Fatalf("expected a later start to run")
	}
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	h := newHarness(true)
	asked := false
	h.ctrl.Stop(func() bool { asked = true; return true })
	if asked || h.sup.terminates != 0 {
		t.Fatalf("expected idle stop to do nothing")
	}
}

func TestStopTerminatesOnlyWhenConfirmed(t *testing.T) {
	h := newHarness(true)
	_ = h.ctrl.Start(context.Background())
	h.ctrl.Stop(func() bool { return false })
	if h.sup.terminates != 0 {
		t.Fatalf("expected no terminate when declined")
	}

	_ = h.ctrl.Start(context.Background())
	h.ctrl.Stop(func() bool { return true })
	if h.sup.terminates != 1 {
		t.Fatalf("expected terminate on confirm, got %d", h.sup.terminates)
	}
}

func TestStylingAppliedOnLocateAndOnChange(t *testing.T) {
	h := newHarness(true)
	h.loc.found = true
	_ = h.ctrl.Start(context.Background())
	h.tick(1)
	if len(h.style.calls) != 1 {
		t.Fatalf("expected styling once after locate, got %d", len(h.style.calls))
	}
	if c := h.style.calls[0]; c.ref != 42 || c.pos != model.BottomRight || c.opacity != 80 {
		t.Fatalf("unexpected styling %+v", c)
	}

	h.tick(2)
	if len(h.style.calls) != 1 {
		t.Fatalf("expected no restyle without changes")
	}

	h.ctrl.SetPosition(model.TopLeft)
	if err := h.ctrl.SetOpacity(50); err != nil {
		t.Fatalf("set opacity: %v", err)
	}
	if len(h.style.calls) != 1 {
		t.Fatalf("expected styling to wait for the tick")
	}
	h.tick(1)
	if len(h.style.calls) != 2 {
		t.Fatalf("expected one restyle, got %d", len(h.style.calls))
	}
	if c := h.style.calls[1]; c.pos != model.TopLeft || c.opacity != 50 {
		t.Fatalf("unexpected restyle %+v", c)
	}
}

func TestSetOpacityRejectsOutOfRange(t *testing.T) {
	h := newHarness(true)
	if err := h.ctrl.SetOpacity(101); !errors.Is(err, model.ErrInvalidOpacity) {
		t.Fatalf("expected ErrInvalidOpacity, got %v", err)
	}
	if h.ctrl.Status().Opacity != 80 {
		t.Fatalf("expected opacity to be unchanged")
	}
}

func TestSetLanguage(t *testing.T) {
	h := newHarness(true)
	if err := h.ctrl.SetLanguage("French"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if h.ctrl.Status().Language != "fr-FR" {
		t.Fatalf("expected fr-FR, got %s", h.ctrl.Status().Language)
	}
	if err := h.ctrl.SetLanguage("klingon"); err == nil {
		t.Fatalf("expected unknown language error")
	}
}

func TestCloseStopsWithoutTerminating(t *testing.T) {
	h := newHarness(true)
	_ = h.ctrl.Start(context.Background())
	h.ctrl.Close()
	if h.ctrl.Status().Running || h.sup.terminates != 0 {
		t.Fatalf("expected close to stop capture only")
	}
	_ = h.ctrl.Start(context.Background())
	if h.ctrl.Status().Running {
		t.Fatalf("expected start after close to be ignored")
	}
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(true)
	other := &collector{}
	unsubscribe := h.ctrl.Subscribe(other)
	unsubscribe()
	_ = h.ctrl.Start(context.Background())
	if len(other.statuses) != 0 {
		t.Fatalf("expected no notices after unsubscribe")
	}
	if len(h.sink.statuses) == 0 {
		t.Fatalf("expected remaining sink to be notified")
	}
}

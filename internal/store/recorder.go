package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/livecap/internal/model"
)

const (
	recorderQueue   = 256
	recorderTimeout = 5 * time.Second
)

type recordOp struct {
	name string
	run  func(ctx context.Context) error
}

// Recorder mirrors controller output into the store. Writes happen on a
// background goroutine so subscribers never wait on SQLite; when the queue
// is full the write is dropped and logged.
type Recorder struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time

	ops  chan recordOp
	done chan struct{}

	mu      sync.Mutex
	current string
	closed  bool
}

// NewRecorder starts a recorder writing to st.
func NewRecorder(st *Store, logger *slog.Logger) *Recorder {
	r := &Recorder{
		store:  st,
		logger: logger.With("component", "recorder"),
		now:    time.Now,
		ops:    make(chan recordOp, recorderQueue),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Caption stores a caption for the current session.
func (r *Recorder) Caption(ev model.CaptionEvent) {
	if ev.SessionID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueueLocked("insert caption", func(ctx context.Context) error {
		_, err := r.store.InsertCaption(ctx, ev)
		return err
	})
}

// Status opens a session row when a new session starts running and stamps
// its end when capture stops.
func (r *Recorder) Status(st model.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case st.Running && st.SessionID != "" && st.SessionID != r.current:
		if r.current != "" {
			r.endLocked()
		}
		id, lang, started := st.SessionID, st.Language, r.now()
		r.current = id
		r.enqueueLocked("start session", func(ctx context.Context) error {
			return r.store.StartSession(ctx, id, started, lang)
		})
	case !st.Running && r.current != "":
		r.endLocked()
	}
}

// Close ends any open session and waits for queued writes to finish.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.current != "" {
		r.endLocked()
	}
	r.closed = true
	close(r.ops)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) endLocked() {
	id, ended := r.current, r.now()
	r.current = ""
	r.enqueueLocked("end session", func(ctx context.Context) error {
		return r.store.EndSession(ctx, id, ended)
	})
}

func (r *Recorder) enqueueLocked(name string, run func(ctx context.Context) error) {
	if r.closed {
		return
	}
	select {
	case r.ops <- recordOp{name: name, run: run}:
	default:
		r.logger.Warn("transcript queue full, dropping write", "op", name)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
		if err := op.run(ctx); err != nil {
			r.logger.Warn("transcript write failed", "op", op.name, "error", err)
		}
		cancel()
	}
}

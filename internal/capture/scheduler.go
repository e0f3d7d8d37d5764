package capture

import (
	"runtime"
	"sync"
	"time"
)

// Scheduler runs tick after delay and then every interval until cancelled.
type Scheduler interface {
	Schedule(delay, interval time.Duration, tick func(now time.Time)) (cancel func())
}

// TickerScheduler ticks on a dedicated goroutine locked to its OS thread,
// so window handles and COM objects are only touched from one thread.
type TickerScheduler struct{}

// Schedule implements Scheduler. Cancel is idempotent and does not wait for
// an in-flight tick.
func (TickerScheduler) Schedule(delay, interval time.Duration, tick func(now time.Time)) func() {
	if interval <= 0 {
		interval = DefaultInterval
	}
	done := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-done:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		select {
		case <-done:
			return
		default:
			tick(time.Now())
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				tick(now)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// ManualScheduler fires ticks only when told to.
type ManualScheduler struct {
	mu   sync.Mutex
	jobs []*manualJob
}

type manualJob struct {
	delay     time.Duration
	interval  time.Duration
	tick      func(time.Time)
	cancelled bool
}

// Schedule implements Scheduler.
func (m *ManualScheduler) Schedule(delay, interval time.Duration, tick func(now time.Time)) func() {
	job := &manualJob{delay: delay, interval: interval, tick: tick}
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		job.cancelled = true
		m.mu.Unlock()
	}
}

// Fire runs one tick of every active job, synchronously.
func (m *ManualScheduler) Fire(now time.Time) {
	m.mu.Lock()
	var active []*manualJob
	for _, job := range m.jobs {
		if !job.cancelled {
			active = append(active, job)
		}
	}
	m.mu.Unlock()
	for _, job := range active {
		job.tick(now)
	}
}

// Active returns the number of jobs not yet cancelled.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, job := range m.jobs {
		if !job.cancelled {
			n++
		}
	}
	return n
}

// LastDelay returns the start delay of the most recent job.
func (m *ManualScheduler) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return 0
	}
	return m.jobs[len(m.jobs)-1].delay
}

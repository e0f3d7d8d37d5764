// Package supervisor launches, detects and terminates the Live Captions
// process. Every operation degrades to "nothing happened" on OS failure; the
// caller observes the outcome on its next poll instead of trusting a return.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/livecap/internal/platform"
	"github.com/verte-zerg/livecap/internal/textutil"
)

const (
	// DefaultProcessMatch is matched against process image names.
	DefaultProcessMatch = "LiveCaptions"
	// DefaultStartTimeout bounds the wait for a spawned process to appear.
	DefaultStartTimeout = 3 * time.Second

	defaultPollEvery = 100 * time.Millisecond
)

// DefaultPaths lists where LiveCaptions.exe is usually installed. Entries are
// environment-expanded and may contain glob patterns.
var DefaultPaths = []string{
	`C:\Windows\System32\LiveCaptions.exe`,
	`C:\Windows\SysWOW64\LiveCaptions.exe`,
	`${LOCALAPPDATA}\Microsoft\WindowsApps\LiveCaptions.exe`,
	`C:\Program Files\WindowsApps\Microsoft.Windows.LiveCaptions_*\LiveCaptions.exe`,
}

var (
	// ErrExecutableNotFound means no candidate path exists and no launch URI is set.
	ErrExecutableNotFound = errors.New("LiveCaptions.exe not found")
	// ErrLaunchTimeout means the process did not appear within the start timeout.
	ErrLaunchTimeout = errors.New("live captions process did not start in time")
)

// ProcessTable is the process capability the supervisor needs.
type ProcessTable interface {
	List() ([]platform.Process, error)
	Kill(pid int) error
	Spawn(path string) error
	Open(target string) error
}

// Options configures target matching and launching.
type Options struct {
	ProcessMatch string
	Paths        []string
	LaunchURI    string
	StartTimeout time.Duration
	PollEvery    time.Duration
}

// Supervisor manages the Live Captions process.
type Supervisor struct {
	procs  ProcessTable
	opts   Options
	logger *slog.Logger
	glob   func(pattern string) ([]string, error)
}

// New constructs a Supervisor. Zero options fall back to the defaults.
func New(procs ProcessTable, opts Options, logger *slog.Logger) *Supervisor {
	if opts.ProcessMatch == "" {
		opts.ProcessMatch = DefaultProcessMatch
	}
	if len(opts.Paths) == 0 {
		opts.Paths = DefaultPaths
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = defaultPollEvery
	}
	return &Supervisor{
		procs:  procs,
		opts:   opts,
		logger: logger.With("component", "supervisor"),
		glob:   filepath.Glob,
	}
}

// IsTargetRunning reports whether a matching process exists. Enumeration
// failure reads as not running.
func (s *Supervisor) IsTargetRunning() bool {
	return len(s.matching()) > 0
}

// ResolveExecutable returns the first candidate path that exists.
func (s *Supervisor) ResolveExecutable() (string, bool) {
	for _, candidate := range s.opts.Paths {
		pattern := os.ExpandEnv(candidate)
		matches, err := s.glob(pattern)
		if err != nil {
			s.logger.Debug("bad executable pattern", "pattern", pattern, "error", err)
			continue
		}
		if len(matches) > 0 {
			return matches[0], true
		}
	}
	return "", false
}

// Launch starts Live Captions and waits, bounded by the start timeout, for
// its process to show up. It never waits for the window.
func (s *Supervisor) Launch(ctx context.Context) error {
	if path, ok := s.ResolveExecutable(); ok {
		s.logger.Info("launching Live Captions", "path", path)
		if err := s.procs.Spawn(path); err != nil {
			return fmt.Errorf("spawn %s: %w", path, err)
		}
	} else if s.opts.LaunchURI != "" {
		s.logger.Info("opening Live Captions launch URI", "uri", s.opts.LaunchURI)
		if err := s.procs.Open(s.opts.LaunchURI); err != nil {
			return fmt.Errorf("open %s: %w", s.opts.LaunchURI, err)
		}
	} else {
		return ErrExecutableNotFound
	}
	return s.waitStarted(ctx)
}

func (s *Supervisor) waitStarted(ctx context.Context) error {
	if s.IsTargetRunning() {
		return nil
	}
	timer := time.NewTimer(s.opts.StartTimeout)
	defer timer.Stop()
	ticker := time.NewTicker(s.opts.PollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrLaunchTimeout
		case <-ticker.C:
			if s.IsTargetRunning() {
				return nil
			}
		}
	}
}

// Terminate force-kills every matching process. Nothing running is a no-op.
func (s *Supervisor) Terminate() {
	for _, p := range s.matching() {
		if err := s.procs.Kill(p.PID); err != nil {
			s.logger.Warn("failed to terminate Live Captions", "pid", p.PID, "error", err)
			continue
		}
		s.logger.Info("terminated Live Captions", "pid", p.PID)
	}
}

func (s *Supervisor) matching() []platform.Process {
	list, err := s.procs.List()
	if err != nil {
		s.logger.Debug("process enumeration failed", "error", err)
		return nil
	}
	var out []platform.Process
	for _, p := range list {
		if textutil.ContainsFold(p.Name, s.opts.ProcessMatch) {
			out = append(out, p)
		}
	}
	return out
}

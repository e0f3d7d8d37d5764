package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/verte-zerg/livecap/internal/capture"
	"github.com/verte-zerg/livecap/internal/config"
	"github.com/verte-zerg/livecap/internal/controller"
	"github.com/verte-zerg/livecap/internal/extract"
	"github.com/verte-zerg/livecap/internal/locator"
	"github.com/verte-zerg/livecap/internal/model"
	"github.com/verte-zerg/livecap/internal/platform"
	"github.com/verte-zerg/livecap/internal/styler"
	"github.com/verte-zerg/livecap/internal/supervisor"
)

// engine wires the platform capabilities into a controller.
type engine struct {
	ctrl    *controller.Controller
	sup     *supervisor.Supervisor
	locator *locator.Locator
	extract *extract.Extractor
	access  *platform.Accessibility
	logger  *slog.Logger
}

func newEngine(cfg settings, logger *slog.Logger) *engine {
	desktop := platform.NewDesktop()
	procs := platform.NewProcesses()

	if !platform.Supported() {
		logger.Warn("live captions capture is only supported on Windows; nothing will be captured")
	}

	titles := cfg.target.Titles
	if len(titles) == 0 {
		titles = locator.DefaultTitles
	}
	locOpts := locator.Options{Titles: titles, HostClasses: cfg.target.HostClasses}
	if cfg.target.TitleHint != nil {
		locOpts.TitleHint = *cfg.target.TitleHint
	}
	loc := locator.New(desktop, locOpts, logger)

	supOpts := supervisor.Options{Paths: cfg.target.Paths}
	if cfg.target.Process != nil {
		supOpts.ProcessMatch = *cfg.target.Process
	}
	if cfg.target.LaunchURI != nil {
		supOpts.LaunchURI = *cfg.target.LaunchURI
	}
	sup := supervisor.New(procs, supOpts, logger)
	if path, ok := sup.ResolveExecutable(); ok {
		logger.Debug("live captions executable", "path", path)
	} else if supOpts.LaunchURI == "" {
		logger.Warn("LiveCaptions.exe not found; start it manually or set [target] paths")
	}

	access, err := platform.OpenAccessibility()
	var reader extract.AccessibilityReader
	if err != nil {
		access = nil
		if !errors.Is(err, platform.ErrUnsupported) {
			logger.Warn("UI Automation unavailable, using raw window text only", "error", err)
		}
	} else {
		reader = access
	}
	ext := extract.New(desktop, reader, titles, logger)

	ctrl := controller.New(controller.Deps{
		Supervisor: sup,
		Locator:    loc,
		Extractor:  ext,
		Display:    desktop,
		Styler:     styler.New(desktop, logger),
		Scheduler:  capture.TickerScheduler{},
	}, cfg.capture, logger)

	return &engine{
		ctrl:    ctrl,
		sup:     sup,
		locator: loc,
		extract: ext,
		access:  access,
		logger:  logger,
	}
}

// Close stops capture and releases the accessibility service.
func (e *engine) Close() {
	e.ctrl.Close()
	if e.access != nil {
		if err := e.access.Close(); err != nil {
			e.logger.Warn("failed to close UI Automation", "error", err)
		}
	}
}

// liveSettings is the part of the controller a config reload may change.
type liveSettings interface {
	SetPosition(model.Position)
	SetOpacity(model.Opacity) error
}

// watchConfig feeds position and opacity edits from the config file to the
// running controller. Settings named in pinned came from flags and win.
func (e *engine) watchConfig(ctx context.Context, path string, pinned map[string]bool) {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		e.logger.Debug("config directory missing, live reload disabled", "path", path)
		return
	}
	err := config.Watch(ctx, path, e.logger, func(fc config.FileConfig) {
		applyReload(e.ctrl, fc, pinned, e.logger)
	})
	if err != nil {
		e.logger.Warn("config watch stopped", "error", err)
	}
}

func applyReload(target liveSettings, fc config.FileConfig, pinned map[string]bool, logger *slog.Logger) {
	if v := fc.Capture.Position; v != nil && !pinned["position"] {
		pos, err := model.ParsePosition(*v)
		if err != nil {
			logger.Warn("ignoring config position", "error", err)
		} else {
			target.SetPosition(pos)
		}
	}
	if v := fc.Capture.Opacity; v != nil && !pinned["opacity"] {
		if err := target.SetOpacity(model.Opacity(*v)); err != nil {
			logger.Warn("ignoring config opacity", "error", err)
		}
	}
}

// acquireInstanceLock prevents two livecap processes from driving the same
// captions window.
func acquireInstanceLock() (func(), error) {
	path := config.DefaultLockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another livecap instance is running (lock: %s)", path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logErrf("failed to release lock: %v\n", err)
		}
	}, nil
}
